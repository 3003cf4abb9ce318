package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

func runSimpleMatch(t *testing.T, configText, payload string) []report.Finding {
	t.Helper()
	checker := &SimpleMatchChecker{}
	doc := confparse.NewDocument("d", configText)
	req := Request{
		Rule: rules.Rule{
			ID: "sm", Title: "Simple", LogicType: "simple_match",
			Payload: json.RawMessage(payload),
		},
		Patterns: confparse.NewPatternCache(),
	}
	return checker.Check(context.Background(), doc, req)
}

const globalConfig = "hostname edge\nservice password-encryption\nip http server\n"

func TestSimpleMatch_MustExist(t *testing.T) {
	findings := runSimpleMatch(t, globalConfig, `{"pattern": "service password-encryption"}`)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusPass, findings[0].Status)
	assert.Equal(t, DocumentBlockID, findings[0].BlockID)
	assert.Equal(t, []int{2}, findings[0].Lines)
}

func TestSimpleMatch_MustNotExist(t *testing.T) {
	findings := runSimpleMatch(t, globalConfig, `{"pattern": "ip http server", "match_mode": "must_not_exist"}`)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusFail, findings[0].Status)
	assert.Contains(t, findings[0].Message, "forbidden")
}

func TestSimpleMatch_LiteralPatternQuoted(t *testing.T) {
	// without is_regex, metacharacters are literal
	findings := runSimpleMatch(t, "banner motd ^C unauthorized access (prohibited) ^C\n",
		`{"pattern": "(prohibited)"}`)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusPass, findings[0].Status)

	findings = runSimpleMatch(t, "no parens here\n", `{"pattern": "(prohibited)"}`)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusFail, findings[0].Status)
}

func TestSimpleMatch_CaseInsensitive(t *testing.T) {
	findings := runSimpleMatch(t, "NTP SERVER 10.0.0.1\n",
		`{"pattern": "ntp server", "case_insensitive": true}`)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusPass, findings[0].Status)
}

func TestSimpleMatch_RegexMode(t *testing.T) {
	findings := runSimpleMatch(t, globalConfig,
		`{"pattern": "^hostname \\S+$", "is_regex": true}`)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusPass, findings[0].Status)
}

func TestSimpleMatch_InvalidRegex(t *testing.T) {
	findings := runSimpleMatch(t, globalConfig, `{"pattern": "[unclosed", "is_regex": true}`)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusError, findings[0].Status)
}

func TestSimpleMatch_MalformedPayload(t *testing.T) {
	findings := runSimpleMatch(t, globalConfig, `{"pattern": "x", "mode": "must_exist"}`)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusError, findings[0].Status)
	assert.Contains(t, findings[0].Message, "unknown field")
}
