package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/values"
	"github.com/confgate-dev/confgate/internal/engine"
)

func demoResult(t *testing.T) *engine.ScanResult {
	t.Helper()

	rep := report.NewReport("edge-rtr-1")
	rep.AddFindings(
		report.Finding{
			RuleID: "ssh-version-2", RuleTitle: "SSH protocol version 2",
			Severity: "high", Check: "payload", BlockID: engine.DocumentBlockID,
			Status: values.StatusPass, Message: "pattern matched",
			Lines: []int{3}, Matched: []string{"ip ssh version 2"},
		},
		report.Finding{
			RuleID: "vty-acl", RuleTitle: "VTY lines use an access-class",
			Severity: "critical", Check: "access-class", BlockID: "vty 0 4",
			Status: values.StatusFail, Message: "required line missing",
			Remediation: "apply access-class MGMT in", RuleIndex: 1,
			Lines: []int{12, 14},
		},
		report.Finding{
			RuleID: "ntp-auth", RuleTitle: "NTP authentication",
			Check: "condition", BlockID: "ntp", Status: values.StatusSkipped,
			Message: "condition not met", RuleIndex: 2,
		},
	)
	rep.Finalize()

	rep2 := report.NewReport("edge-rtr-2")
	rep2.AddFindings(report.Finding{
		RuleID: "ssh-version-2", RuleTitle: "SSH protocol version 2",
		Severity: "high", Check: "payload", BlockID: engine.DocumentBlockID,
		Status: values.StatusError, Message: "invalid pattern",
	})
	rep2.Finalize()

	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return &engine.ScanResult{
		ScanID:    values.NewScanID(),
		StartTime: start,
		EndTime:   start.Add(420 * time.Millisecond),
		Reports:   []*report.Report{rep, rep2},
	}
}

func TestNewFormatter(t *testing.T) {
	var buf bytes.Buffer
	for _, format := range SupportedFormats() {
		f, err := NewFormatter(format, &buf, Options{})
		require.NoError(t, err, format)
		assert.NotNil(t, f, format)
	}

	_, err := NewFormatter("csv", &buf, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format: csv")
}

func TestJSONFormatter(t *testing.T) {
	result := demoResult(t)

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf, true).Format(result))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, result.ScanID.String(), doc["scan_id"])
	assert.Equal(t, float64(420), doc["duration_ms"])

	reports, ok := doc["reports"].([]any)
	require.True(t, ok)
	require.Len(t, reports, 2)

	first := reports[0].(map[string]any)
	assert.Equal(t, "edge-rtr-1", first["device"])
	findings := first["findings"].([]any)
	require.Len(t, findings, 3)

	// ordering keys stay internal
	f0 := findings[0].(map[string]any)
	assert.NotContains(t, f0, "rule_index")
	assert.Equal(t, "ssh-version-2", f0["rule_id"])

	summary := doc["summary"].(map[string]any)
	assert.Equal(t, float64(4), summary["total"])
	assert.Equal(t, float64(1), summary["failed"])
}

func TestJSONFormatter_Compact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf, false).Format(demoResult(t)))

	out := buf.String()
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.True(t, json.Valid([]byte(out)))
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(&buf).Format(demoResult(t)))

	out := buf.String()
	assert.Contains(t, out, "scan_id:")
	assert.Contains(t, out, "device: edge-rtr-1")
	assert.Contains(t, out, "rule_id: ssh-version-2")
	assert.Contains(t, out, "status: fail")
}

func TestTableFormatter(t *testing.T) {
	result := demoResult(t)

	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(&buf).Format(result))

	out := buf.String()
	assert.Contains(t, out, "Scan: "+result.ScanID.String())
	assert.Contains(t, out, "Device: edge-rtr-1")
	assert.Contains(t, out, "✗ vty-acl [vty 0 4]")
	assert.Contains(t, out, "Remediation: apply access-class MGMT in")
	assert.Contains(t, out, "Lines: 12, 14")

	// pass and skipped findings are hidden unless verbose
	assert.NotContains(t, out, "✓ ssh-version-2")
	assert.NotContains(t, out, "ntp-auth")
}

func TestTableFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.Verbose = true
	require.NoError(t, f.Format(demoResult(t)))

	out := buf.String()
	assert.Contains(t, out, "✓ ssh-version-2 [document]")
	assert.Contains(t, out, "- ntp-auth [ntp]")
}

func TestTableFormatter_NoDevices(t *testing.T) {
	result := demoResult(t)
	result.Reports = nil

	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(&buf).Format(result))
	assert.Contains(t, buf.String(), "No devices scanned.")
}

func TestJUnitFormatter(t *testing.T) {
	result := demoResult(t)

	var buf bytes.Buffer
	require.NoError(t, NewJUnitFormatter(&buf).Format(result))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 2)

	first := suites.TestSuites[0]
	assert.Equal(t, "edge-rtr-1", first.Name)
	assert.Equal(t, 3, first.Tests)
	assert.Equal(t, 1, first.Skipped)
	require.Len(t, first.TestCases, 3)

	var failed *JUnitTestCase
	for i := range first.TestCases {
		if first.TestCases[i].Failure != nil {
			failed = &first.TestCases[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "required line missing", failed.Failure.Message)
	assert.Contains(t, failed.Failure.Content, "line 12")
	assert.Contains(t, failed.Failure.Content, "Remediation: apply access-class MGMT in")

	second := suites.TestSuites[1]
	require.Len(t, second.TestCases, 1)
	require.NotNil(t, second.TestCases[0].Error)
	assert.Equal(t, "invalid pattern", second.TestCases[0].Error.Message)
}

func TestSARIFFormatter(t *testing.T) {
	result := demoResult(t)

	var buf bytes.Buffer
	f := NewSARIFFormatter(&buf, map[string]string{"edge-rtr-1": "/configs/rtr1.cfg"}, "1.2.3")
	require.NoError(t, f.Format(result))

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name    string `json:"name"`
					Version string `json:"version"`
					Rules   []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID string `json:"ruleId"`
				Level  string `json:"level"`
				Kind   string `json:"kind"`
			} `json:"results"`
			Artifacts []any `json:"artifacts"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]

	assert.Equal(t, "confgate", run.Tool.Driver.Name)
	assert.Equal(t, "1.2.3", run.Tool.Driver.Version)

	ruleIDs := make([]string, len(run.Tool.Driver.Rules))
	for i, r := range run.Tool.Driver.Rules {
		ruleIDs[i] = r.ID
	}
	assert.ElementsMatch(t, []string{"ssh-version-2", "vty-acl", "ntp-auth"}, ruleIDs)

	require.Len(t, run.Results, 4)
	byRule := make(map[string][]string)
	for _, r := range run.Results {
		byRule[r.RuleID] = append(byRule[r.RuleID], r.Level+"/"+r.Kind)
	}
	assert.Contains(t, byRule["ssh-version-2"], "note/pass")
	assert.Contains(t, byRule["ssh-version-2"], "error/fail")
	assert.Equal(t, []string{"error/fail"}, byRule["vty-acl"])
	assert.Equal(t, []string{"none/notApplicable"}, byRule["ntp-auth"])

	assert.Len(t, run.Artifacts, 1)
}
