package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

const switchConfig = `hostname access-sw1
interface GigabitEthernet0/1
 description uplink
 switchport mode trunk
 no ip proxy-arp
interface GigabitEthernet0/2
 switchport mode access
 switchport access vlan 10
interface Loopback0
 ip address 192.168.0.1 255.255.255.255
`

func advancedRequest(t *testing.T, payload string) Request {
	t.Helper()
	rule := rules.Rule{
		ID:          "test-rule",
		Title:       "Test rule",
		Severity:    "high",
		Remediation: "fix the interface",
		LogicType:   "advanced_block_check",
		Payload:     json.RawMessage(payload),
	}
	require.NoError(t, rule.Validate())
	return Request{Rule: rule, Patterns: confparse.NewPatternCache()}
}

func runAdvanced(t *testing.T, configText, payload string) []report.Finding {
	t.Helper()
	checker := NewAdvancedBlockChecker(4)
	doc := confparse.NewDocument("sw1", configText)
	findings := checker.Check(context.Background(), doc, advancedRequest(t, payload))

	// restore deterministic order the way Report.Finalize does
	rep := report.NewReport(doc.Name)
	rep.AddFindings(findings...)
	rep.Finalize()
	return rep.Findings
}

func findingsByStatus(findings []report.Finding, status values.Status) []report.Finding {
	var out []report.Finding
	for _, f := range findings {
		if f.Status == status {
			out = append(out, f)
		}
	}
	return out
}

func TestAdvancedBlock_MustExist(t *testing.T) {
	findings := runAdvanced(t, switchConfig, `{
		"block": {"start": "^interface (Gigabit\\S+)"},
		"checks": [{"pattern": "no ip proxy-arp", "mode": "must_exist"}]
	}`)

	require.Len(t, findings, 2)

	assert.Equal(t, "GigabitEthernet0/1", findings[0].BlockID)
	assert.Equal(t, values.StatusPass, findings[0].Status)
	assert.Equal(t, []int{5}, findings[0].Lines)

	assert.Equal(t, "GigabitEthernet0/2", findings[1].BlockID)
	assert.Equal(t, values.StatusFail, findings[1].Status)
	assert.Contains(t, findings[1].Message, "required line missing")
	assert.Equal(t, "fix the interface", findings[1].Remediation)
}

func TestAdvancedBlock_MustNotExistComplementarity(t *testing.T) {
	// must_exist and must_not_exist on the same pattern give opposite
	// statuses per block
	exist := runAdvanced(t, switchConfig, `{
		"block": {"start": "^interface (Gigabit\\S+)"},
		"checks": [{"pattern": "switchport mode trunk", "mode": "must_exist"}]
	}`)
	notExist := runAdvanced(t, switchConfig, `{
		"block": {"start": "^interface (Gigabit\\S+)"},
		"checks": [{"pattern": "switchport mode trunk", "mode": "must_not_exist"}]
	}`)

	require.Len(t, exist, 2)
	require.Len(t, notExist, 2)
	for i := range exist {
		assert.Equal(t, exist[i].BlockID, notExist[i].BlockID)
		assert.NotEqual(t, exist[i].Status, notExist[i].Status)
	}
}

func TestAdvancedBlock_AllMustExist(t *testing.T) {
	findings := runAdvanced(t, switchConfig, `{
		"block": {"start": "^interface (GigabitEthernet0/2)"},
		"checks": [{
			"group": ["switchport mode access", "switchport access vlan", "spanning-tree portfast"],
			"mode": "all_must_exist",
			"name": "access port baseline"
		}]
	}`)

	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusFail, findings[0].Status)
	assert.Equal(t, "access port baseline", findings[0].Check)
	assert.Contains(t, findings[0].Message, "missing 1 of 3")
	assert.Contains(t, findings[0].Message, "spanning-tree portfast")
}

func TestAdvancedBlock_AnyMustExist(t *testing.T) {
	findings := runAdvanced(t, switchConfig, `{
		"block": {"start": "^interface (GigabitEthernet0/1)"},
		"checks": [{
			"group": ["switchport mode trunk", "spanning-tree portfast"],
			"mode": "any_must_exist"
		}]
	}`)

	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusPass, findings[0].Status)
}

func TestAdvancedBlock_ExactlyOne(t *testing.T) {
	tests := []struct {
		name       string
		configText string
		wantStatus values.Status
		wantMsg    string
	}{
		{
			name:       "exactly one alternative",
			configText: "interface Gi0/1\n switchport mode access\n",
			wantStatus: values.StatusPass,
		},
		{
			name:       "none matched",
			configText: "interface Gi0/1\n description bare\n",
			wantStatus: values.StatusFail,
			wantMsg:    "none matched",
		},
		{
			name:       "multiple matched",
			configText: "interface Gi0/1\n switchport mode access\n switchport mode trunk\n",
			wantStatus: values.StatusFail,
			wantMsg:    "multiple matched",
		},
		{
			name: "duplicate lines of one alternative count once",
			configText: "interface Gi0/1\n switchport mode access\n switchport mode access\n",
			wantStatus: values.StatusPass,
		},
	}

	payload := `{
		"block": {"start": "^interface (\\S+)"},
		"checks": [{
			"group": ["switchport mode access", "switchport mode trunk"],
			"mode": "exactly_one"
		}]
	}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := runAdvanced(t, tt.configText, payload)
			require.Len(t, findings, 1)
			assert.Equal(t, tt.wantStatus, findings[0].Status)
			if tt.wantMsg != "" {
				assert.Contains(t, findings[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestAdvancedBlock_ExactlyOneOrderIndependent(t *testing.T) {
	// the verdict depends only on which alternatives match, never on the
	// order they are listed in
	permutations := [][]string{
		{"switchport mode access", "switchport mode trunk", "switchport mode dynamic"},
		{"switchport mode trunk", "switchport mode dynamic", "switchport mode access"},
		{"switchport mode dynamic", "switchport mode access", "switchport mode trunk"},
	}
	configs := []struct {
		name       string
		configText string
	}{
		{"one matches", "interface Gi0/1\n switchport mode access\n"},
		{"none match", "interface Gi0/1\n description bare\n"},
		{"multiple match", "interface Gi0/1\n switchport mode access\n switchport mode trunk\n"},
	}

	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			var statuses []values.Status
			for _, group := range permutations {
				groupJSON, err := json.Marshal(group)
				require.NoError(t, err)
				payload := fmt.Sprintf(`{
					"block": {"start": "^interface (\\S+)"},
					"checks": [{"group": %s, "mode": "exactly_one"}]
				}`, groupJSON)

				findings := runAdvanced(t, tc.configText, payload)
				require.Len(t, findings, 1)
				statuses = append(statuses, findings[0].Status)
			}
			assert.Equal(t, statuses[0], statuses[1])
			assert.Equal(t, statuses[0], statuses[2])
		})
	}
}

func TestAdvancedBlock_AllMustExistMonotonic(t *testing.T) {
	// removing a body line never turns a fail into a pass: dropping a
	// required line flips the verdict to fail, dropping an unrelated line
	// leaves the pass intact
	payload := `{
		"block": {"start": "^interface (\\S+)"},
		"checks": [{
			"group": ["switchport mode access", "switchport access vlan", "spanning-tree portfast"],
			"mode": "all_must_exist"
		}]
	}`

	lines := []string{
		"interface Gi0/1",
		" description access port",
		" switchport mode access",
		" switchport access vlan 10",
		" spanning-tree portfast",
	}

	findings := runAdvanced(t, strings.Join(lines, "\n")+"\n", payload)
	require.Len(t, findings, 1)
	require.Equal(t, values.StatusPass, findings[0].Status)

	for drop := 1; drop < len(lines); drop++ {
		reduced := make([]string, 0, len(lines)-1)
		for i, l := range lines {
			if i != drop {
				reduced = append(reduced, l)
			}
		}

		findings := runAdvanced(t, strings.Join(reduced, "\n")+"\n", payload)
		require.Len(t, findings, 1)

		want := values.StatusFail
		if strings.Contains(lines[drop], "description") {
			want = values.StatusPass
		}
		assert.Equal(t, want, findings[0].Status, "dropped %q", lines[drop])
	}
}

func TestAdvancedBlock_ConditionGating(t *testing.T) {
	findings := runAdvanced(t, switchConfig, `{
		"block": {"start": "^interface (Gigabit\\S+)"},
		"checks": [{
			"pattern": "switchport trunk allowed vlan",
			"mode": "must_exist",
			"condition": {"if_match": "switchport mode trunk"}
		}]
	}`)

	require.Len(t, findings, 2)

	// Gi0/1 is a trunk: the check applies and fails
	assert.Equal(t, values.StatusFail, findings[0].Status)

	// Gi0/2 is not a trunk: the check is skipped, not failed
	assert.Equal(t, values.StatusSkipped, findings[1].Status)
	assert.Contains(t, findings[1].Message, "condition")
}

func TestAdvancedBlock_NestedBlocks(t *testing.T) {
	policyConfig := `policy-map WAN-OUT
 class VOICE
  priority percent 30
 class DATA
  bandwidth percent 40
policy-map LAN-OUT
 class VOICE
  set dscp ef
`
	findings := runAdvanced(t, policyConfig, `{
		"block": {"start": "^policy-map (\\S+)"},
		"checks": [{
			"nested_block": {
				"start": "^\\s+class (\\S+)",
				"checks": [{"pattern": "priority|bandwidth", "mode": "must_exist"}]
			}
		}]
	}`)

	require.Len(t, findings, 3)
	assert.Equal(t, "WAN-OUT > VOICE", findings[0].BlockID)
	assert.Equal(t, values.StatusPass, findings[0].Status)
	assert.Equal(t, "WAN-OUT > DATA", findings[1].BlockID)
	assert.Equal(t, values.StatusPass, findings[1].Status)
	assert.Equal(t, "LAN-OUT > VOICE", findings[2].BlockID)
	assert.Equal(t, values.StatusFail, findings[2].Status)
}

func TestAdvancedBlock_NestedNoChildren(t *testing.T) {
	// A parent with no matching children emits nothing for the nested
	// check; presence requirements take a separate must_exist check.
	findings := runAdvanced(t, "policy-map EMPTY\n description placeholder\n", `{
		"block": {"start": "^policy-map (\\S+)"},
		"checks": [{
			"nested_block": {
				"start": "^\\s+class (\\S+)",
				"checks": [{"pattern": "priority"}]
			}
		}]
	}`)

	assert.Empty(t, findings)
}

func TestAdvancedBlock_NoBlocks(t *testing.T) {
	payload := `{
		"block": {"start": "^router bgp (\\d+)"},
		"checks": [{"pattern": "neighbor"}]
	}`

	findings := runAdvanced(t, switchConfig, payload)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusPass, findings[0].Status)
	assert.Equal(t, DocumentBlockID, findings[0].BlockID)
	assert.Contains(t, findings[0].Message, "no blocks")

	strict := runAdvanced(t, switchConfig, `{
		"block": {"start": "^router bgp (\\d+)"},
		"checks": [{"pattern": "neighbor"}],
		"fail_on_no_blocks": true
	}`)
	require.Len(t, strict, 1)
	assert.Equal(t, values.StatusFail, strict[0].Status)
}

func TestAdvancedBlock_EndPatternNeverMatchesWarns(t *testing.T) {
	findings := runAdvanced(t, "router bgp 65000\n neighbor 10.0.0.2 remote-as 65001\n", `{
		"block": {"start": "^router bgp (\\d+)", "end": "^!$"},
		"checks": [{"pattern": "neighbor"}]
	}`)

	warns := findingsByStatus(findings, values.StatusWarn)
	require.Len(t, warns, 1)
	assert.Equal(t, "block.end", warns[0].Check)
	assert.Contains(t, warns[0].Message, "never matched")

	// the block still evaluated: the neighbor check passed
	passes := findingsByStatus(findings, values.StatusPass)
	require.Len(t, passes, 1)
}

func TestAdvancedBlock_InvalidBlockPattern(t *testing.T) {
	findings := runAdvanced(t, switchConfig, `{
		"block": {"start": "[unclosed"},
		"checks": [{"pattern": "x"}]
	}`)

	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusError, findings[0].Status)
	assert.Equal(t, DocumentBlockID, findings[0].BlockID)
}

func TestAdvancedBlock_InvalidCheckPatternIsolated(t *testing.T) {
	// one bad check yields one error finding; the sibling check still runs
	findings := runAdvanced(t, switchConfig, `{
		"block": {"start": "^interface (GigabitEthernet0/1)"},
		"checks": [
			{"pattern": "[unclosed"},
			{"pattern": "no ip proxy-arp"}
		]
	}`)

	require.Len(t, findings, 2)
	assert.Equal(t, values.StatusError, findings[0].Status)
	assert.Equal(t, values.StatusPass, findings[1].Status)
}

func TestAdvancedBlock_MalformedPayload(t *testing.T) {
	checker := NewAdvancedBlockChecker(1)
	doc := confparse.NewDocument("d", switchConfig)
	req := Request{
		Rule: rules.Rule{
			ID: "bad", Title: "Bad", LogicType: "advanced_block_check",
			Payload: json.RawMessage(`{"checks": [{"pattern": "x"}]}`),
		},
		Patterns: confparse.NewPatternCache(),
	}

	findings := checker.Check(context.Background(), doc, req)
	require.Len(t, findings, 1)
	assert.Equal(t, values.StatusError, findings[0].Status)
}

func TestAdvancedBlock_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewAdvancedBlockChecker(2)
	doc := confparse.NewDocument("d", switchConfig)
	findings := checker.Check(ctx, doc, advancedRequest(t, `{
		"block": {"start": "^interface (\\S+)"},
		"checks": [{"pattern": "x"}]
	}`))

	assert.Empty(t, findings, "cancelled evaluation contributes no partial findings")
}

func TestAdvancedBlock_DeterministicAcrossRuns(t *testing.T) {
	payload := `{
		"block": {"start": "^interface (\\S+)"},
		"checks": [
			{"pattern": "no ip proxy-arp"},
			{"pattern": "shutdown", "mode": "must_not_exist"}
		],
		"cross_block": {"unique": ["ip address (\\S+)"]}
	}`

	first := runAdvanced(t, switchConfig, payload)
	for i := 0; i < 10; i++ {
		again := runAdvanced(t, switchConfig, payload)
		require.Equal(t, first, again)
	}
}
