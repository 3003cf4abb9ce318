package report

import (
	"sort"
	"sync"
	"time"

	"github.com/confgate-dev/confgate/internal/domain/values"
)

// Report is the complete ordered set of findings for one document
// evaluation. Read-only once finalized.
type Report struct {
	Device    string        `json:"device" yaml:"device"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration_ms" yaml:"duration_ms"`
	Findings  []Finding     `json:"findings" yaml:"findings"`
	Summary   Summary       `json:"summary" yaml:"summary"`
	mu        sync.Mutex
}

// Summary provides per-status finding counts, derivable by any consumer
// without re-evaluating.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Warned  int `json:"warned" yaml:"warned"`
	Errored int `json:"errored" yaml:"errored"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Clean reports whether the evaluation produced no failures or errors.
func (s Summary) Clean() bool {
	return s.Failed == 0 && s.Errored == 0
}

// NewReport creates an empty report for one device's document.
func NewReport(device string) *Report {
	return &Report{
		Device:    device,
		StartTime: time.Now(),
	}
}

// AddFindings appends findings to the report.
// Thread-safe for concurrent calls during parallel evaluation; ordering is
// restored at finalize time from the findings' explicit index keys.
func (r *Report) AddFindings(findings ...Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Findings = append(r.Findings, findings...)
}

// Finalize completes the report: findings are sorted into deterministic
// order (rule, then per-block traversal order, then the rule's cross-block
// findings) and the summary is computed.
func (r *Report) Finalize() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.RuleIndex != b.RuleIndex {
			return a.RuleIndex < b.RuleIndex
		}
		if a.Aggregate != b.Aggregate {
			return !a.Aggregate
		}
		if a.BlockIndex != b.BlockIndex {
			return a.BlockIndex < b.BlockIndex
		}
		return a.CheckIndex < b.CheckIndex
	})

	r.Summary = Summary{Total: len(r.Findings)}
	for i := range r.Findings {
		switch r.Findings[i].Status {
		case values.StatusPass:
			r.Summary.Passed++
		case values.StatusFail:
			r.Summary.Failed++
		case values.StatusWarn:
			r.Summary.Warned++
		case values.StatusError:
			r.Summary.Errored++
		case values.StatusSkipped:
			r.Summary.Skipped++
		}
	}
}

// FindingsForRule returns the findings carrying the given rule ID, in
// report order. Finalize first.
func (r *Report) FindingsForRule(ruleID string) []Finding {
	var out []Finding
	for i := range r.Findings {
		if r.Findings[i].RuleID == ruleID {
			out = append(out, r.Findings[i])
		}
	}
	return out
}
