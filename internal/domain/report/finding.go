// Package report provides the domain model for evaluation output: ordered
// findings plus a derived summary. A report is a complete evaluation trace;
// passing findings are retained alongside failures so consumers never need
// to re-evaluate.
package report

import (
	"github.com/confgate-dev/confgate/internal/domain/values"
)

// AggregateBlockID is the block identity used for cross-block findings,
// which compare values across sibling blocks rather than within one.
const AggregateBlockID = "aggregate"

// Finding is one reported outcome for a check or cross-block rule.
type Finding struct {
	RuleID      string        `json:"rule_id" yaml:"rule_id"`
	RuleTitle   string        `json:"rule_title" yaml:"rule_title"`
	Severity    string        `json:"severity,omitempty" yaml:"severity,omitempty"`
	Check       string        `json:"check" yaml:"check"`
	BlockID     string        `json:"block" yaml:"block"`
	Status      values.Status `json:"status" yaml:"status"`
	Message     string        `json:"message,omitempty" yaml:"message,omitempty"`
	Remediation string        `json:"remediation,omitempty" yaml:"remediation,omitempty"`
	Lines       []int         `json:"lines,omitempty" yaml:"lines,omitempty"`
	Matched     []string      `json:"matched,omitempty" yaml:"matched,omitempty"`

	// Ordering keys for deterministic assembly after parallel evaluation.
	// Per-block findings sort before the rule's cross-block findings.
	RuleIndex  int  `json:"-" yaml:"-"`
	BlockIndex int  `json:"-" yaml:"-"`
	CheckIndex int  `json:"-" yaml:"-"`
	Aggregate  bool `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
}

// IsFailure reports whether this finding represents a fail or error outcome.
func (f *Finding) IsFailure() bool {
	return f.Status.IsFailure()
}
