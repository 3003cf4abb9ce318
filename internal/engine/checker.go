// Package engine evaluates compliance rules against configuration documents
// and assembles the results into reports. Checkers are stateless strategies
// keyed by a rule's logic_type; the engine coordinates rule filtering,
// per-document evaluation, and parallel multi-device scans.
package engine

import (
	"context"
	"sort"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

// DocumentBlockID is the block identity used by findings that concern the
// whole document rather than one extracted block.
const DocumentBlockID = "document"

// Request carries one rule into a checker along with evaluation context.
type Request struct {
	Rule      rules.Rule
	RuleIndex int
	Patterns  *confparse.PatternCache
}

// Checker evaluates one rule's payload against a configuration document.
// Implementations are stateless and safe for concurrent use.
type Checker interface {
	// LogicType returns the canonical logic_type this checker serves.
	LogicType() string
	// Check evaluates the rule and returns its findings. Checkers never
	// return an error: a malformed rule surfaces as an error-status finding
	// so sibling rules continue unaffected.
	Check(ctx context.Context, doc *confparse.Document, req Request) []report.Finding
}

// Registry maps logic_type strings (including aliases) to checkers.
type Registry struct {
	checkers map[string]Checker
}

// NewRegistry builds a registry with all built-in checkers registered under
// their canonical names and historical aliases.
func NewRegistry(maxConcurrentBlocks int) *Registry {
	r := &Registry{checkers: make(map[string]Checker)}

	r.Register(NewAdvancedBlockChecker(maxConcurrentBlocks),
		"advanced_block_check", "advanced_block", "nested_block_check")
	r.Register(&SimpleMatchChecker{}, "simple_match", "regex_match")
	r.Register(&BlockMatchChecker{}, "block_match", "block_context_match")
	r.Register(&VersionChecker{}, "version_check")

	return r
}

// Register binds a checker to one or more logic_type names.
func (r *Registry) Register(c Checker, logicTypes ...string) {
	for _, lt := range logicTypes {
		r.checkers[lt] = c
	}
}

// Resolve returns the checker for a logic_type.
func (r *Registry) Resolve(logicType string) (Checker, error) {
	c, ok := r.checkers[logicType]
	if !ok {
		return nil, &rules.UnknownLogicTypeError{LogicType: logicType}
	}
	return c, nil
}

// LogicTypes returns the sorted list of registered names, aliases included.
func (r *Registry) LogicTypes() []string {
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newFinding builds a finding pre-filled with the rule's metadata.
// Remediation is only attached to failures, where it is actionable.
func newFinding(req Request, status values.Status, blockID, check, message string) report.Finding {
	f := report.Finding{
		RuleID:    req.Rule.ID,
		RuleTitle: req.Rule.Title,
		Severity:  req.Rule.Severity,
		Check:     check,
		BlockID:   blockID,
		Status:    status,
		Message:   message,
		RuleIndex: req.RuleIndex,
	}
	if status == values.StatusFail {
		f.Remediation = req.Rule.Remediation
	}
	return f
}
