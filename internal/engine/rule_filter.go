package engine

import (
	"fmt"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/confgate-dev/confgate/internal/domain/rules"
)

// RuleEnv is the expression environment a --filter program is evaluated
// against, one rule at a time.
type RuleEnv struct {
	ID       string   `expr:"id"`
	Title    string   `expr:"title"`
	Severity string   `expr:"severity"`
	Tags     []string `expr:"tags"`
}

// CompileFilter compiles a boolean rule-selection expression, e.g.
// `severity in ["high", "critical"] && "ssh" in tags`.
func CompileFilter(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.Env(RuleEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return program, nil
}

// RuleFilter selects which rules of a set are evaluated. All criteria are
// conjunctive; empty criteria match everything.
type RuleFilter struct {
	IncludeIDs []string
	ExcludeIDs []string
	Tags       []string
	Severities []string
	Program    *vm.Program
}

// Match reports whether the rule passes every configured criterion.
// Disabled rules never match.
func (f *RuleFilter) Match(rule *rules.Rule) (bool, error) {
	if rule.Disabled {
		return false, nil
	}
	if slices.Contains(f.ExcludeIDs, rule.ID) {
		return false, nil
	}
	if len(f.IncludeIDs) > 0 && !slices.Contains(f.IncludeIDs, rule.ID) {
		return false, nil
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, rule.HasTag) {
		return false, nil
	}
	if len(f.Severities) > 0 && !slices.Contains(f.Severities, rule.Severity) {
		return false, nil
	}
	if f.Program != nil {
		env := RuleEnv{
			ID:       rule.ID,
			Title:    rule.Title,
			Severity: rule.Severity,
			Tags:     rule.Tags,
		}
		out, err := expr.Run(f.Program, env)
		if err != nil {
			return false, fmt.Errorf("filter expression failed for rule %s: %w", rule.ID, err)
		}
		keep, ok := out.(bool)
		if !ok {
			return false, fmt.Errorf("filter expression returned %T for rule %s, want bool", out, rule.ID)
		}
		if !keep {
			return false, nil
		}
	}
	return true, nil
}
