// Package rules contains the domain model for compliance rule documents.
// A rule pairs descriptive metadata with a logic_type and an opaque payload
// that the matching checker decodes. These are pure domain types with no
// infrastructure dependencies.
package rules

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/confgate-dev/confgate/internal/domain/values"
)

// ruleIDPattern restricts rule IDs to alphanumerics with dashes and underscores.
var ruleIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Rule represents a single declarative compliance rule document.
//
// The payload is kept raw here; each checker decodes it strictly into its
// own payload type. This keeps the rule aggregate closed: unknown logic
// types and malformed payloads are rejected before evaluation starts.
type Rule struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Remediation string          `json:"remediation,omitempty"`
	Severity    string          `json:"severity,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	LogicType   string          `json:"logic_type"`
	Payload     json.RawMessage `json:"payload"`
	Disabled    bool            `json:"disabled,omitempty"`
}

// Validate checks the rule's required fields and metadata invariants.
// Payload structure is validated separately by the owning checker.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if !ruleIDPattern.MatchString(r.ID) {
		return fmt.Errorf("rule ID %q is invalid (must be alphanumeric with dashes/underscores)", r.ID)
	}
	if r.Title == "" {
		return fmt.Errorf("rule %s: title is required", r.ID)
	}
	if r.LogicType == "" {
		return fmt.Errorf("rule %s: logic_type is required", r.ID)
	}
	if len(r.Payload) == 0 {
		return fmt.Errorf("rule %s: payload is required", r.ID)
	}
	if _, err := values.NewSeverity(r.Severity); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return nil
}

// HasTag returns true if the rule carries the given tag.
func (r *Rule) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RuleSet is an ordered collection of rules with unique IDs.
// Order is preserved so reports list findings in rule-document order.
type RuleSet struct {
	Items []Rule
}

// NewRuleSet builds a RuleSet, enforcing per-rule validity and ID uniqueness.
func NewRuleSet(items []Rule) (*RuleSet, error) {
	seen := make(map[string]bool, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if seen[items[i].ID] {
			return nil, fmt.Errorf("duplicate rule ID: %s", items[i].ID)
		}
		seen[items[i].ID] = true
	}
	return &RuleSet{Items: items}, nil
}

// Active returns the rules that are not disabled, in document order.
func (s *RuleSet) Active() []Rule {
	active := make([]Rule, 0, len(s.Items))
	for _, r := range s.Items {
		if !r.Disabled {
			active = append(active, r)
		}
	}
	return active
}

// Get retrieves a rule by ID, or nil if absent.
func (s *RuleSet) Get(id string) *Rule {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	return nil
}

// Len returns the number of rules including disabled ones.
func (s *RuleSet) Len() int {
	return len(s.Items)
}
