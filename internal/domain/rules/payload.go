package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CheckMode enumerates how a check's pattern(s) must relate to a block's body.
type CheckMode string

const (
	// ModeMustExist passes iff at least one body line matches the pattern
	ModeMustExist CheckMode = "must_exist"
	// ModeMustNotExist passes iff no body line matches the pattern
	ModeMustNotExist CheckMode = "must_not_exist"
	// ModeAllMustExist passes iff every pattern in the group matches at least one line
	ModeAllMustExist CheckMode = "all_must_exist"
	// ModeAnyMustExist passes iff at least one pattern in the group matches
	ModeAnyMustExist CheckMode = "any_must_exist"
	// ModeExactlyOne treats the group as mutually exclusive alternatives:
	// exactly one pattern must match, counted per distinct pattern
	ModeExactlyOne CheckMode = "exactly_one"
)

// CheckKind identifies which variant of the CheckSpec union is populated.
type CheckKind int

const (
	// KindInvalid marks a spec with none or several variants populated
	KindInvalid CheckKind = iota
	// KindSinglePattern is one pattern with a must_exist/must_not_exist mode
	KindSinglePattern
	// KindGroup is a set of patterns evaluated together
	KindGroup
	// KindNestedBlock recursively extracts child blocks and applies checks to them
	KindNestedBlock
)

// BlockDef describes how to carve block instances out of configuration text.
// Start is required. When End is empty the block closes at the first line
// whose indentation is at or below the start line's. When End is set the
// block closes at the first matching line regardless of indentation,
// exclusive of that line unless EndInclusive is set.
type BlockDef struct {
	Start        string       `json:"start"`
	End          string       `json:"end,omitempty"`
	EndInclusive bool         `json:"end_inclusive,omitempty"`
	Filter       *BlockFilter `json:"filter,omitempty"`
}

// BlockFilter narrows which start-line matches actually open a block.
type BlockFilter struct {
	Include string `json:"include,omitempty"`
	Exclude string `json:"exclude,omitempty"`
}

// Condition gates whether a check applies to a given block. If no body line
// matches IfMatch the check is reported as skipped, not as a violation.
type Condition struct {
	IfMatch string `json:"if_match"`
}

// NestedBlockSpec extracts child blocks from the enclosing block's body and
// applies its checks to each child.
type NestedBlockSpec struct {
	Start        string       `json:"start"`
	End          string       `json:"end,omitempty"`
	EndInclusive bool         `json:"end_inclusive,omitempty"`
	Filter       *BlockFilter `json:"filter,omitempty"`
	Checks       []CheckSpec  `json:"checks"`
}

// BlockDef converts the nested spec's extraction fields into a BlockDef.
func (n *NestedBlockSpec) BlockDef() BlockDef {
	return BlockDef{
		Start:        n.Start,
		End:          n.End,
		EndInclusive: n.EndInclusive,
		Filter:       n.Filter,
	}
}

// CheckSpec is a closed tagged union: exactly one of Pattern, Group, or
// NestedBlock must be populated. Which one decides the Kind.
type CheckSpec struct {
	// Single pattern variant
	Pattern string `json:"pattern,omitempty"`
	Comment string `json:"comment,omitempty"`

	// Group variant
	Group []string `json:"group,omitempty"`
	Name  string   `json:"name,omitempty"`

	// Shared between pattern and group variants
	Mode      CheckMode  `json:"mode,omitempty"`
	Condition *Condition `json:"condition,omitempty"`

	// Nested block variant
	NestedBlock *NestedBlockSpec `json:"nested_block,omitempty"`
}

// Kind reports which variant this spec is, or KindInvalid if the document
// populated none or more than one.
func (c *CheckSpec) Kind() CheckKind {
	variants := 0
	kind := KindInvalid
	if c.Pattern != "" {
		variants++
		kind = KindSinglePattern
	}
	if len(c.Group) > 0 {
		variants++
		kind = KindGroup
	}
	if c.NestedBlock != nil {
		variants++
		kind = KindNestedBlock
	}
	if variants != 1 {
		return KindInvalid
	}
	return kind
}

// Label returns the human-readable name for this check used in findings:
// the author's comment or group name when present, the pattern otherwise.
func (c *CheckSpec) Label() string {
	switch {
	case c.Comment != "":
		return c.Comment
	case c.Name != "":
		return c.Name
	case c.Pattern != "":
		return c.Pattern
	case len(c.Group) > 0:
		return fmt.Sprintf("group of %d patterns", len(c.Group))
	case c.NestedBlock != nil:
		return fmt.Sprintf("nested block %q", c.NestedBlock.Start)
	default:
		return "check"
	}
}

// Validate enforces the union shape and mode membership per kind.
// Regex syntax is deliberately not validated here: a malformed pattern is a
// per-check evaluation error, not a load failure.
func (c *CheckSpec) Validate() error {
	switch c.Kind() {
	case KindSinglePattern:
		switch c.Mode {
		case "", ModeMustExist, ModeMustNotExist:
		default:
			return fmt.Errorf("mode %q is not valid for a pattern check", c.Mode)
		}
	case KindGroup:
		switch c.Mode {
		case "", ModeAllMustExist, ModeAnyMustExist, ModeExactlyOne:
		default:
			return fmt.Errorf("mode %q is not valid for a group check", c.Mode)
		}
	case KindNestedBlock:
		if c.Mode != "" || c.Condition != nil {
			return fmt.Errorf("nested_block checks do not take mode or condition")
		}
		if c.NestedBlock.Start == "" {
			return fmt.Errorf("nested_block.start is required")
		}
		if len(c.NestedBlock.Checks) == 0 {
			return fmt.Errorf("nested_block.checks must not be empty")
		}
		for i := range c.NestedBlock.Checks {
			if err := c.NestedBlock.Checks[i].Validate(); err != nil {
				return fmt.Errorf("nested check %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("check must have exactly one of pattern, group, or nested_block")
	}
	if c.Condition != nil && c.Condition.IfMatch == "" {
		return fmt.Errorf("condition.if_match must not be empty")
	}
	return nil
}

// EffectiveMode resolves the default mode for the variant.
func (c *CheckSpec) EffectiveMode() CheckMode {
	if c.Mode != "" {
		return c.Mode
	}
	if c.Kind() == KindGroup {
		return ModeAllMustExist
	}
	return ModeMustExist
}

// CrossBlockSpec holds aggregate rules evaluated once per block definition
// across all its sibling block instances. Each pattern must contain exactly
// one capture group; the captured value is what gets compared.
type CrossBlockSpec struct {
	Unique  []string `json:"unique,omitempty"`
	AllSame []string `json:"all_same,omitempty"`
}

// AdvancedBlockPayload is the payload for the advanced_block_check logic type.
type AdvancedBlockPayload struct {
	Block          BlockDef        `json:"block"`
	Checks         []CheckSpec     `json:"checks"`
	CrossBlock     *CrossBlockSpec `json:"cross_block,omitempty"`
	FailOnNoBlocks bool            `json:"fail_on_no_blocks,omitempty"`
}

// Validate enforces the payload's structural invariants at load time.
func (p *AdvancedBlockPayload) Validate() error {
	if p.Block.Start == "" {
		return fmt.Errorf("block.start pattern is required")
	}
	if len(p.Checks) == 0 && p.CrossBlock == nil {
		return fmt.Errorf("at least one check or a cross_block section is required")
	}
	for i := range p.Checks {
		if err := p.Checks[i].Validate(); err != nil {
			return fmt.Errorf("check %d: %w", i, err)
		}
	}
	return nil
}

// SimpleMatchPayload is the payload for the simple_match logic type: one
// pattern checked against the whole document.
type SimpleMatchPayload struct {
	Pattern         string    `json:"pattern"`
	MatchMode       CheckMode `json:"match_mode,omitempty"`
	IsRegex         bool      `json:"is_regex,omitempty"`
	CaseInsensitive bool      `json:"case_insensitive,omitempty"`
}

// Validate enforces required fields and mode membership.
func (p *SimpleMatchPayload) Validate() error {
	if p.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	switch p.MatchMode {
	case "", "must_exist", "must_not_exist":
		return nil
	default:
		return fmt.Errorf("match_mode must be must_exist or must_not_exist, got %q", p.MatchMode)
	}
}

// Logic values combining a block_match rule's child results.
const (
	BlockLogicAll = "ALL"
	BlockLogicAny = "ANY"
)

// ChildRule is one flat per-block check inside a block_match payload.
type ChildRule struct {
	Pattern string    `json:"pattern"`
	Mode    CheckMode `json:"mode,omitempty"`
}

// BlockMatchPayload is the payload for the block_match logic type: a flat
// list of child rules applied to every block a parent pattern opens.
type BlockMatchPayload struct {
	ParentBlockStart string      `json:"parent_block_start"`
	ParentBlockEnd   string      `json:"parent_block_end,omitempty"`
	ExcludeFilter    string      `json:"exclude_filter,omitempty"`
	ChildRules       []ChildRule `json:"child_rules"`
	Logic            string      `json:"logic,omitempty"`
}

// Validate enforces required fields and the ALL/ANY logic enum.
func (p *BlockMatchPayload) Validate() error {
	if p.ParentBlockStart == "" {
		return fmt.Errorf("parent_block_start is required")
	}
	if len(p.ChildRules) == 0 {
		return fmt.Errorf("child_rules must not be empty")
	}
	for i, cr := range p.ChildRules {
		if cr.Pattern == "" {
			return fmt.Errorf("child_rules[%d].pattern is required", i)
		}
		switch cr.Mode {
		case "", "must_exist", "must_not_exist":
		default:
			return fmt.Errorf("child_rules[%d].mode must be must_exist or must_not_exist", i)
		}
	}
	switch p.Logic {
	case "", "ALL", "ANY":
		return nil
	default:
		return fmt.Errorf("logic must be ALL or ANY, got %q", p.Logic)
	}
}

// Version comparison operators.
const (
	VersionOpEQ      = "eq"
	VersionOpNE      = "ne"
	VersionOpGT      = "gt"
	VersionOpLT      = "lt"
	VersionOpGE      = "ge"
	VersionOpLE      = "le"
	VersionOpInRange = "in_range"
)

// VersionCheckPayload is the payload for the version_check logic type:
// extract a version string via a capture group and compare it.
type VersionCheckPayload struct {
	Pattern      string `json:"pattern"`
	VersionGroup int    `json:"version_group,omitempty"`
	Operator     string `json:"operator,omitempty"`
	Value        string `json:"value,omitempty"`
	MinVersion   string `json:"min_version,omitempty"`
	MaxVersion   string `json:"max_version,omitempty"`
}

// Validate enforces required fields and the operator enum.
func (p *VersionCheckPayload) Validate() error {
	if p.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	switch op := p.EffectiveOperator(); op {
	case VersionOpEQ, VersionOpNE, VersionOpGT, VersionOpLT, VersionOpGE, VersionOpLE:
		if p.Value == "" {
			return fmt.Errorf("value is required for operator %s", op)
		}
	case VersionOpInRange:
		if p.MinVersion == "" || p.MaxVersion == "" {
			return fmt.Errorf("min_version and max_version are required for in_range")
		}
	default:
		return fmt.Errorf("invalid operator %q", p.Operator)
	}
	return nil
}

// EffectiveOperator returns the comparison operator, defaulting to ge.
func (p *VersionCheckPayload) EffectiveOperator() string {
	if p.Operator == "" {
		return VersionOpGE
	}
	return p.Operator
}

// decodeStrict unmarshals raw JSON into v, rejecting unknown fields so
// rule-document typos fail at load time rather than silently no-op.
func decodeStrict(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// ParseAdvancedBlock strictly decodes and validates an advanced_block payload.
func ParseAdvancedBlock(raw json.RawMessage) (*AdvancedBlockPayload, error) {
	var p AdvancedBlockPayload
	if err := decodeStrict(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid advanced_block payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid advanced_block payload: %w", err)
	}
	return &p, nil
}

// ParseSimpleMatch strictly decodes and validates a simple_match payload.
func ParseSimpleMatch(raw json.RawMessage) (*SimpleMatchPayload, error) {
	var p SimpleMatchPayload
	if err := decodeStrict(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid simple_match payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simple_match payload: %w", err)
	}
	return &p, nil
}

// ParseBlockMatch strictly decodes and validates a block_match payload.
func ParseBlockMatch(raw json.RawMessage) (*BlockMatchPayload, error) {
	var p BlockMatchPayload
	if err := decodeStrict(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid block_match payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid block_match payload: %w", err)
	}
	return &p, nil
}

// ParseVersionCheck strictly decodes and validates a version_check payload.
func ParseVersionCheck(raw json.RawMessage) (*VersionCheckPayload, error) {
	var p VersionCheckPayload
	if err := decodeStrict(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid version_check payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid version_check payload: %w", err)
	}
	return &p, nil
}

// ValidatePayload parses the rule's payload with the strict decoder of its
// logic type, so unknown fields and modes are rejected when the document is
// loaded rather than mid-scan. Unknown logic types pass through unchecked:
// the engine reports those per rule at evaluation time.
func (r *Rule) ValidatePayload() error {
	var err error
	switch r.LogicType {
	case "advanced_block_check", "advanced_block", "nested_block_check":
		_, err = ParseAdvancedBlock(r.Payload)
	case "simple_match", "regex_match":
		_, err = ParseSimpleMatch(r.Payload)
	case "block_match", "block_context_match":
		_, err = ParseBlockMatch(r.Payload)
	case "version_check":
		_, err = ParseVersionCheck(r.Payload)
	}
	return err
}
