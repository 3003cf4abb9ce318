package engine

import (
	"context"
	"fmt"
	"regexp"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

// BlockMatchChecker is the flat predecessor of the advanced block checker:
// it extracts parent blocks and applies a list of child pattern rules to
// each, combined with ALL or ANY logic. Kept for rule sets that predate
// advanced_block_check and for simple per-block policies that need no
// grouping, conditions, or nesting.
type BlockMatchChecker struct{}

func (c *BlockMatchChecker) LogicType() string { return "block_match" }

func (c *BlockMatchChecker) Check(ctx context.Context, doc *confparse.Document, req Request) []report.Finding {
	payload, err := rules.ParseBlockMatch(req.Rule.Payload)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "payload", err.Error())}
	}

	def := confparse.Definition{}
	if def.Start, err = req.Patterns.Compile(payload.ParentBlockStart); err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "parent_block_start",
			fmt.Sprintf("invalid pattern: %v", err))}
	}
	if payload.ParentBlockEnd != "" {
		if def.End, err = req.Patterns.Compile(payload.ParentBlockEnd); err != nil {
			return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "parent_block_end",
				fmt.Sprintf("invalid pattern: %v", err))}
		}
	}

	var exclude *regexp.Regexp
	if payload.ExcludeFilter != "" {
		if exclude, err = req.Patterns.Compile(payload.ExcludeFilter); err != nil {
			return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "exclude_filter",
				fmt.Sprintf("invalid pattern: %v", err))}
		}
	}

	blocks := confparse.Extract(doc.Lines, def)
	if len(blocks) == 0 {
		return []report.Finding{newFinding(req, values.StatusPass, DocumentBlockID, "parent_block_start",
			"no blocks to check")}
	}

	var findings []report.Finding
	for bi := range blocks {
		if ctx.Err() != nil {
			return nil
		}
		block := &blocks[bi]

		// exclude_filter disqualifies a block when the header or any
		// body line matches it.
		if exclude != nil && (exclude.MatchString(block.HeaderText) || len(block.MatchingLines(exclude)) > 0) {
			continue
		}

		if payload.Logic == rules.BlockLogicAny {
			findings = append(findings, c.evalAny(req, block, bi, payload.ChildRules))
			continue
		}
		findings = append(findings, c.evalAll(req, block, bi, payload.ChildRules)...)
	}
	return findings
}

// evalAll produces one finding per child rule.
func (c *BlockMatchChecker) evalAll(req Request, block *confparse.Block, blockIndex int, children []rules.ChildRule) []report.Finding {
	findings := make([]report.Finding, 0, len(children))
	for ci, child := range children {
		f := c.evalChild(req, block, child)
		f.BlockIndex = blockIndex
		f.CheckIndex = ci
		findings = append(findings, f)
	}
	return findings
}

// evalAny produces a single finding per block: pass if any child rule is
// satisfied.
func (c *BlockMatchChecker) evalAny(req Request, block *confparse.Block, blockIndex int, children []rules.ChildRule) report.Finding {
	for _, child := range children {
		f := c.evalChild(req, block, child)
		if f.Status == values.StatusError {
			f.BlockIndex = blockIndex
			return f
		}
		if f.Status == values.StatusPass {
			out := newFinding(req, values.StatusPass, block.Identity, "child_rules",
				fmt.Sprintf("satisfied by %q", child.Pattern))
			out.BlockIndex = blockIndex
			out.Lines = f.Lines
			out.Matched = f.Matched
			return out
		}
	}
	out := newFinding(req, values.StatusFail, block.Identity, "child_rules",
		fmt.Sprintf("none of %d child rules satisfied", len(children)))
	out.BlockIndex = blockIndex
	return out
}

func (c *BlockMatchChecker) evalChild(req Request, block *confparse.Block, child rules.ChildRule) report.Finding {
	re, err := req.Patterns.Compile(child.Pattern)
	if err != nil {
		return newFinding(req, values.StatusError, block.Identity, child.Pattern,
			fmt.Sprintf("invalid pattern: %v", err))
	}

	matched := block.MatchingLines(re)
	if child.Mode == rules.ModeMustNotExist {
		if len(matched) == 0 {
			return newFinding(req, values.StatusPass, block.Identity, child.Pattern,
				fmt.Sprintf("pattern %q not present", child.Pattern))
		}
		f := newFinding(req, values.StatusFail, block.Identity, child.Pattern,
			fmt.Sprintf("forbidden line present: %q", child.Pattern))
		attachLines(&f, matched)
		return f
	}

	if len(matched) > 0 {
		f := newFinding(req, values.StatusPass, block.Identity, child.Pattern,
			fmt.Sprintf("pattern %q present", child.Pattern))
		attachLines(&f, matched)
		return f
	}
	return newFinding(req, values.StatusFail, block.Identity, child.Pattern,
		fmt.Sprintf("required line missing: %q", child.Pattern))
}
