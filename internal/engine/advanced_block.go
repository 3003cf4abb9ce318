package engine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

// AdvancedBlockChecker evaluates hierarchical block rules: it extracts block
// instances from the document, applies nested and conditional checks to each
// block independently, and then runs aggregate cross-block validation once
// every sibling block has been evaluated.
//
// Evaluation is a two-phase pipeline. Phase one runs per block on a bounded
// worker group; blocks share no state, so findings are collected into
// per-block slots and reordered deterministically at assembly time. Phase
// two (cross-block) starts only after the group's wait acts as a barrier.
type AdvancedBlockChecker struct {
	maxConcurrentBlocks int
}

// NewAdvancedBlockChecker creates the checker with a per-rule block
// concurrency limit. A limit below one serializes block evaluation.
func NewAdvancedBlockChecker(maxConcurrentBlocks int) *AdvancedBlockChecker {
	if maxConcurrentBlocks < 1 {
		maxConcurrentBlocks = 1
	}
	return &AdvancedBlockChecker{maxConcurrentBlocks: maxConcurrentBlocks}
}

// LogicType returns the canonical logic_type name.
func (c *AdvancedBlockChecker) LogicType() string {
	return "advanced_block_check"
}

// Check evaluates an advanced_block rule against the document.
func (c *AdvancedBlockChecker) Check(ctx context.Context, doc *confparse.Document, req Request) []report.Finding {
	payload, err := rules.ParseAdvancedBlock(req.Rule.Payload)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "payload", err.Error())}
	}

	def, err := c.compileDefinition(payload.Block, req.Patterns)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "block.start",
			fmt.Sprintf("invalid block pattern: %v", err))}
	}

	blocks := confparse.Extract(doc.Lines, def)
	if len(blocks) == 0 {
		if payload.FailOnNoBlocks {
			f := newFinding(req, values.StatusFail, DocumentBlockID, "block.start",
				fmt.Sprintf("no blocks matching %q found", payload.Block.Start))
			return []report.Finding{f}
		}
		return []report.Finding{newFinding(req, values.StatusPass, DocumentBlockID, "block.start",
			"no blocks to check")}
	}

	// Phase 1: evaluate each block independently. Each worker writes only
	// its own slot, so no locking is needed; Wait is the barrier before
	// cross-block validation may begin.
	perBlock := make([][]report.Finding, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrentBlocks)

	for i := range blocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perBlock[i] = c.evaluateBlock(req, &blocks[i], i, blocks[i].Identity, payload.Checks)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// A cancelled document contributes no findings rather than a
		// partial, inconsistent set.
		return nil
	}

	var findings []report.Finding
	for i := range blocks {
		if blocks[i].EndUnmatched {
			f := newFinding(req, values.StatusWarn, blocks[i].Identity, "block.end",
				fmt.Sprintf("end pattern %q never matched; block closed at end of document", payload.Block.End))
			f.BlockIndex = i
			f.CheckIndex = -1
			f.Lines = []int{blocks[i].StartLine}
			findings = append(findings, f)
		}
		findings = append(findings, perBlock[i]...)
	}

	// Phase 2: aggregate rules across all sibling blocks.
	if payload.CrossBlock != nil {
		findings = append(findings, c.validateCrossBlock(req, blocks, payload.CrossBlock)...)
	}

	return findings
}

// compileDefinition compiles a block definition's patterns into an
// extraction definition.
func (c *AdvancedBlockChecker) compileDefinition(def rules.BlockDef, cache *confparse.PatternCache) (confparse.Definition, error) {
	out := confparse.Definition{EndInclusive: def.EndInclusive}

	var err error
	if out.Start, err = cache.Compile(def.Start); err != nil {
		return confparse.Definition{}, fmt.Errorf("start: %w", err)
	}
	if def.End != "" {
		if out.End, err = cache.Compile(def.End); err != nil {
			return confparse.Definition{}, fmt.Errorf("end: %w", err)
		}
	}
	if def.Filter != nil {
		if def.Filter.Include != "" {
			if out.Include, err = cache.Compile(def.Filter.Include); err != nil {
				return confparse.Definition{}, fmt.Errorf("filter.include: %w", err)
			}
		}
		if def.Filter.Exclude != "" {
			if out.Exclude, err = cache.Compile(def.Filter.Exclude); err != nil {
				return confparse.Definition{}, fmt.Errorf("filter.exclude: %w", err)
			}
		}
	}
	return out, nil
}

// evaluateBlock runs the ordered check list against one block's body.
// blockID carries the nesting path for child blocks ("Gi0/1 > service-policy").
// A malformed check yields one error finding and evaluation continues with
// the next check.
func (c *AdvancedBlockChecker) evaluateBlock(req Request, block *confparse.Block, blockIndex int, blockID string, checks []rules.CheckSpec) []report.Finding {
	var findings []report.Finding

	add := func(f report.Finding) {
		f.BlockIndex = blockIndex
		findings = append(findings, f)
	}

	for ci := range checks {
		check := &checks[ci]

		if check.Condition != nil {
			gate, err := req.Patterns.Compile(check.Condition.IfMatch)
			if err != nil {
				f := newFinding(req, values.StatusError, blockID, check.Label(),
					fmt.Sprintf("invalid condition pattern: %v", err))
				f.CheckIndex = ci
				add(f)
				continue
			}
			if len(block.MatchingLines(gate)) == 0 {
				f := newFinding(req, values.StatusSkipped, blockID, check.Label(),
					fmt.Sprintf("condition %q not met", check.Condition.IfMatch))
				f.CheckIndex = ci
				add(f)
				continue
			}
		}

		switch check.Kind() {
		case rules.KindSinglePattern:
			f := c.evalPattern(req, block, blockID, check)
			f.CheckIndex = ci
			add(f)

		case rules.KindGroup:
			f := c.evalGroup(req, block, blockID, check)
			f.CheckIndex = ci
			add(f)

		case rules.KindNestedBlock:
			for _, f := range c.evalNested(req, block, blockID, check) {
				f.CheckIndex = ci
				add(f)
			}

		default:
			f := newFinding(req, values.StatusError, blockID, check.Label(),
				"check must have exactly one of pattern, group, or nested_block")
			f.CheckIndex = ci
			add(f)
		}
	}

	return findings
}

// evalPattern evaluates a single-pattern check with must_exist or
// must_not_exist mode.
func (c *AdvancedBlockChecker) evalPattern(req Request, block *confparse.Block, blockID string, check *rules.CheckSpec) report.Finding {
	re, err := req.Patterns.Compile(check.Pattern)
	if err != nil {
		return newFinding(req, values.StatusError, blockID, check.Label(),
			fmt.Sprintf("invalid pattern: %v", err))
	}

	matched := block.MatchingLines(re)

	switch check.EffectiveMode() {
	case rules.ModeMustNotExist:
		if len(matched) == 0 {
			return newFinding(req, values.StatusPass, blockID, check.Label(),
				fmt.Sprintf("pattern %q not present", check.Pattern))
		}
		f := newFinding(req, values.StatusFail, blockID, check.Label(),
			fmt.Sprintf("forbidden line present: %q", check.Pattern))
		attachLines(&f, matched)
		return f

	default: // must_exist
		if len(matched) > 0 {
			f := newFinding(req, values.StatusPass, blockID, check.Label(),
				fmt.Sprintf("pattern %q present", check.Pattern))
			attachLines(&f, matched)
			return f
		}
		return newFinding(req, values.StatusFail, blockID, check.Label(),
			fmt.Sprintf("required line missing: %q", check.Pattern))
	}
}

// evalGroup evaluates a group check. exactly_one counts distinct matching
// patterns, not matching lines: two lines satisfying the same alternative
// still count as one.
func (c *AdvancedBlockChecker) evalGroup(req Request, block *confparse.Block, blockID string, check *rules.CheckSpec) report.Finding {
	var matchedPatterns []string
	var missingPatterns []string
	var matchedLines []confparse.Line

	for _, pattern := range check.Group {
		re, err := req.Patterns.Compile(pattern)
		if err != nil {
			return newFinding(req, values.StatusError, blockID, check.Label(),
				fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
		lines := block.MatchingLines(re)
		if len(lines) > 0 {
			matchedPatterns = append(matchedPatterns, pattern)
			matchedLines = append(matchedLines, lines...)
		} else {
			missingPatterns = append(missingPatterns, pattern)
		}
	}

	switch check.EffectiveMode() {
	case rules.ModeAnyMustExist:
		if len(matchedPatterns) > 0 {
			f := newFinding(req, values.StatusPass, blockID, check.Label(),
				fmt.Sprintf("%d of %d alternatives present", len(matchedPatterns), len(check.Group)))
			attachLines(&f, matchedLines)
			return f
		}
		return newFinding(req, values.StatusFail, blockID, check.Label(),
			fmt.Sprintf("none of %d alternatives present", len(check.Group)))

	case rules.ModeExactlyOne:
		switch len(matchedPatterns) {
		case 1:
			f := newFinding(req, values.StatusPass, blockID, check.Label(),
				fmt.Sprintf("exactly one alternative present: %q", matchedPatterns[0]))
			attachLines(&f, matchedLines)
			return f
		case 0:
			return newFinding(req, values.StatusFail, blockID, check.Label(),
				fmt.Sprintf("none matched: expected exactly one of %d alternatives", len(check.Group)))
		default:
			f := newFinding(req, values.StatusFail, blockID, check.Label(),
				fmt.Sprintf("multiple matched: %s", strings.Join(quoteAll(matchedPatterns), ", ")))
			attachLines(&f, matchedLines)
			return f
		}

	default: // all_must_exist
		if len(missingPatterns) == 0 {
			f := newFinding(req, values.StatusPass, blockID, check.Label(),
				fmt.Sprintf("all %d required lines present", len(check.Group)))
			attachLines(&f, matchedLines)
			return f
		}
		return newFinding(req, values.StatusFail, blockID, check.Label(),
			fmt.Sprintf("missing %d of %d required lines: %s",
				len(missingPatterns), len(check.Group), strings.Join(quoteAll(missingPatterns), ", ")))
	}
}

// evalNested extracts child blocks from the enclosing block's body and
// recursively evaluates the nested checks against each child. Finding zero
// children is not itself an error; rule authors require presence with an
// ordinary must_exist check when policy demands it.
func (c *AdvancedBlockChecker) evalNested(req Request, block *confparse.Block, blockID string, check *rules.CheckSpec) []report.Finding {
	def, err := c.compileDefinition(check.NestedBlock.BlockDef(), req.Patterns)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, blockID, check.Label(),
			fmt.Sprintf("invalid nested block pattern: %v", err))}
	}

	children := confparse.Extract(block.Body, def)

	var findings []report.Finding
	for i := range children {
		childID := blockID + " > " + children[i].Identity
		findings = append(findings,
			c.evaluateBlock(req, &children[i], 0, childID, check.NestedBlock.Checks)...)
	}
	return findings
}

// attachLines records the supporting line numbers and matched text.
func attachLines(f *report.Finding, lines []confparse.Line) {
	for _, l := range lines {
		f.Lines = append(f.Lines, l.Number)
		f.Matched = append(f.Matched, strings.TrimSpace(l.Text))
	}
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
