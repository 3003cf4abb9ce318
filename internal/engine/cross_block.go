package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

// blockValue is one value captured from one block for aggregate validation.
type blockValue struct {
	blockIndex int
	blockID    string
	value      string
	line       int
}

// validateCrossBlock runs aggregate validation across all extracted blocks.
// It is called only after every per-block evaluation has completed.
func (c *AdvancedBlockChecker) validateCrossBlock(req Request, blocks []confparse.Block, spec *rules.CrossBlockSpec) []report.Finding {
	var findings []report.Finding
	for _, pattern := range spec.Unique {
		findings = append(findings, c.validateAggregate(req, blocks, pattern, "cross_block.unique", c.checkUnique)...)
	}
	for _, pattern := range spec.AllSame {
		findings = append(findings, c.validateAggregate(req, blocks, pattern, "cross_block.all_same", c.checkAllSame)...)
	}
	return findings
}

// validateAggregate collects the captured value from each block and hands
// the collection to the aggregate check. Blocks where the value pattern
// never matches are reported as skipped and excluded from the aggregate.
func (c *AdvancedBlockChecker) validateAggregate(req Request, blocks []confparse.Block, pattern, check string,
	verdict func(req Request, check string, vals []blockValue) []report.Finding) []report.Finding {

	re, err := req.Patterns.Compile(pattern)
	if err != nil {
		f := newFinding(req, values.StatusError, report.AggregateBlockID, check,
			fmt.Sprintf("invalid pattern: %v", err))
		f.Aggregate = true
		return []report.Finding{f}
	}
	if re.NumSubexp() != 1 {
		f := newFinding(req, values.StatusError, report.AggregateBlockID, check,
			fmt.Sprintf("pattern %q must have exactly one capture group, has %d", pattern, re.NumSubexp()))
		f.Aggregate = true
		return []report.Finding{f}
	}

	var findings []report.Finding
	var vals []blockValue
	for i := range blocks {
		value, line, ok := blocks[i].FirstCapture(re)
		if !ok {
			f := newFinding(req, values.StatusSkipped, blocks[i].Identity, check,
				fmt.Sprintf("value pattern %q not found in block", pattern))
			f.Aggregate = true
			f.BlockIndex = i
			findings = append(findings, f)
			continue
		}
		vals = append(vals, blockValue{blockIndex: i, blockID: blocks[i].Identity, value: value, line: line})
	}

	if len(vals) > 0 {
		findings = append(findings, verdict(req, check, vals)...)
	}
	return findings
}

// checkUnique fails once per duplicated value, naming every block that
// carries it.
func (c *AdvancedBlockChecker) checkUnique(req Request, check string, vals []blockValue) []report.Finding {
	byValue := make(map[string][]blockValue)
	for _, v := range vals {
		byValue[v.value] = append(byValue[v.value], v)
	}

	duplicates := make([]string, 0)
	for value, holders := range byValue {
		if len(holders) > 1 {
			duplicates = append(duplicates, value)
		}
	}
	sort.Strings(duplicates)

	if len(duplicates) == 0 {
		f := newFinding(req, values.StatusPass, report.AggregateBlockID, check,
			fmt.Sprintf("all %d values unique", len(vals)))
		f.Aggregate = true
		return []report.Finding{f}
	}

	findings := make([]report.Finding, 0, len(duplicates))
	for _, value := range duplicates {
		holders := byValue[value]
		f := newFinding(req, values.StatusFail, report.AggregateBlockID, check,
			fmt.Sprintf("value %q appears in %d blocks: %s", value, len(holders), joinHolders(holders)))
		f.Aggregate = true
		for _, h := range holders {
			f.Lines = append(f.Lines, h.line)
			f.Matched = append(f.Matched, h.value)
		}
		findings = append(findings, f)
	}
	return findings
}

// checkAllSame fails when the blocks disagree, listing each distinct value
// and the blocks that carry it.
func (c *AdvancedBlockChecker) checkAllSame(req Request, check string, vals []blockValue) []report.Finding {
	byValue := make(map[string][]blockValue)
	for _, v := range vals {
		byValue[v.value] = append(byValue[v.value], v)
	}

	if len(byValue) == 1 {
		f := newFinding(req, values.StatusPass, report.AggregateBlockID, check,
			fmt.Sprintf("all %d blocks agree on %q", len(vals), vals[0].value))
		f.Aggregate = true
		return []report.Finding{f}
	}

	distinct := make([]string, 0, len(byValue))
	for value := range byValue {
		distinct = append(distinct, value)
	}
	sort.Strings(distinct)

	parts := make([]string, 0, len(distinct))
	for _, value := range distinct {
		parts = append(parts, fmt.Sprintf("%q in %s", value, joinHolders(byValue[value])))
	}

	f := newFinding(req, values.StatusFail, report.AggregateBlockID, check,
		fmt.Sprintf("%d distinct values across %d blocks: %s", len(distinct), len(vals), strings.Join(parts, "; ")))
	f.Aggregate = true
	for _, v := range vals {
		f.Lines = append(f.Lines, v.line)
		f.Matched = append(f.Matched, v.value)
	}
	return []report.Finding{f}
}

func joinHolders(holders []blockValue) string {
	ids := make([]string, len(holders))
	for i, h := range holders {
		ids[i] = h.blockID
	}
	return strings.Join(ids, ", ")
}
