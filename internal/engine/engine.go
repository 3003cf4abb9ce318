// Package engine evaluates compliance rule sets against device
// configuration documents and assembles the results into reports.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

// Target is one named configuration to scan.
type Target struct {
	Name string
	Text string
}

// ScanResult aggregates the per-device reports of one scan run.
type ScanResult struct {
	ScanID    values.ScanID
	StartTime time.Time
	EndTime   time.Time
	Reports   []*report.Report
}

// Summary totals the findings across every report in the result.
func (r *ScanResult) Summary() report.Summary {
	var total report.Summary
	for _, rep := range r.Reports {
		s := rep.Summary
		total.Total += s.Total
		total.Passed += s.Passed
		total.Failed += s.Failed
		total.Warned += s.Warned
		total.Errored += s.Errored
		total.Skipped += s.Skipped
	}
	return total
}

// HasFailures reports whether any device produced a fail or error finding.
func (r *ScanResult) HasFailures() bool {
	for _, rep := range r.Reports {
		if rep.Summary.Failed > 0 || rep.Summary.Errored > 0 {
			return true
		}
	}
	return false
}

// Engine runs rule sets against configuration documents. It is safe for
// concurrent use; the pattern cache is shared across all evaluations.
type Engine struct {
	registry *Registry
	patterns *confparse.PatternCache
	config   Config
	log      *slog.Logger
}

// New creates an engine with the given configuration.
func New(cfg Config, log *slog.Logger) *Engine {
	cfg.normalize()
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		registry: NewRegistry(cfg.MaxConcurrentBlocks),
		patterns: confparse.NewPatternCache(),
		config:   cfg,
		log:      log,
	}
}

// Registry exposes the checker registry, mainly for the rule sandbox.
func (e *Engine) Registry() *Registry { return e.registry }

// Evaluate runs the rule set against one document and returns its report.
// Rules the filter rejects are omitted entirely; a rule whose logic type
// is unknown yields an error finding rather than aborting the scan.
func (e *Engine) Evaluate(ctx context.Context, doc *confparse.Document, set *rules.RuleSet) (*report.Report, error) {
	rep := report.NewReport(doc.Name)

	for i := range set.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rule := &set.Items[i]

		keep, err := e.config.Filter.Match(rule)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}

		req := Request{Rule: *rule, RuleIndex: i, Patterns: e.patterns}

		checker, err := e.registry.Resolve(rule.LogicType)
		if err != nil {
			f := newFinding(req, values.StatusError, DocumentBlockID, "logic_type", err.Error())
			rep.AddFindings(f)
			continue
		}

		start := time.Now()
		findings := checker.Check(ctx, doc, req)
		e.log.Debug("rule evaluated",
			"device", doc.Name,
			"rule", rule.ID,
			"logic_type", rule.LogicType,
			"findings", len(findings),
			"duration", time.Since(start))
		rep.AddFindings(findings...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.Finalize()
	return rep, nil
}

// Scan evaluates the rule set against every target concurrently and
// returns the combined result. The first evaluation error cancels the
// remaining targets.
func (e *Engine) Scan(ctx context.Context, targets []Target, set *rules.RuleSet) (*ScanResult, error) {
	result := &ScanResult{
		ScanID:    values.NewScanID(),
		StartTime: time.Now().UTC(),
		Reports:   make([]*report.Report, len(targets)),
	}
	e.log.Info("scan started", "scan_id", result.ScanID, "devices", len(targets), "rules", set.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxConcurrentDevices)

	for i := range targets {
		g.Go(func() error {
			doc := confparse.NewDocument(targets[i].Name, targets[i].Text)
			rep, err := e.Evaluate(gctx, doc, set)
			if err != nil {
				return fmt.Errorf("device %s: %w", targets[i].Name, err)
			}
			result.Reports[i] = rep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.EndTime = time.Now().UTC()
	s := result.Summary()
	e.log.Info("scan finished",
		"scan_id", result.ScanID,
		"duration", result.EndTime.Sub(result.StartTime),
		"total", s.Total,
		"failed", s.Failed,
		"errored", s.Errored)
	return result, nil
}
