package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/values"
	"github.com/confgate-dev/confgate/internal/engine"
)

// TableFormatter formats scan results as a human-readable table.
type TableFormatter struct {
	writer io.Writer
	// Verbose includes passing and skipped findings; by default only
	// failures, warnings, and errors are listed per device.
	Verbose bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// Format writes the scan result as a table.
func (f *TableFormatter) Format(result *engine.ScanResult) error {
	fmt.Fprintf(f.writer, "Scan: %s\n", result.ScanID)
	fmt.Fprintf(f.writer, "Executed: %s\n", result.StartTime.Format(time.RFC3339))
	fmt.Fprintf(f.writer, "Duration: %s\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Fprintln(f.writer)

	if len(result.Reports) == 0 {
		fmt.Fprintln(f.writer, "No devices scanned.")
		return nil
	}

	for _, rep := range result.Reports {
		f.formatReport(rep)
	}

	f.formatSummary(result.Summary())
	return nil
}

// formatReport formats one device's section.
func (f *TableFormatter) formatReport(rep *report.Report) {
	fmt.Fprintf(f.writer, "Device: %s\n", rep.Device)
	fmt.Fprintln(f.writer, strings.Repeat("─", 80))

	shown := 0
	for i := range rep.Findings {
		finding := &rep.Findings[i]
		if !f.Verbose && (finding.Status == values.StatusPass || finding.Status == values.StatusSkipped) {
			continue
		}
		f.formatFinding(finding)
		shown++
	}
	if shown == 0 {
		if rep.Summary.Clean() {
			fmt.Fprintf(f.writer, "✓ %d findings, all passed\n", rep.Summary.Total)
		} else {
			fmt.Fprintln(f.writer, "No findings.")
		}
	}

	fmt.Fprintf(f.writer, "%d total: %d passed, %d failed, %d warned, %d errored, %d skipped\n",
		rep.Summary.Total, rep.Summary.Passed, rep.Summary.Failed,
		rep.Summary.Warned, rep.Summary.Errored, rep.Summary.Skipped)
	fmt.Fprintln(f.writer)
}

// formatFinding formats a single finding.
func (f *TableFormatter) formatFinding(finding *report.Finding) {
	fmt.Fprintf(f.writer, "%s %s [%s] %s\n",
		f.statusSymbol(finding.Status), finding.RuleID, finding.BlockID, finding.RuleTitle)

	fmt.Fprintf(f.writer, "  Status: %s", strings.ToUpper(string(finding.Status)))
	if finding.Severity != "" {
		fmt.Fprintf(f.writer, "  Severity: %s", finding.Severity)
	}
	fmt.Fprintln(f.writer)

	if finding.Message != "" {
		fmt.Fprintf(f.writer, "  Message: %s\n", finding.Message)
	}
	if len(finding.Lines) > 0 {
		fmt.Fprintf(f.writer, "  Lines: %s\n", joinInts(finding.Lines))
	}
	if finding.Remediation != "" {
		fmt.Fprintf(f.writer, "  Remediation: %s\n", finding.Remediation)
	}
}

// formatSummary formats the aggregate statistics.
func (f *TableFormatter) formatSummary(s report.Summary) {
	fmt.Fprintln(f.writer, "Summary:")
	fmt.Fprintln(f.writer, strings.Repeat("─", 80))
	fmt.Fprintf(f.writer, "Findings:     %d total\n", s.Total)
	fmt.Fprintf(f.writer, "  ✓ Passed:   %d\n", s.Passed)
	fmt.Fprintf(f.writer, "  ✗ Failed:   %d\n", s.Failed)
	fmt.Fprintf(f.writer, "  ! Warned:   %d\n", s.Warned)
	fmt.Fprintf(f.writer, "  ⚠ Errors:   %d\n", s.Errored)
	fmt.Fprintf(f.writer, "  - Skipped:  %d\n", s.Skipped)
	fmt.Fprintln(f.writer, strings.Repeat("─", 80))
}

// statusSymbol returns a symbol for the given status.
func (f *TableFormatter) statusSymbol(status values.Status) string {
	switch status {
	case values.StatusPass:
		return "✓"
	case values.StatusFail:
		return "✗"
	case values.StatusWarn:
		return "!"
	case values.StatusError:
		return "⚠"
	case values.StatusSkipped:
		return "-"
	default:
		return "?"
	}
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
