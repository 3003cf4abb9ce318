package output

import (
	"time"

	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/engine"
)

// scanDocument is the serialized shape shared by the JSON and YAML
// formatters.
type scanDocument struct {
	ScanID     string           `json:"scan_id" yaml:"scan_id"`
	StartTime  time.Time        `json:"start_time" yaml:"start_time"`
	EndTime    time.Time        `json:"end_time" yaml:"end_time"`
	DurationMS int64            `json:"duration_ms" yaml:"duration_ms"`
	Summary    report.Summary   `json:"summary" yaml:"summary"`
	Reports    []*report.Report `json:"reports" yaml:"reports"`
}

func newScanDocument(result *engine.ScanResult) scanDocument {
	return scanDocument{
		ScanID:     result.ScanID.String(),
		StartTime:  result.StartTime,
		EndTime:    result.EndTime,
		DurationMS: result.EndTime.Sub(result.StartTime).Milliseconds(),
		Summary:    result.Summary(),
		Reports:    result.Reports,
	}
}
