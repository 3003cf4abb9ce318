package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/confgate-dev/confgate/internal/engine"
)

// SARIFFormatter formats scan results as SARIF 2.1.0 JSON. Compliance
// rules map to SARIF rules and findings to results, with locations
// pointing into the device configuration files.
type SARIFFormatter struct {
	writer      io.Writer
	configPaths map[string]string
	toolVersion string
}

// NewSARIFFormatter creates a new SARIF formatter. configPaths maps
// device names to configuration file paths for artifact locations; a
// device without an entry produces results with no location.
func NewSARIFFormatter(w io.Writer, configPaths map[string]string, toolVersion string) *SARIFFormatter {
	return &SARIFFormatter{
		writer:      w,
		configPaths: configPaths,
		toolVersion: toolVersion,
	}
}

// Format writes the scan result as SARIF 2.1.0 JSON.
func (f *SARIFFormatter) Format(result *engine.ScanResult) error {
	rep := sarif.NewReport()

	run := sarif.NewRunWithInformationURI("confgate", "https://github.com/confgate-dev/confgate")
	if f.toolVersion != "" {
		run.Tool.Driver.Version = &f.toolVersion
	}

	mapper := newSARIFMapper(result, f.configPaths)
	mapper.mapToRun(run)

	rep.AddRun(run)

	if err := rep.Write(f.writer); err != nil {
		return fmt.Errorf("failed to write SARIF output: %w", err)
	}

	_, err := f.writer.Write([]byte("\n"))
	return err
}

func ptrString(s string) *string {
	return &s
}

func ptrBool(b bool) *bool {
	return &b
}
