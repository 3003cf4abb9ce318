// Package output provides formatters for scan results.
package output

import (
	"fmt"
	"io"

	"github.com/confgate-dev/confgate/internal/engine"
)

// Formatter renders a scan result to its writer.
type Formatter interface {
	Format(result *engine.ScanResult) error
}

// Options carries formatter-specific settings.
type Options struct {
	// Indent pretty-prints JSON output.
	Indent bool
	// ConfigPaths maps device names to their configuration file paths,
	// used by the SARIF formatter for artifact locations.
	ConfigPaths map[string]string
	// ToolVersion is embedded in SARIF tool metadata.
	ToolVersion string
}

// NewFormatter returns a formatter for the given format name.
func NewFormatter(format string, w io.Writer, opts Options) (Formatter, error) {
	switch format {
	case "table":
		return NewTableFormatter(w), nil
	case "json":
		return NewJSONFormatter(w, opts.Indent), nil
	case "yaml":
		return NewYAMLFormatter(w), nil
	case "junit":
		return NewJUnitFormatter(w), nil
	case "sarif":
		return NewSARIFFormatter(w, opts.ConfigPaths, opts.ToolVersion), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: %v)", format, SupportedFormats())
	}
}

// SupportedFormats returns the available format names.
func SupportedFormats() []string {
	return []string{"table", "json", "yaml", "junit", "sarif"}
}
