package output

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/confgate-dev/confgate/internal/engine"
)

// YAMLFormatter formats scan results as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes the scan result as YAML.
func (f *YAMLFormatter) Format(result *engine.ScanResult) error {
	encoder := yaml.NewEncoder(f.writer, yaml.Indent(2))
	defer encoder.Close()

	return encoder.Encode(newScanDocument(result))
}
