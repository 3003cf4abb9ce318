package output

import (
	"encoding/json"
	"io"

	"github.com/confgate-dev/confgate/internal/engine"
)

// JSONFormatter formats scan results as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter.
// If indent is true, the output is pretty-printed.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
	}
}

// Format writes the scan result as JSON.
func (f *JSONFormatter) Format(result *engine.ScanResult) error {
	doc := newScanDocument(result)

	var data []byte
	var err error
	if f.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return err
	}

	if _, err = f.writer.Write(data); err != nil {
		return err
	}

	// Trailing newline for terminal output
	_, err = f.writer.Write([]byte("\n"))
	return err
}
