package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs reports as JSON
type JSONWriter struct {
	output io.Writer
	indent bool
}

// NewJSONWriter creates a JSONWriter; indent enables pretty-printed output
func NewJSONWriter(output io.Writer, indent bool) *JSONWriter {
	return &JSONWriter{output: output, indent: indent}
}

// Write encodes the report
func (w *JSONWriter) Write(report *ScanReport) error {
	enc := json.NewEncoder(w.output)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
