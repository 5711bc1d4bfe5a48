package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs a statistics report as indented JSON.
// This format is designed for piping into other tools.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as JSON.
func (w *JSONWriter) Write(stats *Stats) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
