package report

import (
	"fmt"
	"io"
)

// TextWriter outputs a human-readable statistics report.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as aligned plain text.
func (w *TextWriter) Write(stats *Stats) error {
	_, err := fmt.Fprintf(w.output,
		"Domain: %s\nTag: <%s>\n\n"+
			"  URLs recorded:          %d\n"+
			"  Avg fetch time (24h):   %d ms\n"+
			"  Domain <%s> total:      %d\n"+
			"  Global <%s> total:      %d\n",
		stats.Domain, stats.Tag,
		stats.Statistics.DomainURLCount,
		stats.Statistics.DomainAvgFetchTimeMs,
		stats.Tag, stats.Statistics.DomainTagTotal,
		stats.Tag, stats.Statistics.GlobalTagTotal,
	)
	return err
}
