package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs a statistics report in GitHub Flavored Markdown.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent,
// type-safe markdown generation rather than string concatenation.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as Markdown.
func (w *MarkdownWriter) Write(stats *Stats) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Tag Usage Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Domain", "`" + stats.Domain + "`"},
			{"Tag", "`<" + stats.Tag + ">`"},
			{"Generated", stats.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	md.H2("Aggregates")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Distinct URLs recorded", strconv.FormatInt(stats.Statistics.DomainURLCount, 10)},
			{"Average fetch time, last 24h (ms)", strconv.FormatInt(stats.Statistics.DomainAvgFetchTimeMs, 10)},
			{"Domain tag total", strconv.FormatInt(stats.Statistics.DomainTagTotal, 10)},
			{"Global tag total", strconv.FormatInt(stats.Statistics.GlobalTagTotal, 10)},
		},
	})

	return md.Build()
}
