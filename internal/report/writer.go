package report

import (
	"io"
	"time"

	"github.com/tagscan/tagscan/internal/model"
)

// Stats is the material for a statistics report on one (domain, tag) pair.
type Stats struct {
	// Domain is the hostname the statistics describe.
	Domain string `json:"domain"`

	// Tag is the tag name the totals are scoped to.
	Tag string `json:"tag"`

	// Statistics holds the four aggregates.
	Statistics model.Statistics `json:"statistics"`

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// Writer outputs a statistics report in some format.
type Writer interface {
	// Write outputs the report, returning any write error.
	Write(stats *Stats) error
}

// baseWriter holds the output destination shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
