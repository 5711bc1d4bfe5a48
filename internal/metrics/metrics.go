// Package metrics exposes Prometheus instrumentation for the pipeline
// and the HTTP front door.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeCached    = "cached"
	OutcomeRejected  = "rejected"
	OutcomeFetchFail = "fetch_failure"
	OutcomeStoreFail = "store_failure"
	OutcomeInvalid   = "invalid_input"
)

var (
	// RequestsTotal counts pipeline runs by outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagscan_requests_total",
		Help: "Total pipeline runs by outcome",
	}, []string{"outcome"})

	// FetchFailures counts fetch failures by classified kind.
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tagscan_fetch_failures_total",
		Help: "Total fetch failures by classified kind",
	}, []string{"kind"})

	// FetchDuration observes successful fetch durations in seconds.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tagscan_fetch_duration_seconds",
		Help:    "Successful fetch durations",
		Buckets: prometheus.DefBuckets,
	})
)
