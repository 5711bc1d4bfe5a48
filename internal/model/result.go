package model

import "time"

// Request is the input to a single pipeline run.
// The caller is expected to have security-screened URL and Tag already;
// the pipeline re-checks both before doing any work.
type Request struct {
	// URL is the target web address. A missing scheme defaults to http://.
	URL string `json:"url"`

	// Tag is the HTML tag name to count (e.g. "img", "div").
	Tag string `json:"tag"`

	// ClientID identifies the caller for rate limiting, typically an IP.
	ClientID string `json:"-"`

	// BypassCache forces a fetch even when a fresh cached result exists.
	BypassCache bool `json:"bypass_cache"`
}

// CountResult is the successful outcome of one count, either freshly
// fetched or replayed from the cache.
type CountResult struct {
	// URL is the normalized URL that was counted.
	URL string `json:"url"`

	// Tag is the lowercase tag name that was counted.
	Tag string `json:"tag"`

	// Count is the number of matching tags found.
	Count int `json:"count"`

	// FetchTimeMs is the fetch duration in milliseconds.
	FetchTimeMs int64 `json:"fetch_time_ms"`

	// Timestamp is when the underlying record was created.
	Timestamp time.Time `json:"timestamp"`
}

// Statistics holds the four read-side aggregates computed on every response.
type Statistics struct {
	// DomainURLCount is the number of distinct URLs ever recorded under
	// the domain. Failed attempts count toward URL existence.
	DomainURLCount int64 `json:"domain_url_count"`

	// DomainAvgFetchTimeMs is the mean fetch time over successful records
	// for the domain within the last 24 hours, or 0 if there are none.
	DomainAvgFetchTimeMs int64 `json:"domain_avg_fetch_time_ms"`

	// DomainTagTotal is the sum of counts over successful records for
	// (domain, tag), all time.
	DomainTagTotal int64 `json:"domain_tag_total"`

	// GlobalTagTotal is the sum of counts over successful records for the
	// tag across all domains, all time.
	GlobalTagTotal int64 `json:"global_tag_total"`
}

// Response is the outcome of a pipeline run in the external API shape.
// Exactly one of Result or Error is meaningful depending on Success.
type Response struct {
	// Success reports whether the run produced a count.
	Success bool `json:"success"`

	// Cached is true when the result was served from the cache.
	Cached bool `json:"cached,omitempty"`

	// Result holds the count outcome. Nil on failure.
	Result *CountResult `json:"result,omitempty"`

	// Statistics holds the domain aggregates. Nil on failure.
	Statistics *Statistics `json:"statistics,omitempty"`

	// Error is the user-facing failure message. Empty on success.
	Error string `json:"error,omitempty"`
}

// Failure builds a failed Response with the given user-facing message.
func Failure(message string) *Response {
	return &Response{Success: false, Error: message}
}
