package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name what is wrong.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). Callers can use errors.Is()
// for programmatic handling while still getting readable messages.
var (
	// ErrInvalidTimeout is returned when a timeout is not positive.
	// A zero or negative timeout would cause immediate fetch failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRedirects is returned when the redirect cap is negative.
	// Use 0 to disable redirect following entirely.
	ErrInvalidRedirects = errors.New("invalid max redirects: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size limit is not
	// positive. An unbounded body read would risk memory exhaustion.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidRateLimit is returned when either rate-limit threshold is
	// not positive. A zero threshold would reject every request.
	ErrInvalidRateLimit = errors.New("invalid rate limit: thresholds must be positive")

	// ErrInvalidCacheFreshness is returned when the cache freshness window
	// is negative. Use 0 to disable the cache.
	ErrInvalidCacheFreshness = errors.New("invalid cache freshness: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no work gets done.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")
)
