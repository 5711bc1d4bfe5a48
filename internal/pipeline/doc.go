// Package pipeline orchestrates one tag-count request end to end:
// validation, rate-limit admission, cache lookup, fetch, count,
// persistence, and statistics aggregation.
//
// Every failure mode crosses the pipeline boundary as a typed response
// with a user-facing message. Internal errors are logged with context,
// sanitized, and translated to a small set of generic messages; panics
// are caught at the boundary.
package pipeline
