// Package log provides logging built on the standard slog package with
// automatic sanitization of sensitive values and internal error detail.
//
// The SanitizeHandler masks credential-like attribute values and scrubs
// file paths and line numbers from error attributes, truncating long
// messages. SanitizeMessage is also used directly at the pipeline boundary
// so that internal error text is never echoed verbatim to callers.
package log
