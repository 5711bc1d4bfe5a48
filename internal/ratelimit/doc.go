// Package ratelimit provides per-client sliding-window rate limiting
// backed by a persistent ledger of request timestamps.
//
// Two independent windows are tracked (one minute, one hour); the hour
// window is checked first so its reason is reported when both would
// reject. Entries older than the retention period are purged inline on
// every admission check.
package ratelimit
