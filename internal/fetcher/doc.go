// Package fetcher performs the outbound HTTP retrieval of target pages.
//
// Fetches run with bounded connect and total timeouts, a redirect cap,
// TLS certificate verification, transparent gzip decoding, and a
// browser-like header set. Every failure mode is classified into a typed
// category with a stable user-facing message; network conditions are
// returned as values, never raised.
package fetcher
