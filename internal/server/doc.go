// Package server provides the HTTP API front door: a chi router exposing
// the count endpoint, a health check, and Prometheus metrics.
//
// The server derives the rate-limit client identity from the connection
// (honoring proxy forwarding headers) and delegates everything else to
// the pipeline. Input sanitization beyond JSON decoding is the pipeline
// validator's job.
package server
