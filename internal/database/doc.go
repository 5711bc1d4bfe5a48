// Package database provides SQLite-based persistence for tagscan.
//
// The Store owns all writes: idempotent get-or-create of dimension
// records (domains, urls, tags), the transactional fact-row write for
// each pipeline attempt, and the rate-limit window ledger. Read-side
// concerns are exposed separately: LookupFresh implements the result
// cache over committed fact rows, and Aggregator computes the response
// statistics.
//
// Connection handling follows SQLite's single-writer model: one pooled
// connection, WAL journaling, and ON CONFLICT upserts to keep concurrent
// first-sighting races convergent.
package database
