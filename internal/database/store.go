package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store provides SQLite-based persistence for dimension records, request
// fact rows, and the rate-limit window ledger. It owns all writes; the
// Aggregator view is the read side.
//
// Design decision: A single database file holds dimensions, facts, and the
// rate window. The original design used one shared database too, and it
// keeps cross-table queries (cache lookup, statistics) simple.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are
// created; otherwise a missing database is an error.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "tagscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; a single connection also gives us
	// serialized get-or-create sequences without busy-retry loops.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Dimension records: normalized, deduplicated by natural key.
	CREATE TABLE IF NOT EXISTS domains (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id),
		path TEXT NOT NULL,
		full_url TEXT NOT NULL,
		UNIQUE(domain_id, full_url)
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	-- Fact rows: one immutable record per pipeline attempt.
	CREATE TABLE IF NOT EXISTS requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id),
		url_id INTEGER NOT NULL REFERENCES urls(id),
		tag_id INTEGER NOT NULL REFERENCES tags(id),
		count INTEGER NOT NULL DEFAULT 0,
		fetch_time_ms INTEGER NOT NULL DEFAULT 0,
		response_size_bytes INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_requests_url_tag ON requests(url_id, tag_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_requests_domain ON requests(domain_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_requests_tag ON requests(tag_id);

	-- Rate-limit window ledger: ephemeral, purge-eligible after 2 hours.
	CREATE TABLE IF NOT EXISTS rate_window (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rate_window_client ON rate_window(client_id, created_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// GetOrCreateDomain returns the identifier for the domain with the given
// name, creating the row on first sighting. The operation is idempotent:
// concurrent calls for the same name converge on one row, enforced by the
// UNIQUE constraint plus an insert-then-select sequence.
func (s *Store) GetOrCreateDomain(ctx context.Context, name string) (int64, error) {
	return getOrCreate(ctx, s.db,
		`INSERT INTO domains (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
		`SELECT id FROM domains WHERE name = ?`,
		name)
}

// GetOrCreateTag returns the identifier for the tag with the given name,
// creating the row on first sighting.
func (s *Store) GetOrCreateTag(ctx context.Context, name string) (int64, error) {
	return getOrCreate(ctx, s.db,
		`INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
		`SELECT id FROM tags WHERE name = ?`,
		name)
}

// GetOrCreateURL returns the identifier for the URL with the given full
// URL under the domain, creating the row on first sighting.
func (s *Store) GetOrCreateURL(ctx context.Context, domainID int64, path, fullURL string) (int64, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO urls (domain_id, path, full_url) VALUES (?, ?, ?)
		 ON CONFLICT(domain_id, full_url) DO NOTHING`,
		domainID, path, fullURL); err != nil {
		return 0, fmt.Errorf("failed to upsert url: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM urls WHERE domain_id = ? AND full_url = ?`,
		domainID, fullURL).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to select url: %w", err)
	}
	return id, nil
}

// querier abstracts *sql.DB and *sql.Tx for the get-or-create helpers.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// getOrCreate runs an upsert-by-natural-key followed by a select.
// The ON CONFLICT DO NOTHING insert makes the sequence race-safe: whoever
// loses the insert race still selects the winner's row.
func getOrCreate(ctx context.Context, q querier, insert, sel, name string) (int64, error) {
	if _, err := q.ExecContext(ctx, insert, name); err != nil {
		return 0, fmt.Errorf("failed to upsert dimension %q: %w", name, err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, sel, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to select dimension %q: %w", name, err)
	}
	return id, nil
}

// RecordParams describes one pipeline attempt to persist.
type RecordParams struct {
	// Domain is the lowercase hostname.
	Domain string

	// Path is the path plus query portion of the URL.
	Path string

	// FullURL is the complete normalized URL.
	FullURL string

	// Tag is the lowercase tag name.
	Tag string

	// Count is the tag count. Must be zero for failed attempts.
	Count int

	// FetchTimeMs is the measured fetch duration in milliseconds.
	FetchTimeMs int64

	// SizeBytes is the response size. Must be zero for failed attempts.
	SizeBytes int64

	// ErrorMessage is the user-facing failure text, empty on success.
	ErrorMessage string
}

// RecordRequest persists one attempt as a fact row, creating any missing
// dimension rows first. The dimension get-or-creates and the fact insert
// execute as a single transaction: either all rows exist afterwards or
// nothing was written.
func (s *Store) RecordRequest(ctx context.Context, p RecordParams) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // No-op after commit.
	}()

	domainID, err := getOrCreate(ctx, tx,
		`INSERT INTO domains (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
		`SELECT id FROM domains WHERE name = ?`,
		p.Domain)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO urls (domain_id, path, full_url) VALUES (?, ?, ?)
		 ON CONFLICT(domain_id, full_url) DO NOTHING`,
		domainID, p.Path, p.FullURL); err != nil {
		return 0, fmt.Errorf("failed to upsert url: %w", err)
	}
	var urlID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM urls WHERE domain_id = ? AND full_url = ?`,
		domainID, p.FullURL).Scan(&urlID); err != nil {
		return 0, fmt.Errorf("failed to select url: %w", err)
	}

	tagID, err := getOrCreate(ctx, tx,
		`INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
		`SELECT id FROM tags WHERE name = ?`,
		p.Tag)
	if err != nil {
		return 0, err
	}

	// Failed attempts carry no meaningful count or size.
	errMsg := sql.NullString{String: p.ErrorMessage, Valid: p.ErrorMessage != ""}
	count := p.Count
	size := p.SizeBytes
	if errMsg.Valid {
		count = 0
		size = 0
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO requests (domain_id, url_id, tag_id, count, fetch_time_ms, response_size_bytes, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		domainID, urlID, tagID, count, p.FetchTimeMs, size, errMsg)
	if err != nil {
		return 0, fmt.Errorf("failed to insert request record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit request record: %w", err)
	}

	return result.LastInsertId()
}

// timestampFormats contains the timestamp formats SQLite may return.
// The order matters: more specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration. Returns zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
