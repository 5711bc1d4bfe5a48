package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tagscan/tagscan/internal/model"
)

// LookupFresh returns the most recent successful request record for the
// exact (url, tag) pair recorded within the freshness window, or nil when
// none exists. Failed attempts never satisfy a lookup.
//
// This is the whole of the result cache: the fact rows themselves are the
// cache storage, so a hit costs one indexed query and there is no second
// copy of the data to invalidate.
func (s *Store) LookupFresh(ctx context.Context, fullURL, tag string, freshness time.Duration) (*model.CountResult, error) {
	query := `
	SELECT r.count, r.fetch_time_ms, r.created_at
	FROM requests r
	JOIN urls u ON r.url_id = u.id
	JOIN tags t ON r.tag_id = t.id
	WHERE u.full_url = ? AND t.name = ?
	AND r.error_message IS NULL
	AND r.created_at > datetime('now', ?)
	ORDER BY r.created_at DESC, r.id DESC
	LIMIT 1
	`

	// SQLite datetime modifier format.
	modifier := fmt.Sprintf("-%d seconds", int(freshness.Seconds()))

	var count int
	var fetchTimeMs int64
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, fullURL, tag, modifier).
		Scan(&count, &fetchTimeMs, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up cached result: %w", err)
	}

	return &model.CountResult{
		URL:         fullURL,
		Tag:         tag,
		Count:       count,
		FetchTimeMs: fetchTimeMs,
		Timestamp:   parseTimestamp(createdAt),
	}, nil
}
