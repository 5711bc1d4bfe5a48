package database

import (
	"context"
	"fmt"
	"time"
)

// CountRateEntries returns the number of rate-window entries for the
// client with a timestamp strictly newer than now minus the window.
func (s *Store) CountRateEntries(ctx context.Context, clientID string, window time.Duration) (int, error) {
	modifier := fmt.Sprintf("-%d seconds", int(window.Seconds()))

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM rate_window
		WHERE client_id = ? AND created_at > datetime('now', ?)`,
		clientID, modifier).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rate entries: %w", err)
	}
	return count, nil
}

// AppendRateEntry records one admitted request for the client.
func (s *Store) AppendRateEntry(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO rate_window (client_id) VALUES (?)`, clientID); err != nil {
		return fmt.Errorf("failed to append rate entry: %w", err)
	}
	return nil
}

// PurgeRateEntries deletes entries older than the retention period across
// all clients, bounding ledger growth. Returns the rows removed.
func (s *Store) PurgeRateEntries(ctx context.Context, retention time.Duration) (int64, error) {
	modifier := fmt.Sprintf("-%d seconds", int(retention.Seconds()))

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM rate_window WHERE created_at < datetime('now', ?)`, modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to purge rate entries: %w", err)
	}
	return result.RowsAffected()
}
