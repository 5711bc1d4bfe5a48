package database

import (
	"context"
	"fmt"

	"github.com/tagscan/tagscan/internal/model"
)

// Aggregator computes the read-side statistics from committed fact rows.
// It is a read-only view over the Store's database; it never writes.
//
// Design decision: The aggregator queries the database directly on every
// response rather than maintaining counters, so the statistics always
// reflect every committed record including the one just written in the
// current pipeline run.
type Aggregator struct {
	store *Store
}

// Aggregator returns the read-side statistics view of the store.
func (s *Store) Aggregator() *Aggregator {
	return &Aggregator{store: s}
}

// Aggregate computes the four aggregate metrics for a (domain, tag) pair.
// Failed attempts count toward URL existence but are excluded from the
// fetch-time average and both tag totals.
func (a *Aggregator) Aggregate(ctx context.Context, domain, tag string) (*model.Statistics, error) {
	stats := &model.Statistics{}
	db := a.store.db

	// Distinct URLs ever recorded under the domain.
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT u.id)
		FROM urls u
		JOIN domains d ON u.domain_id = d.id
		WHERE d.name = ?`, domain).Scan(&stats.DomainURLCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count domain urls: %w", err)
	}

	// Mean fetch time over successful records for the domain, last 24h.
	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(ROUND(AVG(r.fetch_time_ms)), 0)
		FROM requests r
		JOIN domains d ON r.domain_id = d.id
		WHERE d.name = ?
		AND r.error_message IS NULL
		AND r.created_at > datetime('now', '-24 hours')`, domain).
		Scan(&stats.DomainAvgFetchTimeMs)
	if err != nil {
		return nil, fmt.Errorf("failed to average domain fetch time: %w", err)
	}

	// Sum of counts for (domain, tag) over successful records, all time.
	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(r.count), 0)
		FROM requests r
		JOIN domains d ON r.domain_id = d.id
		JOIN tags t ON r.tag_id = t.id
		WHERE d.name = ? AND t.name = ?
		AND r.error_message IS NULL`, domain, tag).
		Scan(&stats.DomainTagTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to sum domain tag total: %w", err)
	}

	// Sum of counts for the tag across all domains, all time.
	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(r.count), 0)
		FROM requests r
		JOIN tags t ON r.tag_id = t.id
		WHERE t.name = ?
		AND r.error_message IS NULL`, tag).
		Scan(&stats.GlobalTagTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to sum global tag total: %w", err)
	}

	return stats, nil
}
