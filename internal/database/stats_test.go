package database

import (
	"context"
	"testing"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("empty store yields zeroes", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)

		stats, err := s.Aggregator().Aggregate(context.Background(), "example.com", "img")
		if err != nil {
			t.Fatalf("Aggregate() unexpected error: %v", err)
		}
		if stats.DomainURLCount != 0 || stats.DomainAvgFetchTimeMs != 0 ||
			stats.DomainTagTotal != 0 || stats.GlobalTagTotal != 0 {
			t.Errorf("stats = %+v, want all zero", stats)
		}
	})

	t.Run("domain and global totals", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()

		records := []RecordParams{
			{Domain: "example.com", Path: "/a", FullURL: "http://example.com/a", Tag: "img", Count: 2, FetchTimeMs: 100},
			{Domain: "example.com", Path: "/b", FullURL: "http://example.com/b", Tag: "img", Count: 3, FetchTimeMs: 200},
			{Domain: "example.com", Path: "/a", FullURL: "http://example.com/a", Tag: "div", Count: 1, FetchTimeMs: 300},
		}
		for _, r := range records {
			r := r
			if _, err := s.RecordRequest(ctx, r); err != nil {
				t.Fatalf("RecordRequest() unexpected error: %v", err)
			}
		}

		stats, err := s.Aggregator().Aggregate(ctx, "example.com", "img")
		if err != nil {
			t.Fatalf("Aggregate() unexpected error: %v", err)
		}
		if stats.DomainURLCount != 2 {
			t.Errorf("DomainURLCount = %d, want 2", stats.DomainURLCount)
		}
		if stats.DomainTagTotal != 5 {
			t.Errorf("DomainTagTotal = %d, want 5", stats.DomainTagTotal)
		}
		if stats.GlobalTagTotal != 5 {
			t.Errorf("GlobalTagTotal = %d, want 5", stats.GlobalTagTotal)
		}
		if stats.DomainAvgFetchTimeMs != 200 {
			t.Errorf("DomainAvgFetchTimeMs = %d, want 200", stats.DomainAvgFetchTimeMs)
		}
	})

	t.Run("global total spans domains", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()

		records := []RecordParams{
			{Domain: "example.com", Path: "/", FullURL: "http://example.com/", Tag: "img", Count: 5},
			{Domain: "other.com", Path: "/", FullURL: "http://other.com/", Tag: "img", Count: 7},
		}
		for _, r := range records {
			r := r
			if _, err := s.RecordRequest(ctx, r); err != nil {
				t.Fatalf("RecordRequest() unexpected error: %v", err)
			}
		}

		stats, err := s.Aggregator().Aggregate(ctx, "example.com", "img")
		if err != nil {
			t.Fatalf("Aggregate() unexpected error: %v", err)
		}
		if stats.DomainTagTotal != 5 {
			t.Errorf("DomainTagTotal = %d, want 5", stats.DomainTagTotal)
		}
		if stats.GlobalTagTotal != 12 {
			t.Errorf("GlobalTagTotal = %d, want 12", stats.GlobalTagTotal)
		}
	})

	t.Run("failed attempts excluded from totals and average", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()

		if _, err := s.RecordRequest(ctx, RecordParams{
			Domain: "example.com", Path: "/ok", FullURL: "http://example.com/ok",
			Tag: "img", Count: 4, FetchTimeMs: 150,
		}); err != nil {
			t.Fatalf("RecordRequest() unexpected error: %v", err)
		}
		if _, err := s.RecordRequest(ctx, RecordParams{
			Domain: "example.com", Path: "/down", FullURL: "http://example.com/down",
			Tag: "img", FetchTimeMs: 30000,
			ErrorMessage: "Request timed out. The website is taking too long to respond.",
		}); err != nil {
			t.Fatalf("RecordRequest() unexpected error: %v", err)
		}

		stats, err := s.Aggregator().Aggregate(ctx, "example.com", "img")
		if err != nil {
			t.Fatalf("Aggregate() unexpected error: %v", err)
		}

		// The failed URL still counts toward URL existence.
		if stats.DomainURLCount != 2 {
			t.Errorf("DomainURLCount = %d, want 2", stats.DomainURLCount)
		}
		if stats.DomainTagTotal != 4 {
			t.Errorf("DomainTagTotal = %d, want 4", stats.DomainTagTotal)
		}
		if stats.DomainAvgFetchTimeMs != 150 {
			t.Errorf("DomainAvgFetchTimeMs = %d, want 150 (failure excluded)", stats.DomainAvgFetchTimeMs)
		}
	})

	t.Run("average ignores records older than a day", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()

		if _, err := s.RecordRequest(ctx, RecordParams{
			Domain: "example.com", Path: "/new", FullURL: "http://example.com/new",
			Tag: "img", Count: 1, FetchTimeMs: 100,
		}); err != nil {
			t.Fatalf("RecordRequest() unexpected error: %v", err)
		}
		oldID, err := s.RecordRequest(ctx, RecordParams{
			Domain: "example.com", Path: "/old", FullURL: "http://example.com/old",
			Tag: "img", Count: 1, FetchTimeMs: 9000,
		})
		if err != nil {
			t.Fatalf("RecordRequest() unexpected error: %v", err)
		}
		backdate(t, s, oldID, "-2 days")

		stats, err := s.Aggregator().Aggregate(ctx, "example.com", "img")
		if err != nil {
			t.Fatalf("Aggregate() unexpected error: %v", err)
		}
		if stats.DomainAvgFetchTimeMs != 100 {
			t.Errorf("DomainAvgFetchTimeMs = %d, want 100 (old record excluded)", stats.DomainAvgFetchTimeMs)
		}
		// Tag totals are all-time, so the old record still counts.
		if stats.DomainTagTotal != 2 {
			t.Errorf("DomainTagTotal = %d, want 2", stats.DomainTagTotal)
		}
	})
}
