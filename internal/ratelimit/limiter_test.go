package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tagscan/tagscan/internal/config"
	"github.com/tagscan/tagscan/internal/database"
)

func newTestLimiter(t *testing.T, cfg *config.Config) *Limiter {
	t.Helper()

	store, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return New(store, cfg, nil)
}

func TestLimiterAdmitMinuteWindow(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	l := newTestLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < cfg.MinuteLimit; i++ {
		d, err := l.Admit(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Admit() #%d unexpected error: %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("Admit() #%d rejected: %s", i+1, d.Reason)
		}
	}

	d, err := l.Admit(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Admit() unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("request over the minute limit was admitted")
	}
	if d.Reason != ReasonMinuteExceeded {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonMinuteExceeded)
	}
}

func TestLimiterAdmitHourWindowTakesPrecedence(t *testing.T) {
	t.Parallel()

	// With the hour limit below the minute limit, the sixth request
	// exhausts both windows at once; the hour-scoped reason must win.
	cfg := config.NewConfig()
	cfg.MinuteLimit = 10
	cfg.HourLimit = 5
	l := newTestLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < cfg.HourLimit; i++ {
		d, err := l.Admit(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Admit() #%d unexpected error: %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("Admit() #%d rejected: %s", i+1, d.Reason)
		}
	}

	d, err := l.Admit(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Admit() unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("request over the hour limit was admitted")
	}
	if d.Reason != ReasonHourExceeded {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonHourExceeded)
	}
}

func TestLimiterAdmitClientsIndependent(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.MinuteLimit = 2
	l := newTestLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < cfg.MinuteLimit; i++ {
		if d, err := l.Admit(ctx, "1.2.3.4"); err != nil || !d.Allowed {
			t.Fatalf("Admit() = (%+v, %v), want allowed", d, err)
		}
	}
	if d, err := l.Admit(ctx, "1.2.3.4"); err != nil || d.Allowed {
		t.Fatalf("Admit() = (%+v, %v), want rejected", d, err)
	}

	// The exhausted client must not affect anyone else.
	d, err := l.Admit(ctx, "5.6.7.8")
	if err != nil {
		t.Fatalf("Admit() unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Errorf("other client rejected: %s", d.Reason)
	}
}

func TestLimiterAdmitRejectionsNotCounted(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.MinuteLimit = 1
	l := newTestLimiter(t, cfg)
	ctx := context.Background()

	if d, err := l.Admit(ctx, "1.2.3.4"); err != nil || !d.Allowed {
		t.Fatalf("Admit() = (%+v, %v), want allowed", d, err)
	}

	// Rejected attempts append no ledger entry, so the count stays at the
	// limit instead of growing.
	for i := 0; i < 5; i++ {
		d, err := l.Admit(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Admit() unexpected error: %v", err)
		}
		if d.Allowed {
			t.Fatal("request over the limit was admitted")
		}
	}

	count, err := l.ledger.CountRateEntries(ctx, "1.2.3.4", time.Hour)
	if err != nil {
		t.Fatalf("CountRateEntries() unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("ledger entries = %d, want 1", count)
	}
}

// failingLedger returns an error from every operation.
type failingLedger struct{}

var errLedger = errors.New("ledger unavailable")

func (failingLedger) CountRateEntries(context.Context, string, time.Duration) (int, error) {
	return 0, errLedger
}
func (failingLedger) AppendRateEntry(context.Context, string) error { return errLedger }
func (failingLedger) PurgeRateEntries(context.Context, time.Duration) (int64, error) {
	return 0, errLedger
}

func TestLimiterAdmitLedgerFailure(t *testing.T) {
	t.Parallel()

	l := New(failingLedger{}, config.NewConfig(), nil)

	_, err := l.Admit(context.Background(), "1.2.3.4")
	if !errors.Is(err, errLedger) {
		t.Errorf("Admit() error = %v, want wrapped %v", err, errLedger)
	}
}
