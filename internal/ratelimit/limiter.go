package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tagscan/tagscan/internal/config"
)

// Window durations for the two sliding windows.
const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Reason messages returned with rejections. They name the exceeded window.
const (
	ReasonHourExceeded   = "Hourly rate limit exceeded. Please try again later."
	ReasonMinuteExceeded = "Too many requests per minute. Please slow down."
)

// Ledger is the persistence the limiter needs: a per-client timestamped
// entry log with sliding-window counting and retention purging. The
// database Store satisfies it.
type Ledger interface {
	CountRateEntries(ctx context.Context, clientID string, window time.Duration) (int, error)
	AppendRateEntry(ctx context.Context, clientID string) error
	PurgeRateEntries(ctx context.Context, retention time.Duration) (int64, error)
}

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Reason names the exceeded window when Allowed is false.
	Reason string
}

// Limiter enforces per-client sliding-window rate limits over two
// independent windows (one minute and one hour).
//
// Known simplification: the check-then-record sequence is not atomic with
// respect to other concurrent admissions from the same client, so under
// heavy concurrent traffic the effective limit can be exceeded by a small
// margin. This is an accepted trade-off; exact enforcement would require
// the check and insert to run as one serialized transaction.
type Limiter struct {
	ledger      Ledger
	minuteLimit int
	hourLimit   int
	retention   time.Duration
	logger      *slog.Logger
}

// New creates a Limiter using the given ledger and configured thresholds.
func New(ledger Ledger, cfg *config.Config, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		ledger:      ledger,
		minuteLimit: cfg.MinuteLimit,
		hourLimit:   cfg.HourLimit,
		retention:   cfg.RateWindowRetention,
		logger:      logger,
	}
}

// Admit checks whether the client may make another request. On admission
// it appends a new ledger entry before returning, so the admitted request
// counts against subsequent checks. The hour window is checked before the
// minute window, so when both are exhausted the hour-scoped reason wins.
//
// An error return means the ledger itself failed; the caller decides
// whether that is fatal.
func (l *Limiter) Admit(ctx context.Context, clientID string) (Decision, error) {
	// Inline purge keeps the ledger bounded without a background worker.
	purged, err := l.ledger.PurgeRateEntries(ctx, l.retention)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit purge: %w", err)
	}
	if purged > 0 {
		l.logger.Debug("purged rate window entries", "count", purged)
	}

	hourCount, err := l.ledger.CountRateEntries(ctx, clientID, hourWindow)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit hour check: %w", err)
	}
	if hourCount >= l.hourLimit {
		l.logger.Warn("rate limit exceeded", "client", clientID, "window", "hour", "count", hourCount)
		return Decision{Allowed: false, Reason: ReasonHourExceeded}, nil
	}

	minuteCount, err := l.ledger.CountRateEntries(ctx, clientID, minuteWindow)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit minute check: %w", err)
	}
	if minuteCount >= l.minuteLimit {
		l.logger.Warn("rate limit exceeded", "client", clientID, "window", "minute", "count", minuteCount)
		return Decision{Allowed: false, Reason: ReasonMinuteExceeded}, nil
	}

	if err := l.ledger.AppendRateEntry(ctx, clientID); err != nil {
		return Decision{}, fmt.Errorf("rate limit record: %w", err)
	}

	return Decision{Allowed: true}, nil
}
