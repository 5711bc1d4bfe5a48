package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/tagscan/tagscan/internal/config"
	"github.com/tagscan/tagscan/internal/counter"
	"github.com/tagscan/tagscan/internal/database"
	"github.com/tagscan/tagscan/internal/fetcher"
	"github.com/tagscan/tagscan/internal/metrics"
	"github.com/tagscan/tagscan/internal/model"
	"github.com/tagscan/tagscan/internal/ratelimit"
	"github.com/tagscan/tagscan/internal/validate"
)

// Fetcher retrieves a page, returning either the page or a typed failure.
// The concrete fetcher.Fetcher satisfies this; tests substitute a spy.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, *fetcher.Error)
}

// Pipeline runs the fetch-validate-count-cache-persist-aggregate sequence
// for one request at a time. It is safe for concurrent use: pipeline runs
// share the store and rate-limit ledger but hold no locks of their own,
// so a slow fetch never blocks other requests.
type Pipeline struct {
	cfg        *config.Config
	validator  *validate.Validator
	limiter    *ratelimit.Limiter
	store      *database.Store
	aggregator *database.Aggregator
	fetcher    Fetcher
	counter    *counter.Counter
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithFetcher replaces the page fetcher. Tests use this to substitute a
// call-counting spy.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) {
		p.fetcher = f
	}
}

// New creates a Pipeline wired to the given store. All collaborators are
// constructed from the config unless overridden by options.
func New(cfg *config.Config, store *database.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		validator:  validate.New(cfg),
		store:      store,
		aggregator: store.Aggregator(),
		counter:    counter.New(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.fetcher == nil {
		p.fetcher = fetcher.New(cfg)
	}
	p.limiter = ratelimit.New(store, cfg, p.logger)

	return p
}

// Process runs one request through the pipeline and always returns a
// response; internal failures are translated to generic user-facing
// messages and nothing escapes as a panic.
func (p *Pipeline) Process(ctx context.Context, req model.Request) (resp *model.Response) {
	// Boundary guard: a bug anywhere below becomes a generic failure
	// response instead of taking down the caller.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic", "panic", r, "url", req.URL, "tag", req.Tag)
			resp = model.Failure(msgGeneric)
		}
	}()

	// Re-check the upstream contract. A violation here is a caller bug,
	// but it is still reported as a plain failure.
	fullURL, err := p.validator.URL(req.URL)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return model.Failure(err.Error())
	}
	tag, err := p.validator.Tag(req.Tag)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return model.Failure(err.Error())
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = "local"
	}
	decision, err := p.limiter.Admit(ctx, clientID)
	if err != nil {
		return p.internalFailure(err, fullURL, tag)
	}
	if !decision.Allowed {
		metrics.RequestsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return model.Failure(decision.Reason)
	}

	domain, path, err := validate.SplitURL(fullURL)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return model.Failure(err.Error())
	}

	if !req.BypassCache {
		cached, err := p.store.LookupFresh(ctx, fullURL, tag, p.cfg.CacheFreshness)
		if err != nil {
			return p.internalFailure(err, fullURL, tag)
		}
		if cached != nil {
			stats, err := p.aggregator.Aggregate(ctx, domain, tag)
			if err != nil {
				return p.internalFailure(err, fullURL, tag)
			}
			metrics.RequestsTotal.WithLabelValues(metrics.OutcomeCached).Inc()
			return &model.Response{
				Success:    true,
				Cached:     true,
				Result:     cached,
				Statistics: stats,
			}
		}
	}

	page, fetchErr := p.fetcher.Fetch(ctx, fullURL)
	if fetchErr != nil {
		return p.recordFailure(ctx, domain, path, fullURL, tag, fetchErr)
	}

	count := p.counter.Count(page.Body, tag)

	recordID, err := p.store.RecordRequest(ctx, database.RecordParams{
		Domain:      domain,
		Path:        path,
		FullURL:     fullURL,
		Tag:         tag,
		Count:       count,
		FetchTimeMs: page.FetchTimeMs,
		SizeBytes:   page.SizeBytes,
	})
	if err != nil {
		return p.internalFailure(err, fullURL, tag)
	}
	p.logger.Debug("recorded request",
		"record_id", recordID,
		"url", fullURL,
		"tag", tag,
		"count", count,
	)

	// Statistics are computed after persistence so they include the
	// record just written.
	stats, err := p.aggregator.Aggregate(ctx, domain, tag)
	if err != nil {
		return p.internalFailure(err, fullURL, tag)
	}

	metrics.RequestsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.FetchDuration.Observe(float64(page.FetchTimeMs) / 1000)

	return &model.Response{
		Success: true,
		Cached:  false,
		Result: &model.CountResult{
			URL:         fullURL,
			Tag:         tag,
			Count:       count,
			FetchTimeMs: page.FetchTimeMs,
			Timestamp:   time.Now().UTC(),
		},
		Statistics: stats,
	}
}

// recordFailure persists a failed attempt and reports the fetch failure
// to the caller. Fetch errors are data: the record captures the message
// and measured fetch time with zeroed count and size.
func (p *Pipeline) recordFailure(ctx context.Context, domain, path, fullURL, tag string, fetchErr *fetcher.Error) *model.Response {
	metrics.RequestsTotal.WithLabelValues(metrics.OutcomeFetchFail).Inc()
	metrics.FetchFailures.WithLabelValues(kindLabel(fetchErr.Kind)).Inc()

	_, err := p.store.RecordRequest(ctx, database.RecordParams{
		Domain:       domain,
		Path:         path,
		FullURL:      fullURL,
		Tag:          tag,
		FetchTimeMs:  fetchErr.FetchTimeMs,
		ErrorMessage: fetchErr.Message,
	})
	if err != nil {
		// The fetch failure still reaches the user; the persistence
		// failure is logged with context for the operator.
		return p.internalFailure(err, fullURL, tag)
	}

	return model.Failure(fetchErr.Message)
}

// kindLabel maps a fetch failure kind to its metrics label.
func kindLabel(k fetcher.Kind) string {
	switch k {
	case fetcher.KindUnresolvableHost:
		return "unresolvable_host"
	case fetcher.KindConnectionRefused:
		return "connection_refused"
	case fetcher.KindTimeout:
		return "timeout"
	case fetcher.KindTLS:
		return "tls"
	case fetcher.KindHTTPStatus:
		return "http_status"
	case fetcher.KindEmptyResponse:
		return "empty_response"
	case fetcher.KindSuspiciouslySmall:
		return "suspiciously_small"
	case fetcher.KindNotHTML:
		return "not_html"
	default:
		return "transport"
	}
}
