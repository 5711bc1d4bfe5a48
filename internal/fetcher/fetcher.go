package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tagscan/tagscan/internal/config"
)

// Page is the successful outcome of a fetch.
type Page struct {
	// Body is the raw response body, decompressed.
	Body []byte

	// FetchTimeMs is the elapsed fetch time in milliseconds.
	FetchTimeMs int64

	// SizeBytes is the body size in bytes.
	SizeBytes int64
}

// Fetcher retrieves web pages over HTTP with bounded timeouts and
// redirects, classifying every failure into a typed category.
//
// Design decision: We build the http.Client internally from the config
// rather than accepting one, because the redirect cap and timeout budget
// are part of the fetcher's contract. Tests swap the transport via an
// option instead.
type Fetcher struct {
	// client is the HTTP client with the configured timeout budget.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits the response body size to read.
	maxBodySize int64

	// smallThreshold is the suspiciously-small response byte threshold.
	smallThreshold int

	// timeout is the total per-fetch budget.
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTransport replaces the underlying HTTP transport.
// Used by tests to intercept requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.client.Transport = rt
	}
}

// New creates a Fetcher from the configuration.
func New(cfg *config.Config, opts ...Option) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		// Leaving Accept-Encoding unset lets the transport negotiate gzip
		// and decode the body transparently.
	}

	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.FetchTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	f := &Fetcher{
		client:         client,
		userAgent:      cfg.UserAgent,
		maxBodySize:    cfg.MaxBodySize,
		smallThreshold: cfg.SmallResponseBytes,
		timeout:        cfg.FetchTimeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs an HTTP GET of the target URL. On success it returns the
// page; on failure it returns a typed *Error carrying a stable user-facing
// message and the elapsed time. Exactly one of the return values is nil.
// Network-level conditions never panic or escape as raw errors.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Page, *Error) {
	start := time.Now()

	// The fetch honors its own timeout budget independent of caller
	// cancellation: an abandoned request still completes or times out
	// within the configured bound, so resources stay bounded without
	// tearing down a fetch another cache reader could have reused.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, newError(KindTransport, elapsedMs(start))
	}
	f.setBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, elapsedMs(start))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, classifyTransportError(err, elapsedMs(start))
	}
	elapsed := elapsedMs(start)

	if resp.StatusCode >= 400 {
		return nil, newStatusError(resp.StatusCode, elapsed)
	}
	if len(body) == 0 {
		return nil, newError(KindEmptyResponse, elapsed)
	}
	if len(body) < f.smallThreshold {
		return nil, newError(KindSuspiciouslySmall, elapsed)
	}
	if kind, ok := classifyNotHTML(resp.Header.Get("Content-Type"), body); ok {
		return nil, newError(kind, elapsed)
	}

	return &Page{
		Body:        body,
		FetchTimeMs: elapsed,
		SizeBytes:   int64(len(body)),
	}, nil
}

// setBrowserHeaders applies a realistic browser-like header set.
// Servers that reject bare automated clients generally cooperate when the
// request looks like an ordinary navigation.
func (f *Fetcher) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("DNT", "1")
	req.Header.Set("Referer", "https://www.google.com/")
}

// elapsedMs returns the milliseconds elapsed since start, never negative.
func elapsedMs(start time.Time) int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
