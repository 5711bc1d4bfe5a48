package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tagscan/tagscan/internal/config"
	"github.com/tagscan/tagscan/internal/database"
	"github.com/tagscan/tagscan/internal/fetcher"
	"github.com/tagscan/tagscan/internal/log"
	"github.com/tagscan/tagscan/internal/model"
	"github.com/tagscan/tagscan/internal/pipeline"
	"github.com/tagscan/tagscan/internal/ratelimit"
)

// stubFetcher returns a fixed HTML page for every URL.
type stubFetcher struct {
	body string
}

func (s stubFetcher) Fetch(context.Context, string) (*fetcher.Page, *fetcher.Error) {
	return &fetcher.Page{
		Body:        []byte(s.body),
		FetchTimeMs: 10,
		SizeBytes:   int64(len(s.body)),
	}, nil
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	store, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.NewLogger(io.Discard, false)
	p := pipeline.New(cfg, store,
		pipeline.WithLogger(logger),
		pipeline.WithFetcher(stubFetcher{body: `<html><body><img><img><img></body></html>`}),
	)
	return New(cfg, p, logger)
}

func postCount(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/count", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.9:54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleCount(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, config.NewConfig())
		rec := postCount(t, srv.Router(), `{"url": "example.com", "tag": "img"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
		}

		var resp model.Response
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if !resp.Success {
			t.Fatalf("Success = false: %s", resp.Error)
		}
		if resp.Result.Count != 3 {
			t.Errorf("Count = %d, want 3", resp.Result.Count)
		}
		if resp.Statistics == nil {
			t.Error("Statistics = nil")
		}
		if rec.Header().Get(requestIDHeader) == "" {
			t.Error("response lacks request ID header")
		}
	})

	t.Run("invalid json body", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, config.NewConfig())
		rec := postCount(t, srv.Router(), `{not json`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("blocked url", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, config.NewConfig())
		rec := postCount(t, srv.Router(), `{"url": "http://127.0.0.1", "tag": "img"}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.MinuteLimit = 1
		srv := newTestServer(t, cfg)
		handler := srv.Router()

		if rec := postCount(t, handler, `{"url": "example.com", "tag": "img"}`); rec.Code != http.StatusOK {
			t.Fatalf("first request status = %d, want %d", rec.Code, http.StatusOK)
		}
		rec := postCount(t, handler, `{"url": "example.com", "tag": "img", "bypass_cache": true}`)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
		}
	})

	t.Run("client cannot choose its own identity", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.MinuteLimit = 1
		srv := newTestServer(t, cfg)
		handler := srv.Router()

		// Forged loopback forwarding headers are ignored; both requests
		// attribute to the connection address and the second is rejected.
		req := httptest.NewRequest(http.MethodPost, "/api/v1/count",
			strings.NewReader(`{"url": "example.com", "tag": "img", "bypass_cache": true}`))
		req.RemoteAddr = "203.0.113.9:54321"
		req.Header.Set("X-Forwarded-For", "127.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("first request status = %d, want %d", rec.Code, http.StatusOK)
		}

		rec = postCount(t, handler, `{"url": "example.com", "tag": "img", "bypass_cache": true}`)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.NewConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, config.NewConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *model.Response
		want int
	}{
		{
			name: "success",
			resp: &model.Response{Success: true},
			want: http.StatusOK,
		},
		{
			name: "minute limit",
			resp: model.Failure(ratelimit.ReasonMinuteExceeded),
			want: http.StatusTooManyRequests,
		},
		{
			name: "hour limit",
			resp: model.Failure(ratelimit.ReasonHourExceeded),
			want: http.StatusTooManyRequests,
		},
		{
			name: "other failure",
			resp: model.Failure("invalid hostname in URL"),
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := statusFor(tt.resp); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "connection address",
			remoteAddr: "203.0.113.9:54321",
			want:       "203.0.113.9",
		},
		{
			name:       "forwarded-for first hop wins",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"},
			want:       "198.51.100.7",
		},
		{
			name:       "real-ip fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-Ip": "198.51.100.8"},
			want:       "198.51.100.8",
		},
		{
			name:       "private forwarded candidate skipped",
			remoteAddr: "203.0.113.9:54321",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.50"},
			want:       "203.0.113.9",
		},
		{
			name:       "garbage forwarded candidate skipped",
			remoteAddr: "203.0.113.9:54321",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
