package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tagscan/tagscan/internal/model"
	"github.com/tagscan/tagscan/internal/ratelimit"
)

// requestIDHeader carries the per-request correlation ID.
const requestIDHeader = "X-Request-Id"

// requestID attaches a UUID to every response for log correlation,
// preserving an inbound ID when the caller supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// handleCount runs one request through the pipeline.
// The rate-limit client identity is always derived server-side from the
// connection; callers cannot choose their own.
func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	var req model.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Failure("invalid JSON request body"))
		return
	}
	req.ClientID = clientIP(r)

	resp := s.pipeline.Process(r.Context(), req)
	writeJSON(w, statusFor(resp), resp)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps a pipeline response to an HTTP status code.
func statusFor(resp *model.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	if resp.Error == ratelimit.ReasonHourExceeded || resp.Error == ratelimit.ReasonMinuteExceeded {
		return http.StatusTooManyRequests
	}
	return http.StatusUnprocessableEntity
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP determines the caller's IP for rate limiting. Forwarding
// headers are consulted first so deployments behind a proxy attribute
// requests to the real client; candidates that are not valid public IPs
// are skipped before falling back to the connection address.
func clientIP(r *http.Request) string {
	candidates := make([]string, 0, 3)

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// Proxies append hops; the first entry is the original client.
		first, _, _ := strings.Cut(fwd, ",")
		candidates = append(candidates, strings.TrimSpace(first))
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		candidates = append(candidates, strings.TrimSpace(real))
	}

	for _, c := range candidates {
		ip := net.ParseIP(c)
		if ip != nil && !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
