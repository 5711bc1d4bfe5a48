package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// sensitiveKeys contains attribute keys that are always masked.
// The fetcher sends browser-like headers and may log request metadata;
// anything resembling a credential must never reach the log output.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"proxy-authorization": true,
	"password":            true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"apikey":              true,
	"api-key":             true,
	"session":             true,
	"credential":          true,
	"credentials":         true,
}

// filePathPattern matches absolute file paths embedded in error strings,
// e.g. "open /var/lib/tagscan/tagscan.db: permission denied".
var filePathPattern = regexp.MustCompile(`(?:in )?/[^\s:]+`)

// lineNumberPattern matches "on line 42" style fragments.
var lineNumberPattern = regexp.MustCompile(`on line \d+`)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// MaxMessageLength is the longest sanitized message we emit.
// Anything longer is truncated with an ellipsis.
const MaxMessageLength = 200

// SanitizeMessage strips file paths and line numbers from an error or log
// message and truncates it to MaxMessageLength. It is used both by the
// handler below and by the pipeline boundary before an internal error
// message is inspected for user-facing translation.
func SanitizeMessage(message string) string {
	message = filePathPattern.ReplaceAllString(message, "")
	message = lineNumberPattern.ReplaceAllString(message, "")
	message = strings.Join(strings.Fields(message), " ")
	if len(message) > MaxMessageLength {
		// Back up to a rune boundary so truncation never emits invalid UTF-8.
		cut := MaxMessageLength
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut] + "..."
	}
	return strings.TrimSpace(message)
}

// SanitizeHandler wraps an slog.Handler to sanitize attribute values.
// Sensitive keys are masked and "error" attributes are scrubbed of file
// paths before being passed to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because it integrates with standard slog APIs and works with any
// underlying handler (text, JSON, etc.).
type SanitizeHandler struct {
	handler slog.Handler
}

// NewSanitizeHandler creates a SanitizeHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSanitizeHandler(handler slog.Handler) *SanitizeHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SanitizeHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SanitizeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *SanitizeHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added,
// sanitized first.
func (h *SanitizeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SanitizeHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SanitizeHandler) WithGroup(name string) slog.Handler {
	return &SanitizeHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SanitizeHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] {
		return slog.String(a.Key, MaskValue)
	}

	// Error values carry internal detail that should not leak verbatim.
	if keyLower == "error" || keyLower == "err" {
		return slog.String(a.Key, SanitizeMessage(a.Value.String()))
	}

	return a
}

// NewLogger creates a *slog.Logger writing text output to w through the
// sanitizing handler. Verbose selects Debug level; otherwise Warn.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSanitizeHandler(textHandler))
}
