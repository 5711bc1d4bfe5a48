package pipeline

import (
	"strings"

	"github.com/tagscan/tagscan/internal/log"
	"github.com/tagscan/tagscan/internal/metrics"
	"github.com/tagscan/tagscan/internal/model"
)

// Generic user-facing messages for internal failures. The triggering
// error is logged with context but never echoed to the caller.
const (
	msgDatabase = "We had trouble connecting to the database. Please try again later."
	msgTimeout  = "The request took too long to respond. The website might be slow right now."
	msgResolve  = "We couldn't resolve the website address. Please double-check the URL."
	msgGeneric  = "Something unexpected went wrong. Please try again."
)

// internalFailure logs an internal error with its pipeline context and
// returns a generic user-facing failure selected by keyword inspection of
// the sanitized message.
func (p *Pipeline) internalFailure(err error, url, tag string) *model.Response {
	metrics.RequestsTotal.WithLabelValues(metrics.OutcomeStoreFail).Inc()
	p.logger.Error("pipeline internal error",
		"error", err,
		"url", url,
		"tag", tag,
	)
	return model.Failure(translateInternal(err))
}

// translateInternal maps an internal error to one of a small set of
// generic user messages. File paths and line numbers are stripped before
// inspection so nothing internal can leak through the keywords.
func translateInternal(err error) string {
	msg := strings.ToLower(log.SanitizeMessage(err.Error()))

	switch {
	case strings.Contains(msg, "database") || strings.Contains(msg, "sql") || strings.Contains(msg, "connection"):
		return msgDatabase
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return msgTimeout
	case strings.Contains(msg, "dns") || strings.Contains(msg, "resolve"):
		return msgResolve
	default:
		return msgGeneric
	}
}
