package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind identifies a fetch failure category.
type Kind int

// Fetch failure categories, ordered most specific first.
const (
	// KindUnresolvableHost is a DNS name resolution failure.
	KindUnresolvableHost Kind = iota

	// KindConnectionRefused means the server actively refused the connection.
	KindConnectionRefused

	// KindTimeout covers connect and total-budget timeouts.
	KindTimeout

	// KindTLS covers TLS handshake and certificate verification failures.
	KindTLS

	// KindHTTPStatus is an HTTP response with status >= 400.
	KindHTTPStatus

	// KindEmptyResponse means the server returned no body.
	KindEmptyResponse

	// KindSuspiciouslySmall means the body was under the small-response
	// threshold, a heuristic for bot-block and CAPTCHA pages.
	KindSuspiciouslySmall

	// KindNotHTML means the response is not an HTML document.
	KindNotHTML

	// KindTransport is the generic fallback for unclassified transport
	// failures (e.g. exceeding the redirect cap).
	KindTransport
)

// Error is a typed fetch failure. It carries a stable user-facing message
// and the elapsed time so failed attempts can still be recorded.
type Error struct {
	// Kind is the failure category.
	Kind Kind

	// StatusCode is the HTTP status for KindHTTPStatus, zero otherwise.
	StatusCode int

	// Message is the stable user-facing description.
	Message string

	// FetchTimeMs is the elapsed time until the failure was observed.
	FetchTimeMs int64
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// kindMessages are the stable user-facing messages per failure category.
var kindMessages = map[Kind]string{
	KindUnresolvableHost:  "Unable to resolve domain name. Please check the URL.",
	KindConnectionRefused: "Connection refused by the server. The website may be down.",
	KindTimeout:           "Request timed out. The website is taking too long to respond.",
	KindTLS:               "SSL certificate error. The website may have security issues.",
	KindEmptyResponse:     "The website returned empty content.",
	KindSuspiciouslySmall: "Received suspiciously small response. The website might be blocking automated requests.",
	KindNotHTML:           "The URL does not contain valid HTML content.",
	KindTransport:         "Failed to fetch the URL. Please try again.",
}

// statusMessages are the per-code user-facing messages for HTTP failures.
var statusMessages = map[int]string{
	400: "Bad request (400). The server cannot process the request.",
	401: "Unauthorized (401). Authentication is required.",
	403: "Access forbidden (403). The website blocked our request.",
	404: "Page not found (404). Please check the URL.",
	500: "Server error (500). The website is experiencing technical difficulties.",
	502: "Bad gateway (502). The website server is having issues.",
	503: "Service unavailable (503). The website is temporarily down.",
	504: "Gateway timeout (504). The website server is taking too long to respond.",
}

// newError builds an Error for the given category.
func newError(kind Kind, fetchTimeMs int64) *Error {
	return &Error{
		Kind:        kind,
		Message:     kindMessages[kind],
		FetchTimeMs: fetchTimeMs,
	}
}

// newStatusError builds an Error for an HTTP status >= 400, using the
// per-code message when one exists and a generic fallback otherwise.
func newStatusError(code int, fetchTimeMs int64) *Error {
	msg, ok := statusMessages[code]
	if !ok {
		msg = fmt.Sprintf("HTTP error (%d). Unable to fetch the page.", code)
	}
	return &Error{
		Kind:        KindHTTPStatus,
		StatusCode:  code,
		Message:     msg,
		FetchTimeMs: fetchTimeMs,
	}
}

// classifyTransportError maps a transport-level error to a typed Error.
// Checks run most specific first: DNS, connection refused, timeout, TLS,
// then the generic transport fallback.
func classifyTransportError(err error, fetchTimeMs int64) *Error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return newError(KindUnresolvableHost, fetchTimeMs)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return newError(KindConnectionRefused, fetchTimeMs)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, fetchTimeMs)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, fetchTimeMs)
	}

	var certErr *tls.CertificateVerificationError
	var hostErr x509.HostnameError
	var unknownAuthErr x509.UnknownAuthorityError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &recordErr) {
		return newError(KindTLS, fetchTimeMs)
	}
	// Some TLS failures surface only as wrapped string errors.
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "tls") || strings.Contains(lower, "certificate") {
		return newError(KindTLS, fetchTimeMs)
	}

	return newError(KindTransport, fetchTimeMs)
}

// nonHTMLContentTypes are content types that definitively identify a
// non-HTML resource.
var nonHTMLContentTypes = []string{
	"application/json",
	"application/xml",
	"text/plain",
	"image/",
	"application/pdf",
}

// htmlMarkers are byte sequences whose presence identifies HTML content.
// The <p check is deliberately lenient: some minimal pages carry neither
// an <html> element nor a doctype.
var htmlMarkers = [][]byte{
	[]byte("<html"),
	[]byte("<!doctype"),
	[]byte("<p"),
}

// classifyNotHTML reports whether the response should be rejected as
// non-HTML, either because the content type names a non-HTML format or
// because the body lacks any HTML marker.
func classifyNotHTML(contentType string, body []byte) (Kind, bool) {
	ct := strings.ToLower(contentType)
	if ct != "" {
		for _, bad := range nonHTMLContentTypes {
			if strings.Contains(ct, bad) {
				return KindNotHTML, true
			}
		}
	}

	lower := bytes.ToLower(body)
	for _, marker := range htmlMarkers {
		if bytes.Contains(lower, marker) {
			return 0, false
		}
	}
	return KindNotHTML, true
}
