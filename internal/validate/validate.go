// Package validate re-checks the upstream input contract before the
// pipeline does any work.
//
// Callers are expected to hand the pipeline a security-screened URL and
// tag name. A violation here indicates a programming error in the
// caller; the checks are cheap enough to run on every request.
package validate

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/tagscan/tagscan/internal/config"
)

// Validation errors returned to callers. Messages are user-facing.
var (
	// ErrEmptyURL is returned when no URL was provided.
	ErrEmptyURL = errors.New("a URL is required")

	// ErrInvalidURL is returned when the URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrUnsupportedScheme is returned for non-HTTP(S) schemes,
	// including data: and javascript: pseudo-URLs.
	ErrUnsupportedScheme = errors.New("only HTTP and HTTPS URLs are supported")

	// ErrMissingHost is returned when the URL has no hostname.
	ErrMissingHost = errors.New("invalid hostname in URL")

	// ErrBlockedHost is returned for loopback, private, link-local,
	// and explicitly blocked hosts.
	ErrBlockedHost = errors.New("local and private addresses are not allowed")

	// ErrBlockedExtension is returned when the URL path ends in a
	// disallowed file extension.
	ErrBlockedExtension = errors.New("that file type is not allowed")

	// ErrEmptyTag is returned when no tag name was provided.
	ErrEmptyTag = errors.New("a tag name is required")

	// ErrInvalidTag is returned when the tag name is not a plausible
	// HTML tag name.
	ErrInvalidTag = errors.New("invalid HTML tag name: use only letters and numbers, starting with a letter")

	// ErrTagTooLong is returned when the tag name exceeds the length cap.
	ErrTagTooLong = errors.New("tag name is too long")
)

// tagNamePattern matches valid lowercase HTML tag names.
var tagNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// Validator checks URLs and tag names against the configured policy.
type Validator struct {
	blockedHosts      map[string]bool
	blockedExtensions []string
	maxTagLength      int
}

// New creates a Validator from the configuration.
func New(cfg *config.Config) *Validator {
	blocked := make(map[string]bool, len(cfg.BlockedHosts))
	for _, h := range cfg.BlockedHosts {
		blocked[strings.ToLower(h)] = true
	}
	return &Validator{
		blockedHosts:      blocked,
		blockedExtensions: cfg.BlockedExtensions,
		maxTagLength:      cfg.MaxTagLength,
	}
}

// URL validates and normalizes a target URL. A missing scheme defaults to
// http://, the host is lowercased, and the normalized URL string is
// returned. Private and loopback IP literals are rejected; hostnames are
// checked against the blocked list only, without DNS resolution, so that
// validation never blocks on the network.
func (v *Validator) URL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	// Catch pseudo-URL schemes before scheme defaulting would mangle them.
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "javascript:") {
		return "", ErrUnsupportedScheme
	}

	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrUnsupportedScheme
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", ErrMissingHost
	}
	if v.blockedHosts[host] {
		return "", ErrBlockedHost
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return "", ErrBlockedHost
		}
	}

	pathLower := strings.ToLower(u.Path)
	for _, ext := range v.blockedExtensions {
		if strings.HasSuffix(pathLower, ext) {
			return "", ErrBlockedExtension
		}
	}

	// Normalize the host casing in the returned URL.
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

// Tag validates and normalizes a tag name, returning it lowercased.
func (v *Validator) Tag(raw string) (string, error) {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if tag == "" {
		return "", ErrEmptyTag
	}
	if len(tag) > v.maxTagLength {
		return "", ErrTagTooLong
	}
	if !tagNamePattern.MatchString(tag) {
		return "", ErrInvalidTag
	}
	return tag, nil
}

// SplitURL breaks a normalized URL into its domain and path+query parts
// for dimension record lookups. The path defaults to "/" when empty.
func SplitURL(normalized string) (domain, path string, err error) {
	u, err := url.Parse(normalized)
	if err != nil {
		return "", "", ErrInvalidURL
	}
	domain = strings.ToLower(u.Hostname())
	path = u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return domain, path, nil
}
