package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Timeouts and limits mirror what well-behaved browsers and polite
// automated clients use for clearnet fetches.
const (
	// DefaultConnectTimeout bounds TCP connection establishment.
	// 15 seconds is generous enough for slow hosts while failing fast
	// on unreachable ones.
	DefaultConnectTimeout = 15 * time.Second

	// DefaultFetchTimeout bounds the entire fetch including redirects,
	// TLS handshake, and body download. Nothing should block longer.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxRedirects is the redirect hop limit. Five hops covers
	// the common http -> https -> www chains without chasing loops.
	DefaultMaxRedirects = 5

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent is a browser-like User-Agent. Many servers serve
	// bot-block pages to bare automated clients; a realistic header set
	// is how we obtain cooperative responses.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultCacheFreshness is the window within which a prior successful
	// (url, tag) result is reused instead of refetching.
	DefaultCacheFreshness = 300 * time.Second

	// DefaultMinuteLimit is the per-client request cap over one minute.
	DefaultMinuteLimit = 10

	// DefaultHourLimit is the per-client request cap over one hour.
	DefaultHourLimit = 100

	// DefaultRateWindowRetention is how long rate-window entries are kept.
	// Two hours gives a safety margin beyond the one-hour window so a
	// delayed purge can never discard entries a live window still needs.
	DefaultRateWindowRetention = 2 * time.Hour

	// DefaultSmallResponseBytes is the threshold below which a response
	// is treated as a probable bot-block or CAPTCHA page.
	DefaultSmallResponseBytes = 200

	// DefaultMaxTagLength is the longest accepted tag name.
	DefaultMaxTagLength = 20

	// DefaultListenAddr is the HTTP API listen address.
	DefaultListenAddr = ":8080"

	// DefaultBatchSize is the number of concurrent pipeline runs when the
	// CLI processes multiple URLs.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "tagscan"
)

// defaultBlockedHosts are hostnames that are never fetched regardless of
// configuration. They resolve to the local machine.
var defaultBlockedHosts = []string{
	"localhost",
	"127.0.0.1",
	"::1",
	"0.0.0.0",
}

// defaultBlockedExtensions are URL path suffixes that are refused.
// These are executable or script formats, not web pages.
var defaultBlockedExtensions = []string{
	".exe", ".bat", ".cmd", ".com", ".scr", ".pif", ".vbs", ".jar",
}

// Config holds all configuration options for tagscan.
// It is constructed once at startup, populated from CLI flags and an
// optional config file, and passed to components via dependency injection
// rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// because the number of options is manageable, and nesting would add
// complexity without significant benefit.
type Config struct {
	// ConnectTimeout bounds TCP connection establishment per fetch.
	ConnectTimeout time.Duration

	// FetchTimeout bounds the entire fetch, including body download.
	FetchTimeout time.Duration

	// MaxRedirects is the maximum number of redirect hops to follow.
	MaxRedirects int

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with fetches.
	UserAgent string

	// CacheFreshness is the result cache freshness window.
	CacheFreshness time.Duration

	// MinuteLimit is the per-client request cap over 60 seconds.
	MinuteLimit int

	// HourLimit is the per-client request cap over 3600 seconds.
	HourLimit int

	// RateWindowRetention is how long rate-window entries are retained
	// before being purge-eligible.
	RateWindowRetention time.Duration

	// SmallResponseBytes is the suspiciously-small response threshold.
	SmallResponseBytes int

	// MaxTagLength is the longest accepted tag name.
	MaxTagLength int

	// BlockedHosts are hostnames that are refused before any fetch.
	// Always includes the loopback defaults.
	BlockedHosts []string

	// BlockedExtensions are URL path suffixes that are refused.
	BlockedExtensions []string

	// DBDir is the directory holding the SQLite database file.
	// Defaults to the XDG data directory.
	DBDir string

	// ListenAddr is the HTTP API listen address for the serve command.
	ListenAddr string

	// BatchSize is the number of concurrent pipeline runs for the CLI.
	BatchSize int

	// Verbose enables slog.LevelDebug output. When false, only warnings
	// and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .tagscan in the current directory and then
	// in the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
// All fields are set to safe, sensible defaults; callers override
// specific values after creation.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero. It also documents the defaults.
func NewConfig() *Config {
	return &Config{
		ConnectTimeout:      DefaultConnectTimeout,
		FetchTimeout:        DefaultFetchTimeout,
		MaxRedirects:        DefaultMaxRedirects,
		MaxBodySize:         DefaultMaxBodySize,
		UserAgent:           DefaultUserAgent,
		CacheFreshness:      DefaultCacheFreshness,
		MinuteLimit:         DefaultMinuteLimit,
		HourLimit:           DefaultHourLimit,
		RateWindowRetention: DefaultRateWindowRetention,
		SmallResponseBytes:  DefaultSmallResponseBytes,
		MaxTagLength:        DefaultMaxTagLength,
		BlockedHosts:        append([]string(nil), defaultBlockedHosts...),
		BlockedExtensions:   append([]string(nil), defaultBlockedExtensions...),
		DBDir:               XDGDataDir(),
		ListenAddr:          DefaultListenAddr,
		BatchSize:           DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for tagscan.
// On Linux: ~/.local/share/tagscan
// On macOS: ~/Library/Application Support/tagscan
// On Windows: %LOCALAPPDATA%\tagscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found rather than collecting all errors,
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.ConnectTimeout <= 0 || c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRedirects < 0 {
		return ErrInvalidRedirects
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MinuteLimit <= 0 || c.HourLimit <= 0 {
		return ErrInvalidRateLimit
	}
	if c.CacheFreshness < 0 {
		return ErrInvalidCacheFreshness
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}
