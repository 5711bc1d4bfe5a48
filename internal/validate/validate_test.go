package validate

import (
	"errors"
	"testing"

	"github.com/tagscan/tagscan/internal/config"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	return New(config.NewConfig())
}

func TestValidatorURL(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			name: "plain http url",
			raw:  "http://example.com/page",
			want: "http://example.com/page",
		},
		{
			name: "missing scheme defaults to http",
			raw:  "example.com",
			want: "http://example.com",
		},
		{
			name: "host lowercased",
			raw:  "https://EXAMPLE.COM/Path",
			want: "https://example.com/Path",
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  http://example.com  ",
			want: "http://example.com",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: ErrEmptyURL,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: ErrEmptyURL,
		},
		{
			name:    "data pseudo-url",
			raw:     "data:text/html,<h1>x</h1>",
			wantErr: ErrUnsupportedScheme,
		},
		{
			name:    "javascript pseudo-url",
			raw:     "javascript:alert(1)",
			wantErr: ErrUnsupportedScheme,
		},
		{
			name:    "loopback ip literal",
			raw:     "http://127.0.0.1",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "loopback with port and path",
			raw:     "http://127.0.0.1:8080/admin",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "private ipv4",
			raw:     "http://192.168.1.10/router",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "private ten range",
			raw:     "http://10.0.0.5",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "link local",
			raw:     "http://169.254.169.254/latest/meta-data",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "unspecified address",
			raw:     "http://0.0.0.0",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "ipv6 loopback",
			raw:     "http://[::1]/",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "localhost hostname",
			raw:     "http://localhost/page",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "localhost case insensitive",
			raw:     "http://LOCALHOST",
			wantErr: ErrBlockedHost,
		},
		{
			name:    "blocked extension",
			raw:     "http://example.com/setup.exe",
			wantErr: ErrBlockedExtension,
		},
		{
			name:    "blocked extension case insensitive",
			raw:     "http://example.com/Setup.EXE",
			wantErr: ErrBlockedExtension,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := v.URL(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("URL(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("URL(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("URL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidatorURLExtraBlockedHost(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.BlockedHosts = append(cfg.BlockedHosts, "internal.corp")
	v := New(cfg)

	if _, err := v.URL("http://internal.corp/secrets"); !errors.Is(err, ErrBlockedHost) {
		t.Errorf("URL() error = %v, want %v", err, ErrBlockedHost)
	}
	if _, err := v.URL("http://example.com"); err != nil {
		t.Errorf("URL() unexpected error: %v", err)
	}
}

func TestValidatorTag(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "simple", raw: "img", want: "img"},
		{name: "uppercase normalized", raw: "DIV", want: "div"},
		{name: "digits after letter", raw: "h1", want: "h1"},
		{name: "whitespace trimmed", raw: "  span  ", want: "span"},
		{name: "empty", raw: "", wantErr: ErrEmptyTag},
		{name: "leading digit", raw: "1div", wantErr: ErrInvalidTag},
		{name: "hyphenated", raw: "my-element", wantErr: ErrInvalidTag},
		{name: "angle brackets", raw: "<img>", wantErr: ErrInvalidTag},
		{name: "too long", raw: "abcdefghijklmnopqrstu", wantErr: ErrTagTooLong},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := v.Tag(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Tag(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Tag(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Tag(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSplitURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		url        string
		wantDomain string
		wantPath   string
	}{
		{
			name:       "path and query",
			url:        "http://example.com/a?x=1",
			wantDomain: "example.com",
			wantPath:   "/a?x=1",
		},
		{
			name:       "bare host defaults to root path",
			url:        "http://example.com",
			wantDomain: "example.com",
			wantPath:   "/",
		},
		{
			name:       "port excluded from domain",
			url:        "http://example.com:8080/p",
			wantDomain: "example.com",
			wantPath:   "/p",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			domain, path, err := SplitURL(tt.url)
			if err != nil {
				t.Fatalf("SplitURL(%q) unexpected error: %v", tt.url, err)
			}
			if domain != tt.wantDomain {
				t.Errorf("domain = %q, want %q", domain, tt.wantDomain)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
		})
	}
}
