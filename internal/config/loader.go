package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".tagscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk YAML configuration shape.
// All fields are optional; zero values leave the corresponding Config
// field untouched.
type File struct {
	// ListenAddr overrides the HTTP API listen address.
	ListenAddr string `yaml:"listen_addr"`

	// DBDir overrides the database directory.
	DBDir string `yaml:"db_dir"`

	// UserAgent overrides the fetch User-Agent header.
	UserAgent string `yaml:"user_agent"`

	// FetchTimeoutSeconds overrides the total fetch timeout.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`

	// CacheFreshnessSeconds overrides the result cache window.
	CacheFreshnessSeconds int `yaml:"cache_freshness_seconds"`

	// MinuteLimit overrides the per-minute rate limit.
	MinuteLimit int `yaml:"minute_limit"`

	// HourLimit overrides the per-hour rate limit.
	HourLimit int `yaml:"hour_limit"`

	// BlockedHosts are additional hostnames to refuse. They are appended
	// to the built-in loopback list, never replacing it.
	BlockedHosts []string `yaml:"blocked_hosts"`
}

// LoadConfigFile loads configuration overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers should
// treat that as fatal only when the path was explicitly specified.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .tagscan in the current directory
// 3. Look for .tagscan in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply merges file overrides into the config. Only non-zero file fields
// take effect; blocked hosts are appended, not replaced.
func (c *Config) Apply(cf *File) {
	if cf == nil {
		return
	}
	if cf.ListenAddr != "" {
		c.ListenAddr = cf.ListenAddr
	}
	if cf.DBDir != "" {
		c.DBDir = cf.DBDir
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	if cf.FetchTimeoutSeconds > 0 {
		c.FetchTimeout = time.Duration(cf.FetchTimeoutSeconds) * time.Second
	}
	if cf.CacheFreshnessSeconds > 0 {
		c.CacheFreshness = time.Duration(cf.CacheFreshnessSeconds) * time.Second
	}
	if cf.MinuteLimit > 0 {
		c.MinuteLimit = cf.MinuteLimit
	}
	if cf.HourLimit > 0 {
		c.HourLimit = cf.HourLimit
	}
	c.BlockedHosts = append(c.BlockedHosts, cf.BlockedHosts...)
}
