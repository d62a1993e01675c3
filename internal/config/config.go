// Package config loads mirror settings from an optional YAML file and fills in
// defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting for one mirror run.
type Config struct {
	EntryURL      string `yaml:"entry_url"`
	OutputDir     string `yaml:"output_dir"`
	EntryFilename string `yaml:"entry_filename"`

	LogDir     string `yaml:"log_dir"`
	LogFile    string `yaml:"log_file"`
	LogBackups int    `yaml:"log_backups"`

	StaticSuffixes []string `yaml:"static_suffixes"`
	PageSuffixes   []string `yaml:"page_suffixes"`
	Extractor      string   `yaml:"extractor"`
	StrictResolve  bool     `yaml:"strict_resolve"`

	Workers      int           `yaml:"workers"`
	RateLimit    float64       `yaml:"rate_limit"`
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		EntryFilename:  "index.html",
		LogFile:        "template-downloader.log",
		LogBackups:     365,
		StaticSuffixes: []string{".js", ".css", ".jpeg", ".jpg", ".png", ".ico"},
		PageSuffixes:   []string{".html", ".htm"},
		Extractor:      "regex",
		Workers:        1,
		Timeout:        30 * time.Second,
		UserAgent:      "tplmirror/1.0",
		MaxBodyBytes:   50 * 1024 * 1024,
	}
}

// Load reads the YAML file at path on top of Default. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.EntryURL)
	switch {
	case c.EntryURL == "":
		errs = append(errs, errors.New("entry url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("entry url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https" || u.Host == "":
		errs = append(errs, fmt.Errorf("entry url %q must be an absolute http(s) URL", c.EntryURL))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.EntryFilename == "" {
		errs = append(errs, errors.New("entry filename must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit))
	}
	if len(c.StaticSuffixes) == 0 {
		errs = append(errs, errors.New("static suffix list is empty"))
	}
	if len(c.PageSuffixes) == 0 {
		errs = append(errs, errors.New("page suffix list is empty"))
	}
	switch c.Extractor {
	case "regex", "tokenizer":
	default:
		errs = append(errs, fmt.Errorf("unknown extractor %q", c.Extractor))
	}
	return errors.Join(errs...)
}

// LogDirectory returns where the log file goes: LogDir, or the output
// directory when unset.
func (c *Config) LogDirectory() string {
	if c.LogDir != "" {
		return c.LogDir
	}
	return c.OutputDir
}
