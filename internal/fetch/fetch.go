// Package fetch implements the HTTP GET primitive the crawler downloads
// pages and resources with.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned for a 404 response.
var ErrNotFound = errors.New("not found")

// ErrTooLarge is returned when a body exceeds Config.MaxBytes.
var ErrTooLarge = errors.New("response body too large")

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.Code)
}

// Config configures a Fetcher.
type Config struct {
	Timeout      time.Duration // per request. Default: 30s.
	MaxBytes     int64         // body cap. Default: 50MB.
	UserAgent    string
	MaxRedirects int     // Default: 10.
	RateLimit    float64 // requests per second; 0 disables throttling.
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 50 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "tplmirror/1.0"
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 10
	}
}

// Fetcher performs GET requests.
type Fetcher struct {
	client  *http.Client
	config  Config
	limiter *rate.Limiter
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	maxRedirects := cfg.MaxRedirects

	f := &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
	}
	if cfg.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return f
}

// Fetch downloads url and returns its body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, ErrTooLarge
	}
	return body, nil
}
