// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Sternrassler/atom-feed-server/pkg/logging"
)

// Config is the complete server configuration.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty       bool          `env:"LOG_PRETTY"`
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"feeds.db"`
	RedisURL        string        `env:"REDIS_URL"`
	UserAgent       string        `env:"USER_AGENT" envDefault:"atom-feed-server/1.0"`
	PageCacheTTL    time.Duration `env:"PAGE_CACHE_TTL" envDefault:"24h"`
	WarmCache       bool          `env:"WARM_CACHE"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Feed Feed `envPrefix:"FEED_"`
}

// Feed configures the served feed.
type Feed struct {
	Name     string `env:"NAME" envDefault:"events"`
	URL      string `env:"URL"`
	PageSize int    `env:"PAGE_SIZE" envDefault:"20"`

	// MaxAgeSeconds is advertised in Cache-Control for complete pages.
	MaxAgeSeconds int `env:"MAX_AGE" envDefault:"0"`

	UpstreamURL  string        `env:"UPSTREAM_URL"`
	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"30s"`
	SyncFailOpen bool          `env:"SYNC_FAIL_OPEN" envDefault:"true"`
}

// MaxAge returns the Cache-Control max-age as a duration.
func (f Feed) MaxAge() time.Duration {
	return time.Duration(f.MaxAgeSeconds) * time.Second
}

// BaseURL returns the feed URL written into documents, defaulting to the
// feed's path on this server.
func (f Feed) BaseURL() string {
	if f.URL != "" {
		return f.URL
	}
	return "/feeds/" + f.Name
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and combinations.
func (c Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH must not be empty"))
	}
	if c.PageCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_CACHE_TTL must be positive (got %s)", c.PageCacheTTL))
	}
	if c.WarmCache && c.RedisURL == "" {
		errs = append(errs, errors.New("WARM_CACHE requires REDIS_URL"))
	}
	if c.RedisURL != "" {
		if _, err := url.Parse(c.RedisURL); err != nil {
			errs = append(errs, fmt.Errorf("REDIS_URL: %w", err))
		}
	}

	f := c.Feed
	if f.Name == "" || strings.ContainsAny(f.Name, "/ ") {
		errs = append(errs, fmt.Errorf("FEED_NAME %q must be non-empty without slashes or spaces", f.Name))
	}
	if f.PageSize < 1 {
		errs = append(errs, fmt.Errorf("FEED_PAGE_SIZE must be >= 1 (got %d)", f.PageSize))
	}
	if f.MaxAgeSeconds < 0 {
		errs = append(errs, fmt.Errorf("FEED_MAX_AGE must be >= 0 (got %d)", f.MaxAgeSeconds))
	}
	if f.SyncInterval < 0 {
		errs = append(errs, fmt.Errorf("FEED_SYNC_INTERVAL must be >= 0 (got %s)", f.SyncInterval))
	}
	if f.UpstreamURL != "" {
		u, err := url.Parse(f.UpstreamURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("FEED_UPSTREAM_URL %q must be an absolute http(s) URL", f.UpstreamURL))
		}
	}

	return errors.Join(errs...)
}
