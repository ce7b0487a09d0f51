// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration. Output defaults to os.Stderr and
// records are JSON unless Pretty is set.
type Config struct {
	Level  LogLevel
	Pretty bool
	Output io.Writer
}

// DefaultConfig returns info-level JSON logging to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// ParseLevel validates a level name. "warning" is accepted as an alias.
func ParseLevel(s string) (LogLevel, error) {
	switch l := LogLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	case "warning":
		return LevelWarn, nil
	default:
		return "", fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// Setup installs the global zerolog logger and returns it. Unknown levels
// fall back to info.
func Setup(cfg Config) zerolog.Logger {
	level, err := ParseLevel(string(cfg.Level))
	if err != nil {
		level = LevelInfo
	}
	zerolog.SetGlobalLevel(zerologLevels[level])
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

var zerologLevels = map[LogLevel]zerolog.Level{
	LevelDebug: zerolog.DebugLevel,
	LevelInfo:  zerolog.InfoLevel,
	LevelWarn:  zerolog.WarnLevel,
	LevelError: zerolog.ErrorLevel,
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ForFeed is NewLogger with the feed name attached.
func ForFeed(component, feed string) zerolog.Logger {
	return log.With().Str("component", component).Str("feed", feed).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Page evaluation (page, completeness, ETag, cache state)
//   - Page cache hits and misses
//   - Upstream conditional requests
//
// Info: Normal operation events
//   - Server startup/shutdown
//   - Mirrored upstream entries
//   - Cache warm-up progress
//
// Warn: Warning conditions that don't prevent operation
//   - Upstream retries and fail-open syncs
//   - Page cache errors (fallback to rendering)
//   - Sync gate unavailable
//
// Error: Error conditions requiring attention
//   - Failed feed requests (source errors)
//   - Upstream retries exhausted
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package
//   - feed: feed name
//   - page: page number
//   - etag: page validator
//   - state: cache decision (not_cached, cached_stale, cached_fresh, precondition_failed)
//   - request_id: chi request id
//   - status, duration: access log fields
