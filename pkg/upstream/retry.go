package upstream

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig is the backoff schedule of one upstream fetch.
type RetryConfig struct {
	// MaxAttempts counts the initial request.
	MaxAttempts int

	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64

	// Jitter spreads each delay by ±Jitter of its value. Zero disables it.
	Jitter float64
}

// DefaultRetryConfig returns the schedule used for unclassified failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}
}

// RetryConfigForErrorClass returns the schedule for an error class. Feeds are
// polled again on the next sync, so schedules stay short; only rate limiting
// waits long, and then usually as long as Retry-After says.
func RetryConfigForErrorClass(errorClass ErrorClass) RetryConfig {
	cfg := DefaultRetryConfig()
	switch errorClass {
	case ErrorClassServer:
		cfg.MaxBackoff = 5 * time.Second
	case ErrorClassRateLimit:
		cfg.MaxAttempts = 2
		cfg.InitialBackoff = 5 * time.Second
		cfg.MaxBackoff = time.Minute
	case ErrorClassNetwork:
		cfg.InitialBackoff = time.Second
	}
	return cfg
}

// delay returns the wait before the next attempt. A Retry-After sent by the
// upstream replaces the computed backoff but never exceeds MaxBackoff.
func (c RetryConfig) delay(backoff time.Duration, err error) time.Duration {
	if after := retryAfterOf(err); after > 0 {
		return min(after, c.MaxBackoff)
	}
	if c.Jitter <= 0 {
		return backoff
	}
	return time.Duration(float64(backoff) * (1 - c.Jitter + rand.Float64()*2*c.Jitter))
}

func (c RetryConfig) next(backoff time.Duration) time.Duration {
	return min(time.Duration(float64(backoff)*c.BackoffMultiplier), c.MaxBackoff)
}

// parseRetryAfter reads a Retry-After value in either delay-seconds or
// HTTP-date form. Anything unparseable or in the past yields zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}

// retryWithBackoff runs fn until it succeeds, fails with a non-retriable
// class, or runs out of attempts. The schedule comes from override when set,
// otherwise from the class of the first failure.
func retryWithBackoff(ctx context.Context, override *RetryConfig, fn func() error) error {
	var (
		config  RetryConfig
		backoff time.Duration
		lastErr error
		class   ErrorClass
	)

	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Info().Str("error_class", string(class)).Int("attempt", attempt).
					Msg("Upstream fetch succeeded after retry")
			}
			return nil
		}

		class = classOf(lastErr)
		if !shouldRetry(class) {
			return lastErr
		}

		if attempt == 1 {
			config = RetryConfigForErrorClass(class)
			if override != nil {
				config = *override
			}
			backoff = config.InitialBackoff
		}
		if attempt >= config.MaxAttempts {
			break
		}

		wait := config.delay(backoff, lastErr)
		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())
		log.Debug().Err(lastErr).Int("attempt", attempt).Dur("backoff", wait).
			Msg("Retrying upstream fetch")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
		backoff = config.next(backoff)
	}

	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	log.Warn().Err(lastErr).Int("max_attempts", config.MaxAttempts).Msg("Upstream retries exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
