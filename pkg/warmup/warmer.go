package warmup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds warmer configuration
type Config struct {
	// MaxConcurrency is the number of pages rendered in parallel
	MaxConcurrency int
	// Timeout per page render
	Timeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// Renderer renders one page of a feed in one format and stores it.
type Renderer interface {
	RenderPage(ctx context.Context, feed string, page int64, format string) error
}

// Job is one page render.
type Job struct {
	Page   int64
	Format string
}

// Result summarizes a warm-up run.
type Result struct {
	Rendered int
	Failed   int
	Duration time.Duration
}

// Warmer renders pages with a worker pool
type Warmer struct {
	renderer Renderer
	config   Config
}

// New creates a warmer
func New(renderer Renderer, config Config) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Warmer{renderer: renderer, config: config}
}

// Warm renders pages [0, mostRecent) of feed in each format. It returns an
// error only when the context ends before every job ran.
func (w *Warmer) Warm(ctx context.Context, feed string, mostRecent int64, formats []string) (Result, error) {
	start := time.Now()
	total := int(mostRecent) * len(formats)
	if total <= 0 {
		return Result{Duration: time.Since(start)}, nil
	}

	log.Info().
		Str("feed", feed).
		Int64("pages", mostRecent).
		Int("jobs", total).
		Msg("Starting cache warm-up")

	jobs := make(chan Job)

	go func() {
		defer close(jobs)
		for page := int64(0); page < mostRecent; page++ {
			for _, format := range formats {
				select {
				case jobs <- Job{Page: page, Format: format}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result Result
	)
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			processed := 0
			for job := range jobs {
				err := w.render(ctx, feed, job)

				mu.Lock()
				if err != nil {
					result.Failed++
				} else {
					result.Rendered++
				}
				done := result.Rendered + result.Failed
				mu.Unlock()

				if err != nil {
					log.Warn().
						Err(err).
						Int("worker_id", workerID).
						Int64("page", job.Page).
						Str("format", job.Format).
						Msg("Page render failed")
				}
				processed++

				if done%50 == 0 {
					log.Info().
						Int("done", done).
						Int("total", total).
						Float64("progress_pct", float64(done)/float64(total)*100).
						Msg("Warm-up progress")
				}
			}
			if processed > 0 {
				log.Debug().
					Int("worker_id", workerID).
					Int("pages_processed", processed).
					Msg("Worker completed")
			}
		}(i)
	}
	wg.Wait()

	result.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("warm-up interrupted (%d/%d pages): %w", result.Rendered, total, err)
	}

	log.Info().
		Str("feed", feed).
		Int("rendered", result.Rendered).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Cache warm-up complete")

	return result, nil
}

func (w *Warmer) render(ctx context.Context, feed string, job Job) error {
	pageCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()
	return w.renderer.RenderPage(pageCtx, feed, job.Page, job.Format)
}
