package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/atom-feed-server/pkg/logging"
)

// Config holds the per-feed service settings.
type Config struct {
	// MaxAge is advertised for complete pages (Cache-Control max-age).
	MaxAge time.Duration

	// Generator overrides the generator name written into feeds.
	Generator string

	// ContentType is the type attribute of entry content.
	ContentType string
}

// Service validates requests, keeps the source in sync and delegates to the
// assembler.
type Service[E any] struct {
	source    EntrySource[E]
	assembler *Assembler[E]
	logger    zerolog.Logger
}

// NewService creates a service for one feed.
func NewService[E any](src EntrySource[E], cfg Config) *Service[E] {
	return &Service[E]{
		source: src,
		assembler: &Assembler[E]{
			Source:      src,
			Policy:      CachePolicy{MaxAge: cfg.MaxAge},
			Generator:   cfg.Generator,
			ContentType: cfg.ContentType,
		},
		logger: logging.ForFeed("feed", src.FeedName()),
	}
}

// Name returns the feed name.
func (s *Service[E]) Name() string {
	return s.source.FeedName()
}

// PageSize returns the canonical page size.
func (s *Service[E]) PageSize() int {
	return s.source.PageSize()
}

// ValidatePageSize rejects any page size other than the canonical one.
func ValidatePageSize(requested, canonical int) error {
	if requested != canonical {
		return &PageSizeError{Expected: canonical, Got: requested}
	}
	return nil
}

// MostRecentPage returns the number of the head page. When total is an exact
// multiple of pageSize the head page is the last full one, never an empty
// page beyond it. An empty feed has head page 0.
func MostRecentPage(total int64, pageSize int) int64 {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	size := int64(pageSize)
	page := total / size
	if total%size == 0 {
		page--
	}
	return page
}

// MostRecentPage reads the entry count from the source and returns the head page.
func (s *Service[E]) MostRecentPage(ctx context.Context) (int64, error) {
	total, err := s.source.TotalCount(ctx)
	if err != nil {
		return 0, err
	}
	return MostRecentPage(total, s.source.PageSize()), nil
}

// Sync refreshes the source.
func (s *Service[E]) Sync(ctx context.Context) error {
	if err := s.source.Sync(ctx); err != nil {
		SyncErrors.WithLabelValues(s.source.FeedName()).Inc()
		return err
	}
	return nil
}

// GetFeed returns an explicitly addressed page. The page size is checked
// before the source is touched.
func (s *Service[E]) GetFeed(ctx context.Context, page int64, pageSize int, pre Preconditions) (*Response, error) {
	if err := ValidatePageSize(pageSize, s.source.PageSize()); err != nil {
		s.observe(nil, err, time.Time{})
		return nil, err
	}

	start := time.Now()
	if err := s.Sync(ctx); err != nil {
		s.observe(nil, err, start)
		return nil, err
	}

	resp, err := s.assembler.Assemble(ctx, page, false, pre)
	s.observe(resp, err, start)
	return resp, err
}

// GetCurrentFeed returns the head page.
func (s *Service[E]) GetCurrentFeed(ctx context.Context, pre Preconditions) (*Response, error) {
	start := time.Now()
	if err := s.Sync(ctx); err != nil {
		s.observe(nil, err, start)
		return nil, err
	}

	page, err := s.MostRecentPage(ctx)
	if err != nil {
		s.observe(nil, err, start)
		return nil, err
	}

	resp, err := s.assembler.Assemble(ctx, page, true, pre)
	s.observe(resp, err, start)
	return resp, err
}

func (s *Service[E]) observe(resp *Response, err error, start time.Time) {
	name := s.source.FeedName()
	if !start.IsZero() {
		AssembleDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}

	switch {
	case errors.Is(err, ErrNotFound):
		Requests.WithLabelValues(name, "not_found").Inc()
		s.logger.Debug().Err(err).Msg("Page not found")
	case errors.Is(err, ErrInvalidPageSize):
		Requests.WithLabelValues(name, "invalid_page_size").Inc()
		s.logger.Debug().Err(err).Msg("Rejected page size")
	case err != nil:
		Requests.WithLabelValues(name, "error").Inc()
		s.logger.Error().Err(err).Msg("Feed request failed")
	default:
		Requests.WithLabelValues(name, resp.Decision.State.String()).Inc()
		s.logger.Debug().
			Int64("page", resp.Page).
			Bool("complete", resp.Complete).
			Str("etag", string(resp.Decision.ETag)).
			Str("state", resp.Decision.State.String()).
			Msg("Feed page evaluated")
	}
}
