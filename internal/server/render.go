package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/atom-feed-server/pkg/cache"
	"github.com/Sternrassler/atom-feed-server/pkg/feed"
)

// ErrNoCache is returned by RenderPage when page caching is disabled.
var ErrNoCache = errors.New("page cache not configured")

// Formats returns the names of the available encoders.
func (s *Server) Formats() []string {
	names := make([]string, 0, len(s.encoders))
	for _, e := range []string{"atom", "json"} {
		if _, ok := s.encoders[e]; ok {
			names = append(names, e)
		}
	}
	for name := range s.encoders {
		if name != "atom" && name != "json" {
			names = append(names, name)
		}
	}
	return names
}

// RenderPage encodes a complete page into the page cache. Incomplete pages
// and pages already cached are skipped.
func (s *Server) RenderPage(ctx context.Context, name string, page int64, format string) error {
	if s.cache == nil {
		return ErrNoCache
	}
	f, ok := s.feeds[name]
	if !ok {
		return fmt.Errorf("unknown feed %q", name)
	}
	enc, ok := s.encoders[format]
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}

	resp, err := f.GetFeed(ctx, page, f.PageSize(), feed.Preconditions{})
	if err != nil {
		return err
	}
	if resp.Decision.State != feed.CachedStale {
		return nil
	}

	key := cache.PageKey{Feed: name, Page: page, PageSize: f.PageSize(), Format: format, ETag: string(resp.Decision.ETag)}
	if _, err := s.cache.Get(ctx, key); err == nil {
		return nil
	}

	body, err := encode(enc, resp.Document())
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, cache.NewEntry(body, enc.ContentType(), string(resp.Decision.ETag), resp.Decision.CacheControl, s.cacheTTL))
}

// MostRecentPage returns the head page of a feed.
func (s *Server) MostRecentPage(ctx context.Context, name string) (int64, error) {
	f, ok := s.feeds[name]
	if !ok {
		return 0, fmt.Errorf("unknown feed %q", name)
	}
	return f.MostRecentPage(ctx)
}
