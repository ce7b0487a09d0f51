package upstream

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/atom-feed-server/pkg/feed"
	"github.com/Sternrassler/atom-feed-server/pkg/logging"
	"github.com/Sternrassler/atom-feed-server/pkg/store"
	"github.com/Sternrassler/atom-feed-server/pkg/throttle"
)

// Fetcher retrieves a parsed upstream feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

// MirrorConfig configures a Mirror.
type MirrorConfig struct {
	// URL of the upstream feed.
	URL string

	// Gate limits how often Sync actually contacts the upstream. Nil syncs
	// on every call.
	Gate throttle.Gate

	// FailOpen makes Sync log upstream failures and return nil, so pages
	// are served from what is already stored.
	FailOpen bool
}

// Mirror is an EventSource whose Sync pulls new items from an upstream feed.
type Mirror struct {
	*store.EventSource

	fetcher  Fetcher
	url      string
	gate     throttle.Gate
	failOpen bool
	logger   zerolog.Logger
}

var _ feed.EntrySource[store.Event] = (*Mirror)(nil)

// NewMirror wraps src so that Sync mirrors cfg.URL into it.
func NewMirror(src *store.EventSource, fetcher Fetcher, cfg MirrorConfig) (*Mirror, error) {
	if src == nil {
		return nil, fmt.Errorf("event source is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("upstream url is required")
	}
	return &Mirror{
		EventSource: src,
		fetcher:     fetcher,
		url:         cfg.URL,
		gate:        cfg.Gate,
		failOpen:    cfg.FailOpen,
		logger:      logging.ForFeed("mirror", src.FeedName()).With().Str("upstream", cfg.URL).Logger(),
	}, nil
}

// Sync appends upstream items not yet stored.
func (m *Mirror) Sync(ctx context.Context) error {
	if m.gate != nil {
		ok, err := m.gate.Allow(ctx, m.FeedName())
		if err != nil {
			m.logger.Warn().Err(err).Msg("Sync gate unavailable, syncing anyway")
		} else if !ok {
			return nil
		}
	}

	added, err := m.pull(ctx)
	if err != nil {
		if m.failOpen {
			m.logger.Warn().Err(err).Msg("Upstream sync failed, serving stored entries")
			return nil
		}
		return err
	}
	if added > 0 {
		mirroredEntries.WithLabelValues(m.FeedName()).Add(float64(added))
		m.logger.Info().Int("added", added).Msg("Mirrored upstream entries")
	}
	return nil
}

func (m *Mirror) pull(ctx context.Context) (int, error) {
	parsed, err := m.fetcher.Fetch(ctx, m.url)
	if errors.Is(err, ErrNotModified) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetch upstream %s: %w", m.url, err)
	}

	events := ItemsToEvents(parsed.Items, time.Now())
	if skipped := len(parsed.Items) - len(events); skipped > 0 {
		m.logger.Warn().Int("skipped", skipped).Msg("Upstream items without id or link")
	}

	added, err := m.Append(ctx, events)
	if err != nil {
		return 0, fmt.Errorf("store upstream entries: %w", err)
	}
	return added, nil
}

// ItemsToEvents converts feed items into events, oldest first. Items are
// ordered by their updated (or published) time when every item has one,
// otherwise by reversed document order. Items with neither a guid nor a
// link are dropped; items without a time get now.
func ItemsToEvents(items []*gofeed.Item, now time.Time) []store.Event {
	ordered := slices.Clone(items)
	slices.Reverse(ordered)

	dated := true
	for _, it := range ordered {
		if itemTime(it).IsZero() {
			dated = false
			break
		}
	}
	if dated {
		slices.SortStableFunc(ordered, func(a, b *gofeed.Item) int {
			return itemTime(a).Compare(itemTime(b))
		})
	}

	events := make([]store.Event, 0, len(ordered))
	for _, it := range ordered {
		id := it.GUID
		if id == "" {
			id = it.Link
		}
		if id == "" {
			continue
		}

		e := store.Event{
			ID:        id,
			Data:      it.Content,
			Timestamp: itemTime(it).UTC(),
		}
		if e.Data == "" {
			e.Data = it.Description
		}
		if len(it.Categories) > 0 {
			e.Type = it.Categories[0]
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = now.UTC()
		}
		events = append(events, e)
	}
	return events
}

func itemTime(it *gofeed.Item) time.Time {
	if it.UpdatedParsed != nil {
		return *it.UpdatedParsed
	}
	if it.PublishedParsed != nil {
		return *it.PublishedParsed
	}
	return time.Time{}
}
