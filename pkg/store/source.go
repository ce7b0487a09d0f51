package store

import (
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/Sternrassler/atom-feed-server/pkg/feed"
)

// EventTo is the transport form of an event inside feed entries.
type EventTo struct {
	XMLName   xml.Name  `xml:"event" json:"-"`
	ID        string    `xml:"id" json:"id"`
	Type      string    `xml:"type,omitempty" json:"type,omitempty"`
	Data      string    `xml:"data,omitempty" json:"data,omitempty"`
	Timestamp time.Time `xml:"timestamp" json:"timestamp"`
}

// SourceConfig describes one feed backed by the events table.
type SourceConfig struct {
	Name     string
	URL      string
	PageSize int
}

// EventSource serves a feed from the events table. Page n covers positions
// [n*size, (n+1)*size); entries are returned newest first.
type EventSource struct {
	db       *DB
	name     string
	url      string
	pageSize int
}

var _ feed.EntrySource[Event] = (*EventSource)(nil)

// NewEventSource creates a source for one feed.
func NewEventSource(db *DB, cfg SourceConfig) (*EventSource, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("feed name is required")
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1 (got %d)", cfg.PageSize)
	}
	return &EventSource{db: db, name: cfg.Name, url: cfg.URL, pageSize: cfg.PageSize}, nil
}

// EntriesForPage reads limit events starting at the first position of the
// page. With limit = size+1 the extra event is the first one of the newer
// page, which ends up at index 0 after reversal.
func (s *EventSource) EntriesForPage(ctx context.Context, page int64, limit int) ([]Event, error) {
	offset, ok := pageOffset(page, s.pageSize, limit)
	if !ok {
		return nil, nil
	}
	events, err := s.db.Window(ctx, s.name, offset, int64(limit))
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}

// pageOffset returns the position of the first event of page. Pages whose
// window would not fit in an int64 hold no events.
func pageOffset(page int64, pageSize, limit int) (int64, bool) {
	if page < 0 || pageSize < 1 || limit <= 0 {
		return 0, false
	}
	if page > (math.MaxInt64-int64(limit))/int64(pageSize) {
		return 0, false
	}
	return page * int64(pageSize), true
}

func (s *EventSource) TotalCount(ctx context.Context) (int64, error) {
	return s.db.Count(ctx, s.name)
}

func (s *EventSource) PageSize() int { return s.pageSize }

// Sync is a no-op; the table is the source of truth. See upstream.Mirror for
// a source that pulls from elsewhere.
func (s *EventSource) Sync(context.Context) error { return nil }

func (s *EventSource) URN(e Event) string          { return feed.URN(e.ID) }
func (s *EventSource) Timestamp(e Event) time.Time { return e.Timestamp }
func (s *EventSource) FeedURL() string             { return s.url }
func (s *EventSource) FeedName() string            { return s.name }

func (s *EventSource) ToTransport(e Event) any {
	return EventTo{ID: e.ID, Type: e.Type, Data: e.Data, Timestamp: e.Timestamp}
}

// Append adds events to this feed.
func (s *EventSource) Append(ctx context.Context, events []Event) (int, error) {
	return s.db.Append(ctx, s.name, events)
}

// DB returns the underlying database.
func (s *EventSource) DB() *DB {
	return s.db
}
