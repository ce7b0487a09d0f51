package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Sternrassler/atom-feed-server/pkg/feed"
)

// MemorySource is an in-memory EventSource with the same page layout. It is
// safe for concurrent use.
type MemorySource struct {
	name     string
	url      string
	pageSize int

	mu     sync.RWMutex
	events []Event
	ids    map[string]struct{}
}

var _ feed.EntrySource[Event] = (*MemorySource)(nil)

// NewMemorySource creates an empty in-memory feed. It panics on a page size
// below one.
func NewMemorySource(cfg SourceConfig) *MemorySource {
	if cfg.PageSize < 1 {
		panic("page size must be >= 1")
	}
	return &MemorySource{
		name:     cfg.Name,
		url:      cfg.URL,
		pageSize: cfg.PageSize,
		ids:      make(map[string]struct{}),
	}
}

// Append adds events in order, skipping ids already present.
func (m *MemorySource) Append(_ context.Context, events []Event) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, e := range events {
		if _, dup := m.ids[e.ID]; dup {
			continue
		}
		e.Feed = m.name
		e.Position = int64(len(m.events))
		m.events = append(m.events, e)
		m.ids[e.ID] = struct{}{}
		added++
	}
	return added, nil
}

func (m *MemorySource) EntriesForPage(_ context.Context, page int64, limit int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start, ok := pageOffset(page, m.pageSize, limit)
	if !ok || start >= int64(len(m.events)) {
		return nil, nil
	}
	end := min(start+int64(limit), int64(len(m.events)))

	window := slices.Clone(m.events[start:end])
	slices.Reverse(window)
	return window, nil
}

func (m *MemorySource) TotalCount(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.events)), nil
}

func (m *MemorySource) PageSize() int               { return m.pageSize }
func (m *MemorySource) Sync(context.Context) error  { return nil }
func (m *MemorySource) URN(e Event) string          { return feed.URN(e.ID) }
func (m *MemorySource) Timestamp(e Event) time.Time { return e.Timestamp }
func (m *MemorySource) FeedURL() string             { return m.url }
func (m *MemorySource) FeedName() string            { return m.name }

func (m *MemorySource) ToTransport(e Event) any {
	return EventTo{ID: e.ID, Type: e.Type, Data: e.Data, Timestamp: e.Timestamp}
}
