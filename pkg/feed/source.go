package feed

import (
	"context"
	"time"
)

// URNPrefix is the scheme prepended to raw entry ids in the feed.
const URNPrefix = "urn:id:"

// URN returns the feed identifier for a raw entry id.
func URN(id string) string {
	return URNPrefix + id
}

// EntrySource supplies the entries of a single feed.
//
// Implementations own their storage and concurrency; the engine calls each
// method at most once per use and never retries.
type EntrySource[E any] interface {
	// EntriesForPage returns at most limit entries for the page. When the page
	// is fully populated and a newer entry exists, that newer entry is
	// returned first, followed by the page content.
	EntriesForPage(ctx context.Context, page int64, limit int) ([]E, error)

	// TotalCount returns the number of entries in the feed.
	TotalCount(ctx context.Context) (int64, error)

	// PageSize is the canonical page size of the feed.
	PageSize() int

	// Sync refreshes the underlying data. It must be idempotent and may be a no-op.
	Sync(ctx context.Context) error

	URN(e E) string
	Timestamp(e E) time.Time
	ToTransport(e E) any

	FeedURL() string
	FeedName() string
}
