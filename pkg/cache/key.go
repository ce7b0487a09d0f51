package cache

import (
	"fmt"
	"strings"
)

// KeyPrefix namespaces page cache keys in Redis.
const KeyPrefix = "feed:page"

// PageKey identifies one rendered representation of a page.
type PageKey struct {
	// Feed is the feed name.
	Feed string

	// Page is the page number.
	Page int64

	// PageSize is the canonical page size the page was built with.
	PageSize int

	// Format is the encoder name ("atom", "json").
	Format string

	// ETag is the page validator, unquoted.
	ETag string
}

// String generates a deterministic cache key string.
// Format: feed:page:<feed>:<page>:<size>:<format>:<etag>
//
// Example:
//
//	feed:page:orders:3:20:atom:1234567890
func (k PageKey) String() string {
	return strings.Join([]string{
		KeyPrefix,
		strings.ReplaceAll(k.Feed, ":", "_"),
		fmt.Sprintf("%d", k.Page),
		fmt.Sprintf("%d", k.PageSize),
		k.Format,
		k.ETag,
	}, ":")
}

// FeedPattern returns a SCAN pattern matching every page of feed.
func FeedPattern(feed string) string {
	return KeyPrefix + ":" + strings.ReplaceAll(feed, ":", "_") + ":*"
}
