package cache

import (
	"time"
)

// Entry is a rendered page.
type Entry struct {
	// Body is the encoded feed document.
	Body []byte `json:"body"`

	// ContentType of Body.
	ContentType string `json:"content_type"`

	// ETag is the page validator, unquoted.
	ETag string `json:"etag"`

	// CacheControl is the directive sent with the page, if any.
	CacheControl string `json:"cache_control,omitempty"`

	// CachedAt is when the page was rendered.
	CachedAt time.Time `json:"cached_at"`

	// Expires is when Redis should drop the entry.
	Expires time.Time `json:"expires"`
}

// NewEntry creates an entry that lives for ttl.
func NewEntry(body []byte, contentType, etag, cacheControl string, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Body:         body,
		ContentType:  contentType,
		ETag:         etag,
		CacheControl: cacheControl,
		CachedAt:     now,
		Expires:      now.Add(ttl),
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
