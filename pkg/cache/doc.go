// Package cache stores rendered feed pages in Redis.
//
// A complete page never changes again, so its encoded body can be served to
// every later request without touching the entry store or the encoder. The
// HTTP layer only stores complete pages; the head page is always rendered.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.PageKey{Feed: "orders", Page: 3, PageSize: 20, Format: "atom", ETag: etag}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// render, then
//		_ = manager.Set(ctx, key, cache.NewEntry(body, contentType, etag, cacheControl, ttl))
//	}
//
//	entry.Write(w, r.Method == http.MethodHead)
//
// The ETag is part of the key, so a page whose content changed (which only
// happens if the store is rewritten) can never be served from a stale entry.
//
// # Metrics
//
//   - feed_page_cache_hits_total - Cache hits
//   - feed_page_cache_misses_total - Cache misses
//   - feed_page_cache_stored_bytes_total - Bytes written to Redis
//   - feed_page_cache_errors_total{operation} - Cache operation errors
package cache
