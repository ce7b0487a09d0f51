// Package warmup renders every complete page of a feed into the page cache.
//
// Complete pages never change, so rendering them once at startup lets the
// server answer the bulk of historical page requests straight from Redis.
// The head page is skipped; it changes with every append.
//
// Example usage:
//
//	warmer := warmup.New(renderer, warmup.DefaultConfig())
//	result, err := warmer.Warm(ctx, "orders", mostRecentPage, []string{"atom", "json"})
//
// The warmer:
//   - queues pages 0..mostRecent-1 for every format
//   - spawns a worker pool (default 4 workers)
//   - logs progress every 50 pages
//   - keeps going when single pages fail and reports the count
package warmup
