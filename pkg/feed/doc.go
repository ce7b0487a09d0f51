// Package feed implements the pagination and HTTP caching engine behind an
// append-only Atom feed.
//
// A feed is read from an EntrySource one page at a time. Pages are fetched
// with one extra entry so that completeness can be detected without a count
// query:
//
//	page, err := feed.FetchPage(ctx, src, 3)
//	if errors.Is(err, feed.ErrNotFound) {
//		// no entries on page 3
//	}
//
// A complete page never changes again, which makes it safe to cache forever.
// The validator (ETag) of a page is a hash of the timestamp of its first
// retained entry, and Cache-Control is only advertised for complete pages
// that were addressed explicitly (never for the current page).
//
// # Link relations
//
// Page 0 holds the oldest entries and the head page the newest. Readers start
// at the head and walk back in time, so the relations follow paged-feed
// conventions rather than page-number order:
//
//   - last:     always /0/<size>
//   - next:     /<page-1>/<size>, only when page > 0
//   - previous: /<page+1>/<size>, only when the page is complete
//   - self:     /<page>/<size>
//
// # Usage
//
//	svc := feed.NewService[store.Event](src, feed.Config{MaxAge: 24 * time.Hour})
//	resp, err := svc.GetFeed(ctx, 3, 20, feed.Preconditions{IfNoneMatch: r.Header.Get("If-None-Match")})
//	if resp.Decision.State == feed.CachedFresh {
//		// 304, nothing to encode
//	}
package feed
