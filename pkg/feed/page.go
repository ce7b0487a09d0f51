package feed

import (
	"context"
)

// Page is one window of a feed.
type Page[E any] struct {
	Number   int64
	Entries  []E
	Complete bool
}

// FetchPage reads a page with one extra entry. If the extra entry is there the
// page is complete and the first entry, which belongs to the newer neighbour,
// is dropped. Otherwise the page is the still-growing head page.
//
// Source errors are returned unchanged.
func FetchPage[E any](ctx context.Context, src EntrySource[E], number int64) (Page[E], error) {
	size := src.PageSize()

	entries, err := src.EntriesForPage(ctx, number, size+1)
	if err != nil {
		return Page[E]{}, err
	}
	if len(entries) == 0 {
		return Page[E]{}, &PageNotFoundError{Page: number}
	}

	if len(entries) > size {
		return Page[E]{
			Number:   number,
			Entries:  entries[1 : size+1],
			Complete: true,
		}, nil
	}

	return Page[E]{
		Number:  number,
		Entries: entries,
	}, nil
}
