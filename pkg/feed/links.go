package feed

import (
	"fmt"
	"math"

	"github.com/Sternrassler/atom-feed-server/pkg/atom"
)

// LastPage is the page every "last" link points to.
const LastPage int64 = 0

// PageHref formats a link target. Targets are path-only and relative to the
// feed base.
func PageHref(page int64, pageSize int) string {
	return fmt.Sprintf("/%d/%d", page, pageSize)
}

// BuildLinks returns the navigation links of a page in the order
// last, next, previous, self.
func BuildLinks(page int64, pageSize int, complete bool) []atom.Link {
	links := make([]atom.Link, 0, 4)
	links = append(links, atom.Link{Rel: atom.RelLast, Href: PageHref(LastPage, pageSize)})

	if page > 0 {
		links = append(links, atom.Link{Rel: atom.RelNext, Href: PageHref(page-1, pageSize)})
	}

	// The head page is the only incomplete one; there is nothing stable beyond it.
	// A complete page always has a successor, so page+1 cannot overflow.
	if complete && page < math.MaxInt64 {
		links = append(links, atom.Link{Rel: atom.RelPrevious, Href: PageHref(page+1, pageSize)})
	}

	return append(links, atom.Link{Rel: atom.RelSelf, Href: PageHref(page, pageSize)})
}
