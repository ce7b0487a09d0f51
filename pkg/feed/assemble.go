package feed

import (
	"context"

	"github.com/Sternrassler/atom-feed-server/pkg/atom"
)

// Generator metadata written into every feed.
const (
	DefaultGenerator   = "atom-feed-server"
	GeneratorVersion   = "1.0"
	DefaultContentType = "application/xml"
)

// Response is the assembled answer to a feed request.
type Response struct {
	Page     int64
	Complete bool
	Decision Decision

	build func() *atom.Feed
	doc   *atom.Feed
}

// Document returns the feed representation, building it on first use. It is
// nil unless Decision.HasBody(), so a cached rendering never pays for entry
// conversion.
func (r *Response) Document() *atom.Feed {
	if r.doc == nil && r.build != nil {
		r.doc = r.build()
		r.build = nil
	}
	return r.doc
}

// Assembler builds feed pages from a source.
type Assembler[E any] struct {
	Source      EntrySource[E]
	Policy      CachePolicy
	Generator   string
	ContentType string
}

// Assemble fetches the page, evaluates preconditions and, unless the client
// copy is current, prepares the feed representation.
func (a *Assembler[E]) Assemble(ctx context.Context, number int64, current bool, pre Preconditions) (*Response, error) {
	page, err := FetchPage(ctx, a.Source, number)
	if err != nil {
		return nil, err
	}

	decision, err := Advise(a.Policy, a.Source, page, pre, current)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Page:     page.Number,
		Complete: page.Complete,
		Decision: decision,
	}
	if !decision.HasBody() {
		return resp, nil
	}

	resp.build = func() *atom.Feed { return a.build(page) }
	return resp, nil
}

func (a *Assembler[E]) build(page Page[E]) *atom.Feed {
	src := a.Source
	generator := a.Generator
	if generator == "" {
		generator = DefaultGenerator
	}
	contentType := a.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	entries := make([]atom.Entry, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, atom.Entry{
			ID:      src.URN(e),
			Updated: src.Timestamp(e).UTC(),
			Content: atom.Content{Type: contentType, Value: src.ToTransport(e)},
		})
	}

	return &atom.Feed{
		Base:    src.FeedURL(),
		ID:      src.FeedName(),
		Title:   src.FeedName(),
		Updated: src.Timestamp(page.Entries[0]).UTC(),
		Generator: atom.Generator{
			Text:    generator,
			URI:     src.FeedURL(),
			Version: GeneratorVersion,
		},
		Links:   BuildLinks(page.Number, src.PageSize(), page.Complete),
		Entries: entries,
	}
}
