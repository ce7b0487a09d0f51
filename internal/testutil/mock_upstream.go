// Package testutil provides test helpers shared by the server packages.
package testutil

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// FeedPath is where MockUpstream serves its feed.
const FeedPath = "/feed.atom"

// MockItem is one entry of the upstream feed.
type MockItem struct {
	ID       string
	Title    string
	Category string
	Content  string
	Updated  time.Time
}

// MockUpstream is a configurable upstream Atom feed for testing. It answers
// conditional requests with 304 while its items are unchanged.
type MockUpstream struct {
	server *httptest.Server

	mu       sync.RWMutex
	items    []MockItem
	version  int
	failures []int

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
}

// NewMockUpstream creates a new mock upstream serving items, newest first.
func NewMockUpstream(items ...MockItem) *MockUpstream {
	m := &MockUpstream{items: items, version: 1}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the feed URL.
func (m *MockUpstream) URL() string {
	return m.server.URL + FeedPath
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Publish prepends items (newest first) and changes the ETag.
func (m *MockUpstream) Publish(items ...MockItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(append([]MockItem{}, items...), m.items...)
	m.version++
}

// FailNext makes the next len(statuses) requests answer with those statuses.
func (m *MockUpstream) FailNext(statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, statuses...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockUpstream) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockUpstream) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// ETag returns the current strong validator.
func (m *MockUpstream) ETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf(`"v%d"`, m.version)
}

func (m *MockUpstream) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.LastRequestHeader = r.Header.Clone()
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.ConditionalCount++
	}
	var status int
	if len(m.failures) > 0 {
		status = m.failures[0]
		m.failures = m.failures[1:]
	}
	items := append([]MockItem(nil), m.items...)
	etag := fmt.Sprintf(`"v%d"`, m.version)
	m.mu.Unlock()

	if r.URL.Path != FeedPath {
		http.NotFound(w, r)
		return
	}
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/atom+xml")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	w.Write(AtomDocument(m.server.URL, items))
}

type mockFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Updated string      `xml:"updated"`
	Entries []mockEntry `xml:"entry"`
}

type mockEntry struct {
	ID       string        `xml:"id"`
	Title    string        `xml:"title"`
	Updated  string        `xml:"updated"`
	Category *mockCategory `xml:"category"`
	Content  string        `xml:"content,omitempty"`
}

type mockCategory struct {
	Term string `xml:"term,attr"`
}

// AtomDocument renders items as an Atom document.
func AtomDocument(id string, items []MockItem) []byte {
	f := mockFeed{ID: id, Title: "Mock upstream", Updated: time.Now().UTC().Format(time.RFC3339)}
	if len(items) > 0 {
		f.Updated = items[0].Updated.UTC().Format(time.RFC3339Nano)
	}
	for _, it := range items {
		e := mockEntry{
			ID:      it.ID,
			Title:   it.Title,
			Updated: it.Updated.UTC().Format(time.RFC3339Nano),
			Content: it.Content,
		}
		if it.Category != "" {
			e.Category = &mockCategory{Term: it.Category}
		}
		f.Entries = append(f.Entries, e)
	}
	out, _ := xml.Marshal(f)
	return append([]byte(xml.Header), out...)
}

// Items returns n items with ids item-n..item-1, newest first, one minute apart.
func Items(n int, base time.Time) []MockItem {
	items := make([]MockItem, 0, n)
	for i := n; i >= 1; i-- {
		items = append(items, MockItem{
			ID:       fmt.Sprintf("item-%d", i),
			Title:    fmt.Sprintf("Item %d", i),
			Category: "created",
			Content:  fmt.Sprintf("payload %d", i),
			Updated:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	return items
}
