package feed

import (
	"context"
	"encoding/xml"
	"strconv"
	"time"
)

var testNow = time.Date(2024, 3, 14, 9, 26, 53, 589793000, time.UTC)

type testEntry struct {
	ID        int
	Timestamp time.Time
}

type testEntryTo struct {
	XMLName xml.Name `xml:"event" json:"-"`
	ID      int      `xml:"id" json:"id"`
}

// makeEntries returns n entries, newest first, ids counting down.
func makeEntries(n int) []testEntry {
	entries := make([]testEntry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, testEntry{
			ID:        n + 42 - i,
			Timestamp: testNow.AddDate(0, 0, -i),
		})
	}
	return entries
}

type testSource struct {
	entries  []testEntry
	total    int64
	pageSize int
	fetchErr error
	syncErr  error

	syncCalls      int
	fetchCalls     int
	transportCalls int
	lastPage       int64
	lastLimit      int
}

func newTestSource(pageSize int, entries []testEntry) *testSource {
	return &testSource{entries: entries, total: 42, pageSize: pageSize}
}

func (s *testSource) EntriesForPage(_ context.Context, page int64, limit int) ([]testEntry, error) {
	s.fetchCalls++
	s.lastPage = page
	s.lastLimit = limit
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.entries, nil
}

func (s *testSource) TotalCount(context.Context) (int64, error) { return s.total, nil }
func (s *testSource) PageSize() int                            { return s.pageSize }

func (s *testSource) Sync(context.Context) error {
	s.syncCalls++
	return s.syncErr
}

func (s *testSource) URN(e testEntry) string          { return URN(strconv.Itoa(e.ID)) }
func (s *testSource) Timestamp(e testEntry) time.Time { return e.Timestamp }
func (s *testSource) FeedURL() string                 { return "/test/feed/url" }
func (s *testSource) FeedName() string                { return "Test feed" }

func (s *testSource) ToTransport(e testEntry) any {
	s.transportCalls++
	return testEntryTo{ID: e.ID}
}
