package cache

import (
	"net/http"
	"strconv"
)

// HeaderCache reports whether a page came from the cache.
const HeaderCache = "X-Cache"

// Write sends the entry as a 200 response. With head set only the headers
// are written.
func (e *Entry) Write(w http.ResponseWriter, head bool) error {
	h := w.Header()
	h.Set("Content-Type", e.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(e.Body)))
	h.Set("ETag", strconv.Quote(e.ETag))
	if e.CacheControl != "" {
		h.Set("Cache-Control", e.CacheControl)
	}
	h.Set(HeaderCache, "HIT")
	w.WriteHeader(http.StatusOK)

	if head {
		return nil
	}
	_, err := w.Write(e.Body)
	return err
}
