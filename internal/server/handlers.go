package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sternrassler/atom-feed-server/pkg/atom"
	"github.com/Sternrassler/atom-feed-server/pkg/cache"
	"github.com/Sternrassler/atom-feed-server/pkg/feed"
)

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (Feed, bool) {
	name := chi.URLParam(r, "feed")
	f, ok := s.feeds[name]
	if !ok {
		http.Error(w, fmt.Sprintf("Feed %s not found.", name), http.StatusNotFound)
	}
	return f, ok
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}

	page, err := strconv.ParseInt(chi.URLParam(r, "page"), 10, 64)
	if err != nil {
		http.Error(w, "invalid page number", http.StatusBadRequest)
		return
	}
	pageSize, err := strconv.Atoi(chi.URLParam(r, "pageSize"))
	if err != nil {
		http.Error(w, "invalid page size", http.StatusBadRequest)
		return
	}

	resp, err := f.GetFeed(r.Context(), page, pageSize, feed.PreconditionsFromRequest(r))
	if err != nil {
		s.writeError(w, r, f, err)
		return
	}
	s.respond(w, r, f, resp)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}

	resp, err := f.GetCurrentFeed(r.Context(), feed.PreconditionsFromRequest(r))
	if err != nil {
		s.writeError(w, r, f, err)
		return
	}
	s.respond(w, r, f, resp)
}

// respond writes the decision. Only full responses reach an encoder, and a
// cached rendering of a complete page is preferred over encoding it again.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, f Feed, resp *feed.Response) {
	d := resp.Decision
	h := w.Header()
	h.Set("Vary", "Accept")
	h.Set("ETag", d.ETag.String())
	if d.CacheControl != "" {
		h.Set("Cache-Control", d.CacheControl)
	}

	switch d.State {
	case feed.CachedFresh:
		responses.WithLabelValues(f.Name(), "304").Inc()
		w.WriteHeader(http.StatusNotModified)
		return
	case feed.PreconditionFailed:
		responses.WithLabelValues(f.Name(), "412").Inc()
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	}

	ctx := r.Context()
	head := r.Method == http.MethodHead
	enc := s.negotiate(r.Header.Get("Accept"))
	cacheable := s.cache != nil && d.State == feed.CachedStale
	key := cache.PageKey{Feed: f.Name(), Page: resp.Page, PageSize: f.PageSize(), Format: enc.Name(), ETag: string(d.ETag)}

	if cacheable {
		entry, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			responses.WithLabelValues(f.Name(), "200").Inc()
			if err := entry.Write(w, head); err != nil {
				s.logger.Debug().Err(err).Msg("Write cached page failed")
			}
			return
		case !errors.Is(err, cache.ErrCacheMiss):
			s.logger.Warn().Err(err).Str("key", key.String()).Msg("Page cache get error")
		}
	}

	body, err := encode(enc, resp.Document())
	if err != nil {
		s.writeError(w, r, f, err)
		return
	}

	if cacheable {
		entry := cache.NewEntry(body, enc.ContentType(), string(d.ETag), d.CacheControl, s.cacheTTL)
		if err := s.cache.Set(ctx, key, entry); err != nil {
			s.logger.Warn().Err(err).Str("key", key.String()).Msg("Page cache set error")
		}
		h.Set(cache.HeaderCache, "MISS")
	}

	h.Set("Content-Type", enc.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(body)))
	responses.WithLabelValues(f.Name(), "200").Inc()
	w.WriteHeader(http.StatusOK)
	if !head {
		if _, err := w.Write(body); err != nil {
			s.logger.Debug().Err(err).Msg("Write page failed")
		}
	}
}

func encode(enc atom.Encoder, f *atom.Feed) ([]byte, error) {
	if f == nil {
		return nil, errors.New("full response without feed document")
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, f); err != nil {
		return nil, err
	}
	encodes.WithLabelValues(enc.Name()).Inc()
	return buf.Bytes(), nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, f Feed, err error) {
	var status int
	switch {
	case errors.Is(err, feed.ErrNotFound):
		status = http.StatusNotFound
		http.Error(w, err.Error(), status)
	case errors.Is(err, feed.ErrInvalidPageSize):
		status = http.StatusBadRequest
		http.Error(w, err.Error(), status)
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// Client went away.
		return
	default:
		status = http.StatusInternalServerError
		s.logger.Error().Err(err).Str("feed", f.Name()).Str("path", r.URL.Path).Msg("Feed request failed")
		http.Error(w, "internal server error", status)
	}
	responses.WithLabelValues(f.Name(), strconv.Itoa(status)).Inc()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = "not ready"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "checks": checks})
}
