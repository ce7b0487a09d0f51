// Package server exposes feeds over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/atom-feed-server/pkg/atom"
	"github.com/Sternrassler/atom-feed-server/pkg/cache"
	"github.com/Sternrassler/atom-feed-server/pkg/feed"
	"github.com/Sternrassler/atom-feed-server/pkg/logging"
	"github.com/Sternrassler/atom-feed-server/pkg/metrics"
)

// Feed is a served feed. feed.Service satisfies it for any entry type.
type Feed interface {
	Name() string
	PageSize() int
	GetFeed(ctx context.Context, page int64, pageSize int, pre feed.Preconditions) (*feed.Response, error)
	GetCurrentFeed(ctx context.Context, pre feed.Preconditions) (*feed.Response, error)
	MostRecentPage(ctx context.Context) (int64, error)
}

// PageCache stores rendered complete pages.
type PageCache interface {
	Get(ctx context.Context, key cache.PageKey) (*cache.Entry, error)
	Set(ctx context.Context, key cache.PageKey, entry *cache.Entry) error
}

// Checker is a dependency pinged by /ready.
type Checker interface {
	Ping(ctx context.Context) error
}

// Config holds the server settings and collaborators.
type Config struct {
	// Addr is the listen address.
	Addr string

	// Cache stores rendered complete pages. Nil disables page caching.
	Cache PageCache

	// PageCacheTTL bounds how long a rendered page stays in the cache.
	PageCacheTTL time.Duration

	// Checks are pinged by /ready.
	Checks map[string]Checker

	// Negotiate picks the encoder for an Accept header. Defaults to atom.Negotiate.
	Negotiate func(accept string) atom.Encoder

	// Encoders are the formats available to RenderPage, by name. Defaults to
	// Atom XML and JSON.
	Encoders []atom.Encoder
}

// Server is the HTTP server.
type Server struct {
	feeds      map[string]Feed
	cache      PageCache
	cacheTTL   time.Duration
	checks     map[string]Checker
	negotiate  func(string) atom.Encoder
	encoders   map[string]atom.Encoder
	router     chi.Router
	httpServer *http.Server
	logger     zerolog.Logger
}

// New creates a server for the given feeds.
func New(cfg Config, feeds ...Feed) (*Server, error) {
	if len(feeds) == 0 {
		return nil, errors.New("at least one feed is required")
	}

	s := &Server{
		feeds:     make(map[string]Feed, len(feeds)),
		cache:     cfg.Cache,
		cacheTTL:  cfg.PageCacheTTL,
		checks:    cfg.Checks,
		negotiate: cfg.Negotiate,
		encoders:  make(map[string]atom.Encoder),
		logger:    log.With().Str("component", "http").Logger(),
	}
	for _, f := range feeds {
		if _, dup := s.feeds[f.Name()]; dup {
			return nil, fmt.Errorf("duplicate feed %q", f.Name())
		}
		s.feeds[f.Name()] = f
	}
	if s.negotiate == nil {
		s.negotiate = atom.Negotiate
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 24 * time.Hour
	}
	encoders := cfg.Encoders
	if len(encoders) == 0 {
		encoders = []atom.Encoder{atom.XMLEncoder{}, atom.JSONEncoder{}}
	}
	for _, e := range encoders {
		s.encoders[e.Name()] = e
	}

	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.AccessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.InstrumentMetricHandler(metrics.Registry,
		promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{})))

	r.Route("/feeds/{feed}", func(r chi.Router) {
		r.Get("/", s.handleCurrent)
		r.Head("/", s.handleCurrent)
		r.Get("/{page:[0-9]+}/{pageSize:[0-9]+}", s.handlePage)
		r.Head("/{page:[0-9]+}/{pageSize:[0-9]+}", s.handlePage)
	})

	s.router = r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Int("feeds", len(s.feeds)).Msg("Server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
