package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/atom-feed-server/internal/config"
	"github.com/Sternrassler/atom-feed-server/internal/server"
	"github.com/Sternrassler/atom-feed-server/pkg/cache"
	"github.com/Sternrassler/atom-feed-server/pkg/feed"
	"github.com/Sternrassler/atom-feed-server/pkg/logging"
	"github.com/Sternrassler/atom-feed-server/pkg/store"
	"github.com/Sternrassler/atom-feed-server/pkg/throttle"
	"github.com/Sternrassler/atom-feed-server/pkg/upstream"
	"github.com/Sternrassler/atom-feed-server/pkg/warmup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.Start() }()

	if a.syncer != nil {
		go a.syncLoop(ctx, cfg.Feed.SyncInterval)
	}
	if cfg.WarmCache {
		go a.warm(ctx)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// app holds the wired components.
type app struct {
	db      *store.DB
	redis   *redis.Client
	service *feed.Service[store.Event]
	server  *server.Server
	syncer  *upstream.Mirror
	name    string
	logger  zerolog.Logger
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{name: cfg.Feed.Name, logger: logging.NewLogger("main")}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.logger.Info().Str("path", cfg.DatabasePath).Msg("Opened event store")

	checks := map[string]server.Checker{"sqlite": db}
	srvCfg := server.Config{
		Addr:         cfg.HTTPAddr,
		PageCacheTTL: cfg.PageCacheTTL,
		Checks:       checks,
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

		manager := cache.NewManager(a.redis)
		srvCfg.Cache = manager
		checks["redis"] = manager
	}

	src, err := store.NewEventSource(db, store.SourceConfig{
		Name:     cfg.Feed.Name,
		URL:      cfg.Feed.BaseURL(),
		PageSize: cfg.Feed.PageSize,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	var entries feed.EntrySource[store.Event] = src
	if cfg.Feed.UpstreamURL != "" {
		client, err := upstream.New(upstream.DefaultConfig(cfg.UserAgent))
		if err != nil {
			a.Close()
			return nil, err
		}

		var gate throttle.Gate = throttle.NewLocalGate(cfg.Feed.SyncInterval)
		if a.redis != nil {
			gate = throttle.NewRedisGate(a.redis, cfg.Feed.SyncInterval, logging.NewLogger("sync-gate"))
		}

		a.syncer, err = upstream.NewMirror(src, client, upstream.MirrorConfig{
			URL:      cfg.Feed.UpstreamURL,
			Gate:     gate,
			FailOpen: cfg.Feed.SyncFailOpen,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		entries = a.syncer
		a.logger.Info().Str("upstream", cfg.Feed.UpstreamURL).Dur("interval", cfg.Feed.SyncInterval).Msg("Mirroring upstream feed")
	}

	a.service = feed.NewService[store.Event](entries, feed.Config{MaxAge: cfg.Feed.MaxAge()})

	a.server, err = server.New(srvCfg, a.service)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// syncLoop keeps a mirrored feed fresh between requests.
func (a *app) syncLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := a.service.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Msg("Background sync failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *app) warm(ctx context.Context) {
	head, err := a.server.MostRecentPage(ctx, a.name)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Cache warm-up skipped")
		return
	}
	if _, err := warmup.New(a.server, warmup.DefaultConfig()).Warm(ctx, a.name, head, a.server.Formats()); err != nil {
		a.logger.Warn().Err(err).Msg("Cache warm-up incomplete")
	}
}

// Close releases the store and Redis connections.
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
