// Command server runs the arenasync state-synchronization server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LemmyAI/arenasync/internal/catalog"
	"github.com/LemmyAI/arenasync/internal/config"
	"github.com/LemmyAI/arenasync/internal/events"
	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/profile"
	"github.com/LemmyAI/arenasync/internal/room"
	"github.com/LemmyAI/arenasync/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dev := flag.Bool("dev", false, "human-readable debug logging")
	flag.Parse()

	logger, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("👋 Bye!")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) (err error) {
	logger.Info("🎮 arenasync starting...", zap.String("addr", cfg.Server.Addr))

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	profiles, err := openProfiles(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, profiles.Close)

	cache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	hub := events.NewHub(logger)
	closers = append(closers, hub.Close)
	publishers := events.Multi{hub}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		closers = append(closers, nc.Close)
		publishers = append(publishers, nc)
		logger.Info("📡 Publishing events to NATS", zap.String("url", cfg.NATS.URL))
	}

	stats := catalog.NewProvider(cfg.Game(), cache, cfg.Redis.CacheTTL, logger)
	engine := game.NewEngine(cfg.Game(), game.NewSessionStore(), game.NewInputRouter(),
		game.WithLogger(logger), game.WithEnemyStats(stats.EnemyType))
	rooms := room.NewRegistry(cfg.Room, nil)
	srv := server.New(server.Deps{
		Engine:   engine,
		Rooms:    rooms,
		Profiles: profiles,
		Catalog:  stats,
		Events:   publishers,
		Hub:      hub,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(gctx) })
	g.Go(func() error { return rooms.Run(gctx) })
	g.Go(func() error {
		logger.Info("🎧 Listening on HTTP", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openProfiles(cfg config.Config, logger *zap.Logger) (profile.Store, error) {
	if cfg.Database.Path == "" {
		logger.Info("💾 Keeping profiles in memory")
		return profile.NewMemoryStore(), nil
	}
	store, err := profile.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	logger.Info("💾 Profiles stored in sqlite", zap.String("path", cfg.Database.Path))
	return store, nil
}

func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Cache, func() error, error) {
	if cfg.Redis.Addr == "" {
		return catalog.NewMemoryCache(nil), nil, nil
	}
	client, err := catalog.DialRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("🗄️ Catalog cached in redis", zap.String("addr", cfg.Redis.Addr))
	return catalog.NewRedisCache(client, cfg.Redis.Prefix), client.Close, nil
}
