// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/forgelink/internal/api"
	"github.com/starford/forgelink/internal/cache"
	"github.com/starford/forgelink/internal/catalog"
	"github.com/starford/forgelink/internal/host/snapshot"
	"github.com/starford/forgelink/internal/identsvc"
	"github.com/starford/forgelink/internal/mcpserver"
	"github.com/starford/forgelink/internal/sse"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// buildService wires the cache, catalog, and snapshot session into the
// identifier service. The returned cleanup closes the catalog.
func buildService(cfg *Config) (*identsvc.Service, *catalog.DB, *cache.Disk, func(), error) {
	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create cache dir: %w", err)
	}
	disk, err := cache.NewDisk(cfg.Cache.Dir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init cache: %w", err)
	}
	c, err := cache.New(disk, cfg.Cache.MemoryEntries)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Catalog.Path), 0o755); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create catalog dir: %w", err)
	}
	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init catalog: %w", err)
	}

	sess, err := snapshot.Load(cfg.Host.Snapshot)
	if err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("load host snapshot: %w", err)
	}

	svc := identsvc.New(sess, c, db)
	return svc, db, disk, func() { db.Close() }, nil
}

// Run starts the HTTP server and the cache-directory watcher with the given
// options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("snapshot", cfg.Host.Snapshot),
		slog.String("cache_dir", cfg.Cache.Dir),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, db, disk, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Run initial catalog sync.
	if err := catalog.Sync(db, disk, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// SSE endpoint.
	r.Get("/api/events", broker.ServeHTTP)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// runCtx lets the signal goroutine stop the watcher after the HTTP
	// server has drained; errgroup only cancels gCtx on error.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	// Start cache-directory watcher with SSE callback.
	g.Go(func() error {
		return catalog.Watch(gCtx, db, disk, logger, func(kind, versionID string) {
			broker.PublishFileEvent(kind, versionID)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Release the watcher so Wait returns.
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ResolveOnce loads the snapshot, resolves identifiers for the active design
// (or one component of it when componentID is non-empty), and prints the
// result as indented JSON.
func ResolveOnce(ctx context.Context, componentID string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// One-shot output goes to stdout; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, db, disk, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := catalog.Sync(db, disk, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	var result any
	if componentID == "" {
		result, err = svc.DesignIDs(ctx)
	} else {
		result, err = svc.ComponentIDs(ctx, componentID)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(app.out, string(out))
	return err
}

// ServeMCP runs the MCP stdio server until the transport closes. Logs go to
// stderr because stdout carries the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, db, disk, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := catalog.Sync(db, disk, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(svc).ServeStdio()
}
