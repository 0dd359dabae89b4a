// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/linkgraph/internal/api"
	"github.com/starford/linkgraph/internal/engine"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/sse"
	"github.com/starford/linkgraph/internal/storage"
	"github.com/starford/linkgraph/internal/vault"
)

// newApplication applies opts and installs the JSON logger.
func newApplication(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOut: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// openVault prepares the vault directory and its storage provider.
func openVault(cfg *Config) (storage.Provider, *vault.Vault, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	return store, vault.New(store), nil
}

// openIndex opens the SQLite index and brings it in line with the vault.
func openIndex(ctx context.Context, cfg *Config, store storage.Provider, logger *slog.Logger) (*index.DB, error) {
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if _, err := index.Sync(ctx, db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return db, nil
}

// rescanOnChange returns a watcher callback that requests one engine rescan
// per batch of changes and forwards each change to pub when it is non-nil.
func rescanOnChange(ctx context.Context, eng *engine.Engine, pub *sse.Broker, logger *slog.Logger) index.ChangeCallback {
	return func(changes []index.Change) {
		if pub != nil {
			for _, c := range changes {
				pub.PublishDocumentEvent(c.Kind, c.Path)
			}
		}
		err := eng.Do(ctx, func(e *engine.Engine) { e.RequestRescan() })
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("watcher: rescan request failed", slog.String("error", err.Error()))
		}
	}
}

// Run starts the HTTP server with the graph engine, file watcher and SSE
// broker until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("profile", cfg.Graph.Profile),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, v, err := openVault(cfg)
	if err != nil {
		return err
	}
	db, err := openIndex(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// SSE broker; engine output reaches clients through the sink.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	sink := engine.NewEventSink(broker)

	eng := engine.New(v, interaction.Deps{
		Reader:    v,
		Navigator: sink,
		Appender:  v,
		Creator:   v,
		Prompter:  sink,
		Previews:  sink,
	}, cfg.Graph.EngineConfig(),
		engine.WithLogger(logger),
		engine.WithFrameSink(sink))
	if err := eng.Rescan(ctx); err != nil {
		logger.Warn("initial rescan failed", slog.String("error", err.Error()))
	}

	svc := api.NewService(eng, db)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := eng.Do(req.Context(), func(*engine.Engine) {}); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"engine stopped"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return eng.Run(gCtx)
	})

	g.Go(func() error {
		return index.Watch(gCtx, db, store, logger, cfg.Vault.Debounce,
			rescanOnChange(gCtx, eng, broker, logger))
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
