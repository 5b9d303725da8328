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

	"github.com/starford/lectern/internal/api"
	"github.com/starford/lectern/internal/docstore"
	"github.com/starford/lectern/internal/mcpserver"
	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/persist"
	"github.com/starford/lectern/internal/session"
	"github.com/starford/lectern/internal/sse"
	"github.com/starford/lectern/internal/workspace"
)

// runtime is what both the HTTP and the MCP modes start from.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	store   docstore.Store
	ws      *workspace.Workspace
	metrics *metrics.Metrics
}

func (a *application) bootstrap(ctx context.Context) (*runtime, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	out := a.logOut
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store := a.store
	if store == nil {
		var err error
		if store, err = openStore(ctx, cfg.Store); err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
	}

	ws := workspace.New()
	if err := ws.Load(ctx, store); err != nil {
		store.Close()
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	logger.Info("Workspace loaded",
		slog.Int("notes", len(ws.Notes())),
		slog.Int("lectures", len(ws.Lectures())),
		slog.Int("tags", len(ws.Tags())))

	return &runtime{cfg: cfg, logger: logger, store: store, ws: ws, metrics: metrics.New()}, nil
}

// openStore opens the document store selected by cfg.Driver.
func openStore(ctx context.Context, cfg StoreConfig) (docstore.Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return docstore.NewMemory(), nil
	case DriverSQLite:
		return docstore.OpenSQLite(cfg.SQLite.Path)
	case DriverFS:
		if err := os.MkdirAll(cfg.FS.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		return docstore.NewFS(cfg.FS.Path)
	case DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return docstore.OpenMongo(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// newHTTPHandler mounts health, metrics and the API on one chi router.
func newHTTPHandler(deps api.Deps) http.Handler {
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

	r.Handle("/metrics", deps.Metrics.Handler())
	r.Mount("/api", api.NewRouter(deps))
	return r
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	rt, err := app.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.store.Close()
	cfg, logger := rt.cfg, rt.logger

	broker := sse.NewBroker(cfg.App.HTTP.GraphThrottle, sse.WithMetrics(rt.metrics))
	defer broker.Close()

	facade := persist.New(rt.store, rt.ws,
		persist.WithLogger(logger),
		persist.WithReporter(broker),
		persist.WithMetrics(rt.metrics),
	)
	sess := session.New(facade, session.Template(""),
		session.WithWidget(sse.EditorWidget{Broker: broker}),
		session.WithLogger(logger),
		session.WithMetrics(rt.metrics),
		session.WithUserID(cfg.Editor.UserID),
	)

	httpServer := &http.Server{
		Addr: cfg.App.HTTP.Address(),
		Handler: newHTTPHandler(api.Deps{
			Facade:      facade,
			Session:     sess,
			Events:      broker,
			Metrics:     rt.metrics,
			AuthEnabled: cfg.Auth.AuthEnabled(),
			Token:       cfg.Auth.Token,
		}),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Reload the workspace when the store changes underneath us.
	if w, ok := rt.store.(docstore.Watchable); ok && cfg.Store.FS.Watch {
		g.Go(func() error {
			return w.Watch(gCtx, func(c docstore.Change) {
				if err := rt.ws.Refresh(gCtx, rt.store, c.Kind); err != nil {
					logger.Warn("workspace refresh failed",
						slog.String("kind", string(c.Kind)),
						slog.String("error", err.Error()))
					return
				}
				broker.PublishChange(string(c.Kind), c.ID)
			})
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		cancel()
		return nil
	})

	err = g.Wait()

	// Unsaved edits are committed the same way as when leaving a note.
	sess.Switch(context.Background(), session.Template(""))
	sess.Wait()

	if err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{logOut: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}

	rt, err := app.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	facade := persist.New(rt.store, rt.ws,
		persist.WithLogger(rt.logger),
		persist.WithMetrics(rt.metrics),
	)
	srv := mcpserver.New(facade,
		mcpserver.WithLogger(rt.logger),
		mcpserver.WithUserID(rt.cfg.Editor.UserID),
	)

	rt.logger.Info("MCP server starting on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
