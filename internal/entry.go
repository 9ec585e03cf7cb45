// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/jobtrail/internal/api"
	"github.com/starford/jobtrail/internal/index"
	"github.com/starford/jobtrail/internal/mcpserver"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/remote"
	"github.com/starford/jobtrail/internal/sse"
	"github.com/starford/jobtrail/internal/storage"
	"github.com/starford/jobtrail/internal/tracker"
)

// statsThrottle bounds how often stats.updated is broadcast.
const statsThrottle = 2 * time.Second

// services holds the collaborators shared by every command.
type services struct {
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	svc    *tracker.Service
}

func (rt *services) Close() error {
	return rt.db.Close()
}

// setup applies opts, installs the logger and opens storage, index and
// the tracker service. The initial index sync is run before returning.
func setup(opts []Option) (*services, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_path", cfg.Data.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("timezone", cfg.Calendar.Timezone),
		slog.String("remote_mode", cfg.Remote.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Data.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := tracker.NewService(store, db,
		tracker.WithLocation(cfg.Calendar.Location()),
		tracker.WithUpcomingLimit(cfg.Calendar.UpcomingLimit),
		tracker.WithLogger(logger),
	)

	return &services{cfg: cfg, logger: logger, store: store, db: db, svc: svc}, nil
}

func (rt *services) newSyncer() (*remote.Syncer, func() error, error) {
	backend, err := remote.NewRedis(rt.cfg.Remote.URL, rt.cfg.Remote.KeyPrefix)
	if err != nil {
		return nil, nil, err
	}
	return remote.NewSyncer(rt.store, backend, rt.logger), backend.Close, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, logger := rt.cfg, rt.logger

	broker := sse.NewBroker(statsThrottle)
	defer broker.Close()

	countdown := sse.NewCountdownStream(cfg.Calendar.Tick, api.CountdownSnapshot(rt.svc), logger)

	apiRouter := api.NewRouter(rt.svc, api.RouterOptions{
		AuthEnabled:     cfg.Auth.AuthEnabled(),
		Token:           cfg.Auth.Token,
		Stream:          broker,
		CountdownStream: countdown,
		Notifier:        broker,
	})

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
	r.Get("/health/ready", readyHandler(rt.db, broker, logger))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := index.Watch(gCtx, rt.db, rt.store, rt.store.Root(), logger, func(c models.Collection) {
			broker.PublishChange(c)
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start scheduled remote sync.
	if cfg.Remote.Enabled() {
		syncer, closeBackend, err := rt.newSyncer()
		if err != nil {
			return fmt.Errorf("init remote: %w", err)
		}
		defer closeBackend()

		g.Go(func() error {
			logger.Info("Starting remote sync", slog.String("schedule", cfg.Remote.Schedule))
			return remote.Schedule(gCtx, cfg.Remote.Schedule, syncer, func(res *remote.Result) {
				if res.Changed() {
					broker.Publish(sse.Event{Type: sse.TypeRemoteSynced, Data: res})
				}
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// readyHandler reports ready once the index answers queries.
func readyHandler(db index.EventIndex, broker *sse.Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		counts, err := db.CountByKind("")
		if err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"events":  total,
			"clients": broker.ClientCount(),
		})
	}
}

// errShutdown cancels the group context so the watcher and scheduler stop
// once the server has shut down.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout.
func RunMCP(_ context.Context, opts ...Option) error {
	rt, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(rt.svc).ServeStdio()
}

// RunSync performs a single remote sync pass, reindexes and writes the
// result as JSON to out.
func RunSync(ctx context.Context, out io.Writer, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.cfg.Remote.Enabled() {
		return fmt.Errorf("remote sync is disabled (remote.mode = %q)", rt.cfg.Remote.Mode)
	}

	syncer, closeBackend, err := rt.newSyncer()
	if err != nil {
		return fmt.Errorf("init remote: %w", err)
	}
	defer closeBackend()

	res, err := syncer.Run(ctx)
	if err != nil {
		return fmt.Errorf("remote sync: %w", err)
	}
	if len(res.Pulled) > 0 {
		if _, err := rt.svc.Reindex(ctx); err != nil {
			return fmt.Errorf("reindex: %w", err)
		}
	}
	return writeIndented(out, res)
}

// RunStats writes the report for year/month as JSON to out. A zero year
// selects the current month in the configured time zone.
func RunStats(ctx context.Context, out io.Writer, year int, month time.Month, opts ...Option) error {
	rt, err := setup(append([]Option{WithLogOutput(io.Discard)}, opts...))
	if err != nil {
		return err
	}
	defer rt.Close()

	if year == 0 {
		now := time.Now().In(rt.svc.Location())
		year, month = now.Year(), now.Month()
	}
	report, err := rt.svc.Report(ctx, year, month)
	if err != nil {
		return err
	}
	return writeIndented(out, report)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
