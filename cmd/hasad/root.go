package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hasad/internal/api"
	"github.com/hyperengineering/hasad/internal/coach"
	"github.com/hyperengineering/hasad/internal/config"
	"github.com/hyperengineering/hasad/internal/snapshot"
	"github.com/hyperengineering/hasad/internal/store"
	"github.com/hyperengineering/hasad/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "hasad",
	Short:         "Hasad - personal tracking state server",
	Long:          "Runs the Hasad server. Subcommands manage stored state and record entries against a running server.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          run,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(trackCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(newLogHandler(os.Stdout, cfg.Log)))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	uploader, err := snapshot.NewUploader(cfg.SnapshotStorage)
	if err != nil {
		db.Close()
		return err
	}

	handler := api.NewHandler(db, newAdvisor(cfg), cfg.Auth.APIKey, Version).WithExports(uploader)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	exports := worker.NewExportCoordinator(db,
		cfg.Worker.ExportDir,
		time.Duration(cfg.Worker.ExportInterval),
		cfg.Worker.ExportConcurrency,
		uploader,
	)
	startWorker(ctx, &wg, "export-coordinator", exports.Run)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "address", srv.Addr, "version", Version)
		serveErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown initiated")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			runErr = fmt.Errorf("serve: %w", err)
		}
	}
	cancel()

	drain(srv, &wg, db, time.Duration(cfg.Server.ShutdownTimeout))
	return runErr
}

// newAdvisor returns the OpenAI coach, or Noop when no key is configured.
func newAdvisor(cfg *config.Config) coach.Coach {
	if !cfg.CoachEnabled() {
		slog.Info("coach disabled", "reason", "OPENAI_API_KEY not set")
		return coach.Noop{}
	}
	advisor := coach.NewOpenAI(cfg.Coach.APIKey, cfg.Coach.Model)
	slog.Info("coach initialized", "model", advisor.ModelName())
	return advisor
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// drain stops the server within timeout, waits for workers whose context is
// already cancelled, and closes the store last.
func drain(srv shutdowner, wg *sync.WaitGroup, db io.Closer, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	wg.Wait()
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}
	slog.Info("shutdown complete")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogHandler builds the JSON handler, or a text handler for format "text".
func newLogHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// startWorker runs fn on its own goroutine until ctx is cancelled, tracked
// by wg.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
