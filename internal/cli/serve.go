package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nikonell/krakker-backend/internal/api"
	"github.com/Nikonell/krakker-backend/internal/config"
	"github.com/Nikonell/krakker-backend/internal/github"
	"github.com/Nikonell/krakker-backend/internal/store"
	"github.com/Nikonell/krakker-backend/internal/worker"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the issue sync worker",
		Long: `Run the HTTP API together with the background worker that polls GitHub
and reconciles the tasks of every project bound to a repository.

Configuration is read from the environment (and .env outside production).
The worker is disabled with SYNC_ENABLED=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(parent context.Context, opts *RootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := newLogger(cfg, opts.Verbose, os.Stdout)

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer db.Close()

	// Stores
	projectStore := store.NewProjectStore(db)
	taskStore := store.NewTaskStore(db)
	runStore := store.NewSyncRunStore(db, cfg.SyncHistoryLimit)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Issue sync worker
	var syncWorker *worker.Worker
	workerDone := make(chan struct{})
	if cfg.SyncEnabled {
		ghClient := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken, cfg.GitHubTimeout)
		syncWorker = worker.New(projectStore, ghClient, taskStore, worker.Options{
			Interval:    cfg.SyncInterval,
			Concurrency: cfg.SyncConcurrency,
			Recorder:    runStore,
		}, logger)

		go func() {
			defer close(workerDone)
			if err := syncWorker.Run(ctx); err != nil {
				logger.Error("issue sync worker error", "error", err)
			}
		}()
	} else {
		close(workerDone)
		logger.Info("issue sync worker disabled")
	}

	// Router
	router := api.NewRouter(db, projectStore, taskStore, runStore, syncWorker, cfg.APIKey, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("krakker server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logger.Error("server error", "error", err)
		runErr = WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("shutting down...")
	stop()

	// The worker finishes the project it is on before returning.
	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return runErr
}
