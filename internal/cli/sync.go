package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nikonell/krakker-backend/internal/config"
	"github.com/Nikonell/krakker-backend/internal/github"
	"github.com/Nikonell/krakker-backend/internal/models"
	"github.com/Nikonell/krakker-backend/internal/store"
	"github.com/Nikonell/krakker-backend/internal/worker"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single reconciliation pass and exit",
		Long: `Run one reconciliation pass over every project bound to a GitHub
repository, print the outcome, and exit.

Exits with status 1 when any project or mutation failed.

Example:
  krakker sync
  krakker sync --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), rootOpts, cmd.OutOrStdout())
		},
	}
}

func runSync(ctx context.Context, opts *RootOptions, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := newLogger(cfg, opts.Verbose, os.Stderr)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer db.Close()

	projectStore := store.NewProjectStore(db)
	ghClient := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken, cfg.GitHubTimeout)
	syncWorker := worker.New(projectStore, ghClient, store.NewTaskStore(db), worker.Options{
		Concurrency: cfg.SyncConcurrency,
		Recorder:    store.NewSyncRunStore(db, cfg.SyncHistoryLimit),
	}, logger)

	run := syncWorker.RunPass(ctx)
	if err := writeOutput(out, opts.Format, run, func(w io.Writer) { printRun(w, run) }); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if run.Error != "" {
		return NewExitError(ExitFailure, run.Error)
	}
	if run.Failures > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d failure(s) during sync pass", run.Failures))
	}
	return nil
}

func printRun(w io.Writer, run *models.SyncRun) {
	fmt.Fprintf(w, "run %s\n", run.ID)
	if run.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", run.Error)
		return
	}
	fmt.Fprintf(w, "  projects:  %d\n", run.Projects)
	fmt.Fprintf(w, "  created:   %d\n", run.Created)
	fmt.Fprintf(w, "  completed: %d\n", run.Completed)
	fmt.Fprintf(w, "  failures:  %d\n", run.Failures)
	for _, e := range run.Errors {
		if e.IssueNumber != nil {
			fmt.Fprintf(w, "    project %d (%s) issue #%d [%s]: %s\n", e.ProjectID, e.Repository, *e.IssueNumber, e.Kind, e.Message)
			continue
		}
		fmt.Fprintf(w, "    project %d (%s) [%s]: %s\n", e.ProjectID, e.Repository, e.Kind, e.Message)
	}
}
