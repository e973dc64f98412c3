package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nikonell/krakker-backend/internal/config"
	"github.com/Nikonell/krakker-backend/internal/seed"
	"github.com/Nikonell/krakker-backend/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	DryRun bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create or update projects and repository bindings from YAML",
		Long: `Create or update projects from a YAML seed file. Projects are matched
by name; an existing project gets its description and repository replaced.

Example file:
  projects:
    - name: widgets
      description: Widget factory
      repository: acme/widgets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate the file without writing")

	return cmd
}

func runImport(ctx context.Context, opts *ImportOptions, path string, out io.Writer) error {
	file, err := seed.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid seed file", err)
	}

	if opts.DryRun {
		return writeOutput(out, opts.Format, map[string]int{"projects": len(file.Projects)}, func(w io.Writer) {
			fmt.Fprintf(w, "%s: %d project(s) valid\n", path, len(file.Projects))
		})
	}

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

	result, err := seed.Apply(ctx, store.NewProjectStore(db), file)
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}
	logger.Info("projects imported", "created", result.Created, "updated", result.Updated)

	return writeOutput(out, opts.Format, result, func(w io.Writer) {
		fmt.Fprintf(w, "created %d, updated %d project(s)\n", result.Created, result.Updated)
	})
}
