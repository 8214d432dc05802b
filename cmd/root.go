package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/choiway/loupebox/internal/catalog"
	"github.com/choiway/loupebox/internal/config"
	"github.com/choiway/loupebox/internal/repository"
)

var (
	// Used for flags.
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger = slog.Default()

	rootCmd = &cobra.Command{
		Use:   "loupebox",
		Short: "Photo management utility",
		Long: `Loupebox is a cli application that indexes your photos by content
hash so you can find exact duplicates, archive one copy of each photo,
and sort race photos into per-number folders.
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd.ExecuteContext(ctx)
}

// setup loads the config and builds the logger before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	level, err := config.ParseLevel(loaded.Log.Level)
	if err != nil {
		return err
	}

	cfg = loaded
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func openDatabase(ctx context.Context) (repository.Repository, error) {
	return repository.Open(ctx, cfg.Database)
}

func newCatalog(cmd *cobra.Command, store catalog.Store) *catalog.Catalog {
	return catalog.New(store, afero.NewOsFs(),
		catalog.WithExtensions(cfg.Scan.Extensions...),
		catalog.WithLogger(logger),
		catalog.WithOutput(cmd.OutOrStdout()),
	)
}
