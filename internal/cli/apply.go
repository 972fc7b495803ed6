package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tombstone/internal/bootstrap"
	"tombstone/internal/config"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Driver string
	DSN    string // DATABASE_URL for postgres, file path for sqlite
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "apply",
		Short:        "Create or extend model tables in a database",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", config.DriverPostgres, "database driver (postgres|sqlite)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "connection string or sqlite file")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}

func runApply(ctx context.Context, opts *ApplyOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := &config.Config{StorageDriver: opts.Driver}
	switch opts.Driver {
	case config.DriverPostgres:
		cfg.DatabaseURL = opts.DSN
	case config.DriverSQLite:
		cfg.SQLitePath = opts.DSN
	default:
		return fmt.Errorf("apply supports %s and %s, got %q", config.DriverPostgres, config.DriverSQLite, opts.Driver)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	specs, err := bootstrap.LoadModels(opts.Models)
	if err != nil {
		return err
	}
	models, err := bootstrap.BuildModels(specs, storage.Store)
	if err != nil {
		return err
	}

	defs := models.Defs()
	if err := storage.Migrate(ctx, defs...); err != nil {
		return err
	}

	for _, def := range defs {
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %s (%s)\n", def.Name, def.TableName())
	}
	return nil
}
