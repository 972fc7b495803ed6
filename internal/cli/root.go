// Package cli implements the tombstone-migrate command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tombstone/internal/bootstrap"
	"tombstone/internal/infrastructure/storage/memory"
	"tombstone/internal/metadata"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Models string // models file; empty means the built-in book model
	Format string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "tombstone-migrate",
		Short:         "Schema tooling for soft-delete models",
		Long:          "Render or apply the DDL of governed models, soft-delete columns included.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Models, "models", "m", "", "models YAML file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewPrintCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadDefs returns the effective definitions of the configured models.
func loadDefs(path string) ([]*metadata.EntityDef, error) {
	specs, err := bootstrap.LoadModels(path)
	if err != nil {
		return nil, err
	}
	models, err := bootstrap.BuildModels(specs, memory.New())
	if err != nil {
		return nil, err
	}
	return models.Defs(), nil
}
