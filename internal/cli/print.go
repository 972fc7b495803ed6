package cli

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"tombstone/internal/metadata"
)

// PrintOptions holds flags for the print command.
type PrintOptions struct {
	*RootOptions
	Dialect string
}

// TableDDL is the json output of one model.
type TableDDL struct {
	Model      string   `json:"model"`
	Table      string   `json:"table"`
	Statements []string `json:"statements"`
}

// NewPrintCommand creates the print command.
func NewPrintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "print",
		Short:        "Print migration DDL",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", string(metadata.Postgres), "SQL dialect (postgres|sqlite)")

	return cmd
}

func runPrint(opts *PrintOptions, cmd *cobra.Command) error {
	dialect, err := metadata.ParseDialect(opts.Dialect)
	if err != nil {
		return err
	}
	defs, err := loadDefs(opts.Models)
	if err != nil {
		return err
	}

	out := make([]TableDDL, 0, len(defs))
	for _, def := range defs {
		out = append(out, TableDDL{
			Model:      def.Name,
			Table:      def.TableName(),
			Statements: metadata.MigrationSQL(def, dialect),
		})
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		data, err := jsoniter.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	for _, t := range out {
		fmt.Fprintf(w, "-- %s (%s)\n", t.Model, t.Table)
		fmt.Fprintf(w, "%s;\n\n", strings.Join(t.Statements, ";\n"))
	}
	return nil
}
