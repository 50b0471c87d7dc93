package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/pkg/store"
)

// formatFor picks the flag's format, or the one implied by the extension.
func formatFor(flag, path string) (store.Format, error) {
	if flag == "" {
		return store.FormatForPath(path), nil
	}
	return store.ParseFormat(flag)
}

// NewExportCommand creates the export command.
func NewExportCommand(g *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export every bug to a file",
		Long: `Export every bug to a file, replacing it.

The format is taken from --format or else from the file extension:
.csv for CSV, .db/.sqlite/.sqlite3 for SQLite, anything else for JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatFor(format, args[0])
			if err != nil {
				return err
			}
			env, err := g.Setup(cmd)
			if err != nil {
				return err
			}
			if err := env.Store.ExportTo(args[0], f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bug(s) to %s (%s)\n", env.Store.Len(), args[0], f)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "File format (json|csv|sqlite)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(g *GlobalOptions) *cobra.Command {
	var (
		format string
		merge  bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import bugs from a file",
		Long: `Import bugs from a JSON, CSV or SQLite file.

Bugs in the file replace stored bugs with the same id. With --merge, a
stored bug is only replaced when the imported copy was updated more
recently. Stored bugs that are not in the file are always kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatFor(format, args[0])
			if err != nil {
				return err
			}
			env, err := g.Setup(cmd)
			if err != nil {
				return err
			}
			n, err := env.Store.ImportFormat(args[0], f, merge)
			if err != nil {
				return err
			}
			if err := env.saved(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bug(s) from %s\n", n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "File format (json|csv|sqlite)")
	cmd.Flags().BoolVar(&merge, "merge", false, "Keep stored bugs that are newer than the imported copy")
	return cmd
}
