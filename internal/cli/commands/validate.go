package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a buginspector configuration file without scanning.

Checks:
  - YAML syntax
  - Logging level and format
  - Custom rule families, types and pattern validity
  - Webhook URLs and triggers`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(contextOf(cmd), configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	set := cfg.RuleSet()

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Storage:    %s\n", cfg.StoragePath)
	fmt.Fprintf(w, "  Extensions: %d\n", len(set.Extensions()))
	fmt.Fprintf(w, "  Rules:      %d\n", set.Len())
	fmt.Fprintf(w, "  Webhooks:   %d\n", len(cfg.Webhooks))

	fmt.Fprintf(w, "\nRule groups:\n")
	for i, grp := range set.Groups() {
		fmt.Fprintf(w, "  %d. [%s/%s] %d rule(s)\n", i+1, grp.Family, grp.Concern, len(grp.Rules))
	}

	if len(cfg.DisabledRules) > 0 {
		fmt.Fprintf(w, "\nDisabled rules:\n")
		for _, m := range cfg.DisabledRules {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	}

	return nil
}
