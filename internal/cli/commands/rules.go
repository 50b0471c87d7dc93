package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/pkg/rules"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(g *GlobalOptions) *cobra.Command {
	var family string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active detection rules",
		Long: `List the line patterns that scan applies, grouped by language family
and concern, after disabled_rules and custom rules from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.LoadConfig(cmd)
			if err != nil {
				return err
			}
			set := env.Config.RuleSet()

			groups := set.Groups()
			if family != "" {
				f, err := rules.ParseFamily(family)
				if err != nil {
					return err
				}
				groups = set.Applicable(f)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Extensions: %s\n\n", strings.Join(set.Extensions(), " "))
			total := 0
			for _, grp := range groups {
				fmt.Fprintf(w, "[%s/%s]\n", grp.Family, grp.Concern)
				for _, r := range grp.Rules {
					fmt.Fprintf(w, "  %-24s %-44s %s\n", r.Type, r.Message, r.Pattern)
					total++
				}
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%d rule(s) in %d group(s)\n", total, len(groups))
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "Only rules that apply to this family (python|javascript|general)")
	return cmd
}
