package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/store"
)

// ListOptions holds command-line options for the list command.
type ListOptions struct {
	Status   string
	Severity string
	Type     string
	File     string
	Assigned string
	Tags     []string
	Limit    int
	Output   string
}

// NewListCommand creates the list command.
func NewListCommand(g *GlobalOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored bugs",
		Long: `List stored bugs in insertion order.

Filters combine: a bug is listed only when it matches every filter given.
--file matches any path containing the value; --tag matches bugs carrying
at least one of the given tags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&opts.Severity, "severity", "", "Filter by severity")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Filter by bug type")
	cmd.Flags().StringVar(&opts.File, "file", "", "Filter by file path substring")
	cmd.Flags().StringVar(&opts.Assigned, "assigned", "", "Filter by assignee")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "Filter by tag (can be repeated)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Show at most this many bugs (0 for all)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")

	return cmd
}

// filter converts the flag values into a store filter.
func (o *ListOptions) filter() (store.Filter, error) {
	f := store.Filter{
		FilePath: o.File,
		Assignee: o.Assigned,
		Tags:     o.Tags,
	}
	var err error
	if o.Status != "" {
		if f.Status, err = bug.ParseStatus(o.Status); err != nil {
			return f, err
		}
	}
	if o.Severity != "" {
		if f.Severity, err = bug.ParseSeverity(o.Severity); err != nil {
			return f, err
		}
	}
	if o.Type != "" {
		if f.Type, err = bug.ParseClassification(o.Type); err != nil {
			return f, err
		}
	}
	return f, nil
}

func runList(cmd *cobra.Command, g *GlobalOptions, opts *ListOptions) error {
	filter, err := opts.filter()
	if err != nil {
		return err
	}
	env, err := g.Setup(cmd)
	if err != nil {
		return err
	}

	bugs := env.Store.List(filter)
	if opts.Limit > 0 && len(bugs) > opts.Limit {
		bugs = bugs[:opts.Limit]
	}
	return printBugs(cmd.OutOrStdout(), bugs, opts.Output)
}

func printBugs(w io.Writer, bugs []*bug.Bug, format string) error {
	switch format {
	case "json":
		if bugs == nil {
			bugs = []*bug.Bug{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(bugs)
	case "text":
		if len(bugs) == 0 {
			_, err := fmt.Fprintln(w, "No bugs found.")
			return err
		}
		for _, b := range bugs {
			printBugLine(w, b)
		}
		_, err := fmt.Fprintf(w, "\n%d bug(s)\n", len(bugs))
		return err
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", format)
	}
}

// SearchOptions holds command-line options for the search command.
type SearchOptions struct {
	Fields []string
	Fuzzy  bool
	Output string
}

// NewSearchCommand creates the search command.
func NewSearchCommand(g *GlobalOptions) *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search bugs by text",
		Long: `Search bugs for a case-insensitive substring.

By default the title, description and file_path fields are searched. Other
searchable fields are code_snippet and assigned_to. With --fuzzy, titles are
ranked by fuzzy match instead, best first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.Setup(cmd)
			if err != nil {
				return err
			}
			var bugs []*bug.Bug
			if opts.Fuzzy {
				bugs = env.Store.FuzzySearch(args[0])
			} else {
				bugs = env.Store.Search(args[0], opts.Fields...)
			}
			return printBugs(cmd.OutOrStdout(), bugs, opts.Output)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "Fields to search (default title,description,file_path)")
	cmd.Flags().BoolVar(&opts.Fuzzy, "fuzzy", false, "Rank titles by fuzzy match")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(g *GlobalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one bug in full",
		Long:  "Show every field of a bug. The id may be abbreviated to any unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.Setup(cmd)
			if err != nil {
				return err
			}
			id, err := resolveID(env.Store, args[0])
			if err != nil {
				return err
			}
			b, _ := env.Store.Get(id)

			w := cmd.OutOrStdout()
			if output == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			printBug(w, b)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text|json)")
	return cmd
}
