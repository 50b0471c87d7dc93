package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/store"
)

// UpdateOptions holds command-line options for the update command.
type UpdateOptions struct {
	Title       string
	Description string
	Severity    string
	Status      string
	AssignedTo  string
	Tags        []string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(g *GlobalOptions) *cobra.Command {
	opts := &UpdateOptions{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a bug",
		Long: `Change one or more fields of a bug. Only the flags given are applied.

An invalid severity or status rejects the whole update. Pass an empty
--assigned-to to clear the assignee.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := opts.fields(cmd)
			if err != nil {
				return err
			}
			return mutate(cmd, g, args[0], "updated", func(s *store.Store, id string) bool {
				return s.Update(id, fields)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "New title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "New description")
	cmd.Flags().StringVar(&opts.Severity, "severity", "", "New severity")
	cmd.Flags().StringVar(&opts.Status, "status", "", "New status")
	cmd.Flags().StringVar(&opts.AssignedTo, "assigned-to", "", "New assignee")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "Replace the tags")

	return cmd
}

// fields builds the update map from the flags that were set.
func (o *UpdateOptions) fields(cmd *cobra.Command) (map[string]any, error) {
	fields := map[string]any{}
	set := func(flag, key string, value any) {
		if cmd.Flags().Changed(flag) {
			fields[key] = value
		}
	}
	set("title", store.FieldTitle, o.Title)
	set("description", store.FieldDescription, o.Description)
	set("tags", store.FieldTags, o.Tags)

	if cmd.Flags().Changed("severity") {
		sev, err := bug.ParseSeverity(o.Severity)
		if err != nil {
			return nil, err
		}
		fields[store.FieldSeverity] = sev
	}
	if cmd.Flags().Changed("status") {
		st, err := bug.ParseStatus(o.Status)
		if err != nil {
			return nil, err
		}
		fields[store.FieldStatus] = st
	}
	if cmd.Flags().Changed("assigned-to") {
		if o.AssignedTo == "" {
			fields[store.FieldAssignee] = nil
		} else {
			fields[store.FieldAssignee] = o.AssignedTo
		}
	}

	if len(fields) == 0 {
		return nil, errors.New("nothing to update: give at least one field flag")
	}
	return fields, nil
}

// mutate resolves idArg, applies fn and reports the outcome.
func mutate(cmd *cobra.Command, g *GlobalOptions, idArg, verb string, fn func(*store.Store, string) bool) error {
	env, err := g.Setup(cmd)
	if err != nil {
		return err
	}
	id, err := resolveID(env.Store, idArg)
	if err != nil {
		return err
	}
	if !fn(env.Store, id) {
		return fmt.Errorf("bug %s was not %s", id, verb)
	}
	if err := env.saved(); err != nil {
		return err
	}
	b, _ := env.Store.Get(id)
	fmt.Fprintf(cmd.OutOrStdout(), "Bug %s %s\n", b.ShortID(), verb)
	return nil
}

// NewCloseCommand creates the close command.
func NewCloseCommand(g *GlobalOptions) *cobra.Command {
	var assignee string

	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close a bug",
		Long:  "Set a bug's status to closed, optionally recording who closed it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, g, args[0], "closed", func(s *store.Store, id string) bool {
				return s.Close(id, assignee)
			})
		},
	}

	cmd.Flags().StringVar(&assignee, "assigned-to", "", "Record the assignee as well")
	return cmd
}

// NewReopenCommand creates the reopen command.
func NewReopenCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <id>",
		Short: "Reopen a bug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, g, args[0], "reopened", func(s *store.Store, id string) bool {
				return s.Reopen(id)
			})
		},
	}
}

// NewAssignCommand creates the assign command.
func NewAssignCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <assignee>",
		Short: "Assign a bug and mark it in progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, g, args[0], "assigned to "+args[1], func(s *store.Store, id string) bool {
				return s.Assign(id, args[1])
			})
		},
	}
}

// NewTagCommand creates the tag command.
func NewTagCommand(g *GlobalOptions) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "tag <id> <tag>",
		Short: "Add or remove a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove {
				return mutate(cmd, g, args[0], "untagged "+args[1], func(s *store.Store, id string) bool {
					return s.RemoveTag(id, args[1])
				})
			}
			return mutate(cmd, g, args[0], "tagged "+args[1], func(s *store.Store, id string) bool {
				return s.AddTag(id, args[1])
			})
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the tag instead of adding it")
	return cmd
}

// NewSetStatusCommand creates the set-status command.
func NewSetStatusCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <status> <id>...",
		Short: "Set the status of several bugs",
		Long:  "Set the status of every listed bug. Unknown ids are skipped and counted.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := bug.ParseStatus(args[0])
			if err != nil {
				return err
			}
			env, err := g.Setup(cmd)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := resolveID(env.Store, arg)
				if err != nil {
					env.Logger.Warn("skipping bug", "id", arg, "error", err)
					continue
				}
				ids = append(ids, id)
			}

			n := env.Store.BulkUpdateStatus(ids, status)
			if err := env.saved(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d of %d bug(s) to %s\n", n, len(args)-1, status)
			return nil
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a bug from the store",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.Setup(cmd)
			if err != nil {
				return err
			}
			id, err := resolveID(env.Store, args[0])
			if err != nil {
				return err
			}
			env.Store.Remove(id)
			if err := env.saved(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bug %s removed\n", id)
			return nil
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(g *GlobalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every bug from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("refusing to clear the store without --force")
			}
			env, err := g.Setup(cmd)
			if err != nil {
				return err
			}
			n := env.Store.Len()
			env.Store.Clear()
			if err := env.saved(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d bug(s)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm deleting every bug")
	return cmd
}
