package cli

import (
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/dmitrijs2005/snipkeeper/internal/services"
	"github.com/spf13/cobra"
)

func (r *runner) tagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage tags",
	}
	cmd.AddCommand(
		r.tagAddCommand(),
		r.tagListCommand(),
		r.tagRenameCommand(),
		r.tagRemoveCommand(),
		r.tagPopularCommand(),
		r.tagPruneCommand(),
	)
	return cmd
}

func (r *runner) tagAddCommand() *cobra.Command {
	var in services.TagInput
	var category, area string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a tag, global unless limited to a category or area",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&in.Color, "color", "", "color as #rrggbb")
	cmd.Flags().StringVar(&category, "category", "", "limit the tag to this category")
	cmd.Flags().StringVar(&area, "area", "", "limit the tag to this area")
	cmd.MarkFlagsMutuallyExclusive("category", "area")

	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in.Name = args[0]
		var err error
		switch {
		case category != "":
			in.Scope = models.ScopeCategory
			in.ScopeID, err = r.categoryID(ctx, category)
		case area != "":
			in.Scope = models.ScopeArea
			in.ScopeID, err = r.areaID(ctx, area)
		}
		if err != nil {
			return err
		}
		t, err := r.app.Tags.Create(ctx, in)
		if err != nil {
			return err
		}
		if r.jsonOut {
			return printJSON(r.out, t)
		}
		fmt.Fprintf(r.out, "Tag %d (%s) added.\n", t.ID, t.Name)
		return nil
	})
	return cmd
}

func scopeLabel(t models.Tag) string {
	if t.Scope == models.ScopeGlobal {
		return string(t.Scope)
	}
	return fmt.Sprintf("%s:%d", t.Scope, t.ScopeID)
}

func (r *runner) tagListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			tags, err := r.app.Tags.List(cmd.Context())
			if err != nil {
				return err
			}
			if r.jsonOut {
				return printJSON(r.out, tags)
			}
			rows := make([][]string, 0, len(tags))
			for _, t := range tags {
				rows = append(rows, []string{fmt.Sprint(t.ID), t.Name, t.Color, scopeLabel(t)})
			}
			printTable(r.out, []string{"ID", "NAME", "COLOR", "SCOPE"}, rows)
			fmt.Fprintf(r.out, "Total: %d tag(s)\n", len(tags))
			return nil
		}),
	}
}

func (r *runner) tagRenameCommand() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "rename TAG NAME",
		Short: "Rename a tag",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringVar(&color, "color", "", "new color")
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := r.tagID(ctx, args[0])
		if err != nil {
			return err
		}
		cur, err := r.app.Tags.Get(ctx, id)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("color") {
			cur.Color = color
		}
		_, err = r.app.Tags.Update(ctx, id, args[1], cur.Color)
		return err
	})
	return cmd
}

func (r *runner) tagRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm TAG...",
		Short: "Delete tags and detach them from every item",
		Args:  cobra.MinimumNArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, ref := range args {
				id, err := r.tagID(ctx, ref)
				if err != nil {
					return err
				}
				if err := r.app.Tags.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(r.out, "Tag %d deleted.\n", id)
			}
			return nil
		}),
	}
}

func (r *runner) tagPopularCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Show the most used tags",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of tags")
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		if limit <= 0 {
			return fmt.Errorf("%w: limit must be positive", common.ErrValidation)
		}
		usage, err := r.app.Tags.Popular(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if r.jsonOut {
			return printJSON(r.out, usage)
		}
		rows := make([][]string, 0, len(usage))
		for _, u := range usage {
			rows = append(rows, []string{fmt.Sprint(u.ID), u.Name, fmt.Sprint(u.Count)})
		}
		printTable(r.out, []string{"ID", "NAME", "ITEMS"}, rows)
		return nil
	})
	return cmd
}

func (r *runner) tagPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete tags attached to no item",
		Args:  cobra.NoArgs,
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			n, err := r.app.Tags.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(r.out, "Pruned %d tag(s).\n", n)
			return nil
		}),
	}
}
