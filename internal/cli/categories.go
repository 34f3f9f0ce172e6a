package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (r *runner) categoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories", "cat"},
		Short:   "Manage categories",
	}

	var icon string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			c, err := r.app.Categories.Create(cmd.Context(), args[0], icon)
			if err != nil {
				return err
			}
			if r.jsonOut {
				return printJSON(r.out, c)
			}
			fmt.Fprintf(r.out, "Category %d added.\n", c.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&icon, "icon", "", "icon shown next to the name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			cats, err := r.app.Categories.List(cmd.Context())
			if err != nil {
				return err
			}
			if r.jsonOut {
				return printJSON(r.out, cats)
			}
			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				predefined := ""
				if c.Predefined {
					predefined = "yes"
				}
				rows = append(rows, []string{fmt.Sprint(c.ID), c.Name, c.Icon, predefined})
			}
			printTable(r.out, []string{"ID", "NAME", "ICON", "PREDEFINED"}, rows)
			fmt.Fprintf(r.out, "Total: %d category(ies)\n", len(cats))
			return nil
		}),
	}

	var newIcon string
	rename := &cobra.Command{
		Use:   "rename CATEGORY NAME",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := r.categoryID(ctx, args[0])
			if err != nil {
				return err
			}
			cur, err := r.app.Categories.Get(ctx, id)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("icon") {
				cur.Icon = newIcon
			}
			_, err = r.app.Categories.Update(ctx, id, args[1], cur.Icon)
			return err
		}),
	}
	rename.Flags().StringVar(&newIcon, "icon", "", "new icon")

	rm := &cobra.Command{
		Use:   "rm CATEGORY",
		Short: "Delete an empty category",
		Long:  "Delete a category. Categories that still hold items cannot be deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := r.categoryID(ctx, args[0])
			if err != nil {
				return err
			}
			if err := r.app.Categories.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(r.out, "Category %d deleted.\n", id)
			return nil
		}),
	}

	cmd.AddCommand(add, list, rename, rm)
	return cmd
}
