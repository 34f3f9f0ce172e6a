package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/dmitrijs2005/snipkeeper/internal/services"
	"github.com/spf13/cobra"
)

func (r *runner) areaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "area",
		Aliases: []string{"areas"},
		Short:   "Manage project areas",
	}
	cmd.AddCommand(
		r.areaAddCommand(),
		r.areaListCommand(),
		r.areaSearchCommand(),
		r.areaShowCommand(),
		r.areaEditCommand(),
		r.areaRemoveCommand(),
		r.areaLinkCommand(),
		r.areaUnlinkCommand(),
		r.areaDupCommand(),
	)
	return cmd
}

func (r *runner) areaAddCommand() *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create an area",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		a, err := r.app.Areas.Create(cmd.Context(), args[0], desc)
		if err != nil {
			return err
		}
		if r.jsonOut {
			return printJSON(r.out, a)
		}
		fmt.Fprintf(r.out, "Area %d added.\n", a.ID)
		return nil
	})
	return cmd
}

func (r *runner) printAreas(areas []models.Area) error {
	if r.jsonOut {
		return printJSON(r.out, areas)
	}
	rows := make([][]string, 0, len(areas))
	for _, a := range areas {
		active := "no"
		if a.Active {
			active = "yes"
		}
		rows = append(rows, []string{fmt.Sprint(a.ID), a.Name, active, truncate(a.Description, 40)})
	}
	printTable(r.out, []string{"ID", "NAME", "ACTIVE", "DESCRIPTION"}, rows)
	fmt.Fprintf(r.out, "Total: %d area(s)\n", len(areas))
	return nil
}

func (r *runner) areaListCommand() *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List areas",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active areas")
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		areas, err := r.app.Areas.List(cmd.Context(), activeOnly)
		if err != nil {
			return err
		}
		return r.printAreas(areas)
	})
	return cmd
}

func (r *runner) areaSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search TEXT",
		Short: "Find areas by name or description",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			areas, err := r.app.Areas.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return r.printAreas(areas)
		}),
	}
}

func (r *runner) areaShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show AREA",
		Short: "Show an area and everything linked to it",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := r.areaID(ctx, args[0])
			if err != nil {
				return err
			}
			c, err := r.app.Areas.Contents(ctx, id)
			if err != nil {
				return err
			}
			if r.jsonOut {
				return printJSON(r.out, c)
			}
			fmt.Fprintf(r.out, "Area %d: %s\n", c.ID, c.Name)
			if c.Description != "" {
				fmt.Fprintln(r.out, c.Description)
			}
			if c.Total() == 0 {
				fmt.Fprintln(r.out, "Nothing linked.")
				return nil
			}
			var rows [][]string
			for _, group := range [][]models.AreaEntry{c.Items, c.Categories, c.Tags} {
				for _, e := range group {
					rows = append(rows, []string{
						string(e.EntityType),
						fmt.Sprint(e.EntityID),
						truncate(e.Name, 30),
						fmt.Sprint(e.Order),
						truncate(e.Description, 40),
					})
				}
			}
			printTable(r.out, []string{"TYPE", "ID", "NAME", "ORDER", "DESCRIPTION"}, rows)
			fmt.Fprintf(r.out, "Total: %d item(s), %d category(ies), %d tag(s)\n",
				len(c.Items), len(c.Categories), len(c.Tags))
			return nil
		}),
	}
}

func (r *runner) areaEditCommand() *cobra.Command {
	var (
		name, desc string
		active     bool
	)
	cmd := &cobra.Command{
		Use:   "edit AREA",
		Short: "Change an area; unset flags keep their current values",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&desc, "desc", "", "new description")
	cmd.Flags().BoolVar(&active, "active", true, "whether the area is active")
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := r.areaID(ctx, args[0])
		if err != nil {
			return err
		}
		cur, err := r.app.Areas.Get(ctx, id)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("name") {
			cur.Name = name
		}
		if flags.Changed("desc") {
			cur.Description = desc
		}
		if flags.Changed("active") {
			cur.Active = active
		}
		_, err = r.app.Areas.Update(ctx, id, cur.Name, cur.Description, cur.Active)
		return err
	})
	return cmd
}

func (r *runner) areaRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm AREA",
		Short: "Delete an area and its links; linked entities stay",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := r.areaID(ctx, args[0])
			if err != nil {
				return err
			}
			if err := r.app.Areas.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(r.out, "Area %d deleted.\n", id)
			return nil
		}),
	}
}

// entityRef resolves the id of an entity named by type and id or name.
func (r *runner) entityRef(ctx context.Context, et models.EntityType, ref string) (int64, error) {
	switch et {
	case models.EntityItem:
		return parseID(ref)
	case models.EntityCategory:
		return r.categoryID(ctx, ref)
	case models.EntityTag:
		return r.tagID(ctx, ref)
	default:
		return 0, fmt.Errorf("%w: unknown entity type %q", common.ErrValidation, et)
	}
}

func (r *runner) areaLinkCommand() *cobra.Command {
	var (
		desc  string
		order int
	)
	cmd := &cobra.Command{
		Use:     "link AREA TYPE REF",
		Short:   "Link an item, category or tag to an area",
		Example: "  snipkeeper area link backend item 12 --desc \"deploy command\"",
		Args:    cobra.ExactArgs(3),
	}
	cmd.Flags().StringVar(&desc, "desc", "", "why the entity belongs to the area")
	cmd.Flags().IntVar(&order, "order", 0, "position within the area (default: last)")
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		areaID, err := r.areaID(ctx, args[0])
		if err != nil {
			return err
		}
		et, err := models.ParseEntityType(args[1])
		if err != nil {
			return err
		}
		entityID, err := r.entityRef(ctx, et, args[2])
		if err != nil {
			return err
		}
		in := services.LinkInput{EntityType: et, EntityID: entityID, Description: desc}
		if cmd.Flags().Changed("order") {
			in.Order = &order
		}
		rel, err := r.app.Areas.Link(ctx, areaID, in)
		if err != nil {
			return err
		}
		if r.jsonOut {
			return printJSON(r.out, rel)
		}
		fmt.Fprintf(r.out, "Linked %s %d at position %d.\n", rel.EntityType, rel.EntityID, rel.Order)
		return nil
	})
	return cmd
}

func (r *runner) areaUnlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink AREA TYPE REF",
		Short: "Remove an entity from an area",
		Args:  cobra.ExactArgs(3),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			areaID, err := r.areaID(ctx, args[0])
			if err != nil {
				return err
			}
			et, err := models.ParseEntityType(args[1])
			if err != nil {
				return err
			}
			entityID, err := r.entityRef(ctx, et, args[2])
			if err != nil {
				return err
			}
			return r.app.Areas.Unlink(ctx, areaID, et, entityID)
		}),
	}
}

func (r *runner) areaDupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dup AREA NAME",
		Short: "Copy an area and its links under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := r.areaID(ctx, args[0])
			if err != nil {
				return err
			}
			a, err := r.app.Areas.Duplicate(ctx, id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(r.out, "Area %d created.\n", a.ID)
			return nil
		}),
	}
}
