package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/dmitrijs2005/snipkeeper/internal/services"
	"github.com/spf13/cobra"
)

func (r *runner) itemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items", "i"},
		Short:   "Manage snippets",
	}
	cmd.AddCommand(
		r.itemAddCommand(),
		r.itemShowCommand(),
		r.itemListCommand(),
		r.itemEditCommand(),
		r.itemRemoveCommand(),
		r.itemFavCommand(),
		r.itemFavsCommand(),
		r.itemFavOrderCommand(),
		r.itemUseCommand(),
		r.itemTagCommand(),
		r.itemUntagCommand(),
	)
	return cmd
}

// valueInput describes where an item value comes from.
type valueInput struct {
	value     string
	fromStdin bool
}

func (v *valueInput) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.value, "value", "", "snippet value")
	cmd.Flags().BoolVar(&v.fromStdin, "stdin", false, "read the value from standard input")
}

// read returns the value from the flag, stdin, or an interactive prompt.
// Sensitive values are prompted for without echo.
func (v *valueInput) read(cmd *cobra.Command, r *runner, sensitive bool) (string, error) {
	switch {
	case cmd.Flags().Changed("value"):
		return v.value, nil
	case v.fromStdin:
		data, err := io.ReadAll(r.in)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	case sensitive:
		pw, err := GetPassword("Value", r.out)
		if err != nil {
			return "", err
		}
		defer common.WipeByteArray(pw)
		return string(pw), nil
	default:
		return GetMultiline(r.in, "Value", r.out)
	}
}

func (r *runner) itemAddCommand() *cobra.Command {
	var (
		in       services.ItemInput
		typ      string
		category string
		value    valueInput
	)
	cmd := &cobra.Command{
		Use:   "add [LABEL]",
		Short: "Add a snippet",
		Example: `  snipkeeper item add "git status" --type code --value "git status"
  snipkeeper item add "db password" --sensitive
  pbpaste | snipkeeper item add "clipboard" --stdin`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVar(&typ, "type", "", "content type: text, url, code or path (default text)")
	cmd.Flags().StringVar(&category, "category", "", "category id or name (default General)")
	cmd.Flags().BoolVar(&in.Sensitive, "sensitive", false, "encrypt the value at rest")
	value.bind(cmd)

	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 1 {
			in.Label = args[0]
		} else {
			label, err := GetSimpleText(r.in, "Label", r.out)
			if err != nil {
				return err
			}
			in.Label = label
		}
		ct, err := models.ParseContentType(typ)
		if err != nil {
			return err
		}
		in.Type = ct
		if category != "" {
			if in.CategoryID, err = r.categoryID(ctx, category); err != nil {
				return err
			}
		}
		if in.Value, err = value.read(cmd, r, in.Sensitive); err != nil {
			return err
		}

		v, err := r.app.Items.Create(ctx, in)
		if err != nil {
			return err
		}
		if r.jsonOut {
			return printJSON(r.out, toItemJSON(*v))
		}
		fmt.Fprintf(r.out, "Item %d added.\n", v.ID)
		return nil
	})
	return cmd
}

func (r *runner) itemShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a snippet with its value",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := r.app.Items.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return r.printItem(v)
		}),
	}
}

func (r *runner) itemListCommand() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snippets, most recently modified first",
		Args:  cobra.NoArgs,
	}
	ff.bind(cmd.Flags())
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		return r.list(cmd.Context(), &ff, "")
	})
	return cmd
}

func (r *runner) searchCommand() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "search TEXT...",
		Short: "Find snippets by label and value",
		Long: `Search matches every word against labels and values of non-sensitive
snippets. Words match as prefixes. Structured flags narrow the result.`,
		Example: `  snipkeeper search git
  snipkeeper search docker --tag ops --since "2024-05-01"`,
		Args: cobra.MinimumNArgs(1),
	}
	ff.bind(cmd.Flags())
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		return r.list(cmd.Context(), &ff, strings.Join(args, " "))
	})
	return cmd
}

func (r *runner) list(ctx context.Context, ff *filterFlags, text string) error {
	f, err := r.buildFilter(ctx, ff, text)
	if err != nil {
		return err
	}
	views, err := r.app.Items.List(ctx, f)
	if err != nil {
		return err
	}
	return r.printItems(views)
}

func (r *runner) itemEditCommand() *cobra.Command {
	var (
		label, typ, category string
		sensitive            bool
		value                valueInput
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a snippet; unset flags keep their current values",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&label, "label", "", "new label")
	cmd.Flags().StringVar(&typ, "type", "", "new content type")
	cmd.Flags().StringVar(&category, "category", "", "new category id or name")
	cmd.Flags().BoolVar(&sensitive, "sensitive", false, "encrypt the value at rest")
	value.bind(cmd)

	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		cur, err := r.app.Items.Get(ctx, id)
		if err != nil {
			return err
		}

		in := services.ItemInput{
			CategoryID: cur.CategoryID,
			Label:      cur.Label,
			Type:       cur.Type,
			Value:      cur.Value,
			Sensitive:  cur.Sensitive(),
		}
		flags := cmd.Flags()
		if flags.Changed("label") {
			in.Label = label
		}
		if flags.Changed("type") {
			if in.Type, err = models.ParseContentType(typ); err != nil {
				return err
			}
		}
		if flags.Changed("category") {
			if in.CategoryID, err = r.categoryID(ctx, category); err != nil {
				return err
			}
		}
		if flags.Changed("sensitive") {
			in.Sensitive = sensitive
		}
		if flags.Changed("value") || value.fromStdin {
			if in.Value, err = value.read(cmd, r, in.Sensitive); err != nil {
				return err
			}
		}

		v, err := r.app.Items.Update(ctx, id, in)
		if err != nil {
			return err
		}
		if r.jsonOut {
			return printJSON(r.out, toItemJSON(*v))
		}
		fmt.Fprintf(r.out, "Item %d updated.\n", v.ID)
		return nil
	})
	return cmd
}

func (r *runner) itemRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"delete"},
		Short:   "Delete snippets",
		Args:    cobra.MinimumNArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := r.app.Items.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("item %d: %w", id, err)
				}
				fmt.Fprintf(r.out, "Item %d deleted.\n", id)
			}
			return nil
		}),
	}
}

func (r *runner) itemFavCommand() *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "fav ID",
		Short: "Mark a snippet as favorite (or unmark with --off)",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&off, "off", false, "remove from favorites")
	cmd.RunE = r.authed(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return r.app.Items.SetFavorite(cmd.Context(), id, !off)
	})
	return cmd
}

func (r *runner) itemFavsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "favs",
		Short: "List favorites in their order",
		Args:  cobra.NoArgs,
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			views, err := r.app.Items.Favorites(cmd.Context())
			if err != nil {
				return err
			}
			return r.printItems(views)
		}),
	}
}

func (r *runner) itemFavOrderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fav-order ID...",
		Short: "Reorder favorites; list every favorite once",
		Args:  cobra.MinimumNArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return r.app.Items.ReorderFavorites(cmd.Context(), ids)
		}),
	}
}

func (r *runner) itemUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use ID",
		Short: "Print a snippet's raw value and count the use",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := r.app.Items.RecordUse(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(r.out, v.Value)
			return nil
		}),
	}
}

func (r *runner) itemTagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tag ID TAG...",
		Short: "Attach tags (id or global tag name) to a snippet",
		Args:  cobra.MinimumNArgs(2),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			for _, ref := range args[1:] {
				tagID, err := r.tagID(ctx, ref)
				if err != nil {
					return err
				}
				if err := r.app.Items.AttachTag(ctx, id, tagID); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func (r *runner) itemUntagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "untag ID TAG...",
		Short: "Detach tags from a snippet",
		Args:  cobra.MinimumNArgs(2),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			for _, ref := range args[1:] {
				tagID, err := r.tagID(ctx, ref)
				if err != nil {
					return err
				}
				if err := r.app.Items.DetachTag(ctx, id, tagID); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}
