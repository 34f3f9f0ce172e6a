package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/snipkeeper/internal/services"
	"github.com/spf13/cobra"
)

func (r *runner) backupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, import and store snapshots",
		Long: `Snapshots are JSON documents holding every category, tag, area and item.
Sensitive values stay encrypted, so a snapshot can only be imported by an
installation using the same key file.`,
	}

	var outFile string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot to stdout or a file",
		Args:  cobra.NoArgs,
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			var w io.Writer = r.out
			if outFile != "" {
				f, err := os.OpenFile(outFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return r.app.Backups.Export(cmd.Context(), w)
		}),
	}
	export.Flags().StringVarP(&outFile, "out", "o", "", "output file")

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Merge a snapshot file (or - for stdin) into the store",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			var src io.Reader = r.in
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}
			stats, err := r.app.Backups.Import(cmd.Context(), src)
			if err != nil {
				return err
			}
			return r.printStats(stats)
		}),
	}

	push := &cobra.Command{
		Use:   "push",
		Short: "Store a snapshot in the configured backup target",
		Args:  cobra.NoArgs,
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			name, err := r.app.Backups.Backup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(r.out, name)
			return nil
		}),
	}

	pull := &cobra.Command{
		Use:   "pull NAME",
		Short: "Import a snapshot from the configured backup target",
		Args:  cobra.ExactArgs(1),
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			stats, err := r.app.Backups.Restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return r.printStats(stats)
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots in the configured backup target",
		Args:  cobra.NoArgs,
		RunE: r.authed(func(cmd *cobra.Command, args []string) error {
			names, err := r.app.Backups.List(cmd.Context())
			if err != nil {
				return err
			}
			if r.jsonOut {
				return printJSON(r.out, names)
			}
			for _, n := range names {
				fmt.Fprintln(r.out, n)
			}
			fmt.Fprintf(r.out, "Total: %d backup(s)\n", len(names))
			return nil
		}),
	}

	cmd.AddCommand(export, importCmd, push, pull, list)
	return cmd
}

func (r *runner) printStats(s *services.ImportStats) error {
	if r.jsonOut {
		return printJSON(r.out, s)
	}
	fmt.Fprintf(r.out, "Imported %d item(s), %d categor(ies), %d tag(s), %d area(s), %d link(s).\n",
		s.Items, s.Categories, s.Tags, s.Areas, s.Relations)
	return nil
}
