package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmax-ai/mrpconf/pkg/snapshot"
)

const defaultArchiveDir = "mrpconf-snapshots"

func newSnapshotsCommand(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List, restore and delete archived snapshots",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", defaultArchiveDir, "snapshot archive directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := snapshot.NewArchive(dir).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("No snapshots in "+dir))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <name>",
		Short: "Write an archived snapshot back to the config source",
		Long: `Create the snapshot's scenarios that are missing from the source, then save
the technical set and every operational set the snapshot holds. Redacted
snapshots are refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := snapshot.NewArchive(dir).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report, err := snapshot.Restore(cmd.Context(), a.loaders, s)
			if err != nil {
				return err
			}
			a.logger.Info("snapshot restored", "name", args[0], "created", len(report.Created), "saved", report.Saved)
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf(
				"Restored %s: %d sets saved, %d scenarios created", args[0], report.Saved, len(report.Created))))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := snapshot.NewArchive(dir).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted "+args[0])
			return nil
		},
	})

	return cmd
}
