package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmax-ai/mrpconf/pkg/snapshot"
)

func newDumpCommand(a *app) *cobra.Command {
	var (
		reveal     bool
		archiveDir string
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every scenario and configuration set as JSON",
		Long: `Print scenarios, the technical configuration and every scenario's
operational configuration as one JSON document. Fails if any set could not be
read from the source. Secrets are masked unless --reveal-secrets is given.

With --archive the snapshot is also stored in that directory and can later be
restored with 'mrpconf snapshots restore'. Only unredacted snapshots restore.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := snapshot.Take(cmd.Context(), a.loaders, snapshot.DefaultConcurrency)
			if err != nil {
				return err
			}
			if !reveal {
				s = s.Redact()
			}

			if archiveDir != "" {
				name, err := snapshot.NewArchive(archiveDir).Put(cmd.Context(), s)
				if err != nil {
					return err
				}
				a.logger.Info("snapshot archived", "dir", archiveDir, "name", name, "redacted", s.Redacted)
				fmt.Fprintln(cmd.ErrOrStderr(), subtleStyle.Render("Archived as "+name))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal-secrets", false, "print password values in clear")
	cmd.Flags().StringVar(&archiveDir, "archive", "", "also store the snapshot in this directory")
	return cmd
}
