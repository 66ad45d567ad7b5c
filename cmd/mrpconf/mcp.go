package main

import (
	"github.com/spf13/cobra"

	"github.com/rmax-ai/mrpconf/pkg/mcp"
)

func newMCPCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the configuration as a Model Context Protocol server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("mcp server starting", "source_url", a.settings.SourceURL)
			return mcp.NewServer(a.loaders, Version, a.logger).Serve()
		},
	}
}
