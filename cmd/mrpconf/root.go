package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/logging"
	"github.com/rmax-ai/mrpconf/pkg/settings"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	settings settings.Settings
	logger   *log.Logger
	loaders  *loader.Set
	logFile  *os.File
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mrpconf",
		Short: "Inspect and edit MRP configuration",
		Long: `mrpconf reads and writes the technical and operational configuration
held by an MRP config source.

Examples:
  mrpconf scenarios list
  mrpconf technical set datasourceDebug=true
  mrpconf operational show Standard_LDL_M1000
  mrpconf dump > config.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logFile != nil {
				return a.logFile.Close()
			}
			return nil
		},
	}

	settings.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newScenariosCommand(a),
		newTechnicalCommand(a),
		newOperationalCommand(a),
		newDumpCommand(a),
		newSnapshotsCommand(a),
		newMCPCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	s, err := settings.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = s

	if s.LogFile != "" {
		a.logger, a.logFile, err = logging.OpenFile(s.LogFile, s.LogLevel, s.LogFormat)
	} else {
		a.logger, err = logging.New(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
	}
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	a.logger.Debug("settings resolved", "source_url", s.SourceURL, "config_file", s.ConfigFile, "retries", s.Retries)
	a.loaders = loader.NewSet(s.NewClient(a.logger), loader.WithLogger(a.logger))
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mrpconf %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}
