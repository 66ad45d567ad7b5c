package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/logging"
	"github.com/rmax-ai/mrpconf/pkg/settings"
	"github.com/rmax-ai/mrpconf/pkg/tui"
)

const defaultLogFile = "mrpconf-tui.log"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "mrpconf-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("mrpconf-tui", pflag.ContinueOnError)
	settings.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := settings.Load(fs)
	if err != nil {
		return err
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}

	// The terminal belongs to the program, so logs go to a file.
	logger, logFile, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger = logger.WithPrefix("mrpconf-tui")

	logger.Info("starting", "source_url", cfg.SourceURL, "config_file", cfg.ConfigFile)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	loaders := loader.NewSet(cfg.NewClient(logger), loader.WithLogger(logger))
	m := tui.New(loaders, logger)
	defer m.Controller().Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	logger.Info("exited")
	return nil
}
