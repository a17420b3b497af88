package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"teikipass/internal/config"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	a := &app{}
	if err := newRootCmd(a).Execute(); err != nil {
		if a.logger != nil {
			a.logger.Error("command failed", "error", err)
		} else {
			slog.Error("command failed", "error", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "teikipass",
		Short:         "Nagoya commuter pass calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $TEIKIPASS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(importCmd(a))
	rootCmd.AddCommand(routeCmd(a))
	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.LoadPath(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	return nil
}

// applyFlags copies explicitly set flag values over the loaded config and
// revalidates it.
func (a *app) applyFlags(cmd *cobra.Command, apply func(changed func(string) bool)) error {
	apply(cmd.Flags().Changed)
	return a.cfg.Validate()
}
