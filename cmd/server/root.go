package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"petserver/internal/config"
	"petserver/internal/platform/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the pet server CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "petserver",
		Short: "Pet-Server account service",
		Long: `Pet-Server account service: signup confirmed by an emailed code,
password login and session tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewResetCmd())

	return cmd
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Format, cfg.Log.Level, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}
