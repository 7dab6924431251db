package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"petserver/internal/app/di"
)

// NewResetCmd creates the reset subcommand.
func NewResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every user, session and pending signup",
		Long: `Delete every user, session and pending signup. With JSON storage the
storage directory is removed entirely. This cannot be undone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			c, err := di.Build(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer func() { _ = c.Close() }()

			if err := c.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
			slog.Info("all auth state cleared", "storage", cfg.Storage.Driver, "dir", cfg.Storage.Dir)
			cmd.Println("reset: ok")
			return nil
		},
	}
}
