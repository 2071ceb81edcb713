package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockedby/channel-stats/internal/app"
	"github.com/blockedby/channel-stats/internal/migrator"
	"github.com/blockedby/channel-stats/migrations"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the postgres schema",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if cfg.IsSQLite() {
			return errors.New("migrations apply to postgres only; sqlite schemas are created on open")
		}
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Migrate(cmd.Context(), cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := migrator.NewWithFS(migrations.FS)
		if err != nil {
			return err
		}
		if err := m.Down(cmd.Context(), cfg.DatabaseURL, downSteps); err != nil {
			return err
		}
		log.Info().Int("steps", downSteps).Msg("migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := migrator.NewWithFS(migrations.FS)
		if err != nil {
			return err
		}
		version, dirty, err := m.Version(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
