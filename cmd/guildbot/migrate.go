package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/susu3304/guildbot/internal/config"
	"github.com/susu3304/guildbot/internal/db"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return err
			}

			database, err := db.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.RunMigrations(cmd.Context()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
