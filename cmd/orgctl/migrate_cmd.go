package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/spec-kit/orgchart-service/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if err := e.requireDSN(); err != nil {
				return err
			}
			return persistence.RunMigrations(cmd.Context(), e.cfg.Postgres.DSN, e.logger)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if err := e.requireDSN(); err != nil {
				return err
			}
			if steps <= 0 {
				return errors.New("--steps must be positive")
			}
			return persistence.RollbackMigrations(cmd.Context(), e.cfg.Postgres.DSN, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if err := e.requireDSN(); err != nil {
				return err
			}
			version, err := persistence.MigrationVersion(cmd.Context(), e.cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{"version": version})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
