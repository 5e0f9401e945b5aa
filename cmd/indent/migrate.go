package main

import (
	"github.com/Spok95/pharmacy-indent/internal/infra/db"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			return db.Migrate(cfg.Postgres.DSN, log)
		},
	}
}
