package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"toolroom-console/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the console's own tables",
		Long:  "Creates the push subscription and scan journal tables. serve and scan also migrate on start.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gormDB, err := db.Open(&a.cfg.Database)
			if err != nil {
				return err
			}
			if err := db.Migrate(gormDB); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			a.log.Info("migrations applied")
			return nil
		},
	}
}
