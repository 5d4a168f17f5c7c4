package main

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/postgres"
)

func newMigrateCmd(e *env) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del esquema (goose)",
	}
	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Aplica todas las migraciones pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return postgres.UpMigrations(e.cfg.DB.ConnectionString(), e.log.Component("migrate"))
		},
	})
	return migrate
}
