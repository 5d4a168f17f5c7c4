package main

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/zzp-facturatie-api/pkg/config"
	"github.com/jhoicas/zzp-facturatie-api/pkg/logger"
)

var version = "dev"

// env dependencias comunes de los subcomandos, resueltas en PersistentPreRunE.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "zzpctl",
		Short:         "Herramientas operativas de la API de facturación",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: cmd.ErrOrStderr()})
			return nil
		},
	}
	root.AddCommand(newMigrateCmd(e), newSweepCmd(e))
	return root
}
