package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/mailer"
	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/postgres"
)

func newSweepCmd(e *env) *cobra.Command {
	var nowFlag string
	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Ejecuta un barrido y escribe el reporte JSON en stdout",
		Example: `  zzpctl sweep generate
  zzpctl sweep overdue --now 2024-03-31`,
	}
	sweep.PersistentFlags().StringVar(&nowFlag, "now", "", "fecha del barrido (YYYY-MM-DD, por defecto hoy)")

	sweep.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Genera las facturas recurrentes vencidas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := parseNow(nowFlag)
			if err != nil {
				return err
			}
			return withBilling(cmd.Context(), e, func(deps billingDeps) error {
				report, err := billing.NewGenerationSweep(deps.tx, deps.recurring, deps.cfg, e.log.Component("sweep")).
					Run(cmd.Context(), now)
				if err != nil {
					return err
				}
				return writeJSON(cmd, report)
			})
		},
	})
	sweep.AddCommand(&cobra.Command{
		Use:   "overdue",
		Short: "Envía recordatorios y marca facturas vencidas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := parseNow(nowFlag)
			if err != nil {
				return err
			}
			return withBilling(cmd.Context(), e, func(deps billingDeps) error {
				dispatcher := mailer.New(e.cfg.Mailer, e.cfg.App.Name, e.log.Component("mailer"))
				report, err := billing.NewOverdueSweep(
					deps.tx, deps.invoices, deps.contractors, deps.clients, deps.audit,
					dispatcher, deps.cfg, e.log.Component("sweep"),
				).Run(cmd.Context(), now)
				if err != nil {
					return err
				}
				return writeJSON(cmd, report)
			})
		},
	})
	return sweep
}

type billingDeps struct {
	tx          *postgres.TxRunner
	invoices    *postgres.InvoiceRepo
	recurring   *postgres.RecurringInvoiceRepo
	contractors *postgres.ContractorRepo
	clients     *postgres.ClientRepo
	audit       *postgres.AuditRepo
	cfg         billing.SweepConfig
}

// withBilling abre el pool, construye los repos y lo cierra al terminar fn.
func withBilling(ctx context.Context, e *env, fn func(billingDeps) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := postgres.NewPool(ctx, e.cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()
	return fn(billingDeps{
		tx:          postgres.NewTxRunner(pool),
		invoices:    postgres.NewInvoiceRepository(pool),
		recurring:   postgres.NewRecurringInvoiceRepository(pool),
		contractors: postgres.NewContractorRepository(pool),
		clients:     postgres.NewClientRepository(pool),
		audit:       postgres.NewAuditRepository(pool),
		cfg: billing.SweepConfig{
			ReminderWindowDays: e.cfg.Sweep.ReminderWindowDays,
			ItemTimeout:        e.cfg.Sweep.ItemTimeout,
			PublicURL:          e.cfg.App.PublicURL,
		},
	})
}

func parseNow(raw string) (time.Time, error) {
	d, err := billing.SweepInstant(raw, time.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now debe tener formato YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
