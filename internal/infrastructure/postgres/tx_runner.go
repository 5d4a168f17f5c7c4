package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/auth"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var (
	_ billing.BillingTxRunner   = (*TxRunner)(nil)
	_ auth.RegistrationTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunBilling inicia una transacción con los repos de facturación, numeración y auditoría.
// Si fn devuelve error se hace rollback: el número reservado tampoco se consume.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	recurringRepo repository.RecurringInvoiceRepository,
	templateRepo repository.TemplateRepository,
	numbers repository.InvoiceNumberAllocator,
	auditRepo repository.AuditRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(
			NewInvoiceRepository(tx),
			NewRecurringInvoiceRepository(tx),
			NewTemplateRepository(tx),
			NewInvoiceNumberAllocator(tx),
			NewAuditRepository(tx),
		)
	})
}

// RunRegistration crea contractor y usuario owner en la misma transacción.
func (r *TxRunner) RunRegistration(ctx context.Context, fn func(
	contractorRepo repository.ContractorRepository,
	userRepo repository.UserRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewContractorRepository(tx), NewUserRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
