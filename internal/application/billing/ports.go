package billing

import (
	"context"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye los repos de facturación.
// Si fn devuelve error se hace rollback: ni la factura ni el avance del schedule quedan persistidos.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		recurringRepo repository.RecurringInvoiceRepository,
		templateRepo repository.TemplateRepository,
		numbers repository.InvoiceNumberAllocator,
		auditRepo repository.AuditRepository,
	) error) error
}

// Notifier entrega notificaciones tipadas (Notification Dispatcher).
// Nunca devuelve error ni entra en pánico: el fallo va en DispatchResult.Success=false.
type Notifier interface {
	Send(ctx context.Context, n entity.Notification) entity.DispatchResult
}

// InvoicePDFGenerator genera la representación PDF de una factura.
type InvoicePDFGenerator interface {
	Generate(inv *entity.Invoice, contractor *entity.Contractor, client *entity.Client) ([]byte, error)
}

// UBLBuilder genera el XML UBL 2.1 (SI-UBL 2.0 / NLCIUS) de una factura.
type UBLBuilder interface {
	Build(inv *entity.Invoice, contractor *entity.Contractor, client *entity.Client) ([]byte, error)
}
