// Package lifecycle implementa la máquina de estados de una factura.
//
// Tabla de transiciones:
//
//	DRAFT                      → SENT       (contractor envía; ≥1 línea y total > 0)
//	SENT                       → VIEWED     (cliente abre la factura en el portal)
//	SENT, VIEWED, OVERDUE      → PAID       (pago confirmado)
//	SENT, VIEWED               → OVERDUE    (barrido: dueDate < hoy)
//	DRAFT, SENT, VIEWED, OVERDUE → CANCELLED (contractor cancela)
//
// La aprobación del cliente es un atributo ortogonal: no cambia el estado.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// ErrNoop la transición ya estaba aplicada; el llamante no debe persistir ni notificar.
var ErrNoop = errors.New("lifecycle: sin cambios")

var transitions = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.InvoiceStatusDraft:     {entity.InvoiceStatusSent, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusSent:      {entity.InvoiceStatusViewed, entity.InvoiceStatusPaid, entity.InvoiceStatusOverdue, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusViewed:    {entity.InvoiceStatusPaid, entity.InvoiceStatusOverdue, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusOverdue:   {entity.InvoiceStatusPaid, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusPaid:      nil,
	entity.InvoiceStatusCancelled: nil,
}

// CanTransition indica si la tabla permite from → to.
func CanTransition(from, to entity.InvoiceStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func reject(action string, from, to entity.InvoiceStatus) error {
	return &domain.TransitionError{Action: action, From: string(from), To: string(to)}
}

// EnsureEditable solo las facturas en DRAFT admiten cambios de líneas o importes.
func EnsureEditable(inv *entity.Invoice) error {
	if inv.Status != entity.InvoiceStatusDraft {
		return fmt.Errorf("%w: estado %s", domain.ErrInvoiceLocked, inv.Status)
	}
	return nil
}

// Send DRAFT → SENT.
func Send(inv *entity.Invoice, now time.Time) error {
	if !CanTransition(inv.Status, entity.InvoiceStatusSent) {
		return reject("send", inv.Status, entity.InvoiceStatusSent)
	}
	if len(inv.LineItems) == 0 {
		return fmt.Errorf("%w: la factura no tiene líneas", domain.ErrInvalidInput)
	}
	if inv.TotalCents <= 0 {
		return fmt.Errorf("%w: el total debe ser mayor que cero", domain.ErrInvalidInput)
	}
	inv.Status = entity.InvoiceStatusSent
	stamp(&inv.SentAt, now)
	inv.UpdatedAt = now
	return nil
}

// MarkViewed SENT → VIEWED. Sobre una factura ya vista (o en un estado posterior) es ErrNoop.
func MarkViewed(inv *entity.Invoice, now time.Time) error {
	switch inv.Status {
	case entity.InvoiceStatusSent:
		inv.Status = entity.InvoiceStatusViewed
		stamp(&inv.ViewedAt, now)
		inv.UpdatedAt = now
		return nil
	case entity.InvoiceStatusDraft:
		return reject("view", inv.Status, entity.InvoiceStatusViewed)
	default:
		return ErrNoop
	}
}

// MarkPaid SENT|VIEWED|OVERDUE → PAID.
func MarkPaid(inv *entity.Invoice, now time.Time) error {
	if !CanTransition(inv.Status, entity.InvoiceStatusPaid) {
		return reject("pay", inv.Status, entity.InvoiceStatusPaid)
	}
	inv.Status = entity.InvoiceStatusPaid
	stamp(&inv.PaidAt, now)
	inv.UpdatedAt = now
	return nil
}

// MarkOverdue SENT|VIEWED → OVERDUE cuando dueDate es anterior a la fecha de now.
// Reaplicarla sobre una factura OVERDUE devuelve ErrNoop: ni se re-notifica ni se re-sella.
func MarkOverdue(inv *entity.Invoice, now time.Time) error {
	if inv.Status == entity.InvoiceStatusOverdue {
		return ErrNoop
	}
	if !CanTransition(inv.Status, entity.InvoiceStatusOverdue) {
		return reject("overdue", inv.Status, entity.InvoiceStatusOverdue)
	}
	if !entity.DateOf(inv.DueDate).Before(entity.DateOf(now)) {
		return fmt.Errorf("%w: vence el %s", domain.ErrInvalidInput, inv.DueDate.Format(entity.DateFormat))
	}
	inv.Status = entity.InvoiceStatusOverdue
	inv.UpdatedAt = now
	return nil
}

// Cancel DRAFT|SENT|VIEWED|OVERDUE → CANCELLED.
func Cancel(inv *entity.Invoice, now time.Time) error {
	if !CanTransition(inv.Status, entity.InvoiceStatusCancelled) {
		return reject("cancel", inv.Status, entity.InvoiceStatusCancelled)
	}
	inv.Status = entity.InvoiceStatusCancelled
	inv.UpdatedAt = now
	return nil
}

// Approve registra la aprobación del cliente sin tocar el estado.
func Approve(inv *entity.Invoice, approvedBy string, now time.Time) error {
	if inv.Status.IsTerminal() {
		return reject("approve", inv.Status, "")
	}
	if inv.IsApproved() {
		return domain.ErrAlreadyApproved
	}
	if approvedBy == "" {
		return fmt.Errorf("%w: approved_by requerido", domain.ErrInvalidInput)
	}
	stamp(&inv.ClientApprovedAt, now)
	inv.ClientApprovedBy = approvedBy
	inv.UpdatedAt = now
	return nil
}

// RecordReminder sella reminderSentAt (una vez) y lastReminderAt.
func RecordReminder(inv *entity.Invoice, now time.Time) {
	stamp(&inv.ReminderSentAt, now)
	t := now
	inv.LastReminderAt = &t
}

// stamp fija el timestamp solo si aún no estaba fijado.
func stamp(field **time.Time, now time.Time) {
	if *field != nil {
		return
	}
	t := now
	*field = &t
}
