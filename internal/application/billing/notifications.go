package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// InvoiceURL enlace del portal de clientes para una factura.
func InvoiceURL(publicURL, invoiceID string) string {
	return fmt.Sprintf("%s/portal/invoices/%s", strings.TrimRight(publicURL, "/"), invoiceID)
}

// invoiceNotificationData campos comunes a todas las notificaciones de factura.
func invoiceNotificationData(inv *entity.Invoice, contractor *entity.Contractor, publicURL string) map[string]any {
	return map[string]any{
		"invoiceNumber":  inv.InvoiceNumber,
		"totalCents":     inv.TotalCents,
		"dueDate":        inv.DueDate.Format(entity.DateFormat),
		"contractorName": contractor.Name,
		"invoiceUrl":     InvoiceURL(publicURL, inv.ID),
	}
}

// notifyClient envía una notificación al cliente si la preferencia del contractor lo permite.
// Devuelve false sin enviar cuando la preferencia está desactivada o el cliente no tiene email.
func notifyClient(
	ctx context.Context,
	notifier Notifier,
	log zerolog.Logger,
	typ entity.NotificationType,
	contractor *entity.Contractor,
	client *entity.Client,
	data map[string]any,
	timeout time.Duration,
) (sent bool, result entity.DispatchResult) {
	if !contractor.Preferences.Enabled(typ) {
		return false, result
	}
	email := client.RecipientEmail()
	if email == "" {
		log.Warn().Str("client_id", client.ID).Str("type", string(typ)).Msg("cliente sin email de facturación ni de contacto")
		return false, result
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result = notifier.Send(sendCtx, entity.Notification{
		Type:           typ,
		RecipientEmail: email,
		RecipientName:  client.RecipientName(),
		Data:           data,
	})
	if !result.Success {
		log.Error().Str("client_id", client.ID).Str("type", string(typ)).Str("error", result.Error).Msg("fallo al enviar notificación")
	}
	return true, result
}
