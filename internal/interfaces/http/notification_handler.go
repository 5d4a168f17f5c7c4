package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// NotificationHandler expone el dispatcher a otros servicios internos.
type NotificationHandler struct {
	notifier billing.Notifier
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(notifier billing.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// Send POST /api/notifications/send
//
// 200 con {success:true, id} si se entregó; 502 con {success:false, error} si el
// dispatcher falló. El cuerpo es siempre un DispatchResult.
func (h *NotificationHandler) Send(c *fiber.Ctx) error {
	var in dto.SendNotificationRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	res := h.notifier.Send(c.Context(), entity.Notification{
		Type:           entity.NotificationType(in.Type),
		RecipientEmail: in.RecipientEmail,
		RecipientName:  in.RecipientName,
		Data:           in.Data,
	})
	if !res.Success {
		return c.Status(fiber.StatusBadGateway).JSON(res)
	}
	return c.JSON(res)
}
