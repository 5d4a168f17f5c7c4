package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// Notifier registra las notificaciones enviadas. Con Fail activo todas devuelven Success=false.
type Notifier struct {
	mu   sync.Mutex
	fail bool
	sent []entity.Notification
	n    int
}

// SetFail activa o desactiva el fallo de entrega.
func (n *Notifier) SetFail(fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = fail
}

// Send implementa billing.Notifier.
func (n *Notifier) Send(ctx context.Context, msg entity.Notification) entity.DispatchResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return entity.DispatchResult{Success: false, Error: "smtp no disponible"}
	}
	n.n++
	n.sent = append(n.sent, msg)
	return entity.DispatchResult{Success: true, ID: fmt.Sprintf("msg-%d", n.n)}
}

// Sent copia de las notificaciones entregadas.
func (n *Notifier) Sent() []entity.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entity.Notification(nil), n.sent...)
}

// SentOfType notificaciones entregadas de un tipo.
func (n *Notifier) SentOfType(t entity.NotificationType) []entity.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []entity.Notification
	for _, msg := range n.sent {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}
