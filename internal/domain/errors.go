package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrWeakPassword       = errors.New("la contraseña aparece en filtraciones conocidas")

	// Ciclo de vida de facturas.
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrInvoiceLocked     = errors.New("la factura ya no está en borrador")
	ErrAlreadyApproved   = errors.New("la factura ya fue aprobada por el cliente")

	// Portal de clientes.
	ErrTokenInvalid = errors.New("token de acceso inválido")
	ErrTokenExpired = errors.New("token de acceso expirado")

	// Efectos secundarios de los barridos.
	ErrDispatchFailure   = errors.New("fallo al enviar la notificación")
	ErrGenerationFailure = errors.New("fallo al generar la factura recurrente")
	ErrAlreadyGenerated  = errors.New("la ocurrencia recurrente ya fue facturada")
)

// ErrNotFoundOrUnauthorized se usa cuando el recurso existe pero no pertenece al
// llamante: se responde igual que si no existiera para no filtrar su existencia.
var ErrNotFoundOrUnauthorized = ErrNotFound

// TransitionError describe un intento de transición rechazado por la tabla de estados.
type TransitionError struct {
	Action string // send, view, pay, overdue, cancel, approve
	From   string
	To     string
}

// Error implementa error.
func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("%s: no permitido desde %s", e.Action, e.From)
	}
	return fmt.Sprintf("%s: %s → %s no permitido", e.Action, e.From, e.To)
}

// Unwrap permite errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
