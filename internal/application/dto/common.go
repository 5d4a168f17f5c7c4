package dto

// Límites de los listados de clientes, facturas y schedules.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest ?limit=&offset= de los listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// Normalize rellena Limit cuando viene a cero y recorta un Offset negativo.
// Un Limit por encima de MaxPageLimit se deja tal cual para que la validación lo rechace.
func (p *PageRequest) Normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse eco de la ventana pedida.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Page sobre de los listados: {"items": [...], "page": {...}}.
type Page[T any] struct {
	Items []T          `json:"items"`
	Page  PageResponse `json:"page"`
}

// NewPage envuelve items; una lista nil sale como [] en el JSON.
func NewPage[T any](items []T, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: PageResponse{Limit: req.Limit, Offset: req.Offset}}
}

// ErrorResponse cuerpo de todos los errores HTTP. Code es estable; Message es para humanos.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
