package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/portal"
)

// ClientHandler maneja clientes del contractor y sus tokens de acceso al portal (protegido).
type ClientHandler struct {
	uc     *billing.ClientUseCase
	tokens *portal.AccessTokenUseCase
}

// NewClientHandler construye el handler.
func NewClientHandler(uc *billing.ClientUseCase, tokens *portal.AccessTokenUseCase) *ClientHandler {
	return &ClientHandler{uc: uc, tokens: tokens}
}

// Create godoc
// @Summary      Crear cliente
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateClientRequest  true  "datos del cliente"
// @Success      201   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/clients [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.Context(), GetContractorID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/clients?limit=&offset=
func (h *ClientHandler) List(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.uc.List(c.Context(), GetContractorID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPage(list, page))
}

// GetByID GET /api/clients/:id
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), GetContractorID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateAccessToken godoc
// @Summary      Emitir token de acceso al portal para un cliente
// @Description  El token en claro solo se devuelve en esta respuesta.
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                        true  "client id"
// @Param        body  body  dto.CreateAccessTokenRequest  true  "email del destinatario"
// @Success      201   {object}  dto.AccessTokenResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/clients/{id}/access-tokens [post]
func (h *ClientHandler) CreateAccessToken(c *fiber.Ctx) error {
	var in dto.CreateAccessTokenRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.tokens.Create(c.Context(), GetContractorID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListAccessTokens GET /api/clients/:id/access-tokens (sin el token en claro).
func (h *ClientHandler) ListAccessTokens(c *fiber.Ctx) error {
	list, err := h.tokens.List(c.Context(), GetContractorID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// RevokeAccessToken DELETE /api/access-tokens/:id
func (h *ClientHandler) RevokeAccessToken(c *fiber.Ctx) error {
	if err := h.tokens.Revoke(c.Context(), GetContractorID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
