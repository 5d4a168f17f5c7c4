package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/auth"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
)

// AuthHandler maneja registro, login y preferencias del contractor.
type AuthHandler struct {
	uc *auth.AuthUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Register godoc
// @Summary      Registrar contractor y usuario owner
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "email, password, name, company_name"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	user, err := h.uc.Register(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Login(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetPreferences GET /api/settings/preferences
func (h *AuthHandler) GetPreferences(c *fiber.Ctx) error {
	prefs, err := h.uc.GetPreferences(c.Context(), GetContractorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(prefs)
}

// UpdatePreferences PUT /api/settings/preferences. Los campos ausentes conservan su valor.
func (h *AuthHandler) UpdatePreferences(c *fiber.Ctx) error {
	var in dto.NotificationPreferencesDTO
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	prefs, err := h.uc.UpdatePreferences(c.Context(), GetContractorID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(prefs)
}
