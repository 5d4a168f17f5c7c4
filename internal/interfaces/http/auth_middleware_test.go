package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	apphttp "github.com/jhoicas/zzp-facturatie-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/zzp-facturatie-api/pkg/jwt"
)

const (
	testJWTSecret    = "test-secret-key-for-unit-tests"
	testUserID       = "00000000-0000-0000-0000-000000000001"
	testContractorID = "00000000-0000-0000-0000-000000000002"
	testIssuer       = "zzp-facturatie-test"
	testExpMin       = 60
)

// ──────────────────────────────────────────────────────────────────────────────
// App de permisos: mismas reglas owner/member que el router real
// ──────────────────────────────────────────────────────────────────────────────

// rbacApp monta rutas de contractor con stubs. Lectura y alta de facturas para
// cualquier miembro; cancelar, emitir enlaces de portal y tocar preferencias solo owner.
func rbacApp() *fiber.App {
	app := fiber.New()
	api := app.Group("/api", apphttp.AuthMiddleware(testJWTSecret))

	whoami := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":       apphttp.GetUserID(c),
			"contractor_id": apphttp.GetContractorID(c),
			"role":          apphttp.GetRole(c),
		})
	}
	api.Get("/invoices", whoami)
	api.Post("/invoices", whoami)
	api.Post("/invoices/:id/cancel", apphttp.RequireRole(entity.RoleOwner), whoami)
	api.Post("/clients/:id/access-tokens", apphttp.RequireRole(entity.RoleOwner), whoami)
	api.Put("/settings/preferences", apphttp.RequireRole(entity.RoleOwner), whoami)
	api.Get("/reports", apphttp.RequireRole(entity.RoleOwner, entity.RoleMember), whoami)
	return app
}

func bearer(t *testing.T, contractorID, role string, expMin int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, contractorID, role, testIssuer, expMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// call lanza la petición y decodifica el cuerpo de error si lo hay.
func call(t *testing.T, app *fiber.App, method, path, authorization string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.ErrorResponse
	if resp.StatusCode >= http.StatusBadRequest {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_MatrizOwnerMember(t *testing.T) {
	app := rbacApp()
	routes := []struct {
		method, path string
		ownerOnly    bool
	}{
		{http.MethodGet, "/api/invoices", false},
		{http.MethodPost, "/api/invoices", false},
		{http.MethodGet, "/api/reports", false},
		{http.MethodPost, "/api/invoices/inv-1/cancel", true},
		{http.MethodPost, "/api/clients/cl-1/access-tokens", true},
		{http.MethodPut, "/api/settings/preferences", true},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, _ := call(t, app, r.method, r.path, bearer(t, testContractorID, entity.RoleOwner, testExpMin))
			assert.Equal(t, http.StatusOK, status, "el owner llega a todas las rutas")

			status, body := call(t, app, r.method, r.path, bearer(t, testContractorID, entity.RoleMember, testExpMin))
			if r.ownerOnly {
				assert.Equal(t, http.StatusForbidden, status)
				assert.Equal(t, "FORBIDDEN", body.Code)
			} else {
				assert.Equal(t, http.StatusOK, status)
			}
		})
	}
}

func TestRequireRole_RolEnMayusculasSeAcepta(t *testing.T) {
	status, _ := call(t, rbacApp(), http.MethodPost, "/api/invoices/inv-1/cancel", bearer(t, testContractorID, "OWNER", testExpMin))
	assert.Equal(t, http.StatusOK, status)
}

func TestRequireRole_RolAjenoAlDominioEsForbidden(t *testing.T) {
	status, body := call(t, rbacApp(), http.MethodGet, "/api/reports", bearer(t, testContractorID, "boekhouder", testExpMin))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body.Code)
}

func TestRequireRole_TokenSinRolEsMissingRole(t *testing.T) {
	app := rbacApp()

	status, body := call(t, app, http.MethodPut, "/api/settings/preferences", bearer(t, testContractorID, "", testExpMin))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_ROLE", body.Code)

	// Sin RequireRole en la ruta el rol no se exige.
	status, _ = call(t, app, http.MethodGet, "/api/invoices", bearer(t, testContractorID, "", testExpMin))
	assert.Equal(t, http.StatusOK, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_CargaUsuarioContractorYRol(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, testContractorID, entity.RoleMember, testExpMin))
	resp, err := rbacApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, map[string]string{
		"user_id":       testUserID,
		"contractor_id": testContractorID,
		"role":          entity.RoleMember,
	}, got)
}

func TestAuthMiddleware_CredencialesRechazadas(t *testing.T) {
	cases := []struct {
		name          string
		authorization func(t *testing.T) string
		code          string
	}{
		{"sin cabecera", func(*testing.T) string { return "" }, "MISSING_TOKEN"},
		{"esquema Basic", func(*testing.T) string { return "Basic dXNlcjpwYXNz" }, "MISSING_TOKEN"},
		{"Bearer vacío", func(*testing.T) string { return "Bearer   " }, "MISSING_TOKEN"},
		{"token malformado", func(*testing.T) string { return "Bearer token.invalido.aqui" }, "INVALID_TOKEN"},
		{"sin contractor", func(t *testing.T) string { return bearer(t, "", entity.RoleOwner, testExpMin) }, "INVALID_TOKEN"},
		{"caducado", func(t *testing.T) string { return bearer(t, testContractorID, entity.RoleOwner, -5) }, "SESSION_EXPIRED"},
	}
	app := rbacApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, http.MethodGet, "/api/invoices", tc.authorization(t))
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// pkg/jwt
// ──────────────────────────────────────────────────────────────────────────────

func TestJWT_IdaYVueltaConservaContractorYRol(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testContractorID, entity.RoleMember, testIssuer, testExpMin)
	require.NoError(t, err)

	userID, contractorID, role, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
	assert.Equal(t, testContractorID, contractorID)
	assert.Equal(t, entity.RoleMember, role)
}

func TestJWT_FirmaConOtroSecretoNoValida(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testContractorID, entity.RoleOwner, testIssuer, testExpMin)
	require.NoError(t, err)

	_, _, _, err = pkgjwt.Parse("otro-secreto", tok)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, pkgjwt.ErrExpired)
}
