package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/pkg/jwt"
)

const secret = "secret-de-pruebas-suficientemente-largo"

func TestParse_TokenCaducadoEsErrExpired(t *testing.T) {
	tok, err := jwt.Generate(secret, "u1", "c1", "owner", "test", -5)
	require.NoError(t, err)

	_, _, _, err = jwt.Parse(secret, tok)
	assert.ErrorIs(t, err, jwt.ErrExpired)
}

func TestParse_RechazaOtroAlgoritmo(t *testing.T) {
	claims := jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u1",
		ContractorID:     "c1",
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, _, _, err = jwt.Parse(secret, tok)
	require.Error(t, err)
	assert.NotErrorIs(t, err, jwt.ErrExpired)
}

func TestParse_ExigeCaducidad(t *testing.T) {
	claims := jwt.Claims{UserID: "u1", ContractorID: "c1"}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, _, _, err = jwt.Parse(secret, tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacioFalla(t *testing.T) {
	_, err := jwt.Generate("", "u1", "c1", "owner", "test", 60)
	assert.Error(t, err)
}
