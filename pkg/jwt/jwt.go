package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrExpired el token era válido pero ha caducado.
var ErrExpired = errors.New("jwt: token caducado")

// leeway tolerancia de reloj entre instancias.
const leeway = 30 * time.Second

// Claims sesión de un usuario del dashboard. ContractorID es el tenant:
// todos los casos de uso protegidos filtran por él.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string `json:"user_id"`
	ContractorID string `json:"contractor_id"`
	Role         string `json:"role"` // "owner" | "member"
}

// Generate firma (HS256) un token de sesión con id único y caducidad en minutos.
func Generate(secret, userID, contractorID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", errors.New("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:       userID,
		ContractorID: contractorID,
		Role:         role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse verifica firma y caducidad y devuelve userID, contractorID y role.
// Un token caducado devuelve un error que cumple errors.Is(err, ErrExpired).
func Parse(secret, tokenString string) (userID, contractorID, role string, err error) {
	if secret == "" {
		return "", "", "", errors.New("jwt: secret vacío")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	)
	var claims Claims
	_, err = parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", "", "", fmt.Errorf("%w: %v", ErrExpired, err)
	case err != nil:
		return "", "", "", fmt.Errorf("jwt: %w", err)
	}
	if claims.ContractorID == "" {
		return "", "", "", errors.New("jwt: claims inválidos: contractor_id vacío")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims.UserID, claims.ContractorID, claims.Role, nil
}
