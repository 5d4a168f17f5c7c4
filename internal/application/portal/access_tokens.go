package portal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

const tokenBytes = 32

// AccessTokenUseCase emisión y revocación de tokens del portal por parte del contractor.
type AccessTokenUseCase struct {
	tokenRepo  repository.AccessTokenRepository
	clientRepo repository.ClientRepository
	publicURL  string
	now        func() time.Time
}

// NewAccessTokenUseCase construye el caso de uso; publicURL es la base de los enlaces al portal.
func NewAccessTokenUseCase(tokenRepo repository.AccessTokenRepository, clientRepo repository.ClientRepository, publicURL string) *AccessTokenUseCase {
	return &AccessTokenUseCase{
		tokenRepo:  tokenRepo,
		clientRepo: clientRepo,
		publicURL:  strings.TrimRight(publicURL, "/"),
		now:        time.Now,
	}
}

// WithClock sustituye el reloj (tests).
func (uc *AccessTokenUseCase) WithClock(now func() time.Time) *AccessTokenUseCase {
	uc.now = now
	return uc
}

// Create emite un token para el email indicado. El valor en claro solo se devuelve aquí.
func (uc *AccessTokenUseCase) Create(ctx context.Context, contractorID, clientID string, in dto.CreateAccessTokenRequest) (*dto.AccessTokenResponse, error) {
	if _, err := uc.ownedClient(ctx, contractorID, clientID); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email requerido", domain.ErrInvalidInput)
	}
	raw, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := uc.now()
	tok := &entity.ClientAccessToken{
		ID:           uuid.New().String(),
		Token:        raw,
		ContractorID: contractorID,
		ClientID:     clientID,
		Email:        email,
		CreatedAt:    now,
	}
	if in.ExpiresInDays > 0 {
		exp := now.AddDate(0, 0, in.ExpiresInDays)
		tok.ExpiresAt = &exp
	}
	if err := uc.tokenRepo.Create(ctx, tok); err != nil {
		return nil, err
	}
	resp := toAccessTokenResponse(tok)
	resp.Token = raw
	resp.PortalURL = uc.publicURL + "/portal?token=" + url.QueryEscape(raw)
	return resp, nil
}

// List tokens emitidos para un cliente (sin el valor del token).
func (uc *AccessTokenUseCase) List(ctx context.Context, contractorID, clientID string) ([]*dto.AccessTokenResponse, error) {
	if _, err := uc.ownedClient(ctx, contractorID, clientID); err != nil {
		return nil, err
	}
	list, err := uc.tokenRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.AccessTokenResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toAccessTokenResponse(t))
	}
	return out, nil
}

// Revoke borra el token. Un token de otro contractor responde como inexistente.
func (uc *AccessTokenUseCase) Revoke(ctx context.Context, contractorID, id string) error {
	ok, err := uc.tokenRepo.Delete(ctx, contractorID, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFoundOrUnauthorized
	}
	return nil
}

func (uc *AccessTokenUseCase) ownedClient(ctx context.Context, contractorID, clientID string) (*entity.Client, error) {
	c, err := uc.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.ContractorID != contractorID {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	return c, nil
}

// newOpaqueToken 256 bits aleatorios en base64url sin relleno.
func newOpaqueToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generar token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func toAccessTokenResponse(t *entity.ClientAccessToken) *dto.AccessTokenResponse {
	resp := &dto.AccessTokenResponse{
		ID:        t.ID,
		ClientID:  t.ClientID,
		Email:     t.Email,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.ExpiresAt != nil {
		resp.ExpiresAt = t.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if t.LastUsedAt != nil {
		resp.LastUsedAt = t.LastUsedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
