package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
	"github.com/jhoicas/zzp-facturatie-api/pkg/nlid"
)

// ClientUseCase casos de uso para clientes del contractor.
type ClientUseCase struct {
	repo repository.ClientRepository
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo}
}

// Create crea un nuevo cliente. Country por defecto NL.
func (uc *ClientUseCase) Create(ctx context.Context, contractorID string, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	client := &entity.Client{
		ID:           uuid.New().String(),
		ContractorID: contractorID,
		Name:         strings.TrimSpace(in.Name),
		ContactName:  in.ContactName,
		ContactEmail: strings.ToLower(in.ContactEmail),
		BillingEmail: strings.ToLower(in.BillingEmail),
		KvKNumber:    in.KvKNumber,
		VATNumber:    nlid.Compact(in.VATNumber),
		Address:      in.Address,
		PostalCode:   strings.ToUpper(in.PostalCode),
		City:         in.City,
		Country:      strings.ToUpper(in.Country),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if client.Country == "" {
		client.Country = "NL"
	}
	if client.VATNumber != "" {
		if err := nlid.ValidateVATNumber(client.VATNumber); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	if err := uc.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// Get obtiene un cliente del contractor.
func (uc *ClientUseCase) Get(ctx context.Context, contractorID, id string) (*dto.ClientResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.ContractorID != contractorID {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	return toClientResponse(c), nil
}

// List lista clientes del contractor.
func (uc *ClientUseCase) List(ctx context.Context, contractorID string, limit, offset int) ([]*dto.ClientResponse, error) {
	if limit <= 0 {
		limit = dto.DefaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.repo.ListByContractor(ctx, contractorID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toClientResponse(c))
	}
	return out, nil
}

func toClientResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:           c.ID,
		ContractorID: c.ContractorID,
		Name:         c.Name,
		ContactName:  c.ContactName,
		ContactEmail: c.ContactEmail,
		BillingEmail: c.BillingEmail,
		KvKNumber:    c.KvKNumber,
		VATNumber:    c.VATNumber,
		Address:      c.Address,
		PostalCode:   c.PostalCode,
		City:         c.City,
		Country:      c.Country,
	}
}
