package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/testutil/memstore"
)

func TestClientCreate_NormalizaYPaisPorDefecto(t *testing.T) {
	uc := billing.NewClientUseCase(memstore.New().Clients())
	out, err := uc.Create(context.Background(), "c-1", dto.CreateClientRequest{
		Name:         "  Acme B.V. ",
		BillingEmail: "Finance@Acme.NL",
		VATNumber:    "nl 1234 56782 b01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme B.V.", out.Name)
	assert.Equal(t, "finance@acme.nl", out.BillingEmail)
	assert.Equal(t, "NL123456782B01", out.VATNumber)
	assert.Equal(t, "NL", out.Country)
}

func TestClientCreate_BtwIDInvalidoRetornaInvalidInput(t *testing.T) {
	uc := billing.NewClientUseCase(memstore.New().Clients())
	_, err := uc.Create(context.Background(), "c-1", dto.CreateClientRequest{Name: "Acme", VATNumber: "NL123456789B01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClientGet_DeOtroContractorEsNotFound(t *testing.T) {
	uc := billing.NewClientUseCase(memstore.New().Clients())
	out, err := uc.Create(context.Background(), "c-1", dto.CreateClientRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = uc.Get(context.Background(), "c-2", out.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.List(context.Background(), "c-2", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
