package dto_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
)

func TestPageRequest_NormalizeRellenaLimitYRecortaOffset(t *testing.T) {
	p := dto.PageRequest{Limit: 0, Offset: -4}
	p.Normalize()
	assert.Equal(t, dto.PageRequest{Limit: dto.DefaultPageLimit, Offset: 0}, p)

	big := dto.PageRequest{Limit: dto.MaxPageLimit + 1, Offset: 40}
	big.Normalize()
	assert.Equal(t, dto.MaxPageLimit+1, big.Limit, "el exceso lo rechaza la validación, no se recorta")
}

func TestNewPage_ListaVaciaSaleComoArray(t *testing.T) {
	var none []*dto.ClientResponse
	raw, err := json.Marshal(dto.NewPage(none, dto.PageRequest{Limit: 20, Offset: 40}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"page":{"limit":20,"offset":40}}`, string(raw))
}
