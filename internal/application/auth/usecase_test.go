package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/auth"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/testutil/memstore"
	pkgjwt "github.com/jhoicas/zzp-facturatie-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

type stubBreach struct {
	breached bool
	err      error
	calls    int
}

func (s *stubBreach) IsBreached(context.Context, string) (bool, error) {
	s.calls++
	return s.breached, s.err
}

func newUseCase(store *memstore.Store, breach auth.BreachChecker) *auth.AuthUseCase {
	return auth.NewAuthUseCase(store, store.Users(), store.Contractors(), breach,
		auth.JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "zzp-test"}, zerolog.Nop())
}

func registerRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:       "  Sanne@DeVries.nl ",
		Password:    "correct-horse-battery",
		Name:        "Sanne de Vries",
		CompanyName: "De Vries Consultancy",
		KvKNumber:   "12345678",
		VATNumber:   "nl 1234 56782 b01",
		IBAN:        "nl91 abna 0417 1643 00",
	}
}

func TestRegister_CreaContractorYOwner(t *testing.T) {
	store := memstore.New()
	breach := &stubBreach{}
	user, err := newUseCase(store, breach).Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.Equal(t, "sanne@devries.nl", user.Email)
	assert.Equal(t, entity.RoleOwner, user.Role)
	assert.Equal(t, 1, breach.calls)

	contractor, err := store.Contractors().GetByID(context.Background(), user.ContractorID)
	require.NoError(t, err)
	require.NotNil(t, contractor)
	assert.Equal(t, "De Vries Consultancy", contractor.Name)
	assert.Equal(t, "NL123456782B01", contractor.VATNumber)
	assert.Equal(t, "NL91ABNA0417164300", contractor.IBAN)
	assert.Equal(t, entity.DefaultNotificationPreferences(), contractor.Preferences)

	stored, err := store.Users().GetByEmail(context.Background(), "sanne@devries.nl")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse-battery", stored.PasswordHash)
}

func TestRegister_EmailDuplicado(t *testing.T) {
	store := memstore.New()
	uc := newUseCase(store, nil)
	_, err := uc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegister_ContrasenaFiltradaSeRechaza(t *testing.T) {
	store := memstore.New()
	_, err := newUseCase(store, &stubBreach{breached: true}).Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	u, _ := store.Users().GetByEmail(context.Background(), "sanne@devries.nl")
	assert.Nil(t, u)
}

func TestRegister_ComprobacionCaidaNoBloquea(t *testing.T) {
	store := memstore.New()
	_, err := newUseCase(store, &stubBreach{err: errors.New("timeout")}).Register(context.Background(), registerRequest())
	assert.NoError(t, err)
}

func TestLogin_EmiteJWTConContractor(t *testing.T) {
	store := memstore.New()
	uc := newUseCase(store, nil)
	registered, err := uc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	resp, err := uc.Login(context.Background(), dto.LoginRequest{Email: "SANNE@devries.nl", Password: "correct-horse-battery"})
	require.NoError(t, err)
	userID, contractorID, role, err := pkgjwt.Parse(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)
	assert.Equal(t, registered.ContractorID, contractorID)
	assert.Equal(t, entity.RoleOwner, role)
}

func TestLogin_CredencialesIncorrectasSonUnauthorized(t *testing.T) {
	store := memstore.New()
	uc := newUseCase(store, nil)
	_, err := uc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "sanne@devries.nl", Password: "fout-wachtwoord"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "onbekend@devries.nl", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdatePreferences_SoloCambiaLosCamposPresentes(t *testing.T) {
	store := memstore.New()
	uc := newUseCase(store, nil)
	user, err := uc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	off := false

	prefs, err := uc.UpdatePreferences(context.Background(), user.ContractorID, dto.NotificationPreferencesDTO{PaymentReminder: &off})
	require.NoError(t, err)
	assert.False(t, prefs.PaymentReminder)
	assert.True(t, prefs.InvoiceOverdue)

	again, err := uc.GetPreferences(context.Background(), user.ContractorID)
	require.NoError(t, err)
	assert.False(t, again.PaymentReminder)
	assert.True(t, again.InvoiceSent)
}

func TestRegister_IBANInvalidoRetornaInvalidInput(t *testing.T) {
	store := memstore.New()
	in := registerRequest()
	in.IBAN = "NL92ABNA0417164300"

	_, err := newUseCase(store, nil).Register(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	u, err := store.Users().GetByEmail(context.Background(), "sanne@devries.nl")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRegister_BtwIDConControlIncorrectoRetornaInvalidInput(t *testing.T) {
	in := registerRequest()
	in.VATNumber = "NL123456789B01"

	_, err := newUseCase(memstore.New(), nil).Register(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
