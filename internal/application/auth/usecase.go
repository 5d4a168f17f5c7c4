package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
	"github.com/jhoicas/zzp-facturatie-api/pkg/jwt"
	"github.com/jhoicas/zzp-facturatie-api/pkg/nlid"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// RegistrationTxRunner crea contractor y usuario owner en una única transacción.
type RegistrationTxRunner interface {
	RunRegistration(ctx context.Context, fn func(
		contractorRepo repository.ContractorRepository,
		userRepo repository.UserRepository,
	) error) error
}

// BreachChecker consulta si una contraseña aparece en filtraciones conocidas.
type BreachChecker interface {
	IsBreached(ctx context.Context, password string) (bool, error)
}

// AuthUseCase casos de uso de autenticación y ajustes de la cuenta del contractor.
type AuthUseCase struct {
	txRunner       RegistrationTxRunner
	userRepo       repository.UserRepository
	contractorRepo repository.ContractorRepository
	breach         BreachChecker
	jwtCfg         JWTConfig
	log            zerolog.Logger
}

// NewAuthUseCase construye el caso de uso de auth. breach puede ser nil (comprobación desactivada).
func NewAuthUseCase(
	txRunner RegistrationTxRunner,
	userRepo repository.UserRepository,
	contractorRepo repository.ContractorRepository,
	breach BreachChecker,
	jwtCfg JWTConfig,
	log zerolog.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		txRunner:       txRunner,
		userRepo:       userRepo,
		contractorRepo: contractorRepo,
		breach:         breach,
		jwtCfg:         jwtCfg,
		log:            log.With().Str("usecase", "auth").Logger(),
	}
}

// Register da de alta un contractor y su usuario owner. Devuelve ErrEmailAlreadyExists si el
// email ya está registrado y ErrWeakPassword si la contraseña aparece en filtraciones.
// Si la comprobación de filtraciones falla, el registro continúa.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(in.Email)
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	if err := validateFiscalIDs(in); err != nil {
		return nil, err
	}
	if uc.breach != nil {
		breached, err := uc.breach.IsBreached(ctx, in.Password)
		switch {
		case err != nil:
			uc.log.Warn().Err(err).Msg("comprobación de contraseña filtrada no disponible; se permite el registro")
		case breached:
			return nil, domain.ErrWeakPassword
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	contractor := &entity.Contractor{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.CompanyName),
		Email:       email,
		KvKNumber:   strings.TrimSpace(in.KvKNumber),
		VATNumber:   nlid.Compact(in.VATNumber),
		IBAN:        nlid.Compact(in.IBAN),
		Preferences: entity.DefaultNotificationPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		ContractorID: contractor.ID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Role:         entity.RoleOwner,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.txRunner.RunRegistration(ctx, func(contractorRepo repository.ContractorRepository, userRepo repository.UserRepository) error {
		if err := contractorRepo.Create(ctx, contractor); err != nil {
			return fmt.Errorf("crear contractor: %w", err)
		}
		return userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("contractor_id", contractor.ID).Msg("contractor registrado")
	return toUserResponse(user), nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Email desconocido y contraseña incorrecta responden igual (ErrUnauthorized).
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.ContractorID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

// GetPreferences preferencias de notificación del contractor.
func (uc *AuthUseCase) GetPreferences(ctx context.Context, contractorID string) (*entity.NotificationPreferences, error) {
	c, err := uc.contractorRepo.GetByID(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return &c.Preferences, nil
}

// UpdatePreferences aplica los campos presentes en in y conserva el resto.
func (uc *AuthUseCase) UpdatePreferences(ctx context.Context, contractorID string, in dto.NotificationPreferencesDTO) (*entity.NotificationPreferences, error) {
	prefs, err := uc.GetPreferences(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&prefs.InvoiceSent, in.InvoiceSent)
	apply(&prefs.PaymentReminder, in.PaymentReminder)
	apply(&prefs.InvoiceOverdue, in.InvoiceOverdue)
	apply(&prefs.InvoicePaid, in.InvoicePaid)
	apply(&prefs.TimeEntryApproved, in.TimeEntryApproved)
	apply(&prefs.TimeEntryRejected, in.TimeEntryRejected)
	apply(&prefs.TeamInvitation, in.TeamInvitation)
	if err := uc.contractorRepo.UpdatePreferences(ctx, contractorID, *prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// validateFiscalIDs IBAN y btw-id son opcionales, pero si vienen deben ser válidos:
// acaban en el PDF, en el QR de pago y en el UBL.
func validateFiscalIDs(in dto.RegisterRequest) error {
	if in.IBAN != "" {
		if err := nlid.ValidateIBAN(in.IBAN); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	if in.VATNumber != "" {
		if err := nlid.ValidateVATNumber(in.VATNumber); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:           u.ID,
		ContractorID: u.ContractorID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
