package entity

import "time"

// Roles válidos para User.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// User cuenta de acceso al dashboard; pertenece a un Contractor.
type User struct {
	ID           string
	ContractorID string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // owner, member
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
