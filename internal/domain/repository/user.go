package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/incidentauth/internal/domain/types"
)

// User es un usuario de la plataforma. TenantID vacío = usuario de plataforma
// (SuperAdmin, Support).
type User struct {
	ID           string
	TenantID     string
	FirstName    string
	LastName     string
	Email        string // siempre lower-case
	PasswordHash string
	Role         types.Role
	MFAEnabled   bool
	IsActive     bool
	CreatedAt    time.Time
}

// PlatformScoped reporta si el usuario no pertenece a ningún tenant.
func (u *User) PlatformScoped() bool { return u.TenantID == "" }

type CreateUserInput struct {
	TenantID     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         types.Role
	MFAEnabled   bool
	IsActive     bool
}

type UserRepository interface {
	// Create inserta el usuario. ErrConflict si el email ya existe.
	Create(ctx context.Context, in CreateUserInput) (*User, error)

	// GetByEmail busca por email exacto (el caller normaliza). ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID. ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*User, error)

	// SetActive activa o desactiva un usuario (acciones administrativas).
	SetActive(ctx context.Context, id string, active bool) error
}
