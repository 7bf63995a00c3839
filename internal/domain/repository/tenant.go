package repository

import (
	"context"
	"time"
)

// Tenant es una organización cliente. TenantKey es único case-insensitive.
type Tenant struct {
	ID               string
	TenantKey        string
	Name             string
	IsActive         bool
	ConnectionString string
	CreatedAt        time.Time
}

type CreateTenantInput struct {
	TenantKey        string
	Name             string
	ConnectionString string
}

type TenantRepository interface {
	// GetByKey compara la key sin distinguir mayúsculas. ErrNotFound si no existe.
	GetByKey(ctx context.Context, key string) (*Tenant, error)

	GetByID(ctx context.Context, id string) (*Tenant, error)

	// Create inserta un tenant activo. ErrConflict si la key ya existe.
	Create(ctx context.Context, in CreateTenantInput) (*Tenant, error)

	List(ctx context.Context) ([]Tenant, error)

	// SetActive. ErrNotFound si la key no existe.
	SetActive(ctx context.Context, key string, active bool) error
}
