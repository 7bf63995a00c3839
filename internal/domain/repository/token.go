package repository

import (
	"context"
	"time"
)

// RefreshToken es un eslabón de la cadena de rotación. Sólo guarda el digest.
type RefreshToken struct {
	ID             string
	UserID         string
	TokenHash      string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	RevokedAt      *time.Time
	ReplacedByHash *string
}

func (t *RefreshToken) IsRevoked() bool { return t.RevokedAt != nil }

func (t *RefreshToken) IsExpired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

type CreateRefreshTokenInput struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RotateInput describe el consumo de OldHash y el alta de su sucesor.
type RotateInput struct {
	OldHash      string
	NewHash      string
	NewExpiresAt time.Time
	Now          time.Time
}

// Rotation es el resultado de una rotación exitosa.
type Rotation struct {
	Consumed  RefreshToken
	Successor RefreshToken
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, in CreateRefreshTokenInput) (*RefreshToken, error)

	// Rotate revoca OldHash (si está activo y no expiró en Now), registra
	// NewHash como replaced_by_hash e inserta el sucesor, todo atómico.
	// ErrNotFound si no había fila activa: token desconocido, expirado o ya consumido.
	Rotate(ctx context.Context, in RotateInput) (*Rotation, error)

	// Revoke revoca el token si está activo. ErrNotFound si no había nada que revocar.
	Revoke(ctx context.Context, hash string, now time.Time) (*RefreshToken, error)

	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)
}
