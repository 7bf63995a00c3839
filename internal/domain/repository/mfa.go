package repository

import (
	"context"
	"time"
)

// MfaChallenge es un desafío de login de un solo uso. Sólo guarda digests.
type MfaChallenge struct {
	ID            string
	UserID        string
	TempTokenHash string
	ExpiresAt     time.Time
	OTPHash       string
	OTPExpiresAt  time.Time
	Attempts      int
	IsLocked      bool
	CreatedAt     time.Time
	VerifiedAt    *time.Time
}

// Usable reporta si el desafío todavía acepta intentos en now.
func (c *MfaChallenge) Usable(now time.Time) bool {
	return c.VerifiedAt == nil && !c.IsLocked && now.Before(c.ExpiresAt) && now.Before(c.OTPExpiresAt)
}

type CreateChallengeInput struct {
	UserID        string
	TempTokenHash string
	OTPHash       string
	ExpiresAt     time.Time
	OTPExpiresAt  time.Time
	CreatedAt     time.Time
}

// AttemptResult es el estado del desafío tras incrementar el contador.
type AttemptResult struct {
	Attempts int
	Locked   bool
}

type ChallengeRepository interface {
	Create(ctx context.Context, in CreateChallengeInput) (*MfaChallenge, error)

	// GetLatestByTempTokenHash devuelve el desafío más reciente con ese hash.
	GetLatestByTempTokenHash(ctx context.Context, hash string) (*MfaChallenge, error)

	// RegisterAttempt incrementa attempts de forma atómica sólo si el desafío
	// sigue usable en now, y lo bloquea si el nuevo valor supera maxAttempts.
	// ErrNotFound si el desafío ya no es usable.
	RegisterAttempt(ctx context.Context, id string, now time.Time, maxAttempts int) (AttemptResult, error)

	// MarkVerified setea verified_at sólo si no estaba verificado ni bloqueado.
	// ErrNotFound si otra verificación ganó.
	MarkVerified(ctx context.Context, id string, now time.Time) error
}
