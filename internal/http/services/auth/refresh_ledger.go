package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	tokens "github.com/dropDatabas3/incidentauth/internal/security/token"
)

// RefreshLedger emite, rota y revoca refresh tokens. Sólo persiste digests;
// la cadena replaced_by_hash nunca se bifurca porque la rotación es un
// UPDATE condicional sobre revoked_at IS NULL.
type RefreshLedger struct {
	repo  repository.RefreshTokenRepository
	clock Clock
	ttl   time.Duration
}

func NewRefreshLedger(repo repository.RefreshTokenRepository, clock Clock, ttl time.Duration) *RefreshLedger {
	return &RefreshLedger{repo: repo, clock: clock, ttl: ttl}
}

func newRawRefresh() (raw, hash string, err error) {
	raw, err = tokens.RandomBase64(tokens.RefreshTokenBytes)
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	return raw, tokens.SHA256Base64(raw), nil
}

// Issue crea un token para userID y devuelve el valor crudo (única vez).
func (l *RefreshLedger) Issue(ctx context.Context, userID string) (string, error) {
	raw, hash, err := newRawRefresh()
	if err != nil {
		return "", err
	}
	now := l.clock.now()
	if _, err := l.repo.Create(ctx, repository.CreateRefreshTokenInput{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("persist refresh token: %w", err)
	}
	return raw, nil
}

// Rotation es el resultado de Rotate: el token consumido y el sucesor crudo.
type Rotation struct {
	UserID        string
	Raw           string
	SuccessorHash string
}

// Rotate consume presented y emite su sucesor. Un token ya rotado, revocado,
// expirado o desconocido falla con KindAuthentication; de dos rotaciones
// concurrentes del mismo token gana una sola.
func (l *RefreshLedger) Rotate(ctx context.Context, presented string) (*Rotation, error) {
	if presented == "" {
		return nil, authErr(msgInvalidRefresh, errRefreshUnusable)
	}
	raw, hash, err := newRawRefresh()
	if err != nil {
		return nil, err
	}
	now := l.clock.now()
	rot, err := l.repo.Rotate(ctx, repository.RotateInput{
		OldHash:      tokens.SHA256Base64(presented),
		NewHash:      hash,
		NewExpiresAt: now.Add(l.ttl),
		Now:          now,
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, authErr(msgInvalidRefresh, errRefreshUnusable)
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return &Rotation{UserID: rot.Consumed.UserID, Raw: raw, SuccessorHash: rot.Successor.TokenHash}, nil
}

// Revoke revoca presented si está activo. Devuelve (userID, true) si mutó;
// ("", false) si no había nada que revocar.
func (l *RefreshLedger) Revoke(ctx context.Context, presented string) (string, bool, error) {
	if presented == "" {
		return "", false, nil
	}
	t, err := l.repo.Revoke(ctx, tokens.SHA256Base64(presented), l.clock.now())
	if err != nil {
		if repository.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return t.UserID, true, nil
}

// revokeHash revoca por digest; se usa para descartar un sucesor recién emitido.
func (l *RefreshLedger) revokeHash(ctx context.Context, hash string) error {
	_, err := l.repo.Revoke(ctx, hash, l.clock.now())
	if err != nil && !repository.IsNotFound(err) {
		return err
	}
	return nil
}
