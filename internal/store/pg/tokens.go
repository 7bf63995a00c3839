package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
)

type tokenRepo struct{ pool *pgxpool.Pool }

const tokenColumns = `id, user_id, token_hash, expires_at, created_at, revoked_at, replaced_by_hash`

func scanToken(row pgx.Row) (*repository.RefreshToken, error) {
	var t repository.RefreshToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.RevokedAt, &t.ReplacedByHash); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

const insertToken = `
	INSERT INTO refresh_token (id, user_id, token_hash, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + tokenColumns

func (r *tokenRepo) Create(ctx context.Context, in repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	t, err := scanToken(r.pool.QueryRow(ctx, insertToken,
		uuid.NewString(), in.UserID, in.TokenHash, in.ExpiresAt, in.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("pg: create refresh token: %w", err)
	}
	return t, nil
}

// Rotate consume el token con un UPDATE condicional y crea el sucesor en la
// misma transacción. Si dos requests rotan el mismo token, el segundo UPDATE
// espera el lock de fila y, tras el commit del primero, ya no matchea
// revoked_at IS NULL: afecta 0 filas y devuelve ErrNotFound.
func (r *tokenRepo) Rotate(ctx context.Context, in repository.RotateInput) (*repository.Rotation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin rotate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	consumed, err := scanToken(tx.QueryRow(ctx, `
		UPDATE refresh_token
		SET revoked_at = $2, replaced_by_hash = $3
		WHERE token_hash = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
		RETURNING `+tokenColumns, in.OldHash, in.Now, in.NewHash))
	if err != nil {
		return nil, err
	}

	successor, err := scanToken(tx.QueryRow(ctx, insertToken,
		uuid.NewString(), consumed.UserID, in.NewHash, in.NewExpiresAt, in.Now))
	if err != nil {
		return nil, fmt.Errorf("pg: insert successor: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pg: commit rotate: %w", err)
	}
	return &repository.Rotation{Consumed: *consumed, Successor: *successor}, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, hash string, now time.Time) (*repository.RefreshToken, error) {
	return scanToken(r.pool.QueryRow(ctx, `
		UPDATE refresh_token SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL
		RETURNING `+tokenColumns, hash, now))
}

func (r *tokenRepo) GetByHash(ctx context.Context, hash string) (*repository.RefreshToken, error) {
	return scanToken(r.pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM refresh_token WHERE token_hash = $1`, hash))
}
