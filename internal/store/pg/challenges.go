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

type challengeRepo struct{ pool *pgxpool.Pool }

const challengeColumns = `id, user_id, temp_token_hash, expires_at, otp_hash, otp_expires_at, attempts, is_locked, created_at, verified_at`

func scanChallenge(row pgx.Row) (*repository.MfaChallenge, error) {
	var c repository.MfaChallenge
	if err := row.Scan(&c.ID, &c.UserID, &c.TempTokenHash, &c.ExpiresAt, &c.OTPHash,
		&c.OTPExpiresAt, &c.Attempts, &c.IsLocked, &c.CreatedAt, &c.VerifiedAt); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *challengeRepo) Create(ctx context.Context, in repository.CreateChallengeInput) (*repository.MfaChallenge, error) {
	const q = `
		INSERT INTO mfa_challenge (id, user_id, temp_token_hash, expires_at, otp_hash, otp_expires_at, attempts, is_locked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, FALSE, $7)
		RETURNING ` + challengeColumns
	c, err := scanChallenge(r.pool.QueryRow(ctx, q,
		uuid.NewString(), in.UserID, in.TempTokenHash, in.ExpiresAt, in.OTPHash, in.OTPExpiresAt, in.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("pg: create challenge: %w", err)
	}
	return c, nil
}

func (r *challengeRepo) GetLatestByTempTokenHash(ctx context.Context, hash string) (*repository.MfaChallenge, error) {
	return scanChallenge(r.pool.QueryRow(ctx, `
		SELECT `+challengeColumns+`
		FROM mfa_challenge
		WHERE temp_token_hash = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, hash))
}

// RegisterAttempt: el incremento y el lock se deciden en la misma fila
// bajo el lock de UPDATE, así dos verify concurrentes se serializan.
func (r *challengeRepo) RegisterAttempt(ctx context.Context, id string, now time.Time, maxAttempts int) (repository.AttemptResult, error) {
	const q = `
		UPDATE mfa_challenge
		SET attempts = attempts + 1,
		    is_locked = (attempts + 1 > $3)
		WHERE id = $1
		  AND is_locked = FALSE
		  AND verified_at IS NULL
		  AND expires_at > $2
		  AND otp_expires_at > $2
		RETURNING attempts, is_locked`
	var res repository.AttemptResult
	if err := r.pool.QueryRow(ctx, q, id, now, maxAttempts).Scan(&res.Attempts, &res.Locked); err != nil {
		return repository.AttemptResult{}, mapErr(err)
	}
	return res, nil
}

func (r *challengeRepo) MarkVerified(ctx context.Context, id string, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE mfa_challenge SET verified_at = $2
		WHERE id = $1 AND verified_at IS NULL AND is_locked = FALSE`, id, now)
	if err != nil {
		return fmt.Errorf("pg: mark challenge verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
