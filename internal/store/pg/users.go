package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/domain/types"
)

type userRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, tenant_id, first_name, last_name, email, password_hash, role, mfa_enabled, is_active, created_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var (
		u        repository.User
		tenantID *string
		role     string
	)
	if err := row.Scan(&u.ID, &tenantID, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &role, &u.MFAEnabled, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.TenantID = derefString(tenantID)
	u.Role = types.Role(role)
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	const q = `
		INSERT INTO app_user (id, tenant_id, first_name, last_name, email, password_hash, role, mfa_enabled, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q,
		uuid.NewString(), nullIfEmpty(in.TenantID), in.FirstName, in.LastName, in.Email,
		in.PasswordHash, string(in.Role), in.MFAEnabled, in.IsActive, time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("pg: create user: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE email = $1`, email))
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
}

func (r *userRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE app_user SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("pg: set user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
