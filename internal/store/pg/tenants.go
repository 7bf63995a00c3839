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

type tenantRepo struct{ pool *pgxpool.Pool }

const tenantColumns = `id, tenant_key, name, is_active, connection_string, created_at`

func scanTenant(row pgx.Row) (*repository.Tenant, error) {
	var (
		t  repository.Tenant
		cs *string
	)
	if err := row.Scan(&t.ID, &t.TenantKey, &t.Name, &t.IsActive, &cs, &t.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	t.ConnectionString = derefString(cs)
	return &t, nil
}

func (r *tenantRepo) GetByKey(ctx context.Context, key string) (*repository.Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenant WHERE LOWER(tenant_key) = LOWER($1)`, key))
}

func (r *tenantRepo) GetByID(ctx context.Context, id string) (*repository.Tenant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	return scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenant WHERE id = $1`, id))
}

func (r *tenantRepo) Create(ctx context.Context, in repository.CreateTenantInput) (*repository.Tenant, error) {
	const q = `
		INSERT INTO tenant (id, tenant_key, name, is_active, connection_string, created_at)
		VALUES ($1, $2, $3, TRUE, $4, $5)
		RETURNING ` + tenantColumns
	t, err := scanTenant(r.pool.QueryRow(ctx, q,
		uuid.NewString(), in.TenantKey, in.Name, nullIfEmpty(in.ConnectionString), time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("pg: create tenant: %w", err)
	}
	return t, nil
}

func (r *tenantRepo) List(ctx context.Context) ([]repository.Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenant ORDER BY tenant_key`)
	if err != nil {
		return nil, fmt.Errorf("pg: list tenants: %w", err)
	}
	defer rows.Close()

	var out []repository.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *tenantRepo) SetActive(ctx context.Context, key string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tenant SET is_active = $2 WHERE LOWER(tenant_key) = LOWER($1)`, key, active)
	if err != nil {
		return fmt.Errorf("pg: set tenant active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
