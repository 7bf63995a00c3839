package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
)

type auditRepo struct{ pool *pgxpool.Pool }

func (r *auditRepo) Append(ctx context.Context, e repository.AuditLog) error {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (tenant_id, user_id, action, details, at)
		VALUES ($1, $2, $3, $4, $5)`,
		nullIfEmpty(e.TenantID), nullIfEmpty(e.UserID), e.Action, nullIfEmpty(e.Details), at)
	if err != nil {
		return fmt.Errorf("pg: append audit: %w", err)
	}
	return nil
}

func (r *auditRepo) ListRecent(ctx context.Context, limit int) ([]repository.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, user_id, action, details, at
		FROM audit_log ORDER BY at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pg: list audit: %w", err)
	}
	defer rows.Close()

	var out []repository.AuditLog
	for rows.Next() {
		var (
			e                         repository.AuditLog
			tenantID, userID, details *string
		)
		if err := rows.Scan(&e.ID, &tenantID, &userID, &e.Action, &details, &e.At); err != nil {
			return nil, err
		}
		e.TenantID, e.UserID, e.Details = derefString(tenantID), derefString(userID), derefString(details)
		out = append(out, e)
	}
	return out, rows.Err()
}
