package repository

import (
	"context"
	"time"
)

// AuditLog es una fila del registro de auditoría de la plataforma.
type AuditLog struct {
	ID       int64
	TenantID string
	UserID   string
	Action   string
	Details  string
	At       time.Time
}

type AuditRepository interface {
	Append(ctx context.Context, entry AuditLog) error

	// ListRecent devuelve las últimas entradas, más nuevas primero.
	ListRecent(ctx context.Context, limit int) ([]AuditLog, error)
}
