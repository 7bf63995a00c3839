// Package audit registra eventos de seguridad (REGISTER, LOGIN_SUCCESS_MFA, ...).
// Los sinks se llaman después del commit; un fallo se loguea y no corta el request.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
)

// Acciones emitidas por el flujo de sesión.
const (
	ActionRegister          = "REGISTER"
	ActionLoginMFAChallenge = "LOGIN_MFA_CHALLENGE"
	ActionLoginSuccessMFA   = "LOGIN_SUCCESS_MFA"
	ActionRefreshRotation   = "REFRESH_ROTATION"
	ActionLogout            = "LOGOUT"
)

// Event es un evento de auditoría. Details nunca lleva secretos.
type Event struct {
	Action   string
	UserID   string
	TenantID string
	Details  string
	At       time.Time
}

type Auditor interface {
	Record(ctx context.Context, e Event) error
}

// StoreAuditor persiste en audit_log.
type StoreAuditor struct {
	Repo repository.AuditRepository
}

func (a StoreAuditor) Record(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return a.Repo.Append(ctx, repository.AuditLog{
		TenantID: e.TenantID,
		UserID:   e.UserID,
		Action:   e.Action,
		Details:  e.Details,
		At:       e.At,
	})
}

// LogAuditor escribe el evento al logger del contexto.
type LogAuditor struct{}

func (LogAuditor) Record(ctx context.Context, e Event) error {
	logger.From(ctx).Info("audit",
		logger.Component("audit"),
		logger.Event(e.Action),
		logger.UserID(e.UserID),
		logger.TenantID(e.TenantID),
		logger.String("details", e.Details),
	)
	return nil
}

// Multi llama a todos los sinks y junta los errores.
type Multi []Auditor

func (m Multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, a := range m {
		if err := a.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop descarta eventos.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }
