// Package health contiene el service para health checks.
package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/incidentauth/internal/http/dto/health"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene los checks inyectables. DBCheck es crítico, CacheCheck no.
type Deps struct {
	DBCheck    func(ctx context.Context) error
	CacheCheck func(ctx context.Context) error
	Version    string
	Timeout    time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	resp := dto.HealthResponse{
		Version:    s.deps.Version,
		Components: make(map[string]dto.HealthStatus, 2),
		Timestamp:  time.Now().UTC(),
	}

	critical := false
	degraded := false

	if s.deps.DBCheck == nil {
		resp.Components["db"] = dto.HealthStatus{Status: "error", Message: "store not initialized"}
		critical = true
	} else if err := s.ping(ctx, s.deps.DBCheck); err != nil {
		// no exponemos el error del driver: puede traer host/usuario
		resp.Components["db"] = dto.HealthStatus{Status: "error", Message: "unavailable"}
		critical = true
		log.Error("db unavailable", logger.Err(err))
	} else {
		resp.Components["db"] = dto.HealthStatus{Status: "ok"}
	}

	if s.deps.CacheCheck != nil {
		if err := s.ping(ctx, s.deps.CacheCheck); err != nil {
			resp.Components["cache"] = dto.HealthStatus{Status: "error", Message: "unavailable"}
			degraded = true
			log.Warn("cache unavailable", logger.Err(err))
		} else {
			resp.Components["cache"] = dto.HealthStatus{Status: "ok"}
		}
	}

	switch {
	case critical:
		resp.Status = "unavailable"
	case degraded:
		resp.Status = "degraded"
	default:
		resp.Status = "ready"
	}
	return resp
}

func (s *healthService) ping(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	return check(ctx)
}
