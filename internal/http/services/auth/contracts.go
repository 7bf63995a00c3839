// Package auth implementa el flujo de sesión: registro, login en dos pasos
// (password + OTP por email), rotación de refresh tokens y logout.
package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	dto "github.com/dropDatabas3/incidentauth/internal/http/dto/auth"
)

// MaxOTPAttempts: el intento que supera este número bloquea el challenge.
const MaxOTPAttempts = 5

// SessionService es el contrato público que consumen los controllers.
type SessionService interface {
	Register(ctx context.Context, in dto.RegisterRequest) error
	LoginStep1(ctx context.Context, in dto.LoginRequest) (*dto.LoginResult, error)
	VerifyOtp(ctx context.Context, in dto.VerifyOTPRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, in dto.RefreshRequest) error
}

// TenantResolver valida una tenant key. Lo implementa internal/tenant.
type TenantResolver interface {
	ResolveActive(ctx context.Context, key string) (*repository.Tenant, error)
}

// Metrics recibe los resultados de cada operación. Lo implementa internal/http.
type Metrics interface {
	LoginResult(result string)
	OTPVerifyResult(result string)
	RefreshResult(result string)
	OTPLockout()
}

type nopMetrics struct{}

func (nopMetrics) LoginResult(string)     {}
func (nopMetrics) OTPVerifyResult(string) {}
func (nopMetrics) RefreshResult(string)   {}
func (nopMetrics) OTPLockout()            {}

// Clock devuelve la hora actual; los tests lo reemplazan.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
