package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/incidentauth/internal/audit"
	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/domain/types"
	"github.com/dropDatabas3/incidentauth/internal/email"
	dto "github.com/dropDatabas3/incidentauth/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/incidentauth/internal/jwt"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
	"github.com/dropDatabas3/incidentauth/internal/security/password"
	"github.com/dropDatabas3/incidentauth/internal/store"
	"github.com/dropDatabas3/incidentauth/internal/tenant"
)

// Config es el snapshot de configuración que consume el servicio.
type Config struct {
	RefreshTTL     time.Duration
	OTPValidity    time.Duration
	MaxOTPAttempts int
	PasswordCost   int
	PasswordPolicy password.Policy
}

// Deps contiene las dependencias del servicio de sesión.
type Deps struct {
	DAL      store.DataAccessLayer
	Issuer   *jwtx.Issuer
	Tenants  TenantResolver
	Notifier email.Notifier
	Auditor  audit.Auditor
	Metrics  Metrics // nil = no-op
	Config   Config
	Clock    Clock // nil = time.Now
}

type sessionService struct {
	deps       Deps
	challenges *ChallengeIssuer
	verifier   *OtpVerifier
	ledger     *RefreshLedger
	dummyHash  string
	verify     func(plain, hash string) bool
}

// NewSessionService arma el servicio con sus componentes internos.
func NewSessionService(deps Deps) (SessionService, error) {
	if deps.DAL == nil || deps.Issuer == nil || deps.Tenants == nil || deps.Notifier == nil {
		return nil, errors.New("auth: DAL, Issuer, Tenants and Notifier are required")
	}
	if deps.Auditor == nil {
		deps.Auditor = audit.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Config.RefreshTTL <= 0 {
		deps.Config.RefreshTTL = 30 * 24 * time.Hour
	}
	if deps.Config.OTPValidity <= 0 {
		deps.Config.OTPValidity = 5 * time.Minute
	}
	if deps.Config.PasswordCost == 0 {
		deps.Config.PasswordCost = password.DefaultCost
	}

	// hash contra el que se compara cuando el email no existe,
	// así el tiempo de respuesta no delata cuentas
	dummy, err := password.HashWithCost("incidentauth-dummy-password", deps.Config.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("auth: dummy hash: %w", err)
	}

	return &sessionService{
		deps:       deps,
		challenges: NewChallengeIssuer(deps.DAL.Challenges(), deps.Clock),
		verifier:   NewOtpVerifier(deps.DAL.Challenges(), deps.Clock, deps.Config.MaxOTPAttempts),
		ledger:     NewRefreshLedger(deps.DAL.RefreshTokens(), deps.Clock, deps.Config.RefreshTTL),
		dummyHash:  dummy,
		verify:     password.Verify,
	}, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *sessionService) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op(op),
	)
}

// record emite el evento de auditoría; se llama siempre después de la mutación.
func (s *sessionService) record(ctx context.Context, log *zap.Logger, e audit.Event) {
	if e.At.IsZero() {
		e.At = s.deps.Clock.now()
	}
	if err := s.deps.Auditor.Record(ctx, e); err != nil {
		log.Warn("audit record failed", logger.Event(e.Action), logger.Err(err))
	}
}

// ─── Register ───

func (s *sessionService) Register(ctx context.Context, in dto.RegisterRequest) error {
	log := s.log(ctx, "Register")

	emailAddr := normalizeEmail(in.Email)
	if emailAddr == "" || in.Password == "" || strings.TrimSpace(in.Role) == "" {
		return validationErr("email, password and role are required")
	}

	users := s.deps.DAL.Users()
	if _, err := users.GetByEmail(ctx, emailAddr); err == nil {
		return conflictErr("email already used", nil)
	} else if !repository.IsNotFound(err) {
		return fmt.Errorf("register: lookup email: %w", err)
	}

	role, err := types.ParseRole(in.Role)
	if err != nil {
		return validationErr("invalid role")
	}
	if err := s.deps.Config.PasswordPolicy.Check(in.Password); err != nil {
		return validationErr(err.Error())
	}

	var tenantID string
	if role.RequiresTenant() {
		key := strings.TrimSpace(in.TenantKey)
		if key == "" {
			return validationErr("tenant key required for client roles")
		}
		t, err := s.deps.Tenants.ResolveActive(ctx, key)
		if err != nil {
			if isTenantMiss(err) {
				return validationErr("invalid tenant")
			}
			return fmt.Errorf("register: resolve tenant: %w", err)
		}
		tenantID = t.ID
	}

	hash, err := password.HashWithCost(in.Password, s.deps.Config.PasswordCost)
	if err != nil {
		return fmt.Errorf("register: hash password: %w", err)
	}

	u, err := users.Create(ctx, repository.CreateUserInput{
		TenantID:     tenantID,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        emailAddr,
		PasswordHash: hash,
		Role:         role,
		MFAEnabled:   true,
		IsActive:     true,
	})
	if err != nil {
		if repository.IsConflict(err) {
			// carrera con otro registro del mismo email
			return conflictErr("email already used", err)
		}
		return fmt.Errorf("register: create user: %w", err)
	}

	log.Info("user registered", logger.UserID(u.ID), logger.TenantID(u.TenantID), logger.Role(role.String()))
	s.record(ctx, log, audit.Event{
		Action:   audit.ActionRegister,
		UserID:   u.ID,
		TenantID: u.TenantID,
		Details:  "role=" + role.String(),
	})
	return nil
}

func isTenantMiss(err error) bool {
	return errors.Is(err, tenant.ErrTenantNotFound) || errors.Is(err, tenant.ErrTenantInactive)
}

// ─── Login step 1 ───

func (s *sessionService) LoginStep1(ctx context.Context, in dto.LoginRequest) (*dto.LoginResult, error) {
	log := s.log(ctx, "LoginStep1")

	emailAddr := normalizeEmail(in.Email)
	if emailAddr == "" || in.Password == "" {
		return nil, validationErr("email and password are required")
	}

	u, err := s.authenticate(ctx, emailAddr, in.Password, in.TenantKey)
	if err != nil {
		if IsKind(err, KindAuthentication) {
			s.deps.Metrics.LoginResult("invalid_credentials")
			log.Info("login rejected", logger.Err(errors.Unwrap(err)))
		} else {
			s.deps.Metrics.LoginResult("error")
		}
		return nil, err
	}
	log = log.With(logger.UserID(u.ID), logger.TenantID(u.TenantID))

	if !u.MFAEnabled {
		// No se emite sesión para cuentas sin MFA; ver DESIGN.md.
		s.deps.Metrics.LoginResult("mfa_disabled")
		log.Warn("login without mfa: no session issued")
		return &dto.LoginResult{MFARequired: false, Role: u.Role.String()}, nil
	}

	ch, err := s.challenges.Create(ctx, u.ID, s.deps.Config.OTPValidity)
	if err != nil {
		s.deps.Metrics.LoginResult("error")
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.deps.Notifier.SendOTP(ctx, u.Email, ch.OTP, s.deps.Config.OTPValidity); err != nil {
		log.Error("otp notification failed", logger.Err(err))
	}
	s.record(ctx, log, audit.Event{
		Action:   audit.ActionLoginMFAChallenge,
		UserID:   u.ID,
		TenantID: u.TenantID,
	})
	s.deps.Metrics.LoginResult("mfa_challenge")

	return &dto.LoginResult{MFARequired: true, TempToken: ch.TempToken, Role: u.Role.String()}, nil
}

// authenticate resuelve user + password + tenant. Todas las fallas devuelven
// el mismo mensaje; la razón queda en Err. Cada camino paga exactamente un
// bcrypt, antes de mirar el tenant.
func (s *sessionService) authenticate(ctx context.Context, emailAddr, plain, tenantKey string) (*repository.User, error) {
	u, err := s.deps.DAL.Users().GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			_ = s.verify(plain, s.dummyHash)
			return nil, authErr(msgInvalidCredentials, errUserNotFound)
		}
		return nil, fmt.Errorf("login: lookup user: %w", err)
	}
	if !u.IsActive {
		_ = s.verify(plain, s.dummyHash)
		return nil, authErr(msgInvalidCredentials, errUserInactive)
	}
	if !s.verify(plain, u.PasswordHash) {
		return nil, authErr(msgInvalidCredentials, errBadPassword)
	}

	if !u.PlatformScoped() {
		key := strings.TrimSpace(tenantKey)
		if key == "" {
			return nil, authErr(msgInvalidCredentials, errTenantMismatch)
		}
		t, err := s.deps.Tenants.ResolveActive(ctx, key)
		if err != nil {
			if isTenantMiss(err) {
				return nil, authErr(msgInvalidCredentials, errTenantMismatch)
			}
			return nil, fmt.Errorf("login: resolve tenant: %w", err)
		}
		if t.ID != u.TenantID {
			return nil, authErr(msgInvalidCredentials, errTenantMismatch)
		}
	}
	return u, nil
}

// ─── Verify OTP ───

func (s *sessionService) VerifyOtp(ctx context.Context, in dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	log := s.log(ctx, "VerifyOtp")

	ch, err := s.verifier.Verify(ctx, in.Token(), strings.TrimSpace(in.OTP))
	if err != nil {
		s.otpFailure(log, err)
		return nil, err
	}
	log = log.With(logger.UserID(ch.UserID))

	u, err := s.activeUser(ctx, ch.UserID)
	if err != nil {
		s.otpFailure(log, err)
		return nil, err
	}

	access, _, err := s.deps.Issuer.CreateAccessToken(u)
	if err != nil {
		s.deps.Metrics.OTPVerifyResult("error")
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	refresh, err := s.ledger.Issue(ctx, u.ID)
	if err != nil {
		s.deps.Metrics.OTPVerifyResult("error")
		return nil, fmt.Errorf("verify otp: %w", err)
	}

	s.deps.Metrics.OTPVerifyResult("success")
	log.Info("mfa login succeeded", logger.TenantID(u.TenantID))
	s.record(ctx, log, audit.Event{
		Action:   audit.ActionLoginSuccessMFA,
		UserID:   u.ID,
		TenantID: u.TenantID,
	})
	return &dto.TokenResponse{AccessToken: access, RefreshToken: refresh, Role: u.Role.String()}, nil
}

func (s *sessionService) otpFailure(log *zap.Logger, err error) {
	var e *Error
	if !errors.As(err, &e) {
		s.deps.Metrics.OTPVerifyResult("error")
		return
	}
	if e.Message == msgTooManyAttempts {
		s.deps.Metrics.OTPLockout()
		s.deps.Metrics.OTPVerifyResult("locked")
	} else {
		s.deps.Metrics.OTPVerifyResult("rejected")
	}
	log.Info("otp rejected", logger.Err(e.Err))
}

// activeUser recarga el usuario; ausente o inactivo es falla de autenticación.
func (s *sessionService) activeUser(ctx context.Context, id string) (*repository.User, error) {
	u, err := s.deps.DAL.Users().GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, authErr(msgInvalidCredentials, errUserNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return nil, authErr(msgInvalidCredentials, errUserInactive)
	}
	return u, nil
}

// ─── Refresh ───

func (s *sessionService) Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenResponse, error) {
	log := s.log(ctx, "Refresh")

	rot, err := s.ledger.Rotate(ctx, strings.TrimSpace(in.RefreshToken))
	if err != nil {
		if IsKind(err, KindAuthentication) {
			s.deps.Metrics.RefreshResult("rejected")
		} else {
			s.deps.Metrics.RefreshResult("error")
		}
		return nil, err
	}
	log = log.With(logger.UserID(rot.UserID))

	u, err := s.activeUser(ctx, rot.UserID)
	if err != nil {
		// el sucesor ya existe: se revoca para no dejar una sesión viva
		if rerr := s.ledger.revokeHash(ctx, rot.SuccessorHash); rerr != nil {
			log.Error("revoke orphan successor failed", logger.Err(rerr))
		}
		s.deps.Metrics.RefreshResult("rejected")
		if IsKind(err, KindAuthentication) {
			return nil, authErr(msgInvalidRefresh, errors.Unwrap(err))
		}
		return nil, err
	}

	access, _, err := s.deps.Issuer.CreateAccessToken(u)
	if err != nil {
		s.deps.Metrics.RefreshResult("error")
		return nil, fmt.Errorf("refresh: %w", err)
	}

	s.deps.Metrics.RefreshResult("success")
	s.record(ctx, log, audit.Event{
		Action:   audit.ActionRefreshRotation,
		UserID:   u.ID,
		TenantID: u.TenantID,
	})
	return &dto.TokenResponse{AccessToken: access, RefreshToken: rot.Raw, Role: u.Role.String()}, nil
}

// ─── Logout ───

func (s *sessionService) Logout(ctx context.Context, in dto.RefreshRequest) error {
	log := s.log(ctx, "Logout")

	userID, revoked, err := s.ledger.Revoke(ctx, strings.TrimSpace(in.RefreshToken))
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if !revoked {
		log.Debug("logout no-op")
		return nil
	}
	e := audit.Event{Action: audit.ActionLogout, UserID: userID}
	if u, err := s.deps.DAL.Users().GetByID(ctx, userID); err == nil {
		e.TenantID = u.TenantID
	} else {
		log.Debug("logout: user lookup failed", logger.UserID(userID), logger.Err(err))
	}
	s.record(ctx, log, e)
	return nil
}
