// Package memory implementa el DataAccessLayer en proceso.
//
// Todas las operaciones toman el mismo mutex, así que cada mutación
// condicional es atómica igual que su UPDATE ... WHERE en Postgres.
// Pensado para tests y para desarrollo local sin base de datos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/store"
)

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "memory" }

func (adapter) Connect(context.Context, store.AdapterConfig) (store.DataAccessLayer, error) {
	return New(), nil
}

// Store guarda todo en mapas y slices protegidos por mu.
type Store struct {
	mu sync.Mutex

	users      map[string]*repository.User
	tenants    map[string]*repository.Tenant
	challenges []*repository.MfaChallenge // orden de creación
	tokens     map[string]*repository.RefreshToken
	audit      []repository.AuditLog
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		users:   map[string]*repository.User{},
		tenants: map[string]*repository.Tenant{},
		tokens:  map[string]*repository.RefreshToken{},
	}
}

func (s *Store) Users() repository.UserRepository                 { return userRepo{s} }
func (s *Store) Tenants() repository.TenantRepository             { return tenantRepo{s} }
func (s *Store) Challenges() repository.ChallengeRepository       { return challengeRepo{s} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return tokenRepo{s} }
func (s *Store) Audit() repository.AuditRepository                { return auditRepo{s} }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// Migrate no hace nada; existe para que el store sea intercambiable con pg.
func (s *Store) Migrate(context.Context) (*store.MigrationResult, error) {
	return &store.MigrationResult{}, nil
}

// ─── Users ───

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, in repository.CreateUserInput) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == in.Email {
			return nil, repository.ErrConflict
		}
	}
	u := &repository.User{
		ID:           uuid.NewString(),
		TenantID:     in.TenantID,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		MFAEnabled:   in.MFAEnabled,
		IsActive:     in.IsActive,
		CreatedAt:    time.Now().UTC(),
	}
	r.s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

// ─── Tenants ───

type tenantRepo struct{ s *Store }

func (r tenantRepo) findKey(key string) *repository.Tenant {
	for _, t := range r.s.tenants {
		if strings.EqualFold(t.TenantKey, key) {
			return t
		}
	}
	return nil
}

func (r tenantRepo) GetByKey(_ context.Context, key string) (*repository.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.findKey(key)
	if t == nil {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r tenantRepo) GetByID(_ context.Context, id string) (*repository.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r tenantRepo) Create(_ context.Context, in repository.CreateTenantInput) (*repository.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.findKey(in.TenantKey) != nil {
		return nil, repository.ErrConflict
	}
	t := &repository.Tenant{
		ID:               uuid.NewString(),
		TenantKey:        in.TenantKey,
		Name:             in.Name,
		IsActive:         true,
		ConnectionString: in.ConnectionString,
		CreatedAt:        time.Now().UTC(),
	}
	r.s.tenants[t.ID] = t
	cp := *t
	return &cp, nil
}

func (r tenantRepo) List(context.Context) ([]repository.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]repository.Tenant, 0, len(r.s.tenants))
	for _, t := range r.s.tenants {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantKey < out[j].TenantKey })
	return out, nil
}

func (r tenantRepo) SetActive(_ context.Context, key string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.findKey(key)
	if t == nil {
		return repository.ErrNotFound
	}
	t.IsActive = active
	return nil
}

// ─── MFA challenges ───

type challengeRepo struct{ s *Store }

func (r challengeRepo) Create(_ context.Context, in repository.CreateChallengeInput) (*repository.MfaChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := &repository.MfaChallenge{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		TempTokenHash: in.TempTokenHash,
		ExpiresAt:     in.ExpiresAt,
		OTPHash:       in.OTPHash,
		OTPExpiresAt:  in.OTPExpiresAt,
		CreatedAt:     in.CreatedAt,
	}
	r.s.challenges = append(r.s.challenges, c)
	cp := *c
	return &cp, nil
}

func (r challengeRepo) GetLatestByTempTokenHash(_ context.Context, hash string) (*repository.MfaChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.challenges) - 1; i >= 0; i-- {
		if c := r.s.challenges[i]; c.TempTokenHash == hash {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r challengeRepo) byID(id string) *repository.MfaChallenge {
	for _, c := range r.s.challenges {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r challengeRepo) RegisterAttempt(_ context.Context, id string, now time.Time, maxAttempts int) (repository.AttemptResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.byID(id)
	if c == nil || !c.Usable(now) {
		return repository.AttemptResult{}, repository.ErrNotFound
	}
	c.Attempts++
	if c.Attempts > maxAttempts {
		c.IsLocked = true
	}
	return repository.AttemptResult{Attempts: c.Attempts, Locked: c.IsLocked}, nil
}

func (r challengeRepo) MarkVerified(_ context.Context, id string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.byID(id)
	if c == nil || c.VerifiedAt != nil || c.IsLocked {
		return repository.ErrNotFound
	}
	t := now
	c.VerifiedAt = &t
	return nil
}

// ─── Refresh tokens ───

type tokenRepo struct{ s *Store }

func (r tokenRepo) insert(userID, hash string, expiresAt, createdAt time.Time) *repository.RefreshToken {
	t := &repository.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}
	r.s.tokens[hash] = t
	return t
}

func (r tokenRepo) Create(_ context.Context, in repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.tokens[in.TokenHash]; dup {
		return nil, repository.ErrConflict
	}
	cp := *r.insert(in.UserID, in.TokenHash, in.ExpiresAt, in.CreatedAt)
	return &cp, nil
}

func (r tokenRepo) Rotate(_ context.Context, in repository.RotateInput) (*repository.Rotation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.tokens[in.OldHash]
	if !ok || old.IsRevoked() || old.IsExpired(in.Now) {
		return nil, repository.ErrNotFound
	}
	if _, dup := r.s.tokens[in.NewHash]; dup {
		return nil, repository.ErrConflict
	}
	now := in.Now
	next := in.NewHash
	old.RevokedAt = &now
	old.ReplacedByHash = &next
	succ := r.insert(old.UserID, in.NewHash, in.NewExpiresAt, in.Now)
	return &repository.Rotation{Consumed: *old, Successor: *succ}, nil
}

func (r tokenRepo) Revoke(_ context.Context, hash string, now time.Time) (*repository.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[hash]
	if !ok || t.IsRevoked() {
		return nil, repository.ErrNotFound
	}
	at := now
	t.RevokedAt = &at
	cp := *t
	return &cp, nil
}

func (r tokenRepo) GetByHash(_ context.Context, hash string) (*repository.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// ─── Audit ───

type auditRepo struct{ s *Store }

func (r auditRepo) Append(_ context.Context, e repository.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = int64(len(r.s.audit) + 1)
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	r.s.audit = append(r.s.audit, e)
	return nil
}

func (r auditRepo) ListRecent(_ context.Context, limit int) ([]repository.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]repository.AuditLog, 0, len(r.s.audit))
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r.s.audit[i])
	}
	return out, nil
}

// Snapshot helpers para tests.

// AllChallenges devuelve copia de todos los desafíos en orden de creación.
func (s *Store) AllChallenges() []repository.MfaChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.MfaChallenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		out = append(out, *c)
	}
	return out
}

// AllRefreshTokens devuelve copia de todos los refresh tokens.
func (s *Store) AllRefreshTokens() []repository.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.RefreshToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, *t)
	}
	return out
}

// UserCount devuelve la cantidad de usuarios.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// SetMFA cambia mfa_enabled de un usuario; no hay operación de repositorio para esto.
func (s *Store) SetMFA(userID string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.MFAEnabled = enabled
	}
}
