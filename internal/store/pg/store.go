// Package pg implementa el DataAccessLayer sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/store"
	migrations "github.com/dropDatabas3/incidentauth/migrations/postgres"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.DataAccessLayer, error) {
	return Connect(ctx, cfg)
}

// Connect abre el pool, lo verifica con Ping y devuelve el Store.
func Connect(ctx context.Context, cfg store.AdapterConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("pg: empty DSN")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	poolCfg.MaxConns = 10
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolCfg.MinConns = 2
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return New(pool), nil
}

// Store agrupa los repositorios sobre un pool compartido.
type Store struct {
	pool *pgxpool.Pool
}

// New envuelve un pool existente.
func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

func (s *Store) Users() repository.UserRepository                 { return &userRepo{pool: s.pool} }
func (s *Store) Tenants() repository.TenantRepository             { return &tenantRepo{pool: s.pool} }
func (s *Store) Challenges() repository.ChallengeRepository       { return &challengeRepo{pool: s.pool} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return &tokenRepo{pool: s.pool} }
func (s *Store) Audit() repository.AuditRepository                { return &auditRepo{pool: s.pool} }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Migrate aplica las migraciones embebidas de la plataforma.
func (s *Store) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	return NewMigrator(migrations.PlatformFS, migrations.PlatformDir).Run(ctx, s.pool)
}

// nullIfEmpty devuelve nil para strings vacíos (columnas NULL).
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// mapErr traduce errores del driver a los sentinels del repositorio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
