// Package store provee el registry de adapters de persistencia de la plataforma.
//
// Cada adapter se registra en init(); los binarios lo importan en blanco:
//
//	_ "github.com/dropDatabas3/incidentauth/internal/store/pg"
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
)

// Adapter crea conexiones a un backend concreto.
type Adapter interface {
	Name() string
	Connect(ctx context.Context, cfg AdapterConfig) (DataAccessLayer, error)
}

// AdapterConfig configuración para conectar.
type AdapterConfig struct {
	// Driver: "postgres" | "memory"
	Driver string
	DSN    string

	MaxOpenConns int
	MaxIdleConns int
}

// DataAccessLayer es la vista que consumen services y collaborators.
type DataAccessLayer interface {
	Users() repository.UserRepository
	Tenants() repository.TenantRepository
	Challenges() repository.ChallengeRepository
	RefreshTokens() repository.RefreshTokenRepository
	Audit() repository.AuditRepository

	Ping(ctx context.Context) error
	Close() error
}

// Migratable lo implementan las conexiones que saben aplicar el schema.
type Migratable interface {
	Migrate(ctx context.Context) (*MigrationResult, error)
}

// MigrationResult resume una corrida de migraciones.
type MigrationResult struct {
	Applied []int
	Skipped []int
}

var (
	mu       sync.RWMutex
	adapters = map[string]Adapter{}
)

// RegisterAdapter registra un adapter. Panic si el nombre se repite.
func RegisterAdapter(a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := adapters[a.Name()]; dup {
		panic("store: adapter registered twice: " + a.Name())
	}
	adapters[a.Name()] = a
}

// GetAdapter busca un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// Adapters devuelve los nombres registrados, ordenados.
func Adapters() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(adapters))
	for n := range adapters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open conecta usando el adapter cfg.Driver.
func Open(ctx context.Context, cfg AdapterConfig) (DataAccessLayer, error) {
	a, ok := GetAdapter(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q (registered: %v)", cfg.Driver, Adapters())
	}
	return a.Connect(ctx, cfg)
}
