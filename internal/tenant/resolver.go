// Package tenant resuelve tenant keys contra el store de plataforma,
// con cache (memory/redis) y singleflight por key.
package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/incidentauth/internal/cache"
	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantInactive = errors.New("tenant inactive")
)

// Resolver valida tenant keys para registro y login.
type Resolver struct {
	repo  repository.TenantRepository
	cache cache.Client
	ttl   time.Duration
	sf    singleflight.Group
}

// NewResolver crea el resolver. c puede ser nil (sin cache).
func NewResolver(repo repository.TenantRepository, c cache.Client, ttl time.Duration) *Resolver {
	return &Resolver{repo: repo, cache: c, ttl: ttl}
}

// cachedTenant es lo que va al cache; el connection string nunca sale del store.
type cachedTenant struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func cacheKey(key string) string { return "tenant:" + key }

func normalize(key string) string { return strings.ToLower(strings.TrimSpace(key)) }

// Resolve busca el tenant por key (case-insensitive), activo o no.
func (r *Resolver) Resolve(ctx context.Context, key string) (*repository.Tenant, error) {
	key = normalize(key)
	if key == "" {
		return nil, ErrTenantNotFound
	}

	if t, ok := r.fromCache(ctx, key); ok {
		return t, nil
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		t, err := r.repo.GetByKey(ctx, key)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrTenantNotFound
			}
			return nil, fmt.Errorf("tenant: lookup %q: %w", key, err)
		}
		r.toCache(ctx, key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*repository.Tenant)
	return &cp, nil
}

// ResolveActive es Resolve + chequeo de is_active.
func (r *Resolver) ResolveActive(ctx context.Context, key string) (*repository.Tenant, error) {
	t, err := r.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrTenantInactive
	}
	return t, nil
}

// Invalidate borra la entrada cacheada (p.ej. tras deshabilitar un tenant).
func (r *Resolver) Invalidate(ctx context.Context, key string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, cacheKey(normalize(key)))
}

func (r *Resolver) fromCache(ctx context.Context, key string) (*repository.Tenant, bool) {
	if r.cache == nil {
		return nil, false
	}
	b, err := r.cache.Get(ctx, cacheKey(key))
	if err != nil {
		if !cache.IsNotFound(err) {
			logger.From(ctx).Warn("tenant cache get failed", logger.Component("tenant"), logger.Err(err))
		}
		return nil, false
	}
	var ct cachedTenant
	if err := json.Unmarshal(b, &ct); err != nil {
		return nil, false
	}
	return &repository.Tenant{ID: ct.ID, TenantKey: ct.Key, Name: ct.Name, IsActive: ct.Active}, true
}

func (r *Resolver) toCache(ctx context.Context, key string, t *repository.Tenant) {
	if r.cache == nil {
		return
	}
	b, err := json.Marshal(cachedTenant{ID: t.ID, Key: t.TenantKey, Name: t.Name, Active: t.IsActive})
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(key), b, r.ttl); err != nil {
		logger.From(ctx).Warn("tenant cache set failed", logger.Component("tenant"), logger.Err(err))
	}
}
