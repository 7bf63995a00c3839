package tenant

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/incidentauth/internal/cache"
	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/store/memory"
)

// countingRepo cuenta lookups para verificar cache y singleflight.
type countingRepo struct {
	repository.TenantRepository
	calls int32
	delay time.Duration
}

func (c *countingRepo) GetByKey(ctx context.Context, key string) (*repository.Tenant, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.TenantRepository.GetByKey(ctx, key)
}

func seed(t *testing.T) (*memory.Store, *repository.Tenant) {
	t.Helper()
	st := memory.New()
	tn, err := st.Tenants().Create(context.Background(), repository.CreateTenantInput{
		TenantKey: "Acme", Name: "Acme Corp", ConnectionString: "postgres://secret",
	})
	require.NoError(t, err)
	return st, tn
}

func TestResolveActive_CaseInsensitive(t *testing.T) {
	st, tn := seed(t)
	r := NewResolver(st.Tenants(), nil, 0)

	got, err := r.ResolveActive(context.Background(), "  ACME ")
	require.NoError(t, err)
	assert.Equal(t, tn.ID, got.ID)

	_, err = r.ResolveActive(context.Background(), "globex")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = r.ResolveActive(context.Background(), "")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveActive_Inactive(t *testing.T) {
	st, _ := seed(t)
	require.NoError(t, st.Tenants().SetActive(context.Background(), "acme", false))

	r := NewResolver(st.Tenants(), nil, 0)
	_, err := r.ResolveActive(context.Background(), "acme")
	assert.ErrorIs(t, err, ErrTenantInactive)
}

func TestResolve_UsesCacheWithoutConnectionString(t *testing.T) {
	st, tn := seed(t)
	repo := &countingRepo{TenantRepository: st.Tenants()}
	r := NewResolver(repo, cache.NewMemory("test", time.Minute), time.Minute)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "postgres://secret", first.ConnectionString)

	second, err := r.Resolve(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, tn.ID, second.ID)
	assert.Empty(t, second.ConnectionString)
	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.calls))

	require.NoError(t, r.Invalidate(ctx, "acme"))
	_, err = r.Resolve(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&repo.calls))
}

func TestResolve_SingleflightCollapsesMisses(t *testing.T) {
	st, _ := seed(t)
	repo := &countingRepo{TenantRepository: st.Tenants(), delay: 50 * time.Millisecond}
	r := NewResolver(repo, nil, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), "acme")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, atomic.LoadInt32(&repo.calls), int32(10))
}
