package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/domain/types"
	"github.com/dropDatabas3/incidentauth/internal/store"
)

func TestAdapterRegistered(t *testing.T) {
	dal, err := store.Open(context.Background(), store.AdapterConfig{Driver: "memory"})
	require.NoError(t, err)
	require.NoError(t, dal.Ping(context.Background()))
}

func TestUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	in := repository.CreateUserInput{Email: "a@x.io", Role: types.RoleSupport, IsActive: true}

	_, err := s.Users().Create(ctx, in)
	require.NoError(t, err)
	_, err = s.Users().Create(ctx, in)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestTenants_KeyCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Tenants().Create(ctx, repository.CreateTenantInput{TenantKey: "Acme", Name: "Acme"})
	require.NoError(t, err)

	got, err := s.Tenants().GetByKey(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	_, err = s.Tenants().Create(ctx, repository.CreateTenantInput{TenantKey: "acme"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestChallenges_LatestWinsAndAttemptCap(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	in := repository.CreateChallengeInput{
		UserID: "u1", TempTokenHash: "h", OTPHash: "o",
		ExpiresAt: now.Add(time.Minute), OTPExpiresAt: now.Add(time.Minute), CreatedAt: now,
	}
	_, err := s.Challenges().Create(ctx, in)
	require.NoError(t, err)
	second, err := s.Challenges().Create(ctx, in)
	require.NoError(t, err)

	latest, err := s.Challenges().GetLatestByTempTokenHash(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	for i := 1; i <= 5; i++ {
		res, err := s.Challenges().RegisterAttempt(ctx, latest.ID, now, 5)
		require.NoError(t, err)
		assert.Equal(t, i, res.Attempts)
		assert.False(t, res.Locked)
	}
	res, err := s.Challenges().RegisterAttempt(ctx, latest.ID, now, 5)
	require.NoError(t, err)
	assert.True(t, res.Locked)

	_, err = s.Challenges().RegisterAttempt(ctx, latest.ID, now, 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Challenges().MarkVerified(ctx, latest.ID, now), repository.ErrNotFound)
}

func TestRefreshTokens_ConcurrentRotateSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	_, err := s.RefreshTokens().Create(ctx, repository.CreateRefreshTokenInput{
		UserID: "u1", TokenHash: "root", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)

	var wins, losses int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.RefreshTokens().Rotate(ctx, repository.RotateInput{
				OldHash: "root", NewHash: "next-" + string(rune('a'+i)),
				NewExpiresAt: now.Add(time.Hour), Now: now,
			})
			if err == nil {
				atomic.AddInt32(&wins, 1)
			} else if repository.IsNotFound(err) {
				atomic.AddInt32(&losses, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
	assert.EqualValues(t, 15, losses)
	assert.Len(t, s.AllRefreshTokens(), 2)
}

func TestRefreshTokens_RevokeNoopOnSecondCall(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	_, err := s.RefreshTokens().Create(ctx, repository.CreateRefreshTokenInput{
		UserID: "u1", TokenHash: "t", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)

	_, err = s.RefreshTokens().Revoke(ctx, "t", now)
	require.NoError(t, err)
	_, err = s.RefreshTokens().Revoke(ctx, "t", now.Add(time.Second))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := s.RefreshTokens().GetByHash(ctx, "t")
	require.NoError(t, err)
	assert.True(t, got.RevokedAt.Equal(now))
	assert.Nil(t, got.ReplacedByHash)
}
