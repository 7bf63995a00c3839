package pg

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/domain/types"
	"github.com/dropDatabas3/incidentauth/internal/store"
	"github.com/google/uuid"
)

// Tests de integración: requieren INCIDENTAUTH_TEST_DSN apuntando a una
// base descartable.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("INCIDENTAUTH_TEST_DSN")
	if dsn == "" {
		t.Skip("INCIDENTAUTH_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, store.AdapterConfig{Driver: "postgres", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Migrate(ctx)
	require.NoError(t, err)
	return s
}

func createTestUser(t *testing.T, s *Store) *repository.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), repository.CreateUserInput{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada+" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: "$2a$04$placeholder",
		Role:         types.RoleSupport,
		MFAEnabled:   true,
		IsActive:     true,
	})
	require.NoError(t, err)
	return u
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	res, err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.NotEmpty(t, res.Skipped)
}

func TestUsers_DuplicateEmailConflicts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s)

	_, err := s.Users().Create(ctx, repository.CreateUserInput{
		Email: u.Email, PasswordHash: "x", Role: types.RoleSupport, IsActive: true,
	})
	assert.True(t, repository.IsConflict(err), "got %v", err)

	got, err := s.Users().GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.PlatformScoped())

	_, err = s.Users().GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChallenges_AttemptCapLocks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s)
	now := time.Now().UTC()

	hash := "tmp-" + uuid.NewString()
	c, err := s.Challenges().Create(ctx, repository.CreateChallengeInput{
		UserID: u.ID, TempTokenHash: hash, OTPHash: "otp",
		ExpiresAt: now.Add(5 * time.Minute), OTPExpiresAt: now.Add(5 * time.Minute), CreatedAt: now,
	})
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		res, err := s.Challenges().RegisterAttempt(ctx, c.ID, now, 5)
		require.NoError(t, err)
		assert.Equal(t, i, res.Attempts)
		assert.False(t, res.Locked)
	}
	res, err := s.Challenges().RegisterAttempt(ctx, c.ID, now, 5)
	require.NoError(t, err)
	assert.True(t, res.Locked)

	_, err = s.Challenges().RegisterAttempt(ctx, c.ID, now, 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRefreshTokens_ConcurrentRotateSingleWinner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s)
	now := time.Now().UTC()

	old := "old-" + uuid.NewString()
	_, err := s.RefreshTokens().Create(ctx, repository.CreateRefreshTokenInput{
		UserID: u.ID, TokenHash: old, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		wins int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RefreshTokens().Rotate(ctx, repository.RotateInput{
				OldHash: old, NewHash: "new-" + uuid.NewString(),
				NewExpiresAt: now.Add(time.Hour), Now: now,
			})
			if err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)

	got, err := s.RefreshTokens().GetByHash(ctx, old)
	require.NoError(t, err)
	assert.True(t, got.IsRevoked())
	require.NotNil(t, got.ReplacedByHash)

	_, err = s.RefreshTokens().Revoke(ctx, old, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
