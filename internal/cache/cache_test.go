package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(Config{Kind: "memcached"})
	assert.Error(t, err)
}

func TestMemory_GetSetDelete(t *testing.T) {
	c, err := New(Config{Kind: "memory", Prefix: "t"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Get(ctx, "k")
	assert.True(t, IsNotFound(err))

	buf := []byte("v1")
	require.NoError(t, c.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Expires(t *testing.T) {
	c := NewMemory("", 0)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "k", prefixed("", "k"))
	assert.Equal(t, "p:k", prefixed("p", "k"))
}
