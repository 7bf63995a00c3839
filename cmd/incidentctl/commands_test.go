package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/incidentauth/internal/cache"
	"github.com/dropDatabas3/incidentauth/internal/security/secretbox"
	"github.com/dropDatabas3/incidentauth/internal/store/memory"
	"github.com/dropDatabas3/incidentauth/internal/tenant"
)

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(func(context.Context, string) (*env, error) { return e, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTenantCommands(t *testing.T) {
	st := memory.New()
	c := cache.NewMemory("test", 0)
	e := &env{dal: st, cache: c, close: func() error { return nil }}

	out, err := run(t, e, "tenant", "add", "acme", "--name", "Acme Corp")
	require.NoError(t, err)
	assert.Contains(t, out, "created tenant acme")

	_, err = run(t, e, "tenant", "add", "ACME")
	assert.ErrorContains(t, err, "already exists")

	// precalentar el cache como lo haría el servicio
	res := tenant.NewResolver(st.Tenants(), c, 0)
	_, err = res.ResolveActive(context.Background(), "acme")
	require.NoError(t, err)

	out, err = run(t, e, "tenant", "disable", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled tenant acme")

	_, err = res.ResolveActive(context.Background(), "acme")
	assert.ErrorIs(t, err, tenant.ErrTenantInactive)

	out, err = run(t, e, "tenant", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "false")

	_, err = run(t, e, "tenant", "disable", "ghost")
	assert.ErrorContains(t, err, "not found")
}

func TestTenantAdd_ConnectionStringSealed(t *testing.T) {
	st := memory.New()
	key := strings.Repeat("m", 32)
	e := &env{dal: st, masterKey: key, close: func() error { return nil }}

	_, err := run(t, e, "tenant", "add", "globex", "--connection-string", "postgres://g:pw@db/globex")
	require.NoError(t, err)

	got, err := st.Tenants().GetByKey(context.Background(), "globex")
	require.NoError(t, err)
	assert.NotContains(t, got.ConnectionString, "pw@db")

	box, err := secretbox.New(key)
	require.NoError(t, err)
	plain, err := box.Open(got.ConnectionString)
	require.NoError(t, err)
	assert.Equal(t, "postgres://g:pw@db/globex", plain)

	e.masterKey = ""
	_, err = run(t, e, "tenant", "add", "initech", "--connection-string", "postgres://x")
	assert.ErrorContains(t, err, "secretbox_master_key")
}

func TestMigrateCommand(t *testing.T) {
	e := &env{dal: memory.New(), close: func() error { return nil }}
	out, err := run(t, e, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied=")
}

func TestArgsValidation(t *testing.T) {
	e := &env{dal: memory.New(), close: func() error { return nil }}
	_, err := run(t, e, "tenant", "add")
	assert.Error(t, err)
}
