package jwt

import (
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/domain/types"
)

var testKey = []byte(strings.Repeat("k", 32))

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer("incidentauth", "incident-web", testKey, 15*time.Minute, 30*time.Second)
	require.NoError(t, err)
	iss.Now = func() time.Time { return now }
	return iss
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer("a", "b", []byte("short"), time.Minute, 0)
	assert.ErrorIs(t, err, ErrKeyTooShort)
	_, err = NewIssuer("", "b", testKey, time.Minute, 0)
	assert.ErrorIs(t, err, ErrMissingIssuer)
	_, err = NewIssuer("a", "", testKey, time.Minute, 0)
	assert.ErrorIs(t, err, ErrMissingAudience)
}

func TestCreateAccessToken_Claims(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := newTestIssuer(t, now)

	u := &repository.User{ID: "u-1", Email: "ana@acme.io", Role: types.RoleClientUser, TenantID: "t-1"}
	raw, exp, err := iss.CreateAccessToken(u)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), exp)

	c, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.Subject)
	assert.Equal(t, "ana@acme.io", c.Email)
	assert.Equal(t, "ClientUser", c.Role)
	assert.Equal(t, "t-1", c.TenantID)
	assert.Equal(t, ScopeTenant, c.Scope)
	assert.Equal(t, "incidentauth", c.Issuer)
	assert.Equal(t, jwtv5.ClaimStrings{"incident-web"}, c.Audience)
}

func TestCreateAccessToken_PlatformScope(t *testing.T) {
	iss := newTestIssuer(t, time.Now().UTC())
	raw, _, err := iss.CreateAccessToken(&repository.User{ID: "u-2", Email: "root@x.io", Role: types.RoleSuperAdmin})
	require.NoError(t, err)

	c, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "", c.TenantID)
	assert.Equal(t, ScopePlatform, c.Scope)
}

func TestParse_ClockSkew(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(t, now)
	raw, _, err := iss.CreateAccessToken(&repository.User{ID: "u", Role: types.RoleSupport})
	require.NoError(t, err)

	// 20s después de exp: dentro de la tolerancia
	iss.Now = func() time.Time { return now.Add(15*time.Minute + 20*time.Second) }
	_, err = iss.Parse(raw)
	assert.NoError(t, err)

	// 1m después de exp: rechazado
	iss.Now = func() time.Time { return now.Add(16 * time.Minute) }
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsForeignIssuerAudienceAndKey(t *testing.T) {
	now := time.Now().UTC()
	iss := newTestIssuer(t, now)
	u := &repository.User{ID: "u", Role: types.RoleSupport}

	other := newTestIssuer(t, now)
	other.Iss = "someone-else"
	raw, _, err := other.CreateAccessToken(u)
	require.NoError(t, err)
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidIssuer)

	other = newTestIssuer(t, now)
	other.Aud = "mobile"
	raw, _, err = other.CreateAccessToken(u)
	require.NoError(t, err)
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other = newTestIssuer(t, now)
	other.Key = []byte(strings.Repeat("z", 32))
	raw, _, err = other.CreateAccessToken(u)
	require.NoError(t, err)
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsNoneAlg(t *testing.T) {
	iss := newTestIssuer(t, time.Now().UTC())
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, jwtv5.MapClaims{
		"sub": "u", "iss": iss.Iss, "aud": iss.Aud, "exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tk.SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
