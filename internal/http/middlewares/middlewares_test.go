package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/domain/types"
	jwtx "github.com/dropDatabas3/incidentauth/internal/jwt"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func TestChain_Order(t *testing.T) {
	var got []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = append(got, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler, mark("a"), nil, mark("b"), mark("c"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	rr := serve(h, r)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc-123", seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	serve(h, r)
	assert.Len(t, seen, 36)
}

func TestWithRecover(t *testing.T) {
	h := WithRecover()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestWithLogging_KeepsStatus(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), WithRequestID(), WithLogging())
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestWithSecurityHeaders(t *testing.T) {
	rr := serve(WithSecurityHeaders()(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rr = serve(WithSecurityHeaders()(okHandler), r)
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestWithNoStore(t *testing.T) {
	rr := serve(WithNoStore()(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestWithCORS(t *testing.T) {
	h := WithCORS([]string{"https://app.acme.io/", ""})(okHandler)

	r := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	r.Header.Set("Origin", "https://app.acme.io")
	r.Header.Set("Access-Control-Request-Method", "POST")
	rr := serve(h, r)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.acme.io", rr.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.Header.Set("Origin", "https://evil.io")
	rr = serve(h, r)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func newIssuer(t *testing.T) *jwtx.Issuer {
	t.Helper()
	iss, err := jwtx.NewIssuer("incidentauth", "incident-web", []byte(strings.Repeat("s", 32)), 15*time.Minute, 30*time.Second)
	require.NoError(t, err)
	return iss
}

func TestRequireAuth(t *testing.T) {
	iss := newIssuer(t)
	raw, _, err := iss.CreateAccessToken(&repository.User{ID: "u-1", Email: "ana@acme.io", Role: types.RoleAdminClient, TenantID: "t-1"})
	require.NoError(t, err)

	var claims *jwtx.AccessClaims
	var uid string
	h := RequireAuth(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = GetClaims(r.Context())
		uid = GetUserID(r.Context())
	}))

	t.Run("missing header", func(t *testing.T) {
		rr := serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
		assert.Contains(t, rr.Body.String(), "TOKEN_MISSING")
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		r.Header.Set("Authorization", "Bearer not-a-jwt")
		rr := serve(h, r)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "TOKEN_INVALID")
	})

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		r.Header.Set("Authorization", "bearer "+raw)
		rr := serve(h, r)
		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, claims)
		assert.Equal(t, "u-1", uid)
		assert.Equal(t, jwtx.ScopeTenant, claims.Scope)
	})
}
