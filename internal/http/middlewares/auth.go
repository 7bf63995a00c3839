package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/incidentauth/internal/http/errors"
	jwtx "github.com/dropDatabas3/incidentauth/internal/jwt"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
)

// TokenParser valida un access token. *jwtx.Issuer lo implementa.
type TokenParser interface {
	Parse(raw string) (*jwtx.AccessClaims, error)
}

// RequireAuth valida Authorization: Bearer <JWT> (firma, iss, aud, exp con
// tolerancia de reloj) y guarda las claims en el contexto. Si falta o es
// inválido responde 401.
func RequireAuth(p TokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[7:])

			claims, err := p.Parse(raw)
			if err != nil {
				logger.From(r.Context()).Debug("bearer rejected", logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
