package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/dropDatabas3/incidentauth/internal/http/errors"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
)

// WithRecover convierte un panic del handler en 500. http.ErrAbortHandler se
// re-lanza: es la forma de net/http de cortar una respuesta a propósito.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.From(r.Context()).Error("panic recovered",
					logger.Op("recover"),
					logger.RequestID(w.Header().Get("X-Request-ID")),
					logger.Any("panic", rec),
					logger.String("stack", string(debug.Stack())),
				)
				errors.WriteError(w, errors.ErrInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
