// Package router define las rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/incidentauth/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/incidentauth/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/incidentauth/internal/http/errors"
	mw "github.com/dropDatabas3/incidentauth/internal/http/middlewares"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Auth   *authctrl.Controllers
	Health *healthctrl.HealthController
	Tokens mw.TokenParser

	CORSOrigins []string

	// Metrics instrumenta requests; MetricsHandler sirve /metrics. Ambos opcionales.
	Metrics        mw.Middleware
	MetricsHandler http.Handler
}

// New arma el árbol de rutas.
//
//	POST /api/auth/register | login | verify-otp | refresh | logout
//	GET  /api/auth/me       (Bearer)
//	GET  /readyz
//	GET  /metrics
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSOrigins),
	)
	if d.Metrics != nil {
		r.Use(d.Metrics)
	}
	r.Use(mw.WithLogging())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Route("/api/auth", func(r chi.Router) {
		// tokens en el body: nada de caches intermedios
		r.Use(mw.WithNoStore())

		s := d.Auth.Session
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)
		r.Post("/verify-otp", s.VerifyOtp)
		r.Post("/refresh", s.Refresh)
		r.Post("/logout", s.Logout)

		r.With(mw.RequireAuth(d.Tokens)).Get("/me", d.Auth.Me.Me)
	})

	if d.Health != nil {
		r.Get("/readyz", d.Health.Readyz)
	}
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}
	return r
}
