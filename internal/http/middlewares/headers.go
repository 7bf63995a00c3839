package middlewares

import (
	"net/http"
	"strings"
)

// apiHeaders van en todas las respuestas: la API no sirve HTML.
var apiHeaders = [][2]string{
	{"Referrer-Policy", "no-referrer"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Cross-Origin-Resource-Policy", "same-site"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
}

const hsts = "max-age=15552000; includeSubDomains"

// isHTTPS: TLS directo o X-Forwarded-Proto del proxy.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func withHeaders(set func(h http.Header, r *http.Request)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set(w.Header(), r)
			next.ServeHTTP(w, r)
		})
	}
}

// WithSecurityHeaders agrega apiHeaders y HSTS cuando el request vino por HTTPS.
func WithSecurityHeaders() Middleware {
	return withHeaders(func(h http.Header, r *http.Request) {
		for _, kv := range apiHeaders {
			h.Set(kv[0], kv[1])
		}
		if isHTTPS(r) {
			h.Set("Strict-Transport-Security", hsts)
		}
	})
}

// WithNoStore prohíbe cachear la respuesta (los bodies llevan tokens).
func WithNoStore() Middleware {
	return withHeaders(func(h http.Header, _ *http.Request) {
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
	})
}
