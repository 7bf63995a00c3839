// Package auth contiene los controllers de /api/auth.
package auth

import svc "github.com/dropDatabas3/incidentauth/internal/http/services/auth"

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Session *SessionController
	Me      *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.SessionService) *Controllers {
	return &Controllers{
		Session: NewSessionController(s),
		Me:      NewMeController(),
	}
}
