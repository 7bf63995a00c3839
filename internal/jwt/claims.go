package jwt

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Valores del claim "scope".
const (
	ScopePlatform = "platform"
	ScopeTenant   = "tenant"
)

// AccessClaims son los claims del access token.
// tenantId va siempre presente (vacío para usuarios de plataforma).
type AccessClaims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenantId"`
	Scope    string `json:"scope"`
	jwtv5.RegisteredClaims
}

// ScopeFor deriva el scope a partir del tenant.
func ScopeFor(tenantID string) string {
	if tenantID == "" {
		return ScopePlatform
	}
	return ScopeTenant
}
