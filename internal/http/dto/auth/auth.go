// Package auth contiene los DTOs de /api/auth.
package auth

import "strings"

// RegisterRequest body de POST /api/auth/register.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	TenantKey string `json:"tenantKey,omitempty"`
}

// LoginRequest body de POST /api/auth/login.
type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	TenantKey string `json:"tenantKey,omitempty"`
}

// LoginResult respuesta del paso 1. TempToken sólo si MFARequired.
type LoginResult struct {
	MFARequired bool   `json:"mfaRequired"`
	TempToken   string `json:"tempToken,omitempty"`
	Role        string `json:"role"`
}

// VerifyOTPRequest body de POST /api/auth/verify-otp.
// tempMfaToken se acepta como alias de clientes viejos.
type VerifyOTPRequest struct {
	TempToken    string `json:"tempToken"`
	TempMfaToken string `json:"tempMfaToken,omitempty"`
	OTP          string `json:"otp"`
}

// Token devuelve el temp token, priorizando tempToken.
func (r VerifyOTPRequest) Token() string {
	if t := strings.TrimSpace(r.TempToken); t != "" {
		return t
	}
	return strings.TrimSpace(r.TempMfaToken)
}

// RefreshRequest body de POST /api/auth/refresh y /logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse par access/refresh emitido por verify-otp y refresh.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
}

// OKResponse {ok:true}.
type OKResponse struct {
	OK bool `json:"ok"`
}

// MeResponse claims verificadas del bearer token.
type MeResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  string `json:"tenantId"`
	Scope     string `json:"scope"`
	ExpiresAt int64  `json:"exp"`
}
