package auth

import (
	"errors"
	"fmt"
)

// Kind clasifica los errores del servicio; el controller lo mapea a HTTP.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindAuthentication
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	default:
		return "unknown"
	}
}

// Error lleva el kind como dato. Message es lo único que se expone al cliente;
// Err guarda la razón interna para logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf devuelve el Kind de err, o 0 si no es un *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }

func validationErr(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func conflictErr(msg string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: cause}
}

func authErr(msg string, cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: msg, Err: cause}
}

// Mensajes públicos. Un único mensaje por endpoint para no filtrar qué chequeo falló.
const (
	msgInvalidCredentials = "invalid credentials"
	msgInvalidChallenge   = "invalid or expired code"
	msgTooManyAttempts    = "too many attempts"
	msgInvalidRefresh     = "invalid refresh token"
)

// Razones internas (sólo logs).
var (
	errUserNotFound     = errors.New("user not found")
	errUserInactive     = errors.New("user inactive")
	errTenantMismatch   = errors.New("tenant key mismatch")
	errBadPassword      = errors.New("password mismatch")
	errChallengeMissing = errors.New("challenge not found")
	errChallengeLocked  = errors.New("challenge locked")
	errChallengeUsed    = errors.New("challenge already verified")
	errChallengeExpired = errors.New("challenge expired")
	errOTPExpired       = errors.New("otp expired")
	errOTPMismatch      = errors.New("otp mismatch")
	errRefreshUnusable  = errors.New("refresh token not active")
)
