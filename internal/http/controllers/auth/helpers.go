package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/incidentauth/internal/http/errors"
	svc "github.com/dropDatabas3/incidentauth/internal/http/services/auth"
)

const (
	maxBodySize     = 8 << 10 // 8KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// readJSON decodifica el body limitado a maxBodySize. Campos desconocidos se ignoran.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) *httperrors.AppError {
	if ct := strings.ToLower(r.Header.Get("Content-Type")); ct != "" && !strings.Contains(ct, "application/json") {
		return httperrors.ErrUnsupportedMedia
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return httperrors.ErrBodyTooLarge
		}
		return httperrors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// isInvalidJSON distingue un body mal formado de 413/415.
func isInvalidJSON(e *httperrors.AppError) bool {
	return e != nil && e.Code == httperrors.ErrInvalidJSON.Code
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var (
	errValidation = &httperrors.AppError{Code: "VALIDATION_ERROR", Message: "The request is invalid.", HTTPStatus: http.StatusBadRequest}
	errConflict   = &httperrors.AppError{Code: "CONFLICT", Message: "The resource already exists.", HTTPStatus: http.StatusBadRequest}
	errAuth       = &httperrors.AppError{Code: "AUTHENTICATION_FAILED", Message: "Authentication failed.", HTTPStatus: http.StatusUnauthorized}
)

// toAppError mapea el Kind del service a HTTP. Sólo Message sale al cliente;
// los errores de infraestructura quedan como 500 genérico.
func toAppError(err error) *httperrors.AppError {
	var se *svc.Error
	if !errors.As(err, &se) {
		return httperrors.ErrInternalServerError.WithCause(err)
	}
	var base *httperrors.AppError
	switch se.Kind {
	case svc.KindValidation:
		base = errValidation
	case svc.KindConflict:
		base = errConflict
	case svc.KindAuthentication:
		base = errAuth
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
	if se.Message != "" {
		base = base.WithMessage(se.Message)
	}
	return base.WithCause(err)
}
