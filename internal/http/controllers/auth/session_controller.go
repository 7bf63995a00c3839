package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/incidentauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/incidentauth/internal/http/errors"
	svc "github.com/dropDatabas3/incidentauth/internal/http/services/auth"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
	"go.uber.org/zap"
)

// SessionController maneja register, login, verify-otp, refresh y logout.
type SessionController struct {
	service svc.SessionService
}

// NewSessionController crea un nuevo controller de sesión.
func NewSessionController(service svc.SessionService) *SessionController {
	return &SessionController{service: service}
}

func (c *SessionController) log(r *http.Request, op string) *zap.Logger {
	return logger.From(r.Context()).With(logger.Layer("controller"), logger.Op(op))
}

func (c *SessionController) fail(w http.ResponseWriter, log *zap.Logger, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= 500 {
		log.Error("request failed", logger.Err(err))
	} else {
		log.Debug("request rejected", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

// Register maneja POST /api/auth/register
func (c *SessionController) Register(w http.ResponseWriter, r *http.Request) {
	log := c.log(r, "SessionController.Register")

	var req dto.RegisterRequest
	if appErr := readJSON(w, r, &req); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}
	if err := c.service.Register(r.Context(), req); err != nil {
		c.fail(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

// Login maneja POST /api/auth/login (paso 1: password).
func (c *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	log := c.log(r, "SessionController.Login")

	var req dto.LoginRequest
	if appErr := readJSON(w, r, &req); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}
	res, err := c.service.LoginStep1(r.Context(), req)
	if err != nil {
		c.fail(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// VerifyOtp maneja POST /api/auth/verify-otp (paso 2).
func (c *SessionController) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	log := c.log(r, "SessionController.VerifyOtp")

	var req dto.VerifyOTPRequest
	if appErr := readJSON(w, r, &req); appErr != nil {
		if !isInvalidJSON(appErr) {
			httperrors.WriteError(w, appErr)
			return
		}
		// body ilegible = challenge ausente; mismo 401 genérico
		req = dto.VerifyOTPRequest{}
	}
	res, err := c.service.VerifyOtp(r.Context(), req)
	if err != nil {
		c.fail(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Refresh maneja POST /api/auth/refresh
func (c *SessionController) Refresh(w http.ResponseWriter, r *http.Request) {
	log := c.log(r, "SessionController.Refresh")

	var req dto.RefreshRequest
	if appErr := readJSON(w, r, &req); appErr != nil {
		if !isInvalidJSON(appErr) {
			httperrors.WriteError(w, appErr)
			return
		}
		req = dto.RefreshRequest{}
	}
	res, err := c.service.Refresh(r.Context(), req)
	if err != nil {
		c.fail(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Logout maneja POST /api/auth/logout. Siempre responde {ok:true}: un token
// inválido o ya revocado no se distingue de uno revocado ahora.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	log := c.log(r, "SessionController.Logout")

	var req dto.RefreshRequest
	if appErr := readJSON(w, r, &req); appErr != nil {
		log.Debug("logout body ignored", logger.Err(appErr))
	} else if err := c.service.Logout(r.Context(), req); err != nil {
		log.Warn("logout revoke failed", logger.Err(err))
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}
