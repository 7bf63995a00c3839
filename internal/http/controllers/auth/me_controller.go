package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/incidentauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/incidentauth/internal/http/errors"
	mw "github.com/dropDatabas3/incidentauth/internal/http/middlewares"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
)

// MeController handles GET /api/auth/me.
type MeController struct{}

func NewMeController() *MeController {
	return &MeController{}
}

// Me devuelve las claims del bearer token. Requiere RequireAuth antes.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := mw.GetClaims(ctx)
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	resp := dto.MeResponse{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Role:     claims.Role,
		TenantID: claims.TenantID,
		Scope:    claims.Scope,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}

	writeJSON(w, http.StatusOK, resp)
	logger.From(ctx).Debug("claims returned", logger.Layer("controller"), logger.UserID(claims.Subject))
}
