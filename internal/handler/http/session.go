package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type SessionHandler interface {
	Current(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type sessionHandlerImpl struct {
	jwtService jwt.Service
}

func NewSessionHandler(jwtService jwt.Service) SessionHandler {
	return &sessionHandlerImpl{jwtService: jwtService}
}

type sessionResponse struct {
	Subject     string            `json:"subject"`
	Company     string            `json:"company,omitempty"`
	Role        auth.Role         `json:"role"`
	Permissions []auth.Permission `json:"permissions"`
}

// Current implements SessionHandler.
func (h *sessionHandlerImpl) Current(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	permissions := auth.RolePermissions[principal.Role]
	if permissions == nil {
		permissions = []auth.Permission{}
	}
	response.Success(w, sessionResponse{
		Subject:     principal.Subject,
		Company:     principal.Company,
		Role:        principal.Role,
		Permissions: permissions,
	})
}

// Logout implements SessionHandler. The presented access token stops working immediately.
func (h *sessionHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	token := jwtauth.TokenFromHeader(r)
	if token == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}
	h.jwtService.RevokeToken(token)
	response.SuccessWithMessage(w, "Logged out", nil)
}
