package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/response"
)

// RequirePermission must run after AuthRequired.
func RequirePermission(permission auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || !principal.Role.IsValid() {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
				return
			}

			if !principal.Can(permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but role is '%s'", permission, principal.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
