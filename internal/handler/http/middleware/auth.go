package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type principalKey struct{}

// AuthRequired rejects requests without a valid, unrevoked access token and stores the
// caller's Principal in the request context.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if jwtService.IsTokenRevoked(rawToken(r)) {
				response.HandleError(w, auth.ErrTokenRevoked)
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			role, _ := claims["role"].(string)
			company, _ := claims["company"].(string)
			principal := auth.Principal{
				Subject: token.Subject(),
				Company: company,
				Role:    auth.Role(role),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, principal)))
		}
		return http.HandlerFunc(hfn)
	}
}

// PrincipalFromContext returns the caller stored by AuthRequired.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

func rawToken(r *http.Request) string {
	if token := jwtauth.TokenFromHeader(r); token != "" {
		return token
	}
	return jwtauth.TokenFromQuery(r)
}
