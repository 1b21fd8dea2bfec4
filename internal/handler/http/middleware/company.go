package middleware

import "net/http"

// CanAccessCompany reports whether the caller's token covers company.
func CanAccessCompany(r *http.Request, company string) bool {
	principal, ok := PrincipalFromContext(r.Context())
	return ok && principal.CoversCompany(company)
}
