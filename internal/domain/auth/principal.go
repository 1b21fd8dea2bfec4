package auth

import "strings"

// Principal is the caller identified by an access token.
type Principal struct {
	Subject string
	Company string // empty covers every company
	Role    Role
}

func (p Principal) Can(permission Permission) bool {
	return HasPermission(p.Role, permission)
}

// CoversCompany compares company names case-insensitively, ignoring surrounding blanks.
func (p Principal) CoversCompany(company string) bool {
	if strings.TrimSpace(p.Company) == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(p.Company), strings.TrimSpace(company))
}
