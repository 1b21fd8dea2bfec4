package auth

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrPermissionDenied = errors.New("insufficient permissions")
	ErrCompanyMismatch  = errors.New("token is not valid for this company")
)
