package jwt

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAccessToken(t *testing.T) {
	t.Parallel()

	// Arrange
	svc := NewJWTService("test-secret", "1h")

	// Act
	token, expiresAt, err := svc.GenerateAccessToken("ops@acme", "ACME Works", auth.RoleManager)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Positive(t, expiresAt)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops@acme", claims["sub"])
	assert.Equal(t, "ACME Works", claims["company"])
	assert.Equal(t, "manager", claims["role"])
	assert.Equal(t, "access", claims["type"])
}

func TestJWTService_InvalidExpiration(t *testing.T) {
	t.Parallel()

	svc := NewJWTService("test-secret", "soon")

	_, _, err := svc.GenerateAccessToken("ops", "", auth.RoleOwner)

	assert.Error(t, err)
}

func TestJWTService_RevokeToken(t *testing.T) {
	t.Parallel()

	svc := NewJWTService("test-secret", "1h")
	token, _, err := svc.GenerateAccessToken("ops", "", auth.RoleOwner)
	require.NoError(t, err)

	assert.False(t, svc.IsTokenRevoked(token))
	svc.RevokeToken(token)
	assert.True(t, svc.IsTokenRevoked(token))
}
