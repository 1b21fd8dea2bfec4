package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Current(t *testing.T) {
	t.Parallel()

	// Arrange
	srv := newTestServer()
	token := srv.token(t, "ACME Works", auth.RoleManager)

	// Act
	rec, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil), token)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "ops", data["subject"])
	assert.Equal(t, "ACME Works", data["company"])
	assert.Equal(t, "manager", data["role"])
	assert.ElementsMatch(t, []interface{}{"attendance.import", "attendance.view", "formats.view"}, data["permissions"])
}

func TestSession_LogoutRevokesToken(t *testing.T) {
	t.Parallel()

	// Arrange
	srv := newTestServer()
	token := srv.token(t, "", auth.RoleOwner)

	// Act
	rec, _ := srv.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/logout", nil), token)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.jwt.IsTokenRevoked(token))

	rec, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}
