package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_CoversCompany(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		principal Principal
		company   string
		want      bool
	}{
		{"unscoped token", Principal{Role: RoleOwner}, "Any Co", true},
		{"same company", Principal{Company: "ACME Works"}, "ACME Works", true},
		{"case and blanks ignored", Principal{Company: " acme works"}, "ACME WORKS ", true},
		{"other company", Principal{Company: "ACME Works"}, "Globex", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.principal.CoversCompany(tt.company))
		})
	}
}

func TestPrincipal_Can(t *testing.T) {
	t.Parallel()

	assert.True(t, Principal{Role: RoleOwner}.Can(PermissionAttendanceCancel))
	assert.False(t, Principal{Role: RoleManager}.Can(PermissionAttendanceCancel))
	assert.False(t, Principal{}.Can(PermissionFormatsView))
}
