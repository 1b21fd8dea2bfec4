package auth

import "slices"

// Role of the operator calling the API, carried in the access token.
type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Uploads exports and follows imports
	RoleEmployee Role = "employee" // Read-only
)

func (r Role) IsValid() bool {
	_, ok := RolePermissions[r]
	return ok
}

type Permission string

const (
	PermissionAttendanceImport Permission = "attendance.import"
	PermissionAttendanceView   Permission = "attendance.view"
	PermissionAttendanceCancel Permission = "attendance.cancel"
	PermissionFormatsView      Permission = "formats.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionAttendanceImport,
		PermissionAttendanceView,
		PermissionAttendanceCancel,
		PermissionFormatsView,
	},
	RoleManager: {
		PermissionAttendanceImport,
		PermissionAttendanceView,
		PermissionFormatsView,
	},
	RoleEmployee: {
		PermissionFormatsView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}
