package domain

// Role is the permission level carried by a verified credential.
type Role string

// Roles, lowest first. Each role supersedes the capabilities of the one below.
const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// roleLevels orders roles for hierarchy comparison.
var roleLevels = map[Role]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// HasPermission reports whether the role satisfies the minimum required role.
// Unknown roles satisfy nothing.
func (r Role) HasPermission(min Role) bool {
	level, ok := roleLevels[r]
	if !ok {
		return false
	}
	return level >= roleLevels[min]
}

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Caller is the per-request identity derived from a verified credential.
// It is never persisted.
type Caller struct {
	UserID string
	Role   Role
}
