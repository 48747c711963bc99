package auth

import "github.com/gridwatch/toc-portal/internal/domain"

// Capability checks over the role hierarchy. The full viewer < editor < admin
// hierarchy is enforced; there is no shortcut that grants every authenticated
// caller elevated access.

// CanView reports whether the caller may read incidents and fleet data.
func CanView(c domain.Caller) bool {
	return c.Role.HasPermission(domain.RoleViewer)
}

// CanEdit reports whether the caller may create and mutate incidents.
func CanEdit(c domain.Caller) bool {
	return c.Role.HasPermission(domain.RoleEditor)
}

// CanAdminister reports whether the caller holds the admin role.
func CanAdminister(c domain.Caller) bool {
	return c.Role.HasPermission(domain.RoleAdmin)
}
