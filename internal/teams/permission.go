package teams

import "strings"

// HasPermission reports whether the granted permission set allows the
// requested permission. Grants match exactly, via the "*" / "*:*"
// superadmin escape hatch, or via a trailing-* prefix wildcard
// (e.g. "team:members:*" grants "team:members:create").
func HasPermission(granted []string, requested string) bool {
	for _, perm := range granted {
		if perm == requested {
			return true
		}

		// Superadmin: * grants access to everything
		if perm == "*" || perm == "*:*" {
			return true
		}

		// Wildcard support: team:members:*, team:members:create
		if strings.HasSuffix(perm, "*") {
			base := strings.TrimSuffix(perm, "*")
			if strings.HasPrefix(requested, base) {
				return true
			}
		}
	}

	return false
}

// RoleHasPermission reports whether the role grants the permission.
func RoleHasPermission(role *Role, permission string) bool {
	if role == nil {
		return false
	}
	return HasPermission(role.Permissions, permission)
}

// AnyRoleHasPermission reports whether any of the roles grants the
// permission.
func AnyRoleHasPermission(roles []*Role, permission string) bool {
	for _, role := range roles {
		if RoleHasPermission(role, permission) {
			return true
		}
	}
	return false
}

// MatchingPermissions returns the role's permissions that match the
// given pattern in either direction (pattern may be a wildcard, or the
// role permission may be one).
func MatchingPermissions(role *Role, pattern string) []string {
	var matching []string
	if role == nil {
		return matching
	}

	for _, permission := range role.Permissions {
		if HasPermission([]string{permission}, pattern) || HasPermission([]string{pattern}, permission) {
			matching = append(matching, permission)
		}
	}

	return matching
}
