package authz

// HasPermission decides allow/deny for a single required permission.
// Decision order: direct grant, role grant (including wildcard), full-access
// role. A nil or empty principal always denies; an unknown permission name is
// simply a deny, never an error.
func HasPermission(principal *Principal, permission string) bool {
	if principal == nil || permission == "" {
		return false
	}

	if principal.Direct.Has(permission) || principal.Direct.HasWildcard() {
		return true
	}

	for _, role := range principal.Roles {
		if role.Permissions.Has(permission) || role.Permissions.HasWildcard() {
			return true
		}
	}

	for _, role := range principal.Roles {
		if role.IsFullAccess {
			return true
		}
	}

	return false
}

// HasAnyPermission allows iff at least one of the required permissions is held.
func HasAnyPermission(principal *Principal, permissions ...string) bool {
	for _, permission := range permissions {
		if HasPermission(principal, permission) {
			return true
		}
	}
	return false
}

// HasAllPermissions allows iff every required permission is held. An empty
// requirement list allows.
func HasAllPermissions(principal *Principal, permissions ...string) bool {
	if principal == nil {
		return false
	}
	for _, permission := range permissions {
		if !HasPermission(principal, permission) {
			return false
		}
	}
	return true
}

// IsFullAccess reports whether the principal holds a full-access role or a
// wildcard grant.
func IsFullAccess(principal *Principal) bool {
	return HasPermission(principal, PermissionWildcard)
}
