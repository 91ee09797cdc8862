package authz

import "sort"

// PermissionWildcard grants universal access when present in any permission set.
const PermissionWildcard = "*"

// PermissionSet is a deduplicated set of permission names.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from the given permission names.
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// Add inserts a permission name into the set.
func (s PermissionSet) Add(name string) {
	if name != "" {
		s[name] = struct{}{}
	}
}

// Has reports whether the set contains the exact permission name.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasWildcard reports whether the set contains the wildcard permission.
func (s PermissionSet) HasWildcard() bool {
	return s.Has(PermissionWildcard)
}

// Names returns the sorted permission names in the set.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Union returns a new set containing the members of both sets.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	result := make(PermissionSet, len(s)+len(other))
	for name := range s {
		result[name] = struct{}{}
	}
	for name := range other {
		result[name] = struct{}{}
	}
	return result
}

// Subtract returns a new set containing members of s not present in other.
func (s PermissionSet) Subtract(other PermissionSet) PermissionSet {
	result := make(PermissionSet, len(s))
	for name := range s {
		if _, ok := other[name]; !ok {
			result[name] = struct{}{}
		}
	}
	return result
}

// PrincipalRole is a role assignment carried by a principal, with the role's
// effective permission set already resolved.
type PrincipalRole struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	IsFullAccess bool          `json:"is_full_access"`
	Permissions  PermissionSet `json:"permissions"`
}

// Principal is the authenticated actor being evaluated for authorization,
// with its direct permissions and role associations loaded up front. The
// evaluator never touches storage.
type Principal struct {
	UserID string          `json:"user_id"`
	Direct PermissionSet   `json:"direct"`
	Roles  []PrincipalRole `json:"roles"`
}
