package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func nursePrincipal() *Principal {
	return &Principal{
		UserID: "user-nurse",
		Direct: NewPermissionSet(),
		Roles: []PrincipalRole{
			{
				ID:          "role-nurse",
				Name:        "Nurse",
				Permissions: NewPermissionSet("patients.view", "appointments.view"),
			},
		},
	}
}

func TestHasPermission_DirectGrant(t *testing.T) {
	principal := &Principal{
		UserID: "u1",
		Direct: NewPermissionSet("users.edit"),
	}

	assert.True(t, HasPermission(principal, "users.edit"))
	assert.False(t, HasPermission(principal, "users.delete"))
}

func TestHasPermission_RoleGrant(t *testing.T) {
	principal := nursePrincipal()

	assert.True(t, HasPermission(principal, "patients.view"))
	assert.False(t, HasPermission(principal, "patients.edit"))
}

func TestHasPermission_WildcardSupremacy(t *testing.T) {
	direct := &Principal{UserID: "u1", Direct: NewPermissionSet(PermissionWildcard)}
	viaRole := &Principal{
		UserID: "u2",
		Roles:  []PrincipalRole{{ID: "r1", Name: "root", Permissions: NewPermissionSet(PermissionWildcard)}},
	}

	for _, perm := range []string{"users.edit", "audit.export", "anything.at_all"} {
		assert.True(t, HasPermission(direct, perm), "direct wildcard should grant %s", perm)
		assert.True(t, HasPermission(viaRole, perm), "role wildcard should grant %s", perm)
	}
}

func TestHasPermission_FullAccessRoleBypass(t *testing.T) {
	principal := &Principal{
		UserID: "u1",
		Roles: []PrincipalRole{
			{ID: "r1", Name: "super-admin", IsFullAccess: true, Permissions: NewPermissionSet()},
		},
	}

	assert.True(t, HasPermission(principal, "prescriptions.create"))
	assert.True(t, IsFullAccess(principal))
}

func TestHasPermission_NilPrincipalDenies(t *testing.T) {
	assert.False(t, HasPermission(nil, "users.view"))
	assert.False(t, HasAnyPermission(nil, "users.view", "users.edit"))
	assert.False(t, HasAllPermissions(nil, "users.view"))
}

func TestHasPermission_EmptyNameDenies(t *testing.T) {
	principal := &Principal{UserID: "u1", Direct: NewPermissionSet("users.view")}
	assert.False(t, HasPermission(principal, ""))
}

func TestNurseScenario_AnyVersusAll(t *testing.T) {
	nurse := nursePrincipal()
	required := []string{"patients.view", "appointments.create"}

	assert.True(t, HasAnyPermission(nurse, required...))
	assert.False(t, HasAllPermissions(nurse, required...))
	assert.True(t, HasAllPermissions(nurse, "patients.view", "appointments.view"))
}

func TestPermissionSet_Algebra(t *testing.T) {
	a := NewPermissionSet("a", "b")
	b := NewPermissionSet("b", "c")

	assert.ElementsMatch(t, []string{"a", "b", "c"}, a.Union(b).Names())
	assert.ElementsMatch(t, []string{"a"}, a.Subtract(b).Names())
	assert.ElementsMatch(t, []string{"a", "b"}, a.Names(), "union/subtract must not mutate receiver")
}
