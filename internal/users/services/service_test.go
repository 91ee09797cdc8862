package services

import (
	"context"
	"testing"

	auditmodels "medgate/internal/audit/models"
	registrymodels "medgate/internal/registry/models"
	rolesmodels "medgate/internal/roles/models"
	"medgate/internal/users/models"
	"medgate/pkg/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type assignmentKey struct {
	user string
	role primitive.ObjectID
}

type grantKey struct {
	user       string
	permission primitive.ObjectID
}

type stubRepository struct {
	users       map[string]*models.User
	assignments map[assignmentKey]*models.UserRole
	grants      map[grantKey]*models.UserPermission
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		users:       make(map[string]*models.User),
		assignments: make(map[assignmentKey]*models.UserRole),
		grants:      make(map[grantKey]*models.UserPermission),
	}
}

func (s *stubRepository) addUser(userID string) *models.User {
	user := &models.User{ID: primitive.NewObjectID(), UserID: userID, Status: models.UserStatusActive}
	s.users[userID] = user
	return user
}

func (s *stubRepository) UpsertUser(ctx context.Context, user *models.User) error {
	if existing, ok := s.users[user.UserID]; ok {
		existing.Email = user.Email
		existing.DisplayName = user.DisplayName
		return nil
	}
	user.Status = models.UserStatusActive
	s.users[user.UserID] = user
	return nil
}

func (s *stubRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, authz.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubRepository) SetUserStatus(ctx context.Context, userID, status string) error {
	user, ok := s.users[userID]
	if !ok {
		return authz.ErrNotFound
	}
	user.Status = status
	return nil
}

func (s *stubRepository) ListUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	var out []models.User
	for _, user := range s.users {
		out = append(out, *user)
	}
	return out, nil
}

func (s *stubRepository) GetAssignment(ctx context.Context, userID string, roleID primitive.ObjectID) (*models.UserRole, error) {
	assignment, ok := s.assignments[assignmentKey{userID, roleID}]
	if !ok {
		return nil, authz.ErrNotFound
	}
	return assignment, nil
}

func (s *stubRepository) InsertAssignment(ctx context.Context, assignment *models.UserRole) error {
	key := assignmentKey{assignment.UserID, assignment.RoleID}
	if _, ok := s.assignments[key]; ok {
		return authz.ErrDuplicateKey
	}
	s.assignments[key] = assignment
	return nil
}

func (s *stubRepository) DeleteAssignment(ctx context.Context, userID string, roleID primitive.ObjectID) error {
	delete(s.assignments, assignmentKey{userID, roleID})
	return nil
}

func (s *stubRepository) ListAssignments(ctx context.Context, userID string) ([]models.UserRole, error) {
	var out []models.UserRole
	for _, assignment := range s.assignments {
		if assignment.UserID == userID {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

func (s *stubRepository) CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	var count int64
	for _, assignment := range s.assignments {
		if assignment.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (s *stubRepository) GetDirectGrant(ctx context.Context, userID string, permissionID primitive.ObjectID) (*models.UserPermission, error) {
	grant, ok := s.grants[grantKey{userID, permissionID}]
	if !ok {
		return nil, authz.ErrNotFound
	}
	return grant, nil
}

func (s *stubRepository) InsertDirectGrant(ctx context.Context, grant *models.UserPermission) error {
	key := grantKey{grant.UserID, grant.PermissionID}
	if _, ok := s.grants[key]; ok {
		return authz.ErrDuplicateKey
	}
	s.grants[key] = grant
	return nil
}

func (s *stubRepository) DeleteDirectGrant(ctx context.Context, userID string, permissionID primitive.ObjectID) error {
	delete(s.grants, grantKey{userID, permissionID})
	return nil
}

func (s *stubRepository) ListDirectGrants(ctx context.Context, userID string) ([]models.UserPermission, error) {
	var out []models.UserPermission
	for _, grant := range s.grants {
		if grant.UserID == userID {
			out = append(out, *grant)
		}
	}
	return out, nil
}

type stubRoles struct {
	roles map[primitive.ObjectID]*rolesmodels.Role
	sets  map[primitive.ObjectID]authz.PermissionSet
}

func newStubRoles() *stubRoles {
	return &stubRoles{
		roles: make(map[primitive.ObjectID]*rolesmodels.Role),
		sets:  make(map[primitive.ObjectID]authz.PermissionSet),
	}
}

func (s *stubRoles) add(name string, permissions ...string) *rolesmodels.Role {
	role := &rolesmodels.Role{
		ID:     primitive.NewObjectID(),
		Name:   name,
		Type:   rolesmodels.RoleTypeCustom,
		Status: rolesmodels.RoleStatusActive,
	}
	s.roles[role.ID] = role
	s.sets[role.ID] = authz.NewPermissionSet(permissions...)
	return role
}

func (s *stubRoles) Get(ctx context.Context, id string) (*rolesmodels.Role, error) {
	roleID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, authz.ErrNotFound
	}
	role, ok := s.roles[roleID]
	if !ok {
		return nil, authz.ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (s *stubRoles) EffectivePermissions(ctx context.Context, id string, includeInherited bool) (authz.PermissionSet, error) {
	roleID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, authz.ErrNotFound
	}
	return s.sets[roleID], nil
}

type stubLookup struct {
	permissions map[primitive.ObjectID]*registrymodels.Permission
}

func newStubLookup() *stubLookup {
	return &stubLookup{permissions: make(map[primitive.ObjectID]*registrymodels.Permission)}
}

func (s *stubLookup) add(name, module string) *registrymodels.Permission {
	permission := &registrymodels.Permission{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Module:   module,
		IsActive: true,
	}
	s.permissions[permission.ID] = permission
	return permission
}

func (s *stubLookup) Get(ctx context.Context, id string) (*registrymodels.Permission, error) {
	permissionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, authz.ErrNotFound
	}
	permission, ok := s.permissions[permissionID]
	if !ok {
		return nil, authz.ErrNotFound
	}
	copied := *permission
	return &copied, nil
}

type stubRecorder struct {
	entries []auditmodels.PermissionAuditLog
}

func (s *stubRecorder) Record(ctx context.Context, entry *auditmodels.PermissionAuditLog, actor authz.ActorContext) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func newTestService() (*Service, *stubRepository, *stubRoles, *stubLookup, *stubRecorder) {
	repo := newStubRepository()
	roles := newStubRoles()
	lookup := newStubLookup()
	recorder := &stubRecorder{}
	service := NewService(repo, roles, lookup, recorder, nil, nil)
	return service, repo, roles, lookup, recorder
}

func testActor() authz.ActorContext {
	return authz.ActorContext{UserID: "admin-1", UserName: "Admin"}
}

func TestAssignRoleIdempotent(t *testing.T) {
	service, repo, roles, _, recorder := newTestService()
	repo.addUser("user-1")
	role := roles.add("nurse", "patients.view")

	changed, err := service.AssignRole(context.Background(), "user-1", role.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, auditmodels.ActionAssignRole, recorder.entries[0].Action)

	// Assigning again is a silent no-op: no extra audit entry.
	changed, err = service.AssignRole(context.Background(), "user-1", role.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, recorder.entries, 1)
}

func TestAssignFullAccessRoleEscalates(t *testing.T) {
	service, repo, roles, _, recorder := newTestService()
	repo.addUser("user-1")
	role := roles.add("admin")
	role.IsFullAccess = true

	changed, err := service.AssignRole(context.Background(), "user-1", role.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, auditmodels.ActionGrantAdminAccess, recorder.entries[0].Action)
	assert.Equal(t, auditmodels.SeverityHigh, recorder.entries[0].Severity)
}

func TestUnassignRoleFreesDeleteGuard(t *testing.T) {
	service, repo, roles, _, recorder := newTestService()
	repo.addUser("user-1")
	role := roles.add("on-call")

	_, err := service.AssignRole(context.Background(), "user-1", role.ID.Hex(), testActor())
	require.NoError(t, err)
	count, err := service.CountByRole(context.Background(), role.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	changed, err := service.UnassignRole(context.Background(), "user-1", role.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, recorder.entries, 2)
	assert.Equal(t, auditmodels.ActionUnassignRole, recorder.entries[1].Action)

	// The role is now unreferenced and its deletion guard clears.
	count, err = service.CountByRole(context.Background(), role.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, count)

	// Removing an absent assignment is a silent no-op.
	changed, err = service.UnassignRole(context.Background(), "user-1", role.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, recorder.entries, 2)
}

func TestDirectSecurityGrantEscalates(t *testing.T) {
	service, repo, _, lookup, recorder := newTestService()
	repo.addUser("user-1")
	clinical := lookup.add("patients.view", "patients")
	security := lookup.add("audit.view", "audit")

	changed, err := service.GrantDirectPermission(context.Background(), "user-1", clinical.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, auditmodels.ActionGrantDirectPermission, recorder.entries[0].Action)

	changed, err = service.GrantDirectPermission(context.Background(), "user-1", security.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, auditmodels.ActionGrantSecurityPermission, recorder.entries[1].Action)
	assert.Equal(t, auditmodels.SeverityHigh, recorder.entries[1].Severity)

	// Revoking an absent grant is a silent no-op.
	changed, err = service.RevokeDirectPermission(context.Background(), "user-2", clinical.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, recorder.entries, 2)
}

func TestLoadPrincipalComposition(t *testing.T) {
	service, repo, roles, lookup, _ := newTestService()
	repo.addUser("nurse-1")
	nurse := roles.add("nurse", "patients.view", "appointments.view")
	inactive := roles.add("archived")
	inactive.Status = rolesmodels.RoleStatusInactive
	direct := lookup.add("prescriptions.view", "prescriptions")

	_, err := service.AssignRole(context.Background(), "nurse-1", nurse.ID.Hex(), testActor())
	require.NoError(t, err)
	_, err = service.AssignRole(context.Background(), "nurse-1", inactive.ID.Hex(), testActor())
	require.NoError(t, err)
	_, err = service.GrantDirectPermission(context.Background(), "nurse-1", direct.ID.Hex(), testActor())
	require.NoError(t, err)

	principal, err := service.LoadPrincipal(context.Background(), "nurse-1")
	require.NoError(t, err)

	assert.True(t, principal.Direct.Has("prescriptions.view"))
	require.Len(t, principal.Roles, 1, "inactive roles confer nothing")
	assert.Equal(t, "nurse", principal.Roles[0].Name)
	assert.True(t, authz.HasPermission(principal, "patients.view"))
	assert.True(t, authz.HasPermission(principal, "prescriptions.view"))
	assert.False(t, authz.HasPermission(principal, "patients.edit"))
}

func TestLoadPrincipalUnknownUserDenies(t *testing.T) {
	service, _, _, _, _ := newTestService()

	principal, err := service.LoadPrincipal(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, authz.HasPermission(principal, "patients.view"))
	assert.Empty(t, principal.Roles)
}

func TestEffectivePermissionsWildcardForFullAccess(t *testing.T) {
	service, repo, roles, _, _ := newTestService()
	repo.addUser("user-1")
	role := roles.add("admin")
	role.IsFullAccess = true

	_, err := service.AssignRole(context.Background(), "user-1", role.ID.Hex(), testActor())
	require.NoError(t, err)

	set, err := service.EffectivePermissions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, set.HasWildcard())
}

func TestSetGrantedPermissionsDiffs(t *testing.T) {
	service, repo, _, lookup, recorder := newTestService()
	repo.addUser("user-1")
	a := lookup.add("patients.view", "patients")
	b := lookup.add("patients.edit", "patients")
	c := lookup.add("appointments.view", "appointments")

	_, err := service.GrantDirectPermission(context.Background(), "user-1", a.ID.Hex(), testActor())
	require.NoError(t, err)
	_, err = service.GrantDirectPermission(context.Background(), "user-1", b.ID.Hex(), testActor())
	require.NoError(t, err)
	recorded := len(recorder.entries)

	err = service.SetGrantedPermissions(context.Background(), "user-1", []primitive.ObjectID{b.ID, c.ID}, "admin-1")
	require.NoError(t, err)

	ids, err := service.GrantedPermissionIDs(context.Background(), "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []primitive.ObjectID{b.ID, c.ID}, ids)

	// Bulk application leaves auditing to its caller.
	assert.Len(t, recorder.entries, recorded)
}
