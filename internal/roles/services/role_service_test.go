package services

import (
	"context"
	"testing"
	"time"

	auditmodels "medgate/internal/audit/models"
	registrymodels "medgate/internal/registry/models"
	"medgate/internal/roles/models"
	"medgate/pkg/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type grantKey struct {
	role       primitive.ObjectID
	permission primitive.ObjectID
}

type stubRepository struct {
	roles         map[primitive.ObjectID]*models.Role
	grants        map[grantKey]*models.RolePermission
	assignedUsers map[primitive.ObjectID]int64
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		roles:         make(map[primitive.ObjectID]*models.Role),
		grants:        make(map[grantKey]*models.RolePermission),
		assignedUsers: make(map[primitive.ObjectID]int64),
	}
}

func (s *stubRepository) addRole(role *models.Role) *models.Role {
	if role.ID.IsZero() {
		role.ID = primitive.NewObjectID()
	}
	if role.Type == "" {
		role.Type = models.RoleTypeCustom
	}
	if role.Status == "" {
		role.Status = models.RoleStatusActive
	}
	s.roles[role.ID] = role
	return role
}

func (s *stubRepository) addGrant(roleID, permissionID primitive.ObjectID, name string) {
	s.grants[grantKey{roleID, permissionID}] = &models.RolePermission{
		ID:             primitive.NewObjectID(),
		RoleID:         roleID,
		PermissionID:   permissionID,
		PermissionName: name,
		IsGranted:      true,
		GrantedAt:      time.Now().UTC(),
	}
}

func (s *stubRepository) InsertRole(ctx context.Context, role *models.Role) error {
	for _, existing := range s.roles {
		if existing.Name == role.Name && !existing.IsDeleted() {
			return authz.ErrDuplicateKey
		}
	}
	s.addRole(role)
	return nil
}

func (s *stubRepository) GetRole(ctx context.Context, id primitive.ObjectID) (*models.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, authz.ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (s *stubRepository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	for _, role := range s.roles {
		if role.Name == name && !role.IsDeleted() {
			copied := *role
			return &copied, nil
		}
	}
	return nil, authz.ErrNotFound
}

func (s *stubRepository) UpdateRole(ctx context.Context, role *models.Role) error {
	if _, ok := s.roles[role.ID]; !ok {
		return authz.ErrNotFound
	}
	copied := *role
	s.roles[role.ID] = &copied
	return nil
}

func (s *stubRepository) SoftDeleteRole(ctx context.Context, id primitive.ObjectID) error {
	role, ok := s.roles[id]
	if !ok || role.IsDeleted() {
		return authz.ErrNotFound
	}
	now := time.Now().UTC()
	role.DeletedAt = &now
	role.Status = models.RoleStatusInactive
	return nil
}

func (s *stubRepository) ListRoles(ctx context.Context, filter bson.M) ([]models.Role, error) {
	var out []models.Role
	for _, role := range s.roles {
		if role.IsDeleted() {
			continue
		}
		if roleType, ok := filter["type"].(string); ok && role.Type != roleType {
			continue
		}
		if status, ok := filter["status"].(string); ok && role.Status != status {
			continue
		}
		out = append(out, *role)
	}
	return out, nil
}

func (s *stubRepository) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Role, error) {
	var out []models.Role
	for _, role := range s.roles {
		if role.IsDeleted() || role.ParentID == nil {
			continue
		}
		if *role.ParentID == parentID {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (s *stubRepository) CountAssignedUsers(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	return s.assignedUsers[roleID], nil
}

func (s *stubRepository) GetGrant(ctx context.Context, roleID, permissionID primitive.ObjectID) (*models.RolePermission, error) {
	grant, ok := s.grants[grantKey{roleID, permissionID}]
	if !ok {
		return nil, authz.ErrNotFound
	}
	copied := *grant
	return &copied, nil
}

func (s *stubRepository) InsertGrant(ctx context.Context, grant *models.RolePermission) error {
	key := grantKey{grant.RoleID, grant.PermissionID}
	if _, ok := s.grants[key]; ok {
		return authz.ErrDuplicateKey
	}
	if grant.ID.IsZero() {
		grant.ID = primitive.NewObjectID()
	}
	if grant.GrantedAt.IsZero() {
		grant.GrantedAt = time.Now().UTC()
	}
	grant.IsGranted = true
	s.grants[key] = grant
	return nil
}

func (s *stubRepository) DeleteGrant(ctx context.Context, roleID, permissionID primitive.ObjectID) error {
	delete(s.grants, grantKey{roleID, permissionID})
	return nil
}

func (s *stubRepository) ListGrants(ctx context.Context, roleID primitive.ObjectID) ([]models.RolePermission, error) {
	var out []models.RolePermission
	for _, grant := range s.grants {
		if grant.RoleID == roleID {
			out = append(out, *grant)
		}
	}
	return out, nil
}

func (s *stubRepository) ListGrantsForRoles(ctx context.Context, roleIDs []primitive.ObjectID) ([]models.RolePermission, error) {
	wanted := make(map[primitive.ObjectID]bool, len(roleIDs))
	for _, id := range roleIDs {
		wanted[id] = true
	}
	var out []models.RolePermission
	for _, grant := range s.grants {
		if wanted[grant.RoleID] {
			out = append(out, *grant)
		}
	}
	return out, nil
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
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, authz.ErrNotFound
	}
	permission, ok := s.permissions[objectID]
	if !ok {
		return nil, authz.ErrNotFound
	}
	return permission, nil
}

func (s *stubLookup) ListByModule(ctx context.Context, module string) ([]registrymodels.Permission, error) {
	var out []registrymodels.Permission
	for _, permission := range s.permissions {
		if permission.Module == module {
			out = append(out, *permission)
		}
	}
	return out, nil
}

func (s *stubLookup) ListAll(ctx context.Context) ([]registrymodels.Permission, error) {
	var out []registrymodels.Permission
	for _, permission := range s.permissions {
		out = append(out, *permission)
	}
	return out, nil
}

type stubRecorder struct {
	entries []auditmodels.PermissionAuditLog
}

func (s *stubRecorder) Record(ctx context.Context, entry *auditmodels.PermissionAuditLog, actor authz.ActorContext) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func newTestService() (*RoleService, *stubRepository, *stubLookup, *stubRecorder) {
	repo := newStubRepository()
	lookup := newStubLookup()
	recorder := &stubRecorder{}
	service := NewRoleService(repo, lookup, recorder, nil, nil)
	return service, repo, lookup, recorder
}

func testActor() authz.ActorContext {
	return authz.ActorContext{UserID: "admin-1", UserName: "Admin", IP: "10.0.0.1"}
}

func TestGrantPermissionIdempotent(t *testing.T) {
	service, _, lookup, recorder := newTestService()
	role := &models.Role{Name: "nurse"}
	require.NoError(t, service.Create(context.Background(), role, testActor()))
	permission := lookup.add("patients.view", "patients")
	recorder.entries = nil

	changed, err := service.GrantPermission(context.Background(), role.ID.Hex(), permission.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, recorder.entries, 1)
	assert.Equal(t, auditmodels.ActionGrantPermission, recorder.entries[0].Action)

	// A second identical grant is a silent no-op.
	changed, err = service.GrantPermission(context.Background(), role.ID.Hex(), permission.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, recorder.entries, 1)

	set, err := service.EffectivePermissions(context.Background(), role.ID.Hex(), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"patients.view"}, set.Names())
}

func TestGrantSecurityPermissionEscalatesAction(t *testing.T) {
	service, _, lookup, recorder := newTestService()
	role := &models.Role{Name: "compliance-officer"}
	require.NoError(t, service.Create(context.Background(), role, testActor()))
	permission := lookup.add("audit.view", "audit")
	recorder.entries = nil

	_, err := service.GrantPermission(context.Background(), role.ID.Hex(), permission.ID.Hex(), testActor())
	require.NoError(t, err)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, auditmodels.ActionGrantSecurityPermission, recorder.entries[0].Action)
	assert.Equal(t, auditmodels.SeverityHigh, recorder.entries[0].Severity)
}

func TestRevokeAbsentGrantIsSilentNoOp(t *testing.T) {
	service, _, lookup, recorder := newTestService()
	role := &models.Role{Name: "nurse"}
	require.NoError(t, service.Create(context.Background(), role, testActor()))
	permission := lookup.add("patients.view", "patients")
	recorder.entries = nil

	changed, err := service.RevokePermission(context.Background(), role.ID.Hex(), permission.ID.Hex(), testActor())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, recorder.entries)
}

func TestDeleteRoleGuards(t *testing.T) {
	service, repo, _, _ := newTestService()
	system := repo.addRole(&models.Role{Name: "clinical-lead", Type: models.RoleTypeSystem})
	staffed := repo.addRole(&models.Role{Name: "receptionist"})
	repo.assignedUsers[staffed.ID] = 1

	assert.ErrorIs(t, service.Delete(context.Background(), system.ID.Hex(), testActor()), authz.ErrImmutable)
	assert.ErrorIs(t, service.Delete(context.Background(), staffed.ID.Hex(), testActor()), authz.ErrConflict)

	// After the last user is unassigned the delete goes through.
	repo.assignedUsers[staffed.ID] = 0
	assert.NoError(t, service.Delete(context.Background(), staffed.ID.Hex(), testActor()))
	_, err := service.GetByName(context.Background(), "receptionist")
	assert.ErrorIs(t, err, authz.ErrNotFound)
}

func TestUpdateProtectedRoleRefused(t *testing.T) {
	service, repo, _, _ := newTestService()
	protected := repo.addRole(&models.Role{
		Name:         authz.SuperAdminRoleName,
		Type:         models.RoleTypeSystem,
		IsFullAccess: true,
		IsProtected:  true,
	})
	system := repo.addRole(&models.Role{Name: "clinical-lead", Type: models.RoleTypeSystem, DisplayName: "Clinical Lead"})

	name := "renamed"
	_, err := service.Update(context.Background(), protected.ID.Hex(), UpdateRole{DisplayName: &name}, testActor())
	assert.ErrorIs(t, err, authz.ErrImmutable)

	custom := models.RoleTypeCustom
	_, err = service.Update(context.Background(), system.ID.Hex(), UpdateRole{Type: &custom}, testActor())
	assert.ErrorIs(t, err, authz.ErrImmutable)

	// Non-protected system roles still take ordinary edits.
	display := "Lead Clinician"
	updated, err := service.Update(context.Background(), system.ID.Hex(), UpdateRole{DisplayName: &display}, testActor())
	require.NoError(t, err)
	assert.Equal(t, display, updated.DisplayName)
}

func TestHierarchyTraversal(t *testing.T) {
	service, repo, _, _ := newTestService()
	root := repo.addRole(&models.Role{Name: "staff"})
	mid := repo.addRole(&models.Role{Name: "doctor", ParentID: &root.ID})
	leaf := repo.addRole(&models.Role{Name: "surgeon", ParentID: &mid.ID})

	ancestors, err := service.GetAncestors(context.Background(), leaf.ID.Hex())
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, "doctor", ancestors[0].Name)
	assert.Equal(t, "staff", ancestors[1].Name)

	descendants, err := service.GetDescendants(context.Background(), root.ID.Hex())
	require.NoError(t, err)
	names := make([]string, len(descendants))
	for i, descendant := range descendants {
		names[i] = descendant.Name
	}
	assert.ElementsMatch(t, []string{"doctor", "surgeon"}, names)
	assert.NotContains(t, names, "staff")
}

func TestHierarchyCycleFailsClosed(t *testing.T) {
	service, repo, _, _ := newTestService()
	a := repo.addRole(&models.Role{Name: "a"})
	b := repo.addRole(&models.Role{Name: "b", ParentID: &a.ID})
	a.ParentID = &b.ID // malformed data

	_, err := service.GetAncestors(context.Background(), a.ID.Hex())
	assert.ErrorIs(t, err, authz.ErrCycleDetected)

	_, err = service.GetDescendants(context.Background(), a.ID.Hex())
	assert.ErrorIs(t, err, authz.ErrCycleDetected)
}

func TestReparentUnderDescendantRefused(t *testing.T) {
	service, repo, _, _ := newTestService()
	parent := repo.addRole(&models.Role{Name: "staff"})
	child := repo.addRole(&models.Role{Name: "doctor", ParentID: &parent.ID})

	childHex := child.ID.Hex()
	_, err := service.Update(context.Background(), parent.ID.Hex(), UpdateRole{ParentID: &childHex}, testActor())
	assert.ErrorIs(t, err, authz.ErrCycleDetected)

	ownHex := parent.ID.Hex()
	_, err = service.Update(context.Background(), parent.ID.Hex(), UpdateRole{ParentID: &ownHex}, testActor())
	assert.ErrorIs(t, err, authz.ErrCycleDetected)
}

func TestEffectivePermissionsIncludeAncestors(t *testing.T) {
	service, repo, lookup, _ := newTestService()
	parent := repo.addRole(&models.Role{Name: "staff"})
	child := repo.addRole(&models.Role{Name: "doctor", ParentID: &parent.ID})
	base := lookup.add("patients.view", "patients")
	extra := lookup.add("prescriptions.create", "prescriptions")
	repo.addGrant(parent.ID, base.ID, base.Name)
	repo.addGrant(child.ID, extra.ID, extra.Name)

	own, err := service.EffectivePermissions(context.Background(), child.ID.Hex(), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prescriptions.create"}, own.Names())

	effective, err := service.EffectivePermissions(context.Background(), child.ID.Hex(), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"patients.view", "prescriptions.create"}, effective.Names())
}

func TestDuplicateCopiesOwnGrantsOnly(t *testing.T) {
	service, repo, lookup, recorder := newTestService()
	parent := repo.addRole(&models.Role{Name: "staff"})
	source := repo.addRole(&models.Role{
		Name:         "head-doctor",
		DisplayName:  "Head Doctor",
		Type:         models.RoleTypeSystem,
		IsFullAccess: true,
		ParentID:     &parent.ID,
	})
	inherited := lookup.add("patients.view", "patients")
	own := lookup.add("prescriptions.create", "prescriptions")
	repo.addGrant(parent.ID, inherited.ID, inherited.Name)
	repo.addGrant(source.ID, own.ID, own.Name)
	repo.assignedUsers[source.ID] = 4
	recorder.entries = nil

	copied, err := service.Duplicate(context.Background(), source.ID.Hex(), testActor())
	require.NoError(t, err)

	assert.Equal(t, "head-doctor (Copy)", copied.Name)
	assert.Equal(t, models.RoleTypeCustom, copied.Type)
	assert.Equal(t, models.RoleStatusActive, copied.Status)
	assert.False(t, copied.IsFullAccess)
	assert.False(t, copied.IsProtected)

	set, err := service.EffectivePermissions(context.Background(), copied.ID.Hex(), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prescriptions.create"}, set.Names())

	users, err := repo.CountAssignedUsers(context.Background(), copied.ID)
	require.NoError(t, err)
	assert.Zero(t, users)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, auditmodels.ActionDuplicateRole, recorder.entries[0].Action)
}

func TestSeedSystemRoles(t *testing.T) {
	service, _, _, recorder := newTestService()

	require.NoError(t, service.SeedSystemRoles(context.Background()))
	superAdmin, err := service.GetByName(context.Background(), authz.SuperAdminRoleName)
	require.NoError(t, err)
	assert.True(t, superAdmin.IsFullAccess)
	assert.True(t, superAdmin.IsProtected)
	assert.False(t, superAdmin.CanBeModified())

	admin, err := service.GetByName(context.Background(), authz.AdminRoleName)
	require.NoError(t, err)
	assert.True(t, admin.IsFullAccess)
	assert.False(t, admin.IsProtected)

	seedEntries := len(recorder.entries)
	require.NoError(t, service.SeedSystemRoles(context.Background()))
	assert.Len(t, recorder.entries, seedEntries)

	var actions []string
	for _, entry := range recorder.entries {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, auditmodels.ActionCreateSuperAdmin)
}
