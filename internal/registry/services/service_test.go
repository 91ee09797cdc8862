package services

import (
	"context"
	"testing"

	"medgate/internal/registry/models"
	"medgate/pkg/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubRepository struct {
	permissions    map[primitive.ObjectID]*models.Permission
	roleReferences map[primitive.ObjectID]int64
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		permissions:    make(map[primitive.ObjectID]*models.Permission),
		roleReferences: make(map[primitive.ObjectID]int64),
	}
}

func (s *stubRepository) add(permission *models.Permission) *models.Permission {
	if permission.ID.IsZero() {
		permission.ID = primitive.NewObjectID()
	}
	if permission.Guard == "" {
		permission.Guard = models.DefaultGuard
	}
	s.permissions[permission.ID] = permission
	return permission
}

func (s *stubRepository) Insert(ctx context.Context, permission *models.Permission) error {
	if exists, _ := s.KeyExists(ctx, permission.Name, permission.Guard, primitive.NilObjectID); exists {
		return authz.ErrDuplicateKey
	}
	s.add(permission)
	return nil
}

func (s *stubRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Permission, error) {
	permission, ok := s.permissions[id]
	if !ok {
		return nil, authz.ErrNotFound
	}
	copied := *permission
	return &copied, nil
}

func (s *stubRepository) GetByName(ctx context.Context, name, guard string) (*models.Permission, error) {
	for _, permission := range s.permissions {
		if permission.Name == name && permission.Guard == guard && !permission.IsDeleted() {
			copied := *permission
			return &copied, nil
		}
	}
	return nil, authz.ErrNotFound
}

func (s *stubRepository) Update(ctx context.Context, permission *models.Permission) error {
	if _, ok := s.permissions[permission.ID]; !ok {
		return authz.ErrNotFound
	}
	copied := *permission
	s.permissions[permission.ID] = &copied
	return nil
}

func (s *stubRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	permission, ok := s.permissions[id]
	if !ok || permission.IsDeleted() {
		return authz.ErrNotFound
	}
	now := permission.UpdatedAt
	permission.DeletedAt = &now
	permission.IsActive = false
	return nil
}

func (s *stubRepository) List(ctx context.Context, filter bson.M) ([]models.Permission, error) {
	var out []models.Permission
	for _, permission := range s.permissions {
		if permission.IsDeleted() || !permission.IsActive {
			continue
		}
		if module, ok := filter["module"].(string); ok && permission.Module != module {
			continue
		}
		if action, ok := filter["action"].(string); ok && permission.Action != action {
			continue
		}
		out = append(out, *permission)
	}
	return out, nil
}

func (s *stubRepository) ExistingKeys(ctx context.Context, guard string) (map[string]bool, error) {
	keys := make(map[string]bool)
	for _, permission := range s.permissions {
		if permission.Guard == guard && !permission.IsDeleted() {
			keys[permission.Name] = true
		}
	}
	return keys, nil
}

func (s *stubRepository) KeyExists(ctx context.Context, name, guard string, excludeID primitive.ObjectID) (bool, error) {
	for _, permission := range s.permissions {
		if permission.ID == excludeID || permission.IsDeleted() {
			continue
		}
		if permission.Name == name && permission.Guard == guard {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepository) CountRoleReferences(ctx context.Context, permissionID primitive.ObjectID) (int64, error) {
	return s.roleReferences[permissionID], nil
}

func TestRegisterDerivesKeyAndDefaults(t *testing.T) {
	repo := newStubRepository()
	service := NewService(repo, nil)

	permission := &models.Permission{DisplayName: "Approve Lab Results", Module: "lab", IsActive: true}
	require.NoError(t, service.Register(context.Background(), permission))

	assert.Equal(t, "lab.approve_lab_results", permission.Name)
	assert.Equal(t, models.DefaultGuard, permission.Guard)
	assert.Equal(t, "lab", permission.Module)
}

func TestRegisterDuplicateKey(t *testing.T) {
	repo := newStubRepository()
	repo.add(&models.Permission{Name: "users.edit", IsActive: true})
	service := NewService(repo, nil)

	err := service.Register(context.Background(), &models.Permission{Name: "users.edit", Module: "users", Action: "edit"})
	assert.ErrorIs(t, err, authz.ErrDuplicateKey)
}

func TestGenerateKeySuffixesOnCollision(t *testing.T) {
	repo := newStubRepository()
	repo.add(&models.Permission{Name: "users.edit", IsActive: true})
	repo.add(&models.Permission{Name: "users.edit_2", IsActive: true})
	service := NewService(repo, nil)

	key, err := service.GenerateKey(context.Background(), "Edit", "Users")
	require.NoError(t, err)
	assert.Equal(t, "users.edit_3", key)

	// Deterministic for the same registry state.
	again, err := service.GenerateKey(context.Background(), "Edit", "Users")
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestValidateKeyExcludesOwnID(t *testing.T) {
	repo := newStubRepository()
	existing := repo.add(&models.Permission{Name: "users.edit", IsActive: true})
	service := NewService(repo, nil)

	assert.NoError(t, service.ValidateKey(context.Background(), "users.edit", existing.ID.Hex()))
	assert.ErrorIs(t, service.ValidateKey(context.Background(), "users.edit", ""), authz.ErrDuplicateKey)
	assert.NoError(t, service.ValidateKey(context.Background(), "users.archive", ""))
}

func TestUpdateSystemPermissionRestrictions(t *testing.T) {
	repo := newStubRepository()
	system := repo.add(&models.Permission{Name: "users.edit", IsSystem: true, IsActive: true, DisplayName: "Edit Users"})
	service := NewService(repo, nil)

	newName := "users.modify"
	_, err := service.Update(context.Background(), system.ID.Hex(), UpdatePermission{Name: &newName})
	assert.ErrorIs(t, err, authz.ErrImmutable)

	description := "Modify any user account"
	updated, err := service.Update(context.Background(), system.ID.Hex(), UpdatePermission{Description: &description})
	require.NoError(t, err)
	assert.Equal(t, description, updated.Description)
	assert.Equal(t, "users.edit", updated.Name)
}

func TestSoftDeleteGuards(t *testing.T) {
	repo := newStubRepository()
	system := repo.add(&models.Permission{Name: "users.edit", IsSystem: true, IsActive: true})
	referenced := repo.add(&models.Permission{Name: "lab.approve", IsActive: true})
	free := repo.add(&models.Permission{Name: "lab.archive", IsActive: true})
	repo.roleReferences[referenced.ID] = 2
	service := NewService(repo, nil)

	assert.ErrorIs(t, service.SoftDelete(context.Background(), system.ID.Hex()), authz.ErrImmutable)
	assert.ErrorIs(t, service.SoftDelete(context.Background(), referenced.ID.Hex()), authz.ErrConflict)
	assert.NoError(t, service.SoftDelete(context.Background(), free.ID.Hex()))

	_, err := service.GetByName(context.Background(), "lab.archive")
	assert.ErrorIs(t, err, authz.ErrNotFound)
}

func TestSeedSystemPermissionsIsIdempotent(t *testing.T) {
	repo := newStubRepository()
	service := NewService(repo, nil)

	require.NoError(t, service.SeedSystemPermissions(context.Background()))
	first := len(repo.permissions)
	assert.Equal(t, len(authz.SystemPermissions), first)

	require.NoError(t, service.SeedSystemPermissions(context.Background()))
	assert.Equal(t, first, len(repo.permissions))

	seeded, err := service.GetByName(context.Background(), "audit.view")
	require.NoError(t, err)
	assert.True(t, seeded.IsSystem)
	assert.True(t, seeded.IsActive)
}
