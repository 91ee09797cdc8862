package services

import (
	"context"
	"testing"

	auditmodels "medgate/internal/audit/models"
	"medgate/internal/templates/models"
	"medgate/pkg/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubRepository struct {
	templates map[primitive.ObjectID]*models.PermissionTemplate
}

func newStubRepository() *stubRepository {
	return &stubRepository{templates: make(map[primitive.ObjectID]*models.PermissionTemplate)}
}

func (s *stubRepository) add(template *models.PermissionTemplate) *models.PermissionTemplate {
	if template.ID.IsZero() {
		template.ID = primitive.NewObjectID()
	}
	s.templates[template.ID] = template
	return template
}

func (s *stubRepository) Insert(ctx context.Context, template *models.PermissionTemplate) error {
	for _, existing := range s.templates {
		if existing.Name == template.Name && !existing.IsDeleted() {
			return authz.ErrDuplicateKey
		}
	}
	s.add(template)
	return nil
}

func (s *stubRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PermissionTemplate, error) {
	template, ok := s.templates[id]
	if !ok {
		return nil, authz.ErrNotFound
	}
	copied := *template
	return &copied, nil
}

func (s *stubRepository) GetByName(ctx context.Context, name string) (*models.PermissionTemplate, error) {
	for _, template := range s.templates {
		if template.Name == name && !template.IsDeleted() {
			copied := *template
			return &copied, nil
		}
	}
	return nil, authz.ErrNotFound
}

func (s *stubRepository) Update(ctx context.Context, template *models.PermissionTemplate) error {
	if _, ok := s.templates[template.ID]; !ok {
		return authz.ErrNotFound
	}
	copied := *template
	s.templates[template.ID] = &copied
	return nil
}

func (s *stubRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	template, ok := s.templates[id]
	if !ok || template.IsDeleted() {
		return authz.ErrNotFound
	}
	now := template.UpdatedAt
	template.DeletedAt = &now
	template.IsActive = false
	return nil
}

func (s *stubRepository) List(ctx context.Context, category string) ([]models.PermissionTemplate, error) {
	var out []models.PermissionTemplate
	for _, template := range s.templates {
		if template.IsDeleted() || !template.IsActive {
			continue
		}
		if category != "" && template.Category != category {
			continue
		}
		out = append(out, *template)
	}
	return out, nil
}

func (s *stubRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	template, ok := s.templates[id]
	if !ok {
		return authz.ErrNotFound
	}
	template.UsageCount++
	return nil
}

type stubTarget struct {
	grants map[string][]primitive.ObjectID
	errors map[string]error
}

func newStubTarget() *stubTarget {
	return &stubTarget{
		grants: make(map[string][]primitive.ObjectID),
		errors: make(map[string]error),
	}
}

func (s *stubTarget) GrantedPermissionIDs(ctx context.Context, targetID string) ([]primitive.ObjectID, error) {
	if err := s.errors[targetID]; err != nil {
		return nil, err
	}
	return s.grants[targetID], nil
}

func (s *stubTarget) SetGrantedPermissions(ctx context.Context, targetID string, permissionIDs []primitive.ObjectID, grantedBy string) error {
	if err := s.errors[targetID]; err != nil {
		return err
	}
	s.grants[targetID] = permissionIDs
	return nil
}

type stubRecorder struct {
	entries []auditmodels.PermissionAuditLog
}

func (s *stubRecorder) Record(ctx context.Context, entry *auditmodels.PermissionAuditLog, actor authz.ActorContext) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func newTestService() (*Service, *stubRepository, *stubTarget, *stubTarget, *stubRecorder) {
	repo := newStubRepository()
	roles := newStubTarget()
	users := newStubTarget()
	recorder := &stubRecorder{}
	service := NewService(repo, roles, users, recorder, nil)
	return service, repo, roles, users, recorder
}

func testActor() authz.ActorContext {
	return authz.ActorContext{UserID: "admin-1", UserName: "Admin"}
}

func ids(n int) []primitive.ObjectID {
	out := make([]primitive.ObjectID, n)
	for i := range out {
		out[i] = primitive.NewObjectID()
	}
	return out
}

func TestApplyModeSemantics(t *testing.T) {
	// Role holds {A, B}; template carries {B, C}.
	perms := ids(3)
	a, b, c := perms[0], perms[1], perms[2]

	cases := []struct {
		mode string
		want []primitive.ObjectID
	}{
		{models.ModeReplace, []primitive.ObjectID{b, c}},
		{models.ModeAdd, []primitive.ObjectID{a, b, c}},
		{models.ModeRemove, []primitive.ObjectID{a}},
	}
	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			service, repo, roles, _, _ := newTestService()
			template := repo.add(&models.PermissionTemplate{
				Name:          "ward-staff",
				PermissionIDs: []primitive.ObjectID{b, c},
				IsActive:      true,
			})
			roles.grants["role-1"] = []primitive.ObjectID{a, b}

			result, err := service.Apply(context.Background(), template.ID.Hex(), models.TargetRole, "role-1", tc.mode, testActor())
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, roles.grants["role-1"])
			assert.Equal(t, len(tc.want), result.After)
			assert.True(t, result.Changed)
		})
	}
}

func TestApplyAlwaysCountsAndLogs(t *testing.T) {
	service, repo, roles, _, recorder := newTestService()
	perms := ids(2)
	template := repo.add(&models.PermissionTemplate{
		Name:          "doctor_full_access",
		PermissionIDs: perms,
		IsSystem:      true,
		IsActive:      true,
		UsageCount:    5,
	})
	roles.grants["role-1"] = perms // already the target state

	result, err := service.Apply(context.Background(), template.ID.Hex(), models.TargetRole, "role-1", models.ModeReplace, testActor())
	require.NoError(t, err)

	// A no-op application still counts as applied and is still logged.
	assert.False(t, result.Changed)
	assert.Equal(t, int64(6), repo.templates[template.ID].UsageCount)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, auditmodels.ActionApplyTemplate, recorder.entries[0].Action)
	assert.Equal(t, models.TargetRole, recorder.entries[0].SubjectType)

	// Applying again logs again: one entry per application, no dedup.
	_, err = service.Apply(context.Background(), template.ID.Hex(), models.TargetRole, "role-1", models.ModeReplace, testActor())
	require.NoError(t, err)
	assert.Len(t, recorder.entries, 2)
	assert.Equal(t, int64(7), repo.templates[template.ID].UsageCount)
}

func TestApplyUnsupportedTarget(t *testing.T) {
	service, repo, _, _, recorder := newTestService()
	template := repo.add(&models.PermissionTemplate{Name: "ward-staff", IsActive: true})

	_, err := service.Apply(context.Background(), template.ID.Hex(), "department", "dep-1", models.ModeReplace, testActor())
	assert.ErrorIs(t, err, authz.ErrInvalidTarget)

	_, err = service.Apply(context.Background(), template.ID.Hex(), models.TargetRole, "role-1", "merge", testActor())
	assert.ErrorIs(t, err, authz.ErrInvalidTarget)

	assert.Empty(t, recorder.entries)
	assert.Zero(t, repo.templates[template.ID].UsageCount)
}

func TestApplyToUserTarget(t *testing.T) {
	service, repo, _, users, _ := newTestService()
	perms := ids(2)
	template := repo.add(&models.PermissionTemplate{
		Name:          "on-call",
		PermissionIDs: perms,
		IsActive:      true,
	})

	result, err := service.Apply(context.Background(), template.ID.Hex(), models.TargetUser, "user-9", models.ModeAdd, testActor())
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.ElementsMatch(t, perms, users.grants["user-9"])
}

func TestSystemTemplateImmutable(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	system := repo.add(&models.PermissionTemplate{Name: "doctor_full_access", IsSystem: true, IsActive: true})

	name := "renamed"
	_, err := service.Update(context.Background(), system.ID.Hex(), UpdateTemplate{DisplayName: &name}, testActor())
	assert.ErrorIs(t, err, authz.ErrImmutable)

	err = service.Delete(context.Background(), system.ID.Hex(), testActor())
	assert.ErrorIs(t, err, authz.ErrImmutable)

	// The entity is unchanged after the refused mutations.
	kept, getErr := service.Get(context.Background(), system.ID.Hex())
	require.NoError(t, getErr)
	assert.Equal(t, "doctor_full_access", kept.Name)
	assert.False(t, kept.IsDeleted())
}

func TestDuplicateIsNeverSystem(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	perms := ids(3)
	system := repo.add(&models.PermissionTemplate{
		Name:          "doctor_full_access",
		DisplayName:   "Doctor Full Access",
		PermissionIDs: perms,
		IsSystem:      true,
		IsActive:      true,
		UsageCount:    12,
	})

	copied, err := service.Duplicate(context.Background(), system.ID.Hex(), "", testActor())
	require.NoError(t, err)

	assert.Equal(t, "doctor_full_access (Copy)", copied.Name)
	assert.False(t, copied.IsSystem)
	assert.True(t, copied.IsActive)
	assert.Zero(t, copied.UsageCount)
	assert.ElementsMatch(t, perms, copied.PermissionIDs)

	// The copy is detached: mutating it is allowed.
	description := "tuned copy"
	_, err = service.Update(context.Background(), copied.ID.Hex(), UpdateTemplate{Description: &description}, testActor())
	assert.NoError(t, err)
}

func TestDuplicateCustomName(t *testing.T) {
	service, repo, _, _, _ := newTestService()
	source := repo.add(&models.PermissionTemplate{Name: "ward-staff", IsActive: true})

	copied, err := service.Duplicate(context.Background(), source.ID.Hex(), "night-shift", testActor())
	require.NoError(t, err)
	assert.Equal(t, "night-shift", copied.Name)
}
