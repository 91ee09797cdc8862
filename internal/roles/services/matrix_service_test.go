package services

import (
	"context"
	"testing"

	auditmodels "medgate/internal/audit/models"
	"medgate/internal/roles/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestComputeMatrixDenseGrid(t *testing.T) {
	roleService, repo, lookup, _ := newTestService()
	matrixService := NewMatrixService(repo, lookup, roleService)

	nurse := repo.addRole(&models.Role{Name: "nurse", DisplayName: "Nurse"})
	doctor := repo.addRole(&models.Role{Name: "doctor", DisplayName: "Doctor"})
	view := lookup.add("patients.view", "patients")
	edit := lookup.add("patients.edit", "patients")
	repo.addGrant(nurse.ID, view.ID, view.Name)
	repo.addGrant(doctor.ID, view.ID, view.Name)
	repo.addGrant(doctor.ID, edit.ID, edit.Name)

	matrix, err := matrixService.ComputeMatrix(context.Background(), MatrixFilter{PermissionModule: "patients"})
	require.NoError(t, err)
	require.Len(t, matrix.Roles, 2)
	require.Len(t, matrix.Permissions, 2)
	require.Len(t, matrix.Cells, 2)

	index := func(roleName string) int {
		for i, role := range matrix.Roles {
			if role.Name == roleName {
				return i
			}
		}
		t.Fatalf("role %s not in matrix", roleName)
		return -1
	}
	permIndex := func(name string) int {
		for j, permission := range matrix.Permissions {
			if permission.Name == name {
				return j
			}
		}
		t.Fatalf("permission %s not in matrix", name)
		return -1
	}

	granted := 0
	for _, row := range matrix.Cells {
		require.Len(t, row, 2)
		for _, cell := range row {
			if cell.Granted {
				granted++
				assert.NotNil(t, cell.GrantedAt)
			}
			assert.False(t, cell.Inherited)
		}
	}
	assert.Equal(t, 3, granted)
	assert.False(t, matrix.Cells[index("nurse")][permIndex("patients.edit")].Granted)
	assert.True(t, matrix.Cells[index("doctor")][permIndex("patients.edit")].Granted)
}

func TestApplyMatrixChangesSkipsNoOps(t *testing.T) {
	roleService, repo, lookup, recorder := newTestService()
	matrixService := NewMatrixService(repo, lookup, roleService)

	nurse := repo.addRole(&models.Role{Name: "nurse"})
	view := lookup.add("patients.view", "patients")
	edit := lookup.add("patients.edit", "patients")
	repo.addGrant(nurse.ID, view.ID, view.Name)
	recorder.entries = nil

	results := matrixService.ApplyMatrixChanges(context.Background(), []models.MatrixChange{
		{RoleID: nurse.ID.Hex(), PermissionID: view.ID.Hex(), Action: models.MatrixActionGrant},  // already granted
		{RoleID: nurse.ID.Hex(), PermissionID: edit.ID.Hex(), Action: models.MatrixActionGrant},  // effects
		{RoleID: nurse.ID.Hex(), PermissionID: edit.ID.Hex(), Action: models.MatrixActionRevoke}, // effects
		{RoleID: nurse.ID.Hex(), PermissionID: edit.ID.Hex(), Action: models.MatrixActionRevoke}, // already absent
	}, testActor())

	require.Len(t, results, 4)
	assert.True(t, results[0].Skipped)
	assert.True(t, results[1].Applied)
	assert.True(t, results[2].Applied)
	assert.True(t, results[3].Skipped)

	// One audit entry per effecting change, none for skips.
	assert.Len(t, recorder.entries, 2)
}

func TestApplyMatrixChangesCapturesPerChangeErrors(t *testing.T) {
	roleService, repo, lookup, recorder := newTestService()
	matrixService := NewMatrixService(repo, lookup, roleService)

	nurse := repo.addRole(&models.Role{Name: "nurse"})
	view := lookup.add("patients.view", "patients")
	recorder.entries = nil

	missing := primitive.NewObjectID().Hex()
	results := matrixService.ApplyMatrixChanges(context.Background(), []models.MatrixChange{
		{RoleID: missing, PermissionID: view.ID.Hex(), Action: models.MatrixActionGrant},
		{RoleID: nurse.ID.Hex(), PermissionID: missing, Action: models.MatrixActionGrant},
		{RoleID: nurse.ID.Hex(), PermissionID: view.ID.Hex(), Action: "toggle"},
		{RoleID: nurse.ID.Hex(), PermissionID: view.ID.Hex(), Action: models.MatrixActionGrant},
	}, testActor())

	require.Len(t, results, 4)
	assert.NotEmpty(t, results[0].Error)
	assert.NotEmpty(t, results[1].Error)
	assert.NotEmpty(t, results[2].Error)

	// Partial success: the last change still lands despite earlier failures.
	assert.True(t, results[3].Applied)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, auditmodels.ActionGrantPermission, recorder.entries[0].Action)
}
