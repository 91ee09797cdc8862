package services

import (
	"context"
	"fmt"
	"log/slog"

	registrymodels "medgate/internal/registry/models"
	"medgate/internal/roles/models"
	"medgate/pkg/authz"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatrixFilter narrows the role and permission axes of the grid.
type MatrixFilter struct {
	RoleType         string
	RoleStatus       string
	PermissionModule string
}

// MatrixService computes and mutates the role x permission grant grid in
// bulk. Changes are processed independently: redundant changes are skipped
// silently and individual failures never abort the batch.
type MatrixService struct {
	repository  Repository
	permissions PermissionLookup
	roles       *RoleService
}

// NewMatrixService creates the matrix service.
func NewMatrixService(repository Repository, permissions PermissionLookup, roles *RoleService) *MatrixService {
	return &MatrixService{
		repository:  repository,
		permissions: permissions,
		roles:       roles,
	}
}

// ComputeMatrix builds the dense grant grid for the filtered role and
// permission sets. Inheritance metadata is an extension point; the base
// grid reports direct grants only.
func (s *MatrixService) ComputeMatrix(ctx context.Context, filter MatrixFilter) (*models.Matrix, error) {
	roleFilter := bson.M{}
	if filter.RoleType != "" {
		roleFilter["type"] = filter.RoleType
	}
	if filter.RoleStatus != "" {
		roleFilter["status"] = filter.RoleStatus
	}
	roles, err := s.repository.ListRoles(ctx, roleFilter)
	if err != nil {
		return nil, err
	}

	var permissions []registrymodels.Permission
	if filter.PermissionModule != "" {
		permissions, err = s.permissions.ListByModule(ctx, filter.PermissionModule)
	} else {
		permissions, err = s.permissions.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	roleIDs := make([]primitive.ObjectID, len(roles))
	for i, role := range roles {
		roleIDs[i] = role.ID
	}
	grants, err := s.repository.ListGrantsForRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	type grantKey struct{ role, permission primitive.ObjectID }
	granted := make(map[grantKey]*models.RolePermission, len(grants))
	for i := range grants {
		grant := &grants[i]
		granted[grantKey{grant.RoleID, grant.PermissionID}] = grant
	}

	matrix := &models.Matrix{
		Roles:       make([]models.MatrixRole, len(roles)),
		Permissions: make([]models.MatrixPermission, len(permissions)),
		Cells:       make([][]models.MatrixCell, len(roles)),
	}
	for j, permission := range permissions {
		matrix.Permissions[j] = models.MatrixPermission{
			ID:          permission.ID.Hex(),
			Name:        permission.Name,
			DisplayName: permission.DisplayName,
			Module:      permission.Module,
		}
	}
	for i, role := range roles {
		matrix.Roles[i] = models.MatrixRole{
			ID:           role.ID.Hex(),
			Name:         role.Name,
			DisplayName:  role.DisplayName,
			Type:         role.Type,
			IsFullAccess: role.IsFullAccess,
		}
		row := make([]models.MatrixCell, len(permissions))
		for j, permission := range permissions {
			if grant, ok := granted[grantKey{role.ID, permission.ID}]; ok {
				grantedAt := grant.GrantedAt
				row[j] = models.MatrixCell{
					Granted:   true,
					GrantedAt: &grantedAt,
					GrantedBy: grant.GrantedBy,
				}
			}
		}
		matrix.Cells[i] = row
	}
	return matrix, nil
}

// ApplyMatrixChanges processes each change independently. Changes already
// in their target state are skipped without an audit entry; each effecting
// change writes exactly one audit entry through the role service. Partial
// success is the expected, reported outcome.
func (s *MatrixService) ApplyMatrixChanges(ctx context.Context, changes []models.MatrixChange, actor authz.ActorContext) []models.ChangeResult {
	results := make([]models.ChangeResult, 0, len(changes))
	applied := 0
	for _, change := range changes {
		result := models.ChangeResult{Change: change}

		var changed bool
		var err error
		switch change.Action {
		case models.MatrixActionGrant:
			changed, err = s.roles.GrantPermission(ctx, change.RoleID, change.PermissionID, actor)
		case models.MatrixActionRevoke:
			changed, err = s.roles.RevokePermission(ctx, change.RoleID, change.PermissionID, actor)
		default:
			err = fmt.Errorf("%w: unknown matrix action %q", authz.ErrInvalidTarget, change.Action)
		}

		switch {
		case err != nil:
			result.Error = err.Error()
		case changed:
			result.Applied = true
			applied++
		default:
			result.Skipped = true
		}
		results = append(results, result)
	}

	slog.Info("[Roles] Matrix changes applied",
		slog.Int("requested", len(changes)),
		slog.Int("applied", applied),
		slog.Int("skipped", len(changes)-applied-countErrors(results)),
		slog.Int("failed", countErrors(results)))
	return results
}

func countErrors(results []models.ChangeResult) int {
	n := 0
	for _, result := range results {
		if result.Error != "" {
			n++
		}
	}
	return n
}
