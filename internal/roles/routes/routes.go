package routes

import (
	"context"
	"fmt"

	"medgate/internal/auth/middleware"
	"medgate/internal/roles/dto"
	"medgate/internal/roles/models"
	"medgate/internal/roles/services"
	"medgate/pkg/handlers"

	"github.com/danielgtaylor/huma/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Module contains the dependencies for role routes
type Module struct {
	roles  *services.RoleService
	matrix *services.MatrixService
	auth   *middleware.AuthMiddleware
}

// NewModule creates a new routes module
func NewModule(roles *services.RoleService, matrix *services.MatrixService, auth *middleware.AuthMiddleware) *Module {
	return &Module{roles: roles, matrix: matrix, auth: auth}
}

// RegisterUnifiedRoutes registers all role routes with the API
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "roles-list",
		Method:      "GET",
		Path:        "/roles",
		Summary:     "List roles",
		Tags:        []string{"Roles"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.listRoles)

	huma.Register(api, huma.Operation{
		OperationID: "roles-create",
		Method:      "POST",
		Path:        "/roles",
		Summary:     "Create a role",
		Description: "Create a new custom role",
		Tags:        []string{"Roles"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.createRole)

	huma.Register(api, huma.Operation{
		OperationID: "roles-matrix-get",
		Method:      "GET",
		Path:        "/roles/matrix",
		Summary:     "Compute the role-permission matrix",
		Description: "Dense grid of grant flags for the filtered role and permission sets",
		Tags:        []string{"Roles / Matrix"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.computeMatrix)

	huma.Register(api, huma.Operation{
		OperationID: "roles-matrix-apply",
		Method:      "POST",
		Path:        "/roles/matrix",
		Summary:     "Apply matrix changes",
		Description: "Bulk grant/revoke; changes are processed independently and partial success is reported per change",
		Tags:        []string{"Roles / Matrix"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.applyMatrixChanges)

	huma.Register(api, huma.Operation{
		OperationID: "roles-get",
		Method:      "GET",
		Path:        "/roles/{id}",
		Summary:     "Get a role",
		Tags:        []string{"Roles"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.getRole)

	huma.Register(api, huma.Operation{
		OperationID: "roles-update",
		Method:      "PUT",
		Path:        "/roles/{id}",
		Summary:     "Update a role",
		Tags:        []string{"Roles"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.updateRole)

	huma.Register(api, huma.Operation{
		OperationID: "roles-delete",
		Method:      "DELETE",
		Path:        "/roles/{id}",
		Summary:     "Delete a role",
		Description: "Soft-delete a custom role with no assigned users",
		Tags:        []string{"Roles"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.deleteRole)

	huma.Register(api, huma.Operation{
		OperationID: "roles-grant-permission",
		Method:      "POST",
		Path:        "/roles/{id}/permissions/{permission_id}",
		Summary:     "Grant a permission to a role",
		Tags:        []string{"Roles / Grants"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.grantPermission)

	huma.Register(api, huma.Operation{
		OperationID: "roles-revoke-permission",
		Method:      "DELETE",
		Path:        "/roles/{id}/permissions/{permission_id}",
		Summary:     "Revoke a permission from a role",
		Tags:        []string{"Roles / Grants"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.revokePermission)

	huma.Register(api, huma.Operation{
		OperationID: "roles-effective-permissions",
		Method:      "GET",
		Path:        "/roles/{id}/permissions",
		Summary:     "Get a role's effective permissions",
		Tags:        []string{"Roles / Grants"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.effectivePermissions)

	huma.Register(api, huma.Operation{
		OperationID: "roles-ancestors",
		Method:      "GET",
		Path:        "/roles/{id}/ancestors",
		Summary:     "List a role's ancestors",
		Tags:        []string{"Roles / Hierarchy"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.getAncestors)

	huma.Register(api, huma.Operation{
		OperationID: "roles-descendants",
		Method:      "GET",
		Path:        "/roles/{id}/descendants",
		Summary:     "List a role's descendants",
		Tags:        []string{"Roles / Hierarchy"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.getDescendants)

	huma.Register(api, huma.Operation{
		OperationID: "roles-duplicate",
		Method:      "POST",
		Path:        "/roles/{id}/duplicate",
		Summary:     "Duplicate a role",
		Description: "Create a custom copy carrying the role's own grants, never its user assignments",
		Tags:        []string{"Roles"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.duplicateRole)
}

func (m *Module) listRoles(ctx context.Context, input *dto.ListRolesInput) (*dto.ListRolesOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.view"); err != nil {
		return nil, err
	}
	roles, err := m.roles.List(ctx, input.Type, input.Status)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	responses := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		responses = append(responses, dto.FromModel(&roles[i]))
	}
	return &dto.ListRolesOutput{Body: dto.ListRolesResponse{Roles: responses, Total: len(responses)}}, nil
}

func (m *Module) createRole(ctx context.Context, input *dto.CreateRoleInput) (*dto.RoleOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.create")
	if err != nil {
		return nil, err
	}

	role := &models.Role{
		Name:        input.Body.Name,
		DisplayName: input.Body.DisplayName,
		Description: input.Body.Description,
	}
	if role.DisplayName == "" {
		role.DisplayName = role.Name
	}
	if input.Body.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(input.Body.ParentID)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("invalid parent_id %q", input.Body.ParentID))
		}
		role.ParentID = &parentID
	}

	if err := m.roles.Create(ctx, role, actor); err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.RoleOutput{Body: dto.FromModel(role)}, nil
}

func (m *Module) getRole(ctx context.Context, input *dto.GetRoleInput) (*dto.RoleOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.view"); err != nil {
		return nil, err
	}
	role, err := m.roles.Get(ctx, input.ID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.RoleOutput{Body: dto.FromModel(role)}, nil
}

func (m *Module) updateRole(ctx context.Context, input *dto.UpdateRoleInput) (*dto.RoleOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.edit")
	if err != nil {
		return nil, err
	}

	role, err := m.roles.Update(ctx, input.ID, services.UpdateRole{
		DisplayName:  input.Body.DisplayName,
		Description:  input.Body.Description,
		Status:       input.Body.Status,
		ParentID:     input.Body.ParentID,
		IsFullAccess: input.Body.IsFullAccess,
	}, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.RoleOutput{Body: dto.FromModel(role)}, nil
}

func (m *Module) deleteRole(ctx context.Context, input *dto.DeleteRoleInput) (*dto.DeleteOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.delete")
	if err != nil {
		return nil, err
	}
	if err := m.roles.Delete(ctx, input.ID, actor); err != nil {
		return nil, handlers.HumaError(err)
	}
	output := &dto.DeleteOutput{}
	output.Body.Message = "Role deleted"
	return output, nil
}

func (m *Module) grantPermission(ctx context.Context, input *dto.GrantPermissionInput) (*dto.GrantOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.edit")
	if err != nil {
		return nil, err
	}
	changed, err := m.roles.GrantPermission(ctx, input.ID, input.PermissionID, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	output := &dto.GrantOutput{}
	output.Body.Changed = changed
	output.Body.Message = "Permission granted"
	if !changed {
		output.Body.Message = "Permission already granted"
	}
	return output, nil
}

func (m *Module) revokePermission(ctx context.Context, input *dto.RevokePermissionInput) (*dto.GrantOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.edit")
	if err != nil {
		return nil, err
	}
	changed, err := m.roles.RevokePermission(ctx, input.ID, input.PermissionID, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	output := &dto.GrantOutput{}
	output.Body.Changed = changed
	output.Body.Message = "Permission revoked"
	if !changed {
		output.Body.Message = "Permission was not granted"
	}
	return output, nil
}

func (m *Module) effectivePermissions(ctx context.Context, input *dto.EffectivePermissionsInput) (*dto.EffectivePermissionsOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.view"); err != nil {
		return nil, err
	}
	set, err := m.roles.EffectivePermissions(ctx, input.ID, input.IncludeInherited)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.EffectivePermissionsOutput{Body: dto.EffectivePermissionsResponse{
		RoleID:           input.ID,
		IncludeInherited: input.IncludeInherited,
		Permissions:      set.Names(),
	}}, nil
}

func (m *Module) getAncestors(ctx context.Context, input *dto.TraverseInput) (*dto.ListRolesOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.view"); err != nil {
		return nil, err
	}
	roles, err := m.roles.GetAncestors(ctx, input.ID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return rolesListOutput(roles), nil
}

func (m *Module) getDescendants(ctx context.Context, input *dto.TraverseInput) (*dto.ListRolesOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.view"); err != nil {
		return nil, err
	}
	roles, err := m.roles.GetDescendants(ctx, input.ID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return rolesListOutput(roles), nil
}

func (m *Module) duplicateRole(ctx context.Context, input *dto.DuplicateRoleInput) (*dto.RoleOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.create")
	if err != nil {
		return nil, err
	}
	copied, err := m.roles.Duplicate(ctx, input.ID, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.RoleOutput{Body: dto.FromModel(copied)}, nil
}

func (m *Module) computeMatrix(ctx context.Context, input *dto.ComputeMatrixInput) (*dto.MatrixOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.view"); err != nil {
		return nil, err
	}
	matrix, err := m.matrix.ComputeMatrix(ctx, services.MatrixFilter{
		RoleType:         input.RoleType,
		RoleStatus:       input.RoleStatus,
		PermissionModule: input.Module,
	})
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.MatrixOutput{Body: *matrix}, nil
}

func (m *Module) applyMatrixChanges(ctx context.Context, input *dto.ApplyMatrixChangesInput) (*dto.ApplyMatrixChangesOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "roles.edit")
	if err != nil {
		return nil, err
	}

	changes := make([]models.MatrixChange, len(input.Body.Changes))
	for i, change := range input.Body.Changes {
		changes[i] = models.MatrixChange{
			RoleID:       change.RoleID,
			PermissionID: change.PermissionID,
			Action:       change.Action,
		}
	}

	results := m.matrix.ApplyMatrixChanges(ctx, changes, actor)
	response := dto.ApplyMatrixChangesResponse{Results: results}
	for _, result := range results {
		switch {
		case result.Error != "":
			response.Failed++
		case result.Applied:
			response.Applied++
		default:
			response.Skipped++
		}
	}
	return &dto.ApplyMatrixChangesOutput{Body: response}, nil
}

func rolesListOutput(roles []models.Role) *dto.ListRolesOutput {
	responses := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		responses = append(responses, dto.FromModel(&roles[i]))
	}
	return &dto.ListRolesOutput{Body: dto.ListRolesResponse{Roles: responses, Total: len(responses)}}
}
