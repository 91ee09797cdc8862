package routes

import (
	"context"

	"medgate/internal/auth/middleware"
	"medgate/internal/users/dto"
	"medgate/internal/users/services"
	"medgate/pkg/handlers"

	"github.com/danielgtaylor/huma/v2"
)

// Module contains the dependencies for user routes
type Module struct {
	service *services.Service
	auth    *middleware.AuthMiddleware
}

// NewModule creates a new routes module
func NewModule(service *services.Service, auth *middleware.AuthMiddleware) *Module {
	return &Module{service: service, auth: auth}
}

// RegisterUnifiedRoutes registers all user routes with the API
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "users-list",
		Method:      "GET",
		Path:        "/users",
		Summary:     "List users",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.listUsers)

	huma.Register(api, huma.Operation{
		OperationID: "users-get",
		Method:      "GET",
		Path:        "/users/{user_id}",
		Summary:     "Get a user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.getUser)

	huma.Register(api, huma.Operation{
		OperationID: "users-set-status",
		Method:      "PUT",
		Path:        "/users/{user_id}/status",
		Summary:     "Activate or deactivate a user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.setUserStatus)

	huma.Register(api, huma.Operation{
		OperationID: "users-permissions",
		Method:      "GET",
		Path:        "/users/{user_id}/permissions",
		Summary:     "Get a user's effective permissions",
		Description: "Flattened set of direct grants plus every active role's effective permissions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.userPermissions)

	huma.Register(api, huma.Operation{
		OperationID: "users-assign-role",
		Method:      "POST",
		Path:        "/users/{user_id}/roles/{role_id}",
		Summary:     "Assign a role to a user",
		Tags:        []string{"Users / Access"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.assignRole)

	huma.Register(api, huma.Operation{
		OperationID: "users-unassign-role",
		Method:      "DELETE",
		Path:        "/users/{user_id}/roles/{role_id}",
		Summary:     "Remove a role from a user",
		Tags:        []string{"Users / Access"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.unassignRole)

	huma.Register(api, huma.Operation{
		OperationID: "users-grant-permission",
		Method:      "POST",
		Path:        "/users/{user_id}/permissions/{permission_id}",
		Summary:     "Grant a permission directly to a user",
		Tags:        []string{"Users / Access"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.grantPermission)

	huma.Register(api, huma.Operation{
		OperationID: "users-revoke-permission",
		Method:      "DELETE",
		Path:        "/users/{user_id}/permissions/{permission_id}",
		Summary:     "Revoke a user's direct permission",
		Tags:        []string{"Users / Access"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.revokePermission)
}

func (m *Module) listUsers(ctx context.Context, input *dto.ListUsersInput) (*dto.ListUsersOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "users.view"); err != nil {
		return nil, err
	}
	users, err := m.service.List(ctx, input.Status)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, dto.FromModel(&users[i]))
	}
	return &dto.ListUsersOutput{Body: dto.ListUsersResponse{Users: responses, Total: len(responses)}}, nil
}

func (m *Module) getUser(ctx context.Context, input *dto.GetUserInput) (*dto.UserOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "users.view"); err != nil {
		return nil, err
	}
	user, err := m.service.Get(ctx, input.UserID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.UserOutput{Body: dto.FromModel(user)}, nil
}

func (m *Module) setUserStatus(ctx context.Context, input *dto.SetUserStatusInput) (*dto.UserOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "users.edit")
	if err != nil {
		return nil, err
	}
	if err := m.service.SetStatus(ctx, input.UserID, input.Body.Status, actor); err != nil {
		return nil, handlers.HumaError(err)
	}
	user, err := m.service.Get(ctx, input.UserID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.UserOutput{Body: dto.FromModel(user)}, nil
}

func (m *Module) userPermissions(ctx context.Context, input *dto.UserPermissionsInput) (*dto.UserPermissionsOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "users.view"); err != nil {
		return nil, err
	}
	set, err := m.service.EffectivePermissions(ctx, input.UserID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.UserPermissionsOutput{Body: dto.UserPermissionsResponse{
		UserID:      input.UserID,
		Permissions: set.Names(),
	}}, nil
}

func (m *Module) assignRole(ctx context.Context, input *dto.UserRoleInput) (*dto.ChangeOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "users.assign_roles")
	if err != nil {
		return nil, err
	}
	changed, err := m.service.AssignRole(ctx, input.UserID, input.RoleID, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return changeOutput(changed, "Role assigned", "Role already assigned"), nil
}

func (m *Module) unassignRole(ctx context.Context, input *dto.UserRoleInput) (*dto.ChangeOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "users.assign_roles")
	if err != nil {
		return nil, err
	}
	changed, err := m.service.UnassignRole(ctx, input.UserID, input.RoleID, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return changeOutput(changed, "Role removed", "Role was not assigned"), nil
}

func (m *Module) grantPermission(ctx context.Context, input *dto.UserPermissionInput) (*dto.ChangeOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "users.assign_roles")
	if err != nil {
		return nil, err
	}
	changed, err := m.service.GrantDirectPermission(ctx, input.UserID, input.PermissionID, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return changeOutput(changed, "Permission granted", "Permission already granted"), nil
}

func (m *Module) revokePermission(ctx context.Context, input *dto.UserPermissionInput) (*dto.ChangeOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "users.assign_roles")
	if err != nil {
		return nil, err
	}
	changed, err := m.service.RevokeDirectPermission(ctx, input.UserID, input.PermissionID, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return changeOutput(changed, "Permission revoked", "Permission was not granted"), nil
}

func changeOutput(changed bool, appliedMessage, skippedMessage string) *dto.ChangeOutput {
	output := &dto.ChangeOutput{}
	output.Body.Changed = changed
	output.Body.Message = appliedMessage
	if !changed {
		output.Body.Message = skippedMessage
	}
	return output
}
