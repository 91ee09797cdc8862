package routes

import (
	"context"

	"medgate/internal/auth/middleware"
	"medgate/internal/registry/dto"
	"medgate/internal/registry/models"
	"medgate/internal/registry/services"
	"medgate/pkg/authz"
	"medgate/pkg/handlers"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
)

// Module contains the dependencies for registry routes
type Module struct {
	service  *services.Service
	auth     *middleware.AuthMiddleware
	validate *validator.Validate
}

// NewModule creates a new routes module
func NewModule(service *services.Service, auth *middleware.AuthMiddleware) *Module {
	return &Module{service: service, auth: auth, validate: dto.NewValidator()}
}

// RegisterUnifiedRoutes registers all registry routes with the API
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "permissions-list",
		Method:      "GET",
		Path:        "/permissions",
		Summary:     "List permissions",
		Description: "List active permissions, optionally filtered by module, action or resource",
		Tags:        []string{"Permissions"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.listPermissions)

	huma.Register(api, huma.Operation{
		OperationID: "permissions-get",
		Method:      "GET",
		Path:        "/permissions/{id}",
		Summary:     "Get a permission",
		Tags:        []string{"Permissions"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.getPermission)

	huma.Register(api, huma.Operation{
		OperationID: "permissions-create",
		Method:      "POST",
		Path:        "/permissions",
		Summary:     "Register a permission",
		Description: "Register a new custom permission atom",
		Tags:        []string{"Permissions"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.createPermission)

	huma.Register(api, huma.Operation{
		OperationID: "permissions-update",
		Method:      "PUT",
		Path:        "/permissions/{id}",
		Summary:     "Update a permission",
		Tags:        []string{"Permissions"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.updatePermission)

	huma.Register(api, huma.Operation{
		OperationID: "permissions-delete",
		Method:      "DELETE",
		Path:        "/permissions/{id}",
		Summary:     "Delete a permission",
		Description: "Soft-delete a custom permission that is not granted to any role",
		Tags:        []string{"Permissions"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.deletePermission)

	huma.Register(api, huma.Operation{
		OperationID: "permissions-generate-key",
		Method:      "POST",
		Path:        "/permissions/generate-key",
		Summary:     "Derive a permission key",
		Description: "Derive a unique dotted key from a human name and module",
		Tags:        []string{"Permissions"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.generateKey)

	huma.Register(api, huma.Operation{
		OperationID: "permissions-categories",
		Method:      "GET",
		Path:        "/permissions/categories",
		Summary:     "List permission categories",
		Tags:        []string{"Permissions"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.listCategories)
}

func (m *Module) listPermissions(ctx context.Context, input *dto.ListPermissionsInput) (*dto.ListPermissionsOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "permissions.view"); err != nil {
		return nil, err
	}

	var permissions []models.Permission
	var err error
	switch {
	case input.Module != "":
		permissions, err = m.service.ListByModule(ctx, input.Module)
	case input.Action != "":
		permissions, err = m.service.ListByAction(ctx, input.Action)
	case input.Resource != "":
		permissions, err = m.service.ListByResource(ctx, input.Resource)
	default:
		permissions, err = m.service.ListAll(ctx)
	}
	if err != nil {
		return nil, handlers.HumaError(err)
	}

	responses := make([]dto.PermissionResponse, 0, len(permissions))
	for i := range permissions {
		responses = append(responses, dto.FromModel(&permissions[i]))
	}
	return &dto.ListPermissionsOutput{Body: dto.ListPermissionsResponse{
		Permissions: responses,
		Total:       len(responses),
	}}, nil
}

func (m *Module) getPermission(ctx context.Context, input *dto.GetPermissionInput) (*dto.PermissionOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "permissions.view"); err != nil {
		return nil, err
	}
	permission, err := m.service.Get(ctx, input.ID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.PermissionOutput{Body: dto.FromModel(permission)}, nil
}

func (m *Module) createPermission(ctx context.Context, input *dto.CreatePermissionInput) (*dto.PermissionOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "permissions.manage"); err != nil {
		return nil, err
	}

	if input.Body.Name != "" {
		if problems := dto.ValidateKey(m.validate, input.Body.Name); len(problems) > 0 {
			return nil, huma.Error422UnprocessableEntity(problems[0])
		}
	}
	if problems := dto.ValidateModule(m.validate, input.Body.Module); len(problems) > 0 {
		return nil, huma.Error422UnprocessableEntity(problems[0])
	}

	permission := &models.Permission{
		Name:        input.Body.Name,
		DisplayName: input.Body.DisplayName,
		Module:      input.Body.Module,
		Action:      input.Body.Action,
		Resource:    input.Body.Resource,
		Priority:    input.Body.Priority,
		Description: input.Body.Description,
		IsActive:    true,
	}
	if err := m.service.Register(ctx, permission); err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.PermissionOutput{Body: dto.FromModel(permission)}, nil
}

func (m *Module) updatePermission(ctx context.Context, input *dto.UpdatePermissionInput) (*dto.PermissionOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "permissions.manage"); err != nil {
		return nil, err
	}

	if input.Body.Name != nil {
		if problems := dto.ValidateKey(m.validate, *input.Body.Name); len(problems) > 0 {
			return nil, huma.Error422UnprocessableEntity(problems[0])
		}
	}

	permission, err := m.service.Update(ctx, input.ID, services.UpdatePermission{
		Name:        input.Body.Name,
		DisplayName: input.Body.DisplayName,
		Module:      input.Body.Module,
		Action:      input.Body.Action,
		Resource:    input.Body.Resource,
		Description: input.Body.Description,
		Priority:    input.Body.Priority,
		IsActive:    input.Body.IsActive,
	})
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.PermissionOutput{Body: dto.FromModel(permission)}, nil
}

func (m *Module) deletePermission(ctx context.Context, input *dto.DeletePermissionInput) (*dto.DeleteOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "permissions.manage"); err != nil {
		return nil, err
	}
	if err := m.service.SoftDelete(ctx, input.ID); err != nil {
		return nil, handlers.HumaError(err)
	}
	output := &dto.DeleteOutput{}
	output.Body.Message = "Permission deleted"
	return output, nil
}

func (m *Module) generateKey(ctx context.Context, input *dto.GenerateKeyInput) (*dto.GenerateKeyOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "permissions.manage"); err != nil {
		return nil, err
	}
	key, err := m.service.GenerateKey(ctx, input.Body.Name, input.Body.Module)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.GenerateKeyOutput{Body: dto.GenerateKeyResponse{Key: key}}, nil
}

func (m *Module) listCategories(ctx context.Context, input *dto.CategoriesInput) (*dto.CategoriesOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "permissions.view"); err != nil {
		return nil, err
	}
	return &dto.CategoriesOutput{Body: dto.CategoriesResponse{Categories: authz.PermissionCategories}}, nil
}
