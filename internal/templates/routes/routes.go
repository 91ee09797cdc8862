package routes

import (
	"context"
	"fmt"

	"medgate/internal/auth/middleware"
	"medgate/internal/templates/dto"
	"medgate/internal/templates/models"
	"medgate/internal/templates/services"
	"medgate/pkg/handlers"

	"github.com/danielgtaylor/huma/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Module contains the dependencies for template routes
type Module struct {
	service *services.Service
	auth    *middleware.AuthMiddleware
}

// NewModule creates a new routes module
func NewModule(service *services.Service, auth *middleware.AuthMiddleware) *Module {
	return &Module{service: service, auth: auth}
}

// RegisterUnifiedRoutes registers all template routes with the API
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "templates-list",
		Method:      "GET",
		Path:        "/templates",
		Summary:     "List permission templates",
		Tags:        []string{"Templates"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.listTemplates)

	huma.Register(api, huma.Operation{
		OperationID: "templates-create",
		Method:      "POST",
		Path:        "/templates",
		Summary:     "Create a template",
		Tags:        []string{"Templates"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.createTemplate)

	huma.Register(api, huma.Operation{
		OperationID: "templates-get",
		Method:      "GET",
		Path:        "/templates/{id}",
		Summary:     "Get a template",
		Tags:        []string{"Templates"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.getTemplate)

	huma.Register(api, huma.Operation{
		OperationID: "templates-update",
		Method:      "PUT",
		Path:        "/templates/{id}",
		Summary:     "Update a template",
		Description: "Update a custom template; system templates are immutable",
		Tags:        []string{"Templates"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.updateTemplate)

	huma.Register(api, huma.Operation{
		OperationID: "templates-delete",
		Method:      "DELETE",
		Path:        "/templates/{id}",
		Summary:     "Delete a template",
		Tags:        []string{"Templates"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.deleteTemplate)

	huma.Register(api, huma.Operation{
		OperationID: "templates-apply",
		Method:      "POST",
		Path:        "/templates/{id}/apply",
		Summary:     "Apply a template",
		Description: "Apply the template's permission bundle to a role or user in replace, add or remove mode",
		Tags:        []string{"Templates"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.applyTemplate)

	huma.Register(api, huma.Operation{
		OperationID: "templates-duplicate",
		Method:      "POST",
		Path:        "/templates/{id}/duplicate",
		Summary:     "Duplicate a template",
		Description: "Create a custom copy of the template; the copy is never a system template",
		Tags:        []string{"Templates"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.duplicateTemplate)
}

func (m *Module) listTemplates(ctx context.Context, input *dto.ListTemplatesInput) (*dto.ListTemplatesOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "templates.view"); err != nil {
		return nil, err
	}
	templates, err := m.service.List(ctx, input.Category)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	responses := make([]dto.TemplateResponse, 0, len(templates))
	for i := range templates {
		responses = append(responses, dto.FromModel(&templates[i]))
	}
	return &dto.ListTemplatesOutput{Body: dto.ListTemplatesResponse{Templates: responses, Total: len(responses)}}, nil
}

func (m *Module) getTemplate(ctx context.Context, input *dto.GetTemplateInput) (*dto.TemplateOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "templates.view"); err != nil {
		return nil, err
	}
	template, err := m.service.Get(ctx, input.ID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.TemplateOutput{Body: dto.FromModel(template)}, nil
}

func (m *Module) createTemplate(ctx context.Context, input *dto.CreateTemplateInput) (*dto.TemplateOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "templates.manage")
	if err != nil {
		return nil, err
	}

	permissionIDs, err := parseObjectIDs(input.Body.PermissionIDs)
	if err != nil {
		return nil, err
	}
	template := &models.PermissionTemplate{
		Name:          input.Body.Name,
		DisplayName:   input.Body.DisplayName,
		Description:   input.Body.Description,
		Category:      input.Body.Category,
		PermissionIDs: permissionIDs,
		IsActive:      true,
	}
	if err := m.service.Create(ctx, template, actor); err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.TemplateOutput{Body: dto.FromModel(template)}, nil
}

func (m *Module) updateTemplate(ctx context.Context, input *dto.UpdateTemplateInput) (*dto.TemplateOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "templates.manage")
	if err != nil {
		return nil, err
	}

	changes := services.UpdateTemplate{
		DisplayName: input.Body.DisplayName,
		Description: input.Body.Description,
		Category:    input.Body.Category,
		IsActive:    input.Body.IsActive,
	}
	if input.Body.PermissionIDs != nil {
		permissionIDs, err := parseObjectIDs(input.Body.PermissionIDs)
		if err != nil {
			return nil, err
		}
		changes.PermissionIDs = permissionIDs
	}

	template, err := m.service.Update(ctx, input.ID, changes, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.TemplateOutput{Body: dto.FromModel(template)}, nil
}

func (m *Module) deleteTemplate(ctx context.Context, input *dto.DeleteTemplateInput) (*dto.DeleteOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "templates.manage")
	if err != nil {
		return nil, err
	}
	if err := m.service.Delete(ctx, input.ID, actor); err != nil {
		return nil, handlers.HumaError(err)
	}
	output := &dto.DeleteOutput{}
	output.Body.Message = "Template deleted"
	return output, nil
}

func (m *Module) applyTemplate(ctx context.Context, input *dto.ApplyTemplateInput) (*dto.ApplyOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "templates.manage")
	if err != nil {
		return nil, err
	}
	result, err := m.service.Apply(ctx, input.ID, input.Body.TargetType, input.Body.TargetID, input.Body.Mode, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.ApplyOutput{Body: *result}, nil
}

func (m *Module) duplicateTemplate(ctx context.Context, input *dto.DuplicateTemplateInput) (*dto.TemplateOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "templates.manage")
	if err != nil {
		return nil, err
	}
	copied, err := m.service.Duplicate(ctx, input.ID, input.Body.Name, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.TemplateOutput{Body: dto.FromModel(copied)}, nil
}

func parseObjectIDs(hexIDs []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, len(hexIDs))
	for i, hex := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("invalid permission id %q", hex))
		}
		out[i] = id
	}
	return out, nil
}
