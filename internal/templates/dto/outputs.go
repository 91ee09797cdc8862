package dto

import (
	"time"

	"medgate/internal/templates/models"
)

// TemplateResponse is the JSON read model of a template
type TemplateResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DisplayName   string    `json:"display_name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	PermissionIDs []string  `json:"permission_ids"`
	IsSystem      bool      `json:"is_system"`
	IsActive      bool      `json:"is_active"`
	UsageCount    int64     `json:"usage_count"`
	CreatedBy     string    `json:"created_by,omitempty"`
	UpdatedBy     string    `json:"updated_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FromModel converts a template model into its response shape
func FromModel(template *models.PermissionTemplate) TemplateResponse {
	permissionIDs := make([]string, len(template.PermissionIDs))
	for i, id := range template.PermissionIDs {
		permissionIDs[i] = id.Hex()
	}
	return TemplateResponse{
		ID:            template.ID.Hex(),
		Name:          template.Name,
		DisplayName:   template.DisplayName,
		Description:   template.Description,
		Category:      template.Category,
		PermissionIDs: permissionIDs,
		IsSystem:      template.IsSystem,
		IsActive:      template.IsActive,
		UsageCount:    template.UsageCount,
		CreatedBy:     template.CreatedBy,
		UpdatedBy:     template.UpdatedBy,
		CreatedAt:     template.CreatedAt,
		UpdatedAt:     template.UpdatedAt,
	}
}

// TemplateOutput wraps a single template response
type TemplateOutput struct {
	Body TemplateResponse `json:"body"`
}

// ListTemplatesResponse is the template listing read model
type ListTemplatesResponse struct {
	Templates []TemplateResponse `json:"templates"`
	Total     int                `json:"total"`
}

// ListTemplatesOutput wraps a template listing
type ListTemplatesOutput struct {
	Body ListTemplatesResponse `json:"body"`
}

// ApplyOutput wraps an application report
type ApplyOutput struct {
	Body models.ApplyResult `json:"body"`
}

// DeleteOutput confirms a template deletion
type DeleteOutput struct {
	Body struct {
		Message string `json:"message"`
	} `json:"body"`
}
