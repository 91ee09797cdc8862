package dto

import (
	"medgate/internal/registry/models"
	"medgate/pkg/authz"
)

// PermissionResponse is the JSON read model of a permission
type PermissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Guard       string `json:"guard"`
	DisplayName string `json:"display_name"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	IsSystem    bool   `json:"is_system"`
	IsActive    bool   `json:"is_active"`
	Priority    int    `json:"priority"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// FromModel converts a permission model into its response shape
func FromModel(permission *models.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          permission.ID.Hex(),
		Name:        permission.Name,
		Guard:       permission.Guard,
		DisplayName: permission.DisplayName,
		Module:      permission.Module,
		Action:      permission.Action,
		Resource:    permission.Resource,
		IsSystem:    permission.IsSystem,
		IsActive:    permission.IsActive,
		Priority:    permission.Priority,
		Description: permission.Description,
		CreatedAt:   permission.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   permission.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// PermissionOutput wraps a single permission response
type PermissionOutput struct {
	Body PermissionResponse `json:"body"`
}

// ListPermissionsResponse is the listing read model
type ListPermissionsResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
	Total       int                  `json:"total"`
}

// ListPermissionsOutput wraps a permission listing
type ListPermissionsOutput struct {
	Body ListPermissionsResponse `json:"body"`
}

// GenerateKeyResponse carries a derived permission key
type GenerateKeyResponse struct {
	Key string `json:"key"`
}

// GenerateKeyOutput wraps a derived key response
type GenerateKeyOutput struct {
	Body GenerateKeyResponse `json:"body"`
}

// CategoriesResponse lists the catalog UI categories
type CategoriesResponse struct {
	Categories []authz.CatalogCategory `json:"categories"`
}

// CategoriesOutput wraps the category listing
type CategoriesOutput struct {
	Body CategoriesResponse `json:"body"`
}

// DeleteOutput confirms a soft delete
type DeleteOutput struct {
	Body struct {
		Message string `json:"message"`
	} `json:"body"`
}
