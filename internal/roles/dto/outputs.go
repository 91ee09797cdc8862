package dto

import (
	"time"

	"medgate/internal/roles/models"
)

// RoleResponse is the JSON read model of a role
type RoleResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name"`
	Description  string    `json:"description,omitempty"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	ParentID     string    `json:"parent_id,omitempty"`
	IsFullAccess bool      `json:"is_full_access"`
	IsProtected  bool      `json:"is_protected"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromModel converts a role model into its response shape
func FromModel(role *models.Role) RoleResponse {
	response := RoleResponse{
		ID:           role.ID.Hex(),
		Name:         role.Name,
		DisplayName:  role.DisplayName,
		Description:  role.Description,
		Type:         role.Type,
		Status:       role.Status,
		IsFullAccess: role.IsFullAccess,
		IsProtected:  role.IsProtected,
		CreatedBy:    role.CreatedBy,
		CreatedAt:    role.CreatedAt,
		UpdatedAt:    role.UpdatedAt,
	}
	if role.ParentID != nil {
		response.ParentID = role.ParentID.Hex()
	}
	return response
}

// RoleOutput wraps a single role response
type RoleOutput struct {
	Body RoleResponse `json:"body"`
}

// ListRolesResponse is the role listing read model
type ListRolesResponse struct {
	Roles []RoleResponse `json:"roles"`
	Total int            `json:"total"`
}

// ListRolesOutput wraps a role listing
type ListRolesOutput struct {
	Body ListRolesResponse `json:"body"`
}

// EffectivePermissionsResponse carries a role's computed permission set
type EffectivePermissionsResponse struct {
	RoleID           string   `json:"role_id"`
	IncludeInherited bool     `json:"include_inherited"`
	Permissions      []string `json:"permissions"`
}

// EffectivePermissionsOutput wraps a permission set response
type EffectivePermissionsOutput struct {
	Body EffectivePermissionsResponse `json:"body"`
}

// GrantOutput confirms a grant or revoke
type GrantOutput struct {
	Body struct {
		Changed bool   `json:"changed"`
		Message string `json:"message"`
	} `json:"body"`
}

// MatrixOutput wraps the computed grant matrix
type MatrixOutput struct {
	Body models.Matrix `json:"body"`
}

// ApplyMatrixChangesResponse reports per-change outcomes
type ApplyMatrixChangesResponse struct {
	Results []models.ChangeResult `json:"results"`
	Applied int                   `json:"applied"`
	Skipped int                   `json:"skipped"`
	Failed  int                   `json:"failed"`
}

// ApplyMatrixChangesOutput wraps the matrix mutation report
type ApplyMatrixChangesOutput struct {
	Body ApplyMatrixChangesResponse `json:"body"`
}

// DeleteOutput confirms a role deletion
type DeleteOutput struct {
	Body struct {
		Message string `json:"message"`
	} `json:"body"`
}
