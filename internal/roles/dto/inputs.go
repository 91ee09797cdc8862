package dto

// CreateRoleInput represents the input for creating a role
type CreateRoleInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Body          struct {
		Name        string `json:"name" minLength:"3" maxLength:"100" required:"true" description:"Role name"`
		DisplayName string `json:"display_name" maxLength:"100" description:"Human-readable name"`
		Description string `json:"description" maxLength:"500" description:"Role description"`
		ParentID    string `json:"parent_id" description:"Optional parent role ID"`
	} `json:"body"`
}

// UpdateRoleInput represents the input for updating a role
type UpdateRoleInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Role ID"`
	Body          struct {
		DisplayName  *string `json:"display_name" maxLength:"100" description:"Human-readable name"`
		Description  *string `json:"description" maxLength:"500" description:"Role description"`
		Status       *string `json:"status" enum:"active,inactive" description:"Role status"`
		ParentID     *string `json:"parent_id" description:"Parent role ID (empty string clears the parent)"`
		IsFullAccess *bool   `json:"is_full_access" description:"Whether the role bypasses permission checks"`
	} `json:"body"`
}

// GetRoleInput represents the input for fetching a role
type GetRoleInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Role ID"`
}

// DeleteRoleInput represents the input for deleting a role
type DeleteRoleInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Role ID"`
}

// ListRolesInput represents the input for listing roles
type ListRolesInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Type          string `query:"type" enum:"system,custom" description:"Filter by role type"`
	Status        string `query:"status" enum:"active,inactive" description:"Filter by status"`
}

// GrantPermissionInput represents the input for granting a permission to a role
type GrantPermissionInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Role ID"`
	PermissionID  string `path:"permission_id" required:"true" description:"Permission ID"`
}

// RevokePermissionInput represents the input for revoking a permission from a role
type RevokePermissionInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Role ID"`
	PermissionID  string `path:"permission_id" required:"true" description:"Permission ID"`
}

// EffectivePermissionsInput represents the input for a role's permission set
type EffectivePermissionsInput struct {
	Authorization    string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie           string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID               string `path:"id" required:"true" description:"Role ID"`
	IncludeInherited bool   `query:"include_inherited" default:"true" description:"Include permissions inherited from ancestor roles"`
}

// TraverseInput represents the input for hierarchy traversal endpoints
type TraverseInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Role ID"`
}

// DuplicateRoleInput represents the input for duplicating a role
type DuplicateRoleInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Role ID"`
}

// ComputeMatrixInput represents the input for computing the grant matrix
type ComputeMatrixInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	RoleType      string `query:"role_type" enum:"system,custom" description:"Filter roles by type"`
	RoleStatus    string `query:"role_status" enum:"active,inactive" description:"Filter roles by status"`
	Module        string `query:"module" description:"Filter permissions by module"`
}

// ApplyMatrixChangesInput represents the input for bulk grant mutations
type ApplyMatrixChangesInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Body          struct {
		Changes []MatrixChangeRequest `json:"changes" minItems:"1" required:"true" description:"Cell mutations to apply"`
	} `json:"body"`
}

// MatrixChangeRequest is one requested cell mutation
type MatrixChangeRequest struct {
	RoleID       string `json:"role_id" required:"true" description:"Role ID"`
	PermissionID string `json:"permission_id" required:"true" description:"Permission ID"`
	Action       string `json:"action" enum:"grant,revoke" required:"true" description:"Change direction"`
}
