package dto

// CreatePermissionInput represents the input for registering a permission
type CreatePermissionInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Body          struct {
		Name        string `json:"name" maxLength:"100" description:"Dotted permission key (derived from display name and module when omitted)"`
		DisplayName string `json:"display_name" minLength:"3" maxLength:"100" required:"true" description:"Human-readable name"`
		Module      string `json:"module" minLength:"2" maxLength:"50" required:"true" description:"Module grouping tag"`
		Action      string `json:"action" maxLength:"50" description:"Action verb"`
		Resource    string `json:"resource" maxLength:"50" description:"Resource noun"`
		Priority    int    `json:"priority" minimum:"0" description:"Ordering tie-break within a module"`
		Description string `json:"description" maxLength:"500" description:"Permission description"`
	} `json:"body"`
}

// UpdatePermissionInput represents the input for updating a permission
type UpdatePermissionInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Permission ID"`
	Body          struct {
		Name        *string `json:"name" maxLength:"100" description:"Dotted permission key"`
		DisplayName *string `json:"display_name" minLength:"3" maxLength:"100" description:"Human-readable name"`
		Module      *string `json:"module" maxLength:"50" description:"Module grouping tag"`
		Action      *string `json:"action" maxLength:"50" description:"Action verb"`
		Resource    *string `json:"resource" maxLength:"50" description:"Resource noun"`
		Priority    *int    `json:"priority" minimum:"0" description:"Ordering tie-break within a module"`
		Description *string `json:"description" maxLength:"500" description:"Permission description"`
		IsActive    *bool   `json:"is_active" description:"Whether the permission is active"`
	} `json:"body"`
}

// GetPermissionInput represents the input for fetching a single permission
type GetPermissionInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Permission ID"`
}

// DeletePermissionInput represents the input for soft-deleting a permission
type DeletePermissionInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Permission ID"`
}

// ListPermissionsInput represents the input for listing permissions
type ListPermissionsInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Module        string `query:"module" description:"Filter by module"`
	Action        string `query:"action" description:"Filter by action verb"`
	Resource      string `query:"resource" description:"Filter by resource noun"`
}

// GenerateKeyInput represents the input for deriving a permission key
type GenerateKeyInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Body          struct {
		Name   string `json:"name" minLength:"1" maxLength:"100" required:"true" description:"Human name to derive the key from"`
		Module string `json:"module" minLength:"2" maxLength:"50" required:"true" description:"Module grouping tag"`
	} `json:"body"`
}

// CategoriesInput represents the input for listing catalog categories
type CategoriesInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
}
