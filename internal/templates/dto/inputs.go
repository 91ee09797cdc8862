package dto

// CreateTemplateInput represents the input for creating a template
type CreateTemplateInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Body          struct {
		Name          string   `json:"name" minLength:"3" maxLength:"100" required:"true" description:"Template name"`
		DisplayName   string   `json:"display_name" maxLength:"100" description:"Human-readable name"`
		Description   string   `json:"description" maxLength:"500" description:"Template description"`
		Category      string   `json:"category" maxLength:"50" description:"UI grouping category"`
		PermissionIDs []string `json:"permission_ids" required:"true" description:"Ordered permission IDs in the bundle"`
	} `json:"body"`
}

// UpdateTemplateInput represents the input for updating a template
type UpdateTemplateInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Template ID"`
	Body          struct {
		DisplayName   *string  `json:"display_name" maxLength:"100" description:"Human-readable name"`
		Description   *string  `json:"description" maxLength:"500" description:"Template description"`
		Category      *string  `json:"category" maxLength:"50" description:"UI grouping category"`
		PermissionIDs []string `json:"permission_ids" description:"Ordered permission IDs in the bundle"`
		IsActive      *bool    `json:"is_active" description:"Whether the template is active"`
	} `json:"body"`
}

// GetTemplateInput represents the input for fetching a template
type GetTemplateInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Template ID"`
}

// DeleteTemplateInput represents the input for deleting a template
type DeleteTemplateInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Template ID"`
}

// ListTemplatesInput represents the input for listing templates
type ListTemplatesInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Category      string `query:"category" description:"Filter by category"`
}

// ApplyTemplateInput represents the input for applying a template
type ApplyTemplateInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Template ID"`
	Body          struct {
		TargetType string `json:"target_type" enum:"role,user" required:"true" description:"Application target type"`
		TargetID   string `json:"target_id" required:"true" description:"Target role or user ID"`
		Mode       string `json:"mode" enum:"replace,add,remove" required:"true" description:"Application mode"`
	} `json:"body"`
}

// DuplicateTemplateInput represents the input for duplicating a template
type DuplicateTemplateInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Template ID"`
	Body          struct {
		Name string `json:"name" maxLength:"100" description:"Name for the copy (defaults to the source name with a Copy suffix)"`
	} `json:"body"`
}
