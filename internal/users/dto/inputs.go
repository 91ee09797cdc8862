package dto

// ListUsersInput represents the input for listing users
type ListUsersInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	Status        string `query:"status" enum:"active,inactive" description:"Filter by status"`
}

// GetUserInput represents the input for fetching a user
type GetUserInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	UserID        string `path:"user_id" required:"true" description:"External subject ID"`
}

// SetUserStatusInput represents the input for activating or deactivating a user
type SetUserStatusInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	UserID        string `path:"user_id" required:"true" description:"External subject ID"`
	Body          struct {
		Status string `json:"status" enum:"active,inactive" required:"true" description:"New user status"`
	} `json:"body"`
}

// UserRoleInput represents the input for assigning or removing a role
type UserRoleInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	UserID        string `path:"user_id" required:"true" description:"External subject ID"`
	RoleID        string `path:"role_id" required:"true" description:"Role ID"`
}

// UserPermissionInput represents the input for direct grant mutations
type UserPermissionInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	UserID        string `path:"user_id" required:"true" description:"External subject ID"`
	PermissionID  string `path:"permission_id" required:"true" description:"Permission ID"`
}

// UserPermissionsInput represents the input for reading a user's effective set
type UserPermissionsInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	UserID        string `path:"user_id" required:"true" description:"External subject ID"`
}
