package dto

import (
	"time"

	"medgate/internal/users/models"
)

// UserResponse is the JSON read model of a user
type UserResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Status      string     `json:"status"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FromModel converts a user model into its response shape
func FromModel(user *models.User) UserResponse {
	return UserResponse{
		ID:          user.ID.Hex(),
		UserID:      user.UserID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Status:      user.Status,
		LastSeenAt:  user.LastSeenAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// UserOutput wraps a single user response
type UserOutput struct {
	Body UserResponse `json:"body"`
}

// ListUsersResponse is the user listing read model
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// ListUsersOutput wraps a user listing
type ListUsersOutput struct {
	Body ListUsersResponse `json:"body"`
}

// UserPermissionsResponse carries a user's flattened permission set
type UserPermissionsResponse struct {
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// UserPermissionsOutput wraps a user permission set response
type UserPermissionsOutput struct {
	Body UserPermissionsResponse `json:"body"`
}

// ChangeOutput confirms an access mutation
type ChangeOutput struct {
	Body struct {
		Changed bool   `json:"changed"`
		Message string `json:"message"`
	} `json:"body"`
}
