package models

// AuthenticatedUser is the identity extracted from a verified token. Role
// and permission associations are loaded separately by the users module.
type AuthenticatedUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
