package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoDB collection names. Role assignments live in the same collection the
// roles module counts against for its delete guard.
const (
	UsersCollection           = "users"
	UserPermissionsCollection = "user_permissions"
)

// User statuses
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User is the slim principal record. Role assignments and direct permission
// grants live in their own collections; the user document only carries
// identity and status. UserID is the external subject from the identity
// token, not the Mongo ID.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	DisplayName string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Status      string             `bson:"status" json:"status"`
	LastSeenAt  *time.Time         `bson:"last_seen_at,omitempty" json:"last_seen_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the user may be resolved into a principal.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// UserRole assigns a role to a user. RoleName is snapshotted at assignment
// time for audit readability.
type UserRole struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	RoleID     primitive.ObjectID `bson:"role_id" json:"role_id"`
	RoleName   string             `bson:"role_name" json:"role_name"`
	AssignedAt time.Time          `bson:"assigned_at" json:"assigned_at"`
	AssignedBy string             `bson:"assigned_by,omitempty" json:"assigned_by,omitempty"`
}

// UserPermission grants a permission directly to a user, bypassing roles.
// PermissionName is snapshotted like role grants.
type UserPermission struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	PermissionID   primitive.ObjectID `bson:"permission_id" json:"permission_id"`
	PermissionName string             `bson:"permission_name" json:"permission_name"`
	GrantedAt      time.Time          `bson:"granted_at" json:"granted_at"`
	GrantedBy      string             `bson:"granted_by,omitempty" json:"granted_by,omitempty"`
}
