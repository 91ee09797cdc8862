package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection name for the permission registry.
const PermissionsCollection = "permissions"

// DefaultGuard is the guard applied when a permission is registered without
// one. Uniqueness of permission names is scoped per guard.
const DefaultGuard = "api"

// Permission is an atomic capability in the registry. Name is the dotted
// module.action key, unique per (name, guard) among non-deleted rows.
type Permission struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Guard       string             `bson:"guard" json:"guard"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Module      string             `bson:"module" json:"module"`
	Action      string             `bson:"action" json:"action"`
	Resource    string             `bson:"resource" json:"resource"`
	IsSystem    bool               `bson:"is_system" json:"is_system"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	Priority    int                `bson:"priority" json:"priority"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	DeletedAt   *time.Time         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsDeleted reports whether the permission is soft-deleted.
func (p *Permission) IsDeleted() bool {
	return p.DeletedAt != nil
}
