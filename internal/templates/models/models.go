package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplatesCollection is the MongoDB collection name.
const TemplatesCollection = "permission_templates"

// Application modes.
const (
	ModeReplace = "replace"
	ModeAdd     = "add"
	ModeRemove  = "remove"
)

// Application target types.
const (
	TargetRole = "role"
	TargetUser = "user"
)

// PermissionTemplate is a named, reusable permission bundle for bulk
// application. System templates are immutable; only apply and duplicate are
// permitted on them.
type PermissionTemplate struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	DisplayName   string               `bson:"display_name" json:"display_name"`
	Description   string               `bson:"description,omitempty" json:"description,omitempty"`
	Category      string               `bson:"category,omitempty" json:"category,omitempty"`
	PermissionIDs []primitive.ObjectID `bson:"permission_ids" json:"permission_ids"`
	IsSystem      bool                 `bson:"is_system" json:"is_system"`
	IsActive      bool                 `bson:"is_active" json:"is_active"`
	UsageCount    int64                `bson:"usage_count" json:"usage_count"`
	CreatedBy     string               `bson:"created_by,omitempty" json:"created_by,omitempty"`
	UpdatedBy     string               `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	DeletedAt     *time.Time           `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// IsDeleted reports whether the template is soft-deleted.
func (t *PermissionTemplate) IsDeleted() bool {
	return t.DeletedAt != nil
}

// ApplyResult reports one template application.
type ApplyResult struct {
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`
	TargetType   string `json:"target_type"`
	TargetID     string `json:"target_id"`
	Mode         string `json:"mode"`
	Permissions  int    `json:"permissions"`
	Before       int    `json:"before"`
	After        int    `json:"after"`
	Changed      bool   `json:"changed"`
}
