package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names for the role graph.
const (
	RolesCollection           = "roles"
	RolePermissionsCollection = "role_permissions"
	UserRolesCollection       = "user_roles"
)

// Role types and statuses.
const (
	RoleTypeSystem = "system"
	RoleTypeCustom = "custom"

	RoleStatusActive   = "active"
	RoleStatusInactive = "inactive"
)

// Role is a named bundle of permission grants, optionally hierarchical via
// ParentID. Full access is an explicit capability flag, never derived from
// the role's name.
type Role struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	DisplayName  string              `bson:"display_name" json:"display_name"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty"`
	Type         string              `bson:"type" json:"type"`
	Status       string              `bson:"status" json:"status"`
	ParentID     *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	IsFullAccess bool                `bson:"is_full_access" json:"is_full_access"`
	IsProtected  bool                `bson:"is_protected" json:"is_protected"`
	CreatedBy    string              `bson:"created_by,omitempty" json:"created_by,omitempty"`
	DeletedAt    *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

// IsDeleted reports whether the role is soft-deleted.
func (r *Role) IsDeleted() bool {
	return r.DeletedAt != nil
}

// CanBeModified reports whether the role accepts edits. Protected roles
// (the seeded full-access role) are never modifiable; other system roles
// accept edits short of deletion and retyping.
func (r *Role) CanBeModified() bool {
	return !r.IsProtected
}

// CanBeDeleted reports whether the role may be deleted given its current
// user assignment count.
func (r *Role) CanBeDeleted(assignedUsers int64) bool {
	return r.Type != RoleTypeSystem && assignedUsers == 0
}

// RolePermission is the grant join between a role and a permission. The
// permission name is snapshotted so grants stay readable after registry
// renames.
type RolePermission struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoleID         primitive.ObjectID `bson:"role_id" json:"role_id"`
	PermissionID   primitive.ObjectID `bson:"permission_id" json:"permission_id"`
	PermissionName string             `bson:"permission_name" json:"permission_name"`
	IsGranted      bool               `bson:"is_granted" json:"is_granted"`
	Conditions     map[string]any     `bson:"conditions,omitempty" json:"conditions,omitempty"`
	GrantedAt      time.Time          `bson:"granted_at" json:"granted_at"`
	GrantedBy      string             `bson:"granted_by,omitempty" json:"granted_by,omitempty"`
}

// Matrix is the dense role x permission grant grid. Cells[i][j] describes
// role Roles[i] against permission Permissions[j].
type Matrix struct {
	Roles       []MatrixRole       `json:"roles"`
	Permissions []MatrixPermission `json:"permissions"`
	Cells       [][]MatrixCell     `json:"cells"`
}

// MatrixRole is the role axis of the matrix.
type MatrixRole struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Type         string `json:"type"`
	IsFullAccess bool   `json:"is_full_access"`
}

// MatrixPermission is the permission axis of the matrix.
type MatrixPermission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Module      string `json:"module"`
}

// MatrixCell is one grant flag plus its metadata. Inherited is an extension
// point for hierarchy-aware grids and stays false in the base computation.
type MatrixCell struct {
	Granted   bool       `json:"granted"`
	Inherited bool       `json:"inherited"`
	GrantedAt *time.Time `json:"granted_at,omitempty"`
	GrantedBy string     `json:"granted_by,omitempty"`
}

// Matrix change actions.
const (
	MatrixActionGrant  = "grant"
	MatrixActionRevoke = "revoke"
)

// MatrixChange is one requested cell mutation.
type MatrixChange struct {
	RoleID       string `json:"role_id"`
	PermissionID string `json:"permission_id"`
	Action       string `json:"action"`
}

// ChangeResult reports the outcome of one matrix change. Changes already in
// their target state are skipped without an audit entry; failures are
// captured per change and never abort the batch.
type ChangeResult struct {
	Change  MatrixChange `json:"change"`
	Applied bool         `json:"applied"`
	Skipped bool         `json:"skipped"`
	Error   string       `json:"error,omitempty"`
}
