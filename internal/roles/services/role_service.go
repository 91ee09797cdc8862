package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	auditmodels "medgate/internal/audit/models"
	registrymodels "medgate/internal/registry/models"
	"medgate/internal/roles/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the role graph's data-access contract.
type Repository interface {
	InsertRole(ctx context.Context, role *models.Role) error
	GetRole(ctx context.Context, id primitive.ObjectID) (*models.Role, error)
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	UpdateRole(ctx context.Context, role *models.Role) error
	SoftDeleteRole(ctx context.Context, id primitive.ObjectID) error
	ListRoles(ctx context.Context, filter bson.M) ([]models.Role, error)
	ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Role, error)
	CountAssignedUsers(ctx context.Context, roleID primitive.ObjectID) (int64, error)
	GetGrant(ctx context.Context, roleID, permissionID primitive.ObjectID) (*models.RolePermission, error)
	InsertGrant(ctx context.Context, grant *models.RolePermission) error
	DeleteGrant(ctx context.Context, roleID, permissionID primitive.ObjectID) error
	ListGrants(ctx context.Context, roleID primitive.ObjectID) ([]models.RolePermission, error)
	ListGrantsForRoles(ctx context.Context, roleIDs []primitive.ObjectID) ([]models.RolePermission, error)
}

// PermissionLookup resolves permissions from the registry.
type PermissionLookup interface {
	Get(ctx context.Context, id string) (*registrymodels.Permission, error)
	ListByModule(ctx context.Context, module string) ([]registrymodels.Permission, error)
	ListAll(ctx context.Context) ([]registrymodels.Permission, error)
}

// AuditRecorder writes compliance audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *auditmodels.PermissionAuditLog, actor authz.ActorContext) error
}

// UpdateRole carries the mutable fields of a role. Nil fields are left
// untouched; ParentID accepts an empty string to clear the parent.
type UpdateRole struct {
	DisplayName  *string
	Description  *string
	Status       *string
	Type         *string
	ParentID     *string
	IsFullAccess *bool
}

// RoleService implements the role graph: CRUD, grants, hierarchy traversal
// and effective permission sets. Every mutation writes one audit entry in
// the same transaction and invalidates the affected cache entries.
type RoleService struct {
	repository  Repository
	permissions PermissionLookup
	audit       AuditRecorder
	cache       *authz.PermissionCache
	transact    func(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewRoleService creates the role service. mongodb supplies transactional
// scope and may be nil (mutation and audit write then commit independently).
func NewRoleService(repository Repository, permissions PermissionLookup, audit AuditRecorder, cache *authz.PermissionCache, mongodb *database.MongoDB) *RoleService {
	transact := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
	if mongodb != nil {
		transact = mongodb.WithTransaction
	}
	return &RoleService{
		repository:  repository,
		permissions: permissions,
		audit:       audit,
		cache:       cache,
		transact:    transact,
	}
}

// Create inserts a new role and records its creation.
func (s *RoleService) Create(ctx context.Context, role *models.Role, actor authz.ActorContext) error {
	if role.Type == "" {
		role.Type = models.RoleTypeCustom
	}
	if role.Status == "" {
		role.Status = models.RoleStatusActive
	}
	if role.CreatedBy == "" {
		role.CreatedBy = actor.UserID
	}
	if role.ParentID != nil {
		parent, err := s.repository.GetRole(ctx, *role.ParentID)
		if err != nil {
			return err
		}
		if parent.IsDeleted() {
			return fmt.Errorf("%w: parent role %q is deleted", authz.ErrNotFound, parent.Name)
		}
	}

	return s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.InsertRole(ctx, role); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeRoleMutation,
			Action:       createRoleAction(role),
			ResourceType: "role",
			ResourceID:   role.ID.Hex(),
			ResourceName: role.Name,
			SubjectType:  "role",
			SubjectID:    role.ID.Hex(),
			SubjectName:  role.Name,
			NewValues: map[string]any{
				"name":           role.Name,
				"type":           role.Type,
				"is_full_access": role.IsFullAccess,
			},
			Description: fmt.Sprintf("Created role %q", role.Name),
			Severity:    roleSeverity(role),
		}, actor)
	})
}

// Get retrieves a role by ID.
func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role id %q", authz.ErrNotFound, id)
	}
	return s.repository.GetRole(ctx, objectID)
}

// GetByName retrieves a non-deleted role by name.
func (s *RoleService) GetByName(ctx context.Context, name string) (*models.Role, error) {
	return s.repository.GetRoleByName(ctx, name)
}

// List returns non-deleted roles, optionally filtered by type and status.
func (s *RoleService) List(ctx context.Context, roleType, status string) ([]models.Role, error) {
	filter := bson.M{}
	if roleType != "" {
		filter["type"] = roleType
	}
	if status != "" {
		filter["status"] = status
	}
	return s.repository.ListRoles(ctx, filter)
}

// Update applies changes to a role. Protected roles refuse all edits; no
// role may be retyped. Parent changes are checked against the descendant
// set so the hierarchy stays acyclic.
func (s *RoleService) Update(ctx context.Context, id string, changes UpdateRole, actor authz.ActorContext) (*models.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsDeleted() {
		return nil, fmt.Errorf("%w: role %s is deleted", authz.ErrNotFound, id)
	}
	if !role.CanBeModified() {
		return nil, fmt.Errorf("%w: role %q is protected", authz.ErrImmutable, role.Name)
	}
	if changes.Type != nil && *changes.Type != role.Type {
		return nil, fmt.Errorf("%w: role %q cannot be retyped", authz.ErrImmutable, role.Name)
	}

	oldValues := map[string]any{}
	newValues := map[string]any{}

	if changes.DisplayName != nil && *changes.DisplayName != role.DisplayName {
		oldValues["display_name"] = role.DisplayName
		newValues["display_name"] = *changes.DisplayName
		role.DisplayName = *changes.DisplayName
	}
	if changes.Description != nil && *changes.Description != role.Description {
		oldValues["description"] = role.Description
		newValues["description"] = *changes.Description
		role.Description = *changes.Description
	}
	if changes.Status != nil && *changes.Status != role.Status {
		oldValues["status"] = role.Status
		newValues["status"] = *changes.Status
		role.Status = *changes.Status
	}
	if changes.ParentID != nil {
		parentID, err := s.resolveParent(ctx, role, *changes.ParentID)
		if err != nil {
			return nil, err
		}
		oldValues["parent_id"] = hexOrEmpty(role.ParentID)
		newValues["parent_id"] = hexOrEmpty(parentID)
		role.ParentID = parentID
	}

	action := auditmodels.ActionUpdateRole
	if changes.IsFullAccess != nil && *changes.IsFullAccess != role.IsFullAccess {
		oldValues["is_full_access"] = role.IsFullAccess
		newValues["is_full_access"] = *changes.IsFullAccess
		role.IsFullAccess = *changes.IsFullAccess
		if role.IsFullAccess {
			action = auditmodels.ActionGrantAdminAccess
		}
	}

	if len(newValues) == 0 {
		return role, nil
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.UpdateRole(ctx, role); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeRoleMutation,
			Action:       action,
			ResourceType: "role",
			ResourceID:   role.ID.Hex(),
			ResourceName: role.Name,
			SubjectType:  "role",
			SubjectID:    role.ID.Hex(),
			SubjectName:  role.Name,
			OldValues:    oldValues,
			NewValues:    newValues,
			Description:  fmt.Sprintf("Updated role %q", role.Name),
		}, actor)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRole(ctx, role.ID)
	return role, nil
}

// Delete soft-deletes a custom role with no assigned users.
func (s *RoleService) Delete(ctx context.Context, id string, actor authz.ActorContext) error {
	role, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if role.IsDeleted() {
		return fmt.Errorf("%w: role %s is deleted", authz.ErrNotFound, id)
	}
	if role.Type == models.RoleTypeSystem {
		return fmt.Errorf("%w: system role %q cannot be deleted", authz.ErrImmutable, role.Name)
	}
	assigned, err := s.repository.CountAssignedUsers(ctx, role.ID)
	if err != nil {
		return err
	}
	if !role.CanBeDeleted(assigned) {
		return fmt.Errorf("%w: role %q has %d assigned user(s)", authz.ErrConflict, role.Name, assigned)
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.SoftDeleteRole(ctx, role.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeRoleMutation,
			Action:       auditmodels.ActionDeleteRole,
			ResourceType: "role",
			ResourceID:   role.ID.Hex(),
			ResourceName: role.Name,
			SubjectType:  "role",
			SubjectID:    role.ID.Hex(),
			SubjectName:  role.Name,
			OldValues:    map[string]any{"name": role.Name, "type": role.Type},
			Description:  fmt.Sprintf("Deleted role %q", role.Name),
			Severity:     auditmodels.SeverityMedium,
		}, actor)
	})
	if err != nil {
		return err
	}

	s.invalidateRole(ctx, role.ID)
	return nil
}

// GrantPermission grants a permission to a role. Idempotent: an existing
// grant is left untouched and produces no audit entry. Returns whether the
// grant state changed.
func (s *RoleService) GrantPermission(ctx context.Context, roleID, permissionID string, actor authz.ActorContext) (bool, error) {
	role, err := s.Get(ctx, roleID)
	if err != nil {
		return false, err
	}
	if role.IsDeleted() {
		return false, fmt.Errorf("%w: role %s is deleted", authz.ErrNotFound, roleID)
	}
	permission, err := s.permissions.Get(ctx, permissionID)
	if err != nil {
		return false, err
	}
	if permission.IsDeleted() {
		return false, fmt.Errorf("%w: permission %q is deleted", authz.ErrNotFound, permission.Name)
	}

	if _, err := s.repository.GetGrant(ctx, role.ID, permission.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, authz.ErrNotFound) {
		return false, err
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		grant := &models.RolePermission{
			RoleID:         role.ID,
			PermissionID:   permission.ID,
			PermissionName: permission.Name,
			GrantedBy:      actor.UserID,
		}
		if err := s.repository.InsertGrant(ctx, grant); err != nil {
			return err
		}
		return s.audit.Record(ctx, s.grantEntry(role, permission, true), actor)
	})
	if err != nil {
		return false, err
	}

	s.invalidateRole(ctx, role.ID)
	return true, nil
}

// RevokePermission removes a grant from a role. Idempotent: an absent grant
// is a no-op without an audit entry.
func (s *RoleService) RevokePermission(ctx context.Context, roleID, permissionID string, actor authz.ActorContext) (bool, error) {
	role, err := s.Get(ctx, roleID)
	if err != nil {
		return false, err
	}
	permission, err := s.permissions.Get(ctx, permissionID)
	if err != nil {
		return false, err
	}

	if _, err := s.repository.GetGrant(ctx, role.ID, permission.ID); err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.DeleteGrant(ctx, role.ID, permission.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, s.grantEntry(role, permission, false), actor)
	})
	if err != nil {
		return false, err
	}

	s.invalidateRole(ctx, role.ID)
	return true, nil
}

// GetAncestors walks the parent chain from the role upward. A repeated role
// in the chain fails closed with ErrCycleDetected.
func (s *RoleService) GetAncestors(ctx context.Context, id string) ([]models.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	visited := map[primitive.ObjectID]bool{role.ID: true}
	var ancestors []models.Role
	current := role
	for current.ParentID != nil {
		parentID := *current.ParentID
		if visited[parentID] {
			slog.Error("Cycle detected in role hierarchy",
				slog.String("role", role.Name),
				slog.String("repeated_id", parentID.Hex()))
			return nil, fmt.Errorf("%w: role %q ancestry revisits %s", authz.ErrCycleDetected, role.Name, parentID.Hex())
		}
		visited[parentID] = true

		parent, err := s.repository.GetRole(ctx, parentID)
		if err != nil {
			if errors.Is(err, authz.ErrNotFound) {
				break
			}
			return nil, err
		}
		if parent.IsDeleted() {
			break
		}
		ancestors = append(ancestors, *parent)
		current = parent
	}
	return ancestors, nil
}

// GetDescendants collects every role below the given role, breadth-first.
// The result never includes the role itself; a revisited role fails closed
// with ErrCycleDetected.
func (s *RoleService) GetDescendants(ctx context.Context, id string) ([]models.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	visited := map[primitive.ObjectID]bool{role.ID: true}
	var descendants []models.Role
	queue := []primitive.ObjectID{role.ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.repository.ListChildren(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child.ID] {
				slog.Error("Cycle detected in role hierarchy",
					slog.String("role", role.Name),
					slog.String("repeated_id", child.ID.Hex()))
				return nil, fmt.Errorf("%w: role %q descendants revisit %s", authz.ErrCycleDetected, role.Name, child.ID.Hex())
			}
			visited[child.ID] = true
			descendants = append(descendants, child)
			queue = append(queue, child.ID)
		}
	}
	return descendants, nil
}

// EffectivePermissions computes a role's permission name set: its own grants
// plus, when includeInherited is set, every ancestor's grants. The inherited
// set is the cached derived state, recomputed lazily after invalidation.
func (s *RoleService) EffectivePermissions(ctx context.Context, id string, includeInherited bool) (authz.PermissionSet, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if includeInherited {
		if cached, ok := s.cache.GetRoleSet(ctx, role.ID.Hex()); ok {
			return cached, nil
		}
	}

	set := authz.NewPermissionSet()
	grants, err := s.repository.ListGrants(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	for _, grant := range grants {
		set.Add(grant.PermissionName)
	}

	if includeInherited {
		ancestors, err := s.GetAncestors(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, ancestor := range ancestors {
			ancestorGrants, err := s.repository.ListGrants(ctx, ancestor.ID)
			if err != nil {
				return nil, err
			}
			for _, grant := range ancestorGrants {
				set.Add(grant.PermissionName)
			}
		}
		s.cache.SetRoleSet(ctx, role.ID.Hex(), set)
	}
	return set, nil
}

// Duplicate creates a custom copy of a role carrying the role's own grants.
// User assignments, full access and protection flags never carry over.
func (s *RoleService) Duplicate(ctx context.Context, id string, actor authz.ActorContext) (*models.Role, error) {
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if source.IsDeleted() {
		return nil, fmt.Errorf("%w: role %s is deleted", authz.ErrNotFound, id)
	}

	grants, err := s.repository.ListGrants(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	copied := &models.Role{
		Name:        source.Name + " (Copy)",
		DisplayName: source.DisplayName + " (Copy)",
		Description: source.Description,
		Type:        models.RoleTypeCustom,
		Status:      models.RoleStatusActive,
		ParentID:    source.ParentID,
		CreatedBy:   actor.UserID,
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.InsertRole(ctx, copied); err != nil {
			return err
		}
		for _, grant := range grants {
			newGrant := &models.RolePermission{
				RoleID:         copied.ID,
				PermissionID:   grant.PermissionID,
				PermissionName: grant.PermissionName,
				Conditions:     grant.Conditions,
				GrantedBy:      actor.UserID,
			}
			if err := s.repository.InsertGrant(ctx, newGrant); err != nil {
				return err
			}
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeRoleMutation,
			Action:       auditmodels.ActionDuplicateRole,
			ResourceType: "role",
			ResourceID:   copied.ID.Hex(),
			ResourceName: copied.Name,
			SubjectType:  "role",
			SubjectID:    copied.ID.Hex(),
			SubjectName:  copied.Name,
			Metadata: map[string]any{
				"source_role_id":   source.ID.Hex(),
				"source_role_name": source.Name,
				"copied_grants":    len(grants),
			},
			Description: fmt.Sprintf("Duplicated role %q as %q", source.Name, copied.Name),
		}, actor)
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

// GrantedPermissionIDs returns the permission ids of a role's own grants.
func (s *RoleService) GrantedPermissionIDs(ctx context.Context, roleID string) ([]primitive.ObjectID, error) {
	role, err := s.Get(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsDeleted() {
		return nil, fmt.Errorf("%w: role %s is deleted", authz.ErrNotFound, roleID)
	}
	grants, err := s.repository.ListGrants(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(grants))
	for i, grant := range grants {
		ids[i] = grant.PermissionID
	}
	return ids, nil
}

// SetGrantedPermissions replaces a role's grant set wholesale. The caller
// (the template engine) owns the audit entry and transaction scope; this
// only diffs and applies the grant state, then drops the affected caches.
func (s *RoleService) SetGrantedPermissions(ctx context.Context, roleID string, permissionIDs []primitive.ObjectID, grantedBy string) error {
	role, err := s.Get(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsDeleted() {
		return fmt.Errorf("%w: role %s is deleted", authz.ErrNotFound, roleID)
	}

	current, err := s.repository.ListGrants(ctx, role.ID)
	if err != nil {
		return err
	}
	desired := make(map[primitive.ObjectID]bool, len(permissionIDs))
	for _, id := range permissionIDs {
		desired[id] = true
	}
	existing := make(map[primitive.ObjectID]bool, len(current))
	for _, grant := range current {
		existing[grant.PermissionID] = true
		if !desired[grant.PermissionID] {
			if err := s.repository.DeleteGrant(ctx, role.ID, grant.PermissionID); err != nil {
				return err
			}
		}
	}
	for _, permissionID := range permissionIDs {
		if existing[permissionID] {
			continue
		}
		permission, err := s.permissions.Get(ctx, permissionID.Hex())
		if err != nil {
			return err
		}
		grant := &models.RolePermission{
			RoleID:         role.ID,
			PermissionID:   permission.ID,
			PermissionName: permission.Name,
			GrantedBy:      grantedBy,
		}
		if err := s.repository.InsertGrant(ctx, grant); err != nil {
			return err
		}
	}

	s.invalidateRole(ctx, role.ID)
	return nil
}

// SeedSystemRoles ensures the seeded full-access roles exist. The protected
// role is the one role that can never be modified.
func (s *RoleService) SeedSystemRoles(ctx context.Context) error {
	seeds := []models.Role{
		{
			Name:         authz.SuperAdminRoleName,
			DisplayName:  "Super Administrator",
			Description:  "Unrestricted platform access",
			Type:         models.RoleTypeSystem,
			Status:       models.RoleStatusActive,
			IsFullAccess: true,
			IsProtected:  true,
		},
		{
			Name:         authz.AdminRoleName,
			DisplayName:  "Administrator",
			Description:  "Full administrative access",
			Type:         models.RoleTypeSystem,
			Status:       models.RoleStatusActive,
			IsFullAccess: true,
		},
	}

	for i := range seeds {
		seed := seeds[i]
		_, err := s.repository.GetRoleByName(ctx, seed.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, authz.ErrNotFound) {
			return err
		}
		if err := s.Create(ctx, &seed, authz.SystemActor()); err != nil {
			return fmt.Errorf("failed to seed role %q: %w", seed.Name, err)
		}
		slog.Info("[Roles] Seeded system role", slog.String("name", seed.Name))
	}
	return nil
}

func (s *RoleService) grantEntry(role *models.Role, permission *registrymodels.Permission, granted bool) *auditmodels.PermissionAuditLog {
	action := auditmodels.ActionRevokePermission
	description := fmt.Sprintf("Revoked %q from role %q", permission.Name, role.Name)
	values := map[string]any{"granted": granted}
	entry := &auditmodels.PermissionAuditLog{
		EventType:        auditmodels.EventTypePermissionMutation,
		ResourceType:     "role_permission",
		ResourceID:       role.ID.Hex(),
		ResourceName:     role.Name,
		SubjectType:      "role",
		SubjectID:        role.ID.Hex(),
		SubjectName:      role.Name,
		PermissionID:     permission.ID.Hex(),
		PermissionName:   permission.Name,
		PermissionModule: permission.Module,
		Severity:         auditmodels.SeverityMedium,
	}
	if granted {
		action = auditmodels.ActionGrantPermission
		if authz.IsSecurityModule(permission.Module) {
			action = auditmodels.ActionGrantSecurityPermission
			entry.Severity = auditmodels.SeverityHigh
		}
		description = fmt.Sprintf("Granted %q to role %q", permission.Name, role.Name)
		entry.NewValues = values
	} else {
		entry.OldValues = map[string]any{"granted": true}
		entry.NewValues = map[string]any{"granted": false}
	}
	entry.Action = action
	entry.Description = description
	return entry
}

func (s *RoleService) resolveParent(ctx context.Context, role *models.Role, parentHex string) (*primitive.ObjectID, error) {
	if parentHex == "" {
		return nil, nil
	}
	parentID, err := primitive.ObjectIDFromHex(parentHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid parent role id %q", authz.ErrNotFound, parentHex)
	}
	if parentID == role.ID {
		return nil, fmt.Errorf("%w: role %q cannot be its own parent", authz.ErrCycleDetected, role.Name)
	}
	parent, err := s.repository.GetRole(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.IsDeleted() {
		return nil, fmt.Errorf("%w: parent role %q is deleted", authz.ErrNotFound, parent.Name)
	}

	// Reparenting under a descendant would close a loop.
	descendants, err := s.GetDescendants(ctx, role.ID.Hex())
	if err != nil {
		return nil, err
	}
	for _, descendant := range descendants {
		if descendant.ID == parentID {
			return nil, fmt.Errorf("%w: role %q is a descendant of %q", authz.ErrCycleDetected, parent.Name, role.Name)
		}
	}
	return &parentID, nil
}

// invalidateRole drops the cached sets for the role and every role that
// inherits through it, then every user set.
func (s *RoleService) invalidateRole(ctx context.Context, roleID primitive.ObjectID) {
	s.cache.InvalidateRole(ctx, roleID.Hex())
	if descendants, err := s.GetDescendants(ctx, roleID.Hex()); err == nil {
		for _, descendant := range descendants {
			s.cache.InvalidateRole(ctx, descendant.ID.Hex())
		}
	}
	s.cache.InvalidateAllUsers(ctx)
}

func createRoleAction(role *models.Role) string {
	switch {
	case role.IsProtected:
		return auditmodels.ActionCreateSuperAdmin
	case role.IsFullAccess:
		return auditmodels.ActionGrantAdminAccess
	default:
		return auditmodels.ActionCreateRole
	}
}

func roleSeverity(role *models.Role) auditmodels.Severity {
	if role.IsFullAccess || role.IsProtected {
		return auditmodels.SeverityHigh
	}
	return auditmodels.SeverityLow
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
