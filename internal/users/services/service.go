package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	auditmodels "medgate/internal/audit/models"
	authmodels "medgate/internal/auth/models"
	registrymodels "medgate/internal/registry/models"
	rolesmodels "medgate/internal/roles/models"
	"medgate/internal/users/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the principal store's data-access contract.
type Repository interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SetUserStatus(ctx context.Context, userID, status string) error
	ListUsers(ctx context.Context, filter bson.M) ([]models.User, error)
	GetAssignment(ctx context.Context, userID string, roleID primitive.ObjectID) (*models.UserRole, error)
	InsertAssignment(ctx context.Context, assignment *models.UserRole) error
	DeleteAssignment(ctx context.Context, userID string, roleID primitive.ObjectID) error
	ListAssignments(ctx context.Context, userID string) ([]models.UserRole, error)
	CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error)
	GetDirectGrant(ctx context.Context, userID string, permissionID primitive.ObjectID) (*models.UserPermission, error)
	InsertDirectGrant(ctx context.Context, grant *models.UserPermission) error
	DeleteDirectGrant(ctx context.Context, userID string, permissionID primitive.ObjectID) error
	ListDirectGrants(ctx context.Context, userID string) ([]models.UserPermission, error)
}

// RoleResolver resolves roles and their effective permission sets.
type RoleResolver interface {
	Get(ctx context.Context, id string) (*rolesmodels.Role, error)
	EffectivePermissions(ctx context.Context, id string, includeInherited bool) (authz.PermissionSet, error)
}

// PermissionLookup resolves permissions from the registry.
type PermissionLookup interface {
	Get(ctx context.Context, id string) (*registrymodels.Permission, error)
}

// AuditRecorder writes compliance audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *auditmodels.PermissionAuditLog, actor authz.ActorContext) error
}

// Service is the principal store: user profiles, role assignments and
// direct permission grants, plus principal resolution for the evaluator.
// Every access change writes one audit entry and drops the user's cached
// permission set.
type Service struct {
	repository  Repository
	roles       RoleResolver
	permissions PermissionLookup
	audit       AuditRecorder
	cache       *authz.PermissionCache
	transact    func(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewService creates the users service. mongodb supplies transactional scope
// and may be nil.
func NewService(repository Repository, roles RoleResolver, permissions PermissionLookup, audit AuditRecorder, cache *authz.PermissionCache, mongodb *database.MongoDB) *Service {
	transact := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
	if mongodb != nil {
		transact = mongodb.WithTransaction
	}
	return &Service{
		repository:  repository,
		roles:       roles,
		permissions: permissions,
		audit:       audit,
		cache:       cache,
		transact:    transact,
	}
}

// SyncProfile refreshes the local user record from a verified token
// identity. Called by the auth layer on each authenticated request.
func (s *Service) SyncProfile(ctx context.Context, identity *authmodels.AuthenticatedUser) error {
	return s.repository.UpsertUser(ctx, &models.User{
		UserID:      identity.UserID,
		Email:       identity.Email,
		DisplayName: identity.Name,
	})
}

// Get retrieves a user by its external subject ID.
func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.repository.GetUser(ctx, userID)
}

// List returns users, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string) ([]models.User, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.repository.ListUsers(ctx, filter)
}

// SetStatus activates or deactivates a user and drops its cached set.
func (s *Service) SetStatus(ctx context.Context, userID, status string, actor authz.ActorContext) error {
	if status != models.UserStatusActive && status != models.UserStatusInactive {
		return fmt.Errorf("%w: unknown user status %q", authz.ErrInvalidTarget, status)
	}
	user, err := s.repository.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Status == status {
		return nil
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.SetUserStatus(ctx, userID, status); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeUserAccessChange,
			Action:       auditmodels.ActionUpdateRole,
			ResourceType: "user",
			ResourceID:   userID,
			ResourceName: user.DisplayName,
			SubjectType:  "user",
			SubjectID:    userID,
			SubjectName:  user.DisplayName,
			OldValues:    map[string]any{"status": user.Status},
			NewValues:    map[string]any{"status": status},
			Description:  fmt.Sprintf("Changed user %s status to %s", userID, status),
			Severity:     auditmodels.SeverityMedium,
		}, actor)
	})
	if err != nil {
		return err
	}

	s.cache.InvalidateUser(ctx, userID)
	return nil
}

// AssignRole assigns a role to a user. Returns false without side effects
// when the assignment already exists.
func (s *Service) AssignRole(ctx context.Context, userID, roleID string, actor authz.ActorContext) (bool, error) {
	role, err := s.roles.Get(ctx, roleID)
	if err != nil {
		return false, err
	}
	if role.IsDeleted() {
		return false, fmt.Errorf("%w: role %q is deleted", authz.ErrNotFound, role.Name)
	}
	if _, err := s.repository.GetAssignment(ctx, userID, role.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, authz.ErrNotFound) {
		return false, err
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		assignment := &models.UserRole{
			UserID:     userID,
			RoleID:     role.ID,
			RoleName:   role.Name,
			AssignedBy: actor.UserID,
		}
		if err := s.repository.InsertAssignment(ctx, assignment); err != nil {
			return err
		}
		return s.audit.Record(ctx, s.assignmentEntry(userID, role, true), actor)
	})
	if err != nil {
		return false, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return true, nil
}

// UnassignRole removes a role from a user. Returns false without side
// effects when the user does not hold the role.
func (s *Service) UnassignRole(ctx context.Context, userID, roleID string, actor authz.ActorContext) (bool, error) {
	role, err := s.roles.Get(ctx, roleID)
	if err != nil {
		return false, err
	}
	if _, err := s.repository.GetAssignment(ctx, userID, role.ID); err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.DeleteAssignment(ctx, userID, role.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, s.assignmentEntry(userID, role, false), actor)
	})
	if err != nil {
		return false, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return true, nil
}

// GrantDirectPermission grants a permission straight to a user, bypassing
// roles. Returns false without side effects when the grant already exists.
func (s *Service) GrantDirectPermission(ctx context.Context, userID, permissionID string, actor authz.ActorContext) (bool, error) {
	permission, err := s.permissions.Get(ctx, permissionID)
	if err != nil {
		return false, err
	}
	if permission.IsDeleted() {
		return false, fmt.Errorf("%w: permission %q is deleted", authz.ErrNotFound, permission.Name)
	}
	if _, err := s.repository.GetDirectGrant(ctx, userID, permission.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, authz.ErrNotFound) {
		return false, err
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		grant := &models.UserPermission{
			UserID:         userID,
			PermissionID:   permission.ID,
			PermissionName: permission.Name,
			GrantedBy:      actor.UserID,
		}
		if err := s.repository.InsertDirectGrant(ctx, grant); err != nil {
			return err
		}
		return s.audit.Record(ctx, s.directGrantEntry(userID, permission, true), actor)
	})
	if err != nil {
		return false, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return true, nil
}

// RevokeDirectPermission removes a user's direct permission grant. Returns
// false without side effects when no such grant exists.
func (s *Service) RevokeDirectPermission(ctx context.Context, userID, permissionID string, actor authz.ActorContext) (bool, error) {
	permission, err := s.permissions.Get(ctx, permissionID)
	if err != nil {
		return false, err
	}
	if _, err := s.repository.GetDirectGrant(ctx, userID, permission.ID); err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.DeleteDirectGrant(ctx, userID, permission.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, s.directGrantEntry(userID, permission, false), actor)
	})
	if err != nil {
		return false, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return true, nil
}

// CountByRole counts users holding the given role.
func (s *Service) CountByRole(ctx context.Context, roleID string) (int64, error) {
	id, err := primitive.ObjectIDFromHex(roleID)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid role id %q", authz.ErrNotFound, roleID)
	}
	return s.repository.CountByRole(ctx, id)
}

// LoadPrincipal resolves a user ID into a principal with direct permissions
// and per-role effective sets loaded. Unknown or deactivated users resolve
// to an empty principal, which the evaluator denies.
func (s *Service) LoadPrincipal(ctx context.Context, userID string) (*authz.Principal, error) {
	principal := &authz.Principal{
		UserID: userID,
		Direct: authz.NewPermissionSet(),
	}

	user, err := s.repository.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			return principal, nil
		}
		return nil, err
	}
	if !user.IsActive() {
		slog.Debug("[Users] Skipping principal resolution for inactive user", slog.String("user_id", userID))
		return principal, nil
	}

	grants, err := s.repository.ListDirectGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, grant := range grants {
		principal.Direct.Add(grant.PermissionName)
	}

	assignments, err := s.repository.ListAssignments(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, assignment := range assignments {
		role, err := s.roles.Get(ctx, assignment.RoleID.Hex())
		if err != nil {
			if errors.Is(err, authz.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if role.IsDeleted() || role.Status != rolesmodels.RoleStatusActive {
			continue
		}
		permissions, err := s.roles.EffectivePermissions(ctx, role.ID.Hex(), true)
		if err != nil {
			return nil, err
		}
		principal.Roles = append(principal.Roles, authz.PrincipalRole{
			ID:           role.ID.Hex(),
			Name:         role.Name,
			IsFullAccess: role.IsFullAccess,
			Permissions:  permissions,
		})
	}
	return principal, nil
}

// EffectivePermissions returns the user's flattened permission set: direct
// grants plus every active role's effective set. A full-access role shows up
// as the wildcard. Cached per user.
func (s *Service) EffectivePermissions(ctx context.Context, userID string) (authz.PermissionSet, error) {
	if cached, ok := s.cache.GetUserSet(ctx, userID); ok {
		return cached, nil
	}

	principal, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := principal.Direct
	for _, role := range principal.Roles {
		set = set.Union(role.Permissions)
		if role.IsFullAccess {
			set.Add(authz.PermissionWildcard)
		}
	}

	s.cache.SetUserSet(ctx, userID, set)
	return set, nil
}

// GrantedPermissionIDs returns the permission ids of a user's direct grants.
func (s *Service) GrantedPermissionIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error) {
	grants, err := s.repository.ListDirectGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(grants))
	for i, grant := range grants {
		ids[i] = grant.PermissionID
	}
	return ids, nil
}

// SetGrantedPermissions replaces a user's direct grant set wholesale. The
// caller (the template engine) owns the audit entry and transaction scope;
// this only diffs and applies the grant state, then drops the user's cache.
func (s *Service) SetGrantedPermissions(ctx context.Context, userID string, permissionIDs []primitive.ObjectID, grantedBy string) error {
	current, err := s.repository.ListDirectGrants(ctx, userID)
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
			if err := s.repository.DeleteDirectGrant(ctx, userID, grant.PermissionID); err != nil {
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
		grant := &models.UserPermission{
			UserID:         userID,
			PermissionID:   permission.ID,
			PermissionName: permission.Name,
			GrantedBy:      grantedBy,
		}
		if err := s.repository.InsertDirectGrant(ctx, grant); err != nil {
			return err
		}
	}

	s.cache.InvalidateUser(ctx, userID)
	return nil
}

func (s *Service) assignmentEntry(userID string, role *rolesmodels.Role, assigned bool) *auditmodels.PermissionAuditLog {
	entry := &auditmodels.PermissionAuditLog{
		EventType:    auditmodels.EventTypeUserAccessChange,
		ResourceType: "user_role",
		ResourceID:   userID,
		SubjectType:  "user",
		SubjectID:    userID,
		Severity:     auditmodels.SeverityMedium,
	}
	if assigned {
		entry.Action = auditmodels.ActionAssignRole
		if role.IsFullAccess {
			entry.Action = auditmodels.ActionGrantAdminAccess
			entry.Severity = auditmodels.SeverityHigh
		}
		entry.Description = fmt.Sprintf("Assigned role %q to user %s", role.Name, userID)
		entry.NewValues = map[string]any{"role": role.Name}
	} else {
		entry.Action = auditmodels.ActionUnassignRole
		entry.Description = fmt.Sprintf("Removed role %q from user %s", role.Name, userID)
		entry.OldValues = map[string]any{"role": role.Name}
	}
	entry.Metadata = map[string]any{"role_id": role.ID.Hex()}
	return entry
}

func (s *Service) directGrantEntry(userID string, permission *registrymodels.Permission, granted bool) *auditmodels.PermissionAuditLog {
	entry := &auditmodels.PermissionAuditLog{
		EventType:        auditmodels.EventTypeUserAccessChange,
		ResourceType:     "user_permission",
		ResourceID:       userID,
		SubjectType:      "user",
		SubjectID:        userID,
		PermissionID:     permission.ID.Hex(),
		PermissionName:   permission.Name,
		PermissionModule: permission.Module,
		Severity:         auditmodels.SeverityMedium,
	}
	if granted {
		entry.Action = auditmodels.ActionGrantDirectPermission
		if authz.IsSecurityModule(permission.Module) {
			entry.Action = auditmodels.ActionGrantSecurityPermission
			entry.Severity = auditmodels.SeverityHigh
		}
		entry.Description = fmt.Sprintf("Granted %q directly to user %s", permission.Name, userID)
		entry.NewValues = map[string]any{"granted": true}
	} else {
		entry.Action = auditmodels.ActionRevokeDirectPermission
		entry.Description = fmt.Sprintf("Revoked direct %q from user %s", permission.Name, userID)
		entry.OldValues = map[string]any{"granted": true}
		entry.NewValues = map[string]any{"granted": false}
	}
	return entry
}
