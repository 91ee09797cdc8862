package services

import (
	"context"
	"fmt"
	"log/slog"

	auditmodels "medgate/internal/audit/models"
	"medgate/internal/templates/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the template engine's data-access contract.
type Repository interface {
	Insert(ctx context.Context, template *models.PermissionTemplate) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PermissionTemplate, error)
	GetByName(ctx context.Context, name string) (*models.PermissionTemplate, error)
	Update(ctx context.Context, template *models.PermissionTemplate) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, category string) ([]models.PermissionTemplate, error)
	IncrementUsage(ctx context.Context, id primitive.ObjectID) error
}

// GrantTarget mutates a target's permission set wholesale. Implemented for
// roles by the role service and for users by the user service; the template
// engine owns the audit entry for the whole application.
type GrantTarget interface {
	GrantedPermissionIDs(ctx context.Context, targetID string) ([]primitive.ObjectID, error)
	SetGrantedPermissions(ctx context.Context, targetID string, permissionIDs []primitive.ObjectID, grantedBy string) error
}

// AuditRecorder writes compliance audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *auditmodels.PermissionAuditLog, actor authz.ActorContext) error
}

// UpdateTemplate carries the mutable fields of a template. Nil fields are
// left untouched.
type UpdateTemplate struct {
	DisplayName   *string
	Description   *string
	Category      *string
	PermissionIDs []primitive.ObjectID
	IsActive      *bool
}

// Service implements the permission template engine. Every application
// increments the usage counter and writes exactly one audit entry, even
// when the resulting set is unchanged: an administrative action happened
// either way.
type Service struct {
	repository Repository
	roles      GrantTarget
	users      GrantTarget
	audit      AuditRecorder
	transact   func(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewService creates the template service. mongodb supplies transactional
// scope and may be nil.
func NewService(repository Repository, roles, users GrantTarget, audit AuditRecorder, mongodb *database.MongoDB) *Service {
	transact := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
	if mongodb != nil {
		transact = mongodb.WithTransaction
	}
	return &Service{
		repository: repository,
		roles:      roles,
		users:      users,
		audit:      audit,
		transact:   transact,
	}
}

// Create inserts a new template.
func (s *Service) Create(ctx context.Context, template *models.PermissionTemplate, actor authz.ActorContext) error {
	if template.DisplayName == "" {
		template.DisplayName = template.Name
	}
	if template.CreatedBy == "" {
		template.CreatedBy = actor.UserID
	}

	return s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.Insert(ctx, template); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeTemplateApplication,
			Action:       auditmodels.ActionCreateTemplate,
			ResourceType: "permission_template",
			ResourceID:   template.ID.Hex(),
			ResourceName: template.Name,
			NewValues: map[string]any{
				"name":        template.Name,
				"permissions": len(template.PermissionIDs),
			},
			Description: fmt.Sprintf("Created template %q with %d permission(s)", template.Name, len(template.PermissionIDs)),
		}, actor)
	})
}

// Get retrieves a template by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.PermissionTemplate, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid template id %q", authz.ErrNotFound, id)
	}
	return s.repository.GetByID(ctx, objectID)
}

// GetByName retrieves a non-deleted template by name.
func (s *Service) GetByName(ctx context.Context, name string) (*models.PermissionTemplate, error) {
	return s.repository.GetByName(ctx, name)
}

// List returns active templates, optionally by category.
func (s *Service) List(ctx context.Context, category string) ([]models.PermissionTemplate, error) {
	return s.repository.List(ctx, category)
}

// Update applies changes to a custom template. System templates refuse all
// mutation; only apply and duplicate are permitted on them.
func (s *Service) Update(ctx context.Context, id string, changes UpdateTemplate, actor authz.ActorContext) (*models.PermissionTemplate, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if template.IsDeleted() {
		return nil, fmt.Errorf("%w: template %s is deleted", authz.ErrNotFound, id)
	}
	if template.IsSystem {
		return nil, fmt.Errorf("%w: system template %q cannot be modified", authz.ErrImmutable, template.Name)
	}

	oldValues := map[string]any{}
	newValues := map[string]any{}
	if changes.DisplayName != nil && *changes.DisplayName != template.DisplayName {
		oldValues["display_name"] = template.DisplayName
		newValues["display_name"] = *changes.DisplayName
		template.DisplayName = *changes.DisplayName
	}
	if changes.Description != nil && *changes.Description != template.Description {
		oldValues["description"] = template.Description
		newValues["description"] = *changes.Description
		template.Description = *changes.Description
	}
	if changes.Category != nil && *changes.Category != template.Category {
		oldValues["category"] = template.Category
		newValues["category"] = *changes.Category
		template.Category = *changes.Category
	}
	if changes.PermissionIDs != nil {
		oldValues["permissions"] = len(template.PermissionIDs)
		newValues["permissions"] = len(changes.PermissionIDs)
		template.PermissionIDs = changes.PermissionIDs
	}
	if changes.IsActive != nil && *changes.IsActive != template.IsActive {
		oldValues["is_active"] = template.IsActive
		newValues["is_active"] = *changes.IsActive
		template.IsActive = *changes.IsActive
	}
	if len(newValues) == 0 {
		return template, nil
	}
	template.UpdatedBy = actor.UserID

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.Update(ctx, template); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeTemplateApplication,
			Action:       auditmodels.ActionUpdateTemplate,
			ResourceType: "permission_template",
			ResourceID:   template.ID.Hex(),
			ResourceName: template.Name,
			OldValues:    oldValues,
			NewValues:    newValues,
			Description:  fmt.Sprintf("Updated template %q", template.Name),
		}, actor)
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}

// Delete soft-deletes a custom template. System templates refuse.
func (s *Service) Delete(ctx context.Context, id string, actor authz.ActorContext) error {
	template, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if template.IsDeleted() {
		return fmt.Errorf("%w: template %s is deleted", authz.ErrNotFound, id)
	}
	if template.IsSystem {
		return fmt.Errorf("%w: system template %q cannot be deleted", authz.ErrImmutable, template.Name)
	}

	return s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.SoftDelete(ctx, template.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeTemplateApplication,
			Action:       auditmodels.ActionDeleteTemplate,
			ResourceType: "permission_template",
			ResourceID:   template.ID.Hex(),
			ResourceName: template.Name,
			OldValues:    map[string]any{"name": template.Name},
			Description:  fmt.Sprintf("Deleted template %q", template.Name),
		}, actor)
	})
}

// Apply applies a template to a role or user in replace, add or remove
// mode. One atomic operation: set mutation, usage increment and exactly one
// audit entry commit together. A no-op application still counts and is
// still logged.
func (s *Service) Apply(ctx context.Context, templateID, targetType, targetID, mode string, actor authz.ActorContext) (*models.ApplyResult, error) {
	template, err := s.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template.IsDeleted() {
		return nil, fmt.Errorf("%w: template %s is deleted", authz.ErrNotFound, templateID)
	}

	var target GrantTarget
	switch targetType {
	case models.TargetRole:
		target = s.roles
	case models.TargetUser:
		target = s.users
	default:
		return nil, fmt.Errorf("%w: templates apply to roles and users, not %q", authz.ErrInvalidTarget, targetType)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: no %s target wired", authz.ErrInvalidTarget, targetType)
	}

	switch mode {
	case models.ModeReplace, models.ModeAdd, models.ModeRemove:
	default:
		return nil, fmt.Errorf("%w: unknown application mode %q", authz.ErrInvalidTarget, mode)
	}

	current, err := target.GrantedPermissionIDs(ctx, targetID)
	if err != nil {
		return nil, err
	}
	desired := combine(current, template.PermissionIDs, mode)
	changed := !sameIDSet(current, desired)

	result := &models.ApplyResult{
		TemplateID:   template.ID.Hex(),
		TemplateName: template.Name,
		TargetType:   targetType,
		TargetID:     targetID,
		Mode:         mode,
		Permissions:  len(template.PermissionIDs),
		Before:       len(current),
		After:        len(desired),
		Changed:      changed,
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if changed {
			if err := target.SetGrantedPermissions(ctx, targetID, desired, actor.UserID); err != nil {
				return err
			}
		}
		if err := s.repository.IncrementUsage(ctx, template.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeTemplateApplication,
			Action:       auditmodels.ActionApplyTemplate,
			ResourceType: "permission_template",
			ResourceID:   template.ID.Hex(),
			ResourceName: template.Name,
			SubjectType:  targetType,
			SubjectID:    targetID,
			OldValues:    map[string]any{"permissions": len(current)},
			NewValues:    map[string]any{"permissions": len(desired)},
			Metadata: map[string]any{
				"mode":           mode,
				"template_size":  len(template.PermissionIDs),
				"changed":        changed,
				"template_usage": template.UsageCount + 1,
			},
			Description: fmt.Sprintf("Applied template %q to %s %s in %s mode", template.Name, targetType, targetID, mode),
			Severity:    auditmodels.SeverityMedium,
		}, actor)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("[Templates] Template applied",
		slog.String("template", template.Name),
		slog.String("target_type", targetType),
		slog.String("target_id", targetID),
		slog.String("mode", mode),
		slog.Bool("changed", changed))
	return result, nil
}

// Duplicate creates a custom copy of a template with the same permission
// list. The copy is never system, regardless of the source.
func (s *Service) Duplicate(ctx context.Context, id, newName string, actor authz.ActorContext) (*models.PermissionTemplate, error) {
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if source.IsDeleted() {
		return nil, fmt.Errorf("%w: template %s is deleted", authz.ErrNotFound, id)
	}
	if newName == "" {
		newName = source.Name + " (Copy)"
	}

	copied := &models.PermissionTemplate{
		Name:          newName,
		DisplayName:   source.DisplayName + " (Copy)",
		Description:   source.Description,
		Category:      source.Category,
		PermissionIDs: append([]primitive.ObjectID(nil), source.PermissionIDs...),
		IsActive:      true,
		CreatedBy:     actor.UserID,
	}

	err = s.transact(ctx, func(ctx context.Context) error {
		if err := s.repository.Insert(ctx, copied); err != nil {
			return err
		}
		return s.audit.Record(ctx, &auditmodels.PermissionAuditLog{
			EventType:    auditmodels.EventTypeTemplateApplication,
			Action:       auditmodels.ActionDuplicateTemplate,
			ResourceType: "permission_template",
			ResourceID:   copied.ID.Hex(),
			ResourceName: copied.Name,
			Metadata: map[string]any{
				"source_template_id":   source.ID.Hex(),
				"source_template_name": source.Name,
			},
			Description: fmt.Sprintf("Duplicated template %q as %q", source.Name, copied.Name),
		}, actor)
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

func combine(current, templateIDs []primitive.ObjectID, mode string) []primitive.ObjectID {
	switch mode {
	case models.ModeReplace:
		return dedupe(templateIDs)
	case models.ModeAdd:
		return dedupe(append(append([]primitive.ObjectID(nil), current...), templateIDs...))
	case models.ModeRemove:
		remove := make(map[primitive.ObjectID]bool, len(templateIDs))
		for _, id := range templateIDs {
			remove[id] = true
		}
		var out []primitive.ObjectID
		for _, id := range current {
			if !remove[id] {
				out = append(out, id)
			}
		}
		return out
	}
	return current
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	var out []primitive.ObjectID
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sameIDSet(a, b []primitive.ObjectID) bool {
	setA := make(map[primitive.ObjectID]bool, len(a))
	for _, id := range a {
		setA[id] = true
	}
	setB := make(map[primitive.ObjectID]bool, len(b))
	for _, id := range b {
		setB[id] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if !setB[id] {
			return false
		}
	}
	return true
}
