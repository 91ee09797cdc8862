package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"medgate/internal/registry/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	listCachePrefix  = "registry:list:"
	listCachePattern = listCachePrefix + "*"
	listCacheTTL     = 10 * time.Minute
)

// Repository is the registry's data-access contract.
type Repository interface {
	Insert(ctx context.Context, permission *models.Permission) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Permission, error)
	GetByName(ctx context.Context, name, guard string) (*models.Permission, error)
	Update(ctx context.Context, permission *models.Permission) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter bson.M) ([]models.Permission, error)
	ExistingKeys(ctx context.Context, guard string) (map[string]bool, error)
	KeyExists(ctx context.Context, name, guard string, excludeID primitive.ObjectID) (bool, error)
	CountRoleReferences(ctx context.Context, permissionID primitive.ObjectID) (int64, error)
}

// UpdatePermission carries the mutable fields of a permission. Nil fields are
// left untouched.
type UpdatePermission struct {
	Name        *string
	DisplayName *string
	Module      *string
	Action      *string
	Resource    *string
	Description *string
	Priority    *int
	IsActive    *bool
}

// Service implements the permission registry. Listings are cached in Redis
// since registry changes are rare; any write flushes the listing cache.
type Service struct {
	repository Repository
	redis      *database.Redis
}

// NewService creates the registry service. redis may be nil.
func NewService(repository Repository, redis *database.Redis) *Service {
	return &Service{repository: repository, redis: redis}
}

// Register inserts a new permission atom. A missing name is derived from the
// display name and module; a missing guard defaults to api.
func (s *Service) Register(ctx context.Context, permission *models.Permission) error {
	if permission.Guard == "" {
		permission.Guard = models.DefaultGuard
	}
	if permission.Name == "" {
		if permission.DisplayName == "" || permission.Module == "" {
			return fmt.Errorf("%w: permission needs a name, or a display name and module to derive one", authz.ErrInvalidTarget)
		}
		name, err := s.GenerateKey(ctx, permission.DisplayName, permission.Module)
		if err != nil {
			return err
		}
		permission.Name = name
	}
	if permission.Module == "" || permission.Action == "" {
		permission.Module, permission.Action = authz.SplitKey(permission.Name)
	}

	if err := s.repository.Insert(ctx, permission); err != nil {
		return err
	}
	s.flushListings(ctx)
	slog.Info("[Registry] Permission registered",
		slog.String("name", permission.Name),
		slog.String("module", permission.Module),
		slog.Bool("is_system", permission.IsSystem))
	return nil
}

// Get retrieves a permission by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Permission, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid permission id %q", authz.ErrNotFound, id)
	}
	return s.repository.GetByID(ctx, objectID)
}

// GetByName retrieves a non-deleted permission by its dotted key.
func (s *Service) GetByName(ctx context.Context, name string) (*models.Permission, error) {
	return s.repository.GetByName(ctx, name, models.DefaultGuard)
}

// Update applies changes to a permission. System permissions accept display
// name and description changes only; everything else is immutable.
func (s *Service) Update(ctx context.Context, id string, changes UpdatePermission) (*models.Permission, error) {
	permission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if permission.IsDeleted() {
		return nil, fmt.Errorf("%w: permission %s is deleted", authz.ErrNotFound, id)
	}

	if permission.IsSystem {
		if changes.Name != nil || changes.Module != nil || changes.Action != nil ||
			changes.Resource != nil || changes.Priority != nil || changes.IsActive != nil {
			return nil, fmt.Errorf("%w: system permission %q accepts display name and description changes only", authz.ErrImmutable, permission.Name)
		}
	}

	if changes.Name != nil && *changes.Name != permission.Name {
		if err := s.ValidateKey(ctx, *changes.Name, permission.ID.Hex()); err != nil {
			return nil, err
		}
		permission.Name = *changes.Name
		permission.Module, permission.Action = authz.SplitKey(permission.Name)
	}
	if changes.DisplayName != nil {
		permission.DisplayName = *changes.DisplayName
	}
	if changes.Module != nil {
		permission.Module = *changes.Module
	}
	if changes.Action != nil {
		permission.Action = *changes.Action
	}
	if changes.Resource != nil {
		permission.Resource = *changes.Resource
	}
	if changes.Description != nil {
		permission.Description = *changes.Description
	}
	if changes.Priority != nil {
		permission.Priority = *changes.Priority
	}
	if changes.IsActive != nil {
		permission.IsActive = *changes.IsActive
	}

	if err := s.repository.Update(ctx, permission); err != nil {
		return nil, err
	}
	s.flushListings(ctx)
	return permission, nil
}

// SoftDelete removes a custom permission from active use. System permissions
// are never deletable; permissions still granted to a role block with
// ErrConflict.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	permission, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if permission.IsSystem {
		return fmt.Errorf("%w: system permission %q cannot be deleted", authz.ErrImmutable, permission.Name)
	}

	references, err := s.repository.CountRoleReferences(ctx, permission.ID)
	if err != nil {
		return err
	}
	if references > 0 {
		return fmt.Errorf("%w: permission %q is granted to %d role(s)", authz.ErrConflict, permission.Name, references)
	}

	if err := s.repository.SoftDelete(ctx, permission.ID); err != nil {
		return err
	}
	s.flushListings(ctx)
	slog.Info("[Registry] Permission soft-deleted", slog.String("name", permission.Name))
	return nil
}

// ListByModule returns active permissions for a module.
func (s *Service) ListByModule(ctx context.Context, module string) ([]models.Permission, error) {
	return s.listCached(ctx, "module", module)
}

// ListByAction returns active permissions sharing an action verb.
func (s *Service) ListByAction(ctx context.Context, action string) ([]models.Permission, error) {
	return s.listCached(ctx, "action", action)
}

// ListByResource returns active permissions sharing a resource noun.
func (s *Service) ListByResource(ctx context.Context, resource string) ([]models.Permission, error) {
	return s.listCached(ctx, "resource", resource)
}

// ListAll returns every active permission.
func (s *Service) ListAll(ctx context.Context) ([]models.Permission, error) {
	return s.repository.List(ctx, bson.M{})
}

// GenerateKey derives a dotted key from a human name and module, suffixing
// with a number on collision. Deterministic for a given registry state.
func (s *Service) GenerateKey(ctx context.Context, name, module string) (string, error) {
	existing, err := s.repository.ExistingKeys(ctx, models.DefaultGuard)
	if err != nil {
		return "", err
	}
	return authz.UniqueKey(name, module, func(key string) bool {
		return existing[key]
	}), nil
}

// ValidateKey checks key uniqueness, excluding a permission ID for update
// scenarios. Returns ErrDuplicateKey when taken.
func (s *Service) ValidateKey(ctx context.Context, key, excludeID string) error {
	var exclude primitive.ObjectID
	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return fmt.Errorf("%w: invalid permission id %q", authz.ErrNotFound, excludeID)
		}
		exclude = objectID
	}
	taken, err := s.repository.KeyExists(ctx, key, models.DefaultGuard, exclude)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: permission %q", authz.ErrDuplicateKey, key)
	}
	return nil
}

// SeedSystemPermissions upserts the static catalog into the registry. Run at
// module startup; existing entries get display metadata refreshed, never
// their identity.
func (s *Service) SeedSystemPermissions(ctx context.Context) error {
	seeded := 0
	for _, entry := range authz.SystemPermissions {
		existing, err := s.repository.GetByName(ctx, entry.Name, models.DefaultGuard)
		if err == nil {
			existing.DisplayName = entry.DisplayName
			existing.Description = entry.Description
			existing.Priority = entry.Priority
			if err := s.repository.Update(ctx, existing); err != nil {
				return fmt.Errorf("failed to refresh system permission %q: %w", entry.Name, err)
			}
			continue
		}
		if !errors.Is(err, authz.ErrNotFound) {
			return err
		}

		permission := &models.Permission{
			Name:        entry.Name,
			Guard:       models.DefaultGuard,
			DisplayName: entry.DisplayName,
			Module:      entry.Module,
			Action:      entry.Action,
			Resource:    entry.Resource,
			IsSystem:    true,
			IsActive:    true,
			Priority:    entry.Priority,
			Description: entry.Description,
		}
		if err := s.repository.Insert(ctx, permission); err != nil {
			return fmt.Errorf("failed to seed system permission %q: %w", entry.Name, err)
		}
		seeded++
	}
	s.flushListings(ctx)
	slog.Info("[Registry] System permission catalog seeded",
		slog.Int("new", seeded),
		slog.Int("catalog", len(authz.SystemPermissions)))
	return nil
}

func (s *Service) listCached(ctx context.Context, field, value string) ([]models.Permission, error) {
	cacheKey := listCachePrefix + field + ":" + value
	if s.redis != nil {
		var cached []models.Permission
		if err := s.redis.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !database.IsCacheMiss(err) {
			slog.Warn("Registry listing cache read failed", "key", cacheKey, "error", err)
		}
	}

	permissions, err := s.repository.List(ctx, bson.M{field: value})
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, cacheKey, permissions, listCacheTTL); err != nil {
			slog.Warn("Registry listing cache write failed", "key", cacheKey, "error", err)
		}
	}
	return permissions, nil
}

func (s *Service) flushListings(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.DeleteByPattern(ctx, listCachePattern); err != nil {
		slog.Warn("Failed to flush registry listing cache", "error", err)
	}
}
