package services

import (
	"context"
	"fmt"
	"time"

	"medgate/internal/roles/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository handles database operations for roles and grants.
type MongoRepository struct {
	mongodb         *database.MongoDB
	roles           *mongo.Collection
	rolePermissions *mongo.Collection
	userRoles       *mongo.Collection
}

// NewMongoRepository creates a new roles repository.
func NewMongoRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		mongodb:         mongodb,
		roles:           mongodb.Database.Collection(models.RolesCollection),
		rolePermissions: mongodb.Database.Collection(models.RolePermissionsCollection),
		userRoles:       mongodb.Database.Collection(models.UserRolesCollection),
	}
}

// EnsureIndexes creates role and grant indexes. The role name unique index
// is partial over non-deleted rows.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	roleIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"deleted_at": bson.M{"$exists": false}},
			),
		},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := r.roles.Indexes().CreateMany(ctx, roleIndexes); err != nil {
		return fmt.Errorf("failed to create role indexes: %w", err)
	}

	grantIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "permission_id", Value: 1}}},
	}
	if _, err := r.rolePermissions.Indexes().CreateMany(ctx, grantIndexes); err != nil {
		return fmt.Errorf("failed to create grant indexes: %w", err)
	}

	userRoleIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "role_id", Value: 1}}},
	}
	if _, err := r.userRoles.Indexes().CreateMany(ctx, userRoleIndexes); err != nil {
		return fmt.Errorf("failed to create user role indexes: %w", err)
	}
	return nil
}

// InsertRole stores a new role.
func (r *MongoRepository) InsertRole(ctx context.Context, role *models.Role) error {
	if role.ID.IsZero() {
		role.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	if _, err := r.roles.InsertOne(ctx, role); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: role %q", authz.ErrDuplicateKey, role.Name)
		}
		return err
	}
	return nil
}

// GetRole retrieves a role by ID, including soft-deleted rows.
func (r *MongoRepository) GetRole(ctx context.Context, id primitive.ObjectID) (*models.Role, error) {
	var role models.Role
	err := r.roles.FindOne(ctx, bson.M{"_id": id}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: role %s", authz.ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetRoleByName retrieves a non-deleted role by name.
func (r *MongoRepository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	filter := bson.M{"name": name, "deleted_at": bson.M{"$exists": false}}
	var role models.Role
	err := r.roles.FindOne(ctx, filter).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: role %q", authz.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateRole replaces an existing role document.
func (r *MongoRepository) UpdateRole(ctx context.Context, role *models.Role) error {
	role.UpdatedAt = time.Now().UTC()
	result, err := r.roles.ReplaceOne(ctx, bson.M{"_id": role.ID}, role)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: role %q", authz.ErrDuplicateKey, role.Name)
		}
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: role %s", authz.ErrNotFound, role.ID.Hex())
	}
	return nil
}

// SoftDeleteRole marks a role deleted without removing the document.
func (r *MongoRepository) SoftDeleteRole(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now, "status": models.RoleStatusInactive}}
	result, err := r.roles.UpdateOne(ctx, bson.M{"_id": id, "deleted_at": bson.M{"$exists": false}}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: role %s", authz.ErrNotFound, id.Hex())
	}
	return nil
}

// ListRoles returns non-deleted roles matching the filter, ordered by name.
func (r *MongoRepository) ListRoles(ctx context.Context, filter bson.M) ([]models.Role, error) {
	if filter == nil {
		filter = bson.M{}
	}
	filter["deleted_at"] = bson.M{"$exists": false}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.roles.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var roles []models.Role
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// ListChildren returns non-deleted roles whose parent is the given role.
func (r *MongoRepository) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Role, error) {
	return r.ListRoles(ctx, bson.M{"parent_id": parentID})
}

// CountAssignedUsers counts user assignments referencing the role.
func (r *MongoRepository) CountAssignedUsers(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	return r.userRoles.CountDocuments(ctx, bson.M{"role_id": roleID})
}

// GetGrant retrieves the grant joining a role and a permission, or
// authz.ErrNotFound when absent.
func (r *MongoRepository) GetGrant(ctx context.Context, roleID, permissionID primitive.ObjectID) (*models.RolePermission, error) {
	filter := bson.M{"role_id": roleID, "permission_id": permissionID}
	var grant models.RolePermission
	err := r.rolePermissions.FindOne(ctx, filter).Decode(&grant)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: grant %s/%s", authz.ErrNotFound, roleID.Hex(), permissionID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// InsertGrant stores a new role permission grant.
func (r *MongoRepository) InsertGrant(ctx context.Context, grant *models.RolePermission) error {
	if grant.ID.IsZero() {
		grant.ID = primitive.NewObjectID()
	}
	if grant.GrantedAt.IsZero() {
		grant.GrantedAt = time.Now().UTC()
	}
	grant.IsGranted = true

	if _, err := r.rolePermissions.InsertOne(ctx, grant); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: grant %s/%s", authz.ErrDuplicateKey, grant.RoleID.Hex(), grant.PermissionID.Hex())
		}
		return err
	}
	return nil
}

// DeleteGrant removes the grant joining a role and a permission.
func (r *MongoRepository) DeleteGrant(ctx context.Context, roleID, permissionID primitive.ObjectID) error {
	_, err := r.rolePermissions.DeleteOne(ctx, bson.M{"role_id": roleID, "permission_id": permissionID})
	return err
}

// ListGrants returns all grants owned by a role.
func (r *MongoRepository) ListGrants(ctx context.Context, roleID primitive.ObjectID) ([]models.RolePermission, error) {
	cursor, err := r.rolePermissions.Find(ctx, bson.M{"role_id": roleID, "is_granted": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var grants []models.RolePermission
	if err := cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}

// ListGrantsForRoles returns grants for a set of roles in one query. Backs
// the matrix computation.
func (r *MongoRepository) ListGrantsForRoles(ctx context.Context, roleIDs []primitive.ObjectID) ([]models.RolePermission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	cursor, err := r.rolePermissions.Find(ctx, bson.M{
		"role_id":    bson.M{"$in": roleIDs},
		"is_granted": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var grants []models.RolePermission
	if err := cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}
