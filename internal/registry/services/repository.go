package services

import (
	"context"
	"fmt"
	"time"

	"medgate/internal/registry/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository handles database operations for the permission registry.
type MongoRepository struct {
	mongodb         *database.MongoDB
	permissions     *mongo.Collection
	rolePermissions *mongo.Collection
}

// NewMongoRepository creates a new registry repository.
func NewMongoRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		mongodb:         mongodb,
		permissions:     mongodb.Database.Collection(models.PermissionsCollection),
		rolePermissions: mongodb.Database.Collection("role_permissions"),
	}
}

// EnsureIndexes creates the registry indexes. The (name, guard) unique index
// is partial over non-deleted rows so a soft-deleted name may be reused.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}, {Key: "guard", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"deleted_at": bson.M{"$exists": false}},
			),
		},
		{Keys: bson.D{{Key: "module", Value: 1}, {Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
		{Keys: bson.D{{Key: "resource", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
	}
	if _, err := r.permissions.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create permission indexes: %w", err)
	}
	return nil
}

// Insert stores a new permission. Name collisions surface as
// authz.ErrDuplicateKey.
func (r *MongoRepository) Insert(ctx context.Context, permission *models.Permission) error {
	if permission.ID.IsZero() {
		permission.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	permission.CreatedAt = now
	permission.UpdatedAt = now

	if _, err := r.permissions.InsertOne(ctx, permission); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: permission %q (guard %q)", authz.ErrDuplicateKey, permission.Name, permission.Guard)
		}
		return err
	}
	return nil
}

// GetByID retrieves a permission by its ID, including soft-deleted rows.
func (r *MongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Permission, error) {
	var permission models.Permission
	err := r.permissions.FindOne(ctx, bson.M{"_id": id}).Decode(&permission)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: permission %s", authz.ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &permission, nil
}

// GetByName retrieves a non-deleted permission by (name, guard).
func (r *MongoRepository) GetByName(ctx context.Context, name, guard string) (*models.Permission, error) {
	filter := bson.M{
		"name":       name,
		"guard":      guard,
		"deleted_at": bson.M{"$exists": false},
	}
	var permission models.Permission
	err := r.permissions.FindOne(ctx, filter).Decode(&permission)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: permission %q", authz.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &permission, nil
}

// Update replaces an existing permission document.
func (r *MongoRepository) Update(ctx context.Context, permission *models.Permission) error {
	permission.UpdatedAt = time.Now().UTC()
	result, err := r.permissions.ReplaceOne(ctx, bson.M{"_id": permission.ID}, permission)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: permission %q (guard %q)", authz.ErrDuplicateKey, permission.Name, permission.Guard)
		}
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: permission %s", authz.ErrNotFound, permission.ID.Hex())
	}
	return nil
}

// SoftDelete marks a permission deleted without removing the document.
func (r *MongoRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now, "is_active": false}}
	result, err := r.permissions.UpdateOne(ctx, bson.M{"_id": id, "deleted_at": bson.M{"$exists": false}}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: permission %s", authz.ErrNotFound, id.Hex())
	}
	return nil
}

// List returns active, non-deleted permissions matching the filter, ordered
// by module, then priority, then display name.
func (r *MongoRepository) List(ctx context.Context, filter bson.M) ([]models.Permission, error) {
	if filter == nil {
		filter = bson.M{}
	}
	filter["deleted_at"] = bson.M{"$exists": false}
	filter["is_active"] = true

	opts := options.Find().SetSort(bson.D{
		{Key: "module", Value: 1},
		{Key: "priority", Value: 1},
		{Key: "display_name", Value: 1},
	})
	cursor, err := r.permissions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var permissions []models.Permission
	if err := cursor.All(ctx, &permissions); err != nil {
		return nil, err
	}
	return permissions, nil
}

// ExistingKeys returns the names of all non-deleted permissions for a guard.
func (r *MongoRepository) ExistingKeys(ctx context.Context, guard string) (map[string]bool, error) {
	filter := bson.M{"guard": guard, "deleted_at": bson.M{"$exists": false}}
	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := r.permissions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	keys := make(map[string]bool)
	for cursor.Next(ctx) {
		var doc struct {
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		keys[doc.Name] = true
	}
	return keys, cursor.Err()
}

// KeyExists reports whether a non-deleted permission with (name, guard)
// exists, excluding the given ID when set.
func (r *MongoRepository) KeyExists(ctx context.Context, name, guard string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"name":       name,
		"guard":      guard,
		"deleted_at": bson.M{"$exists": false},
	}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := r.permissions.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountRoleReferences counts active grants referencing the permission.
// Backs the referential guard on delete.
func (r *MongoRepository) CountRoleReferences(ctx context.Context, permissionID primitive.ObjectID) (int64, error) {
	return r.rolePermissions.CountDocuments(ctx, bson.M{
		"permission_id": permissionID,
		"is_granted":    true,
	})
}
