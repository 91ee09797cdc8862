package services

import (
	"context"
	"fmt"
	"time"

	"medgate/internal/templates/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository handles database operations for permission templates.
type MongoRepository struct {
	mongodb   *database.MongoDB
	templates *mongo.Collection
}

// NewMongoRepository creates a new templates repository.
func NewMongoRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		mongodb:   mongodb,
		templates: mongodb.Database.Collection(models.TemplatesCollection),
	}
}

// EnsureIndexes creates the template indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"deleted_at": bson.M{"$exists": false}},
			),
		},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "is_active", Value: 1}}},
	}
	if _, err := r.templates.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create template indexes: %w", err)
	}
	return nil
}

// Insert stores a new template.
func (r *MongoRepository) Insert(ctx context.Context, template *models.PermissionTemplate) error {
	if template.ID.IsZero() {
		template.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	if template.PermissionIDs == nil {
		template.PermissionIDs = []primitive.ObjectID{}
	}

	if _, err := r.templates.InsertOne(ctx, template); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: template %q", authz.ErrDuplicateKey, template.Name)
		}
		return err
	}
	return nil
}

// GetByID retrieves a template by ID, including soft-deleted rows.
func (r *MongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PermissionTemplate, error) {
	var template models.PermissionTemplate
	err := r.templates.FindOne(ctx, bson.M{"_id": id}).Decode(&template)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: template %s", authz.ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetByName retrieves a non-deleted template by name.
func (r *MongoRepository) GetByName(ctx context.Context, name string) (*models.PermissionTemplate, error) {
	filter := bson.M{"name": name, "deleted_at": bson.M{"$exists": false}}
	var template models.PermissionTemplate
	err := r.templates.FindOne(ctx, filter).Decode(&template)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: template %q", authz.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// Update replaces an existing template document.
func (r *MongoRepository) Update(ctx context.Context, template *models.PermissionTemplate) error {
	template.UpdatedAt = time.Now().UTC()
	result, err := r.templates.ReplaceOne(ctx, bson.M{"_id": template.ID}, template)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: template %q", authz.ErrDuplicateKey, template.Name)
		}
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: template %s", authz.ErrNotFound, template.ID.Hex())
	}
	return nil
}

// SoftDelete marks a template deleted without removing the document.
func (r *MongoRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now, "is_active": false}}
	result, err := r.templates.UpdateOne(ctx, bson.M{"_id": id, "deleted_at": bson.M{"$exists": false}}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: template %s", authz.ErrNotFound, id.Hex())
	}
	return nil
}

// List returns active, non-deleted templates, optionally by category.
func (r *MongoRepository) List(ctx context.Context, category string) ([]models.PermissionTemplate, error) {
	filter := bson.M{
		"deleted_at": bson.M{"$exists": false},
		"is_active":  true,
	}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "display_name", Value: 1}})
	cursor, err := r.templates.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []models.PermissionTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// IncrementUsage bumps the template's usage counter by one.
func (r *MongoRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.templates.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: template %s", authz.ErrNotFound, id.Hex())
	}
	return nil
}
