package services

import (
	"context"
	"fmt"
	"time"

	"medgate/internal/audit/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Filter narrows audit log queries for compliance review.
type Filter struct {
	EventType         string
	Action            string
	Severity          models.Severity
	UserID            string
	SubjectID         string
	ResourceType      string
	RequiresAttention *bool
	From              time.Time
	To                time.Time
}

// MongoRepository is the data-access layer for the append-only audit
// collection. It exposes insert and read operations only; Update and Delete
// exist solely to refuse.
type MongoRepository struct {
	mongodb *database.MongoDB
	logs    *mongo.Collection
}

// NewMongoRepository creates the audit repository.
func NewMongoRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		mongodb: mongodb,
		logs:    mongodb.Collection(models.AuditLogsCollection),
	}
}

// EnsureIndexes creates the compliance query indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "resource_type", Value: 1}, {Key: "resource_id", Value: 1}}},
		{Keys: bson.D{{Key: "severity", Value: 1}}},
		{Keys: bson.D{{Key: "requires_attention", Value: 1}}},
		{Keys: bson.D{{Key: "retention_until", Value: 1}}},
	}
	if _, err := r.logs.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

// Insert appends a new audit entry.
func (r *MongoRepository) Insert(ctx context.Context, entry *models.PermissionAuditLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.logs.InsertOne(ctx, entry)
	return err
}

// GetByID fetches a single entry.
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.PermissionAuditLog, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid audit log id", authz.ErrNotFound)
	}
	var entry models.PermissionAuditLog
	if err := r.logs.FindOne(ctx, bson.M{"_id": objectID}).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, authz.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Find returns matching entries newest-first with total count.
func (r *MongoRepository) Find(ctx context.Context, filter Filter, page, pageSize int) ([]models.PermissionAuditLog, int64, error) {
	query := buildFilter(filter)

	total, err := r.logs.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.logs.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var entries []models.PermissionAuditLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// FindAll returns every matching entry newest-first, for compliance export.
func (r *MongoRepository) FindAll(ctx context.Context, filter Filter) ([]models.PermissionAuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	cursor, err := r.logs.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.PermissionAuditLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Resolve clears requires_attention and merges resolution keys into the
// metadata field. This is the single permitted follow-up mutation; audit
// facts (event_type, action, occurred_at, snapshots) are never touched.
func (r *MongoRepository) Resolve(ctx context.Context, id string, resolution map[string]any) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid audit log id", authz.ErrNotFound)
	}

	set := bson.M{"requires_attention": false, "status": "resolved"}
	for key, value := range resolution {
		set["metadata."+key] = value
	}

	result, err := r.logs.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return authz.ErrNotFound
	}
	return nil
}

// Update refuses unconditionally: audit entries are immutable after creation.
func (r *MongoRepository) Update(ctx context.Context, entry *models.PermissionAuditLog) error {
	return authz.ErrImmutable
}

// Delete refuses unconditionally regardless of caller identity.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	return authz.ErrImmutable
}

// PurgeExpired removes entries whose retention window has elapsed. This is
// the retention/compliance process, the only path that removes audit data.
func (r *MongoRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.logs.DeleteMany(ctx, bson.M{"retention_until": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func buildFilter(filter Filter) bson.M {
	query := bson.M{}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.Severity != "" {
		query["severity"] = filter.Severity
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.SubjectID != "" {
		query["subject_id"] = filter.SubjectID
	}
	if filter.ResourceType != "" {
		query["resource_type"] = filter.ResourceType
	}
	if filter.RequiresAttention != nil {
		query["requires_attention"] = *filter.RequiresAttention
	}
	occurred := bson.M{}
	if !filter.From.IsZero() {
		occurred["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		occurred["$lte"] = filter.To
	}
	if len(occurred) > 0 {
		query["occurred_at"] = occurred
	}
	return query
}
