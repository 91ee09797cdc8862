package services

import (
	"context"
	"fmt"
	"time"

	rolesmodels "medgate/internal/roles/models"
	"medgate/internal/users/models"
	"medgate/pkg/authz"
	"medgate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository handles database operations for users, role assignments
// and direct permission grants.
type MongoRepository struct {
	mongodb         *database.MongoDB
	users           *mongo.Collection
	userRoles       *mongo.Collection
	userPermissions *mongo.Collection
}

// NewMongoRepository creates a new users repository.
func NewMongoRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		mongodb:         mongodb,
		users:           mongodb.Database.Collection(models.UsersCollection),
		userRoles:       mongodb.Database.Collection(rolesmodels.UserRolesCollection),
		userPermissions: mongodb.Database.Collection(models.UserPermissionsCollection),
	}
}

// EnsureIndexes creates user and grant indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}
	if _, err := r.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	assignmentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.userRoles.Indexes().CreateMany(ctx, assignmentIndexes); err != nil {
		return fmt.Errorf("failed to create user role indexes: %w", err)
	}

	grantIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "permission_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.userPermissions.Indexes().CreateMany(ctx, grantIndexes); err != nil {
		return fmt.Errorf("failed to create user permission indexes: %w", err)
	}
	return nil
}

// UpsertUser creates or refreshes a user profile keyed by the external
// subject ID.
func (r *MongoRepository) UpsertUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"email":        user.Email,
			"display_name": user.DisplayName,
			"last_seen_at": now,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"status":     models.UserStatusActive,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.users.UpdateOne(ctx, bson.M{"user_id": user.UserID}, update, opts)
	return err
}

// GetUser retrieves a user by its external subject ID.
func (r *MongoRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: user %s", authz.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserStatus flips a user between active and inactive.
func (r *MongoRepository) SetUserStatus(ctx context.Context, userID, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	result, err := r.users.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: user %s", authz.ErrNotFound, userID)
	}
	return nil
}

// ListUsers returns users ordered by display name.
func (r *MongoRepository) ListUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "display_name", Value: 1}, {Key: "user_id", Value: 1}})
	cursor, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetAssignment retrieves the assignment joining a user and a role, or
// authz.ErrNotFound when absent.
func (r *MongoRepository) GetAssignment(ctx context.Context, userID string, roleID primitive.ObjectID) (*models.UserRole, error) {
	filter := bson.M{"user_id": userID, "role_id": roleID}
	var assignment models.UserRole
	err := r.userRoles.FindOne(ctx, filter).Decode(&assignment)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: assignment %s/%s", authz.ErrNotFound, userID, roleID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// InsertAssignment stores a new role assignment.
func (r *MongoRepository) InsertAssignment(ctx context.Context, assignment *models.UserRole) error {
	if assignment.ID.IsZero() {
		assignment.ID = primitive.NewObjectID()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	if _, err := r.userRoles.InsertOne(ctx, assignment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: assignment %s/%s", authz.ErrDuplicateKey, assignment.UserID, assignment.RoleID.Hex())
		}
		return err
	}
	return nil
}

// DeleteAssignment removes the assignment joining a user and a role.
func (r *MongoRepository) DeleteAssignment(ctx context.Context, userID string, roleID primitive.ObjectID) error {
	_, err := r.userRoles.DeleteOne(ctx, bson.M{"user_id": userID, "role_id": roleID})
	return err
}

// ListAssignments returns all role assignments held by a user.
func (r *MongoRepository) ListAssignments(ctx context.Context, userID string) ([]models.UserRole, error) {
	cursor, err := r.userRoles.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []models.UserRole
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// CountByRole counts users holding the given role. Backs the role delete
// guard.
func (r *MongoRepository) CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	return r.userRoles.CountDocuments(ctx, bson.M{"role_id": roleID})
}

// GetDirectGrant retrieves a user's direct permission grant, or
// authz.ErrNotFound when absent.
func (r *MongoRepository) GetDirectGrant(ctx context.Context, userID string, permissionID primitive.ObjectID) (*models.UserPermission, error) {
	filter := bson.M{"user_id": userID, "permission_id": permissionID}
	var grant models.UserPermission
	err := r.userPermissions.FindOne(ctx, filter).Decode(&grant)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: direct grant %s/%s", authz.ErrNotFound, userID, permissionID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// InsertDirectGrant stores a new direct permission grant.
func (r *MongoRepository) InsertDirectGrant(ctx context.Context, grant *models.UserPermission) error {
	if grant.ID.IsZero() {
		grant.ID = primitive.NewObjectID()
	}
	if grant.GrantedAt.IsZero() {
		grant.GrantedAt = time.Now().UTC()
	}
	if _, err := r.userPermissions.InsertOne(ctx, grant); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: direct grant %s/%s", authz.ErrDuplicateKey, grant.UserID, grant.PermissionID.Hex())
		}
		return err
	}
	return nil
}

// DeleteDirectGrant removes a user's direct permission grant.
func (r *MongoRepository) DeleteDirectGrant(ctx context.Context, userID string, permissionID primitive.ObjectID) error {
	_, err := r.userPermissions.DeleteOne(ctx, bson.M{"user_id": userID, "permission_id": permissionID})
	return err
}

// ListDirectGrants returns all direct permission grants held by a user.
func (r *MongoRepository) ListDirectGrants(ctx context.Context, userID string) ([]models.UserPermission, error) {
	cursor, err := r.userPermissions.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var grants []models.UserPermission
	if err := cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}
