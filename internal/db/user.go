package db

import (
	"context"
	"strings"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// NormalizeEmail lowercases and trims an email address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InsertUser inserts a new user into the database
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) error {
	now := time.Now()
	user.Email = NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now
	return insertOne(ctx, c.Collection, user)
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return findByID[models.User](ctx, c.Collection, id)
}

// FindUserByEmail finds a user by their email
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, c.Collection, bson.M{"email": NormalizeEmail(email)})
}

// FindUsersByIDs returns the users among ids that exist; missing ids are skipped.
func (c *MongoUserCollection) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetProjection(bson.M{"password": 0})
	return findAll[models.User](ctx, c.Collection, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

// UpdateUser replaces a user document
func (c *MongoUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	user.ID = oid
	user.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, user)
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	if err := checkCollection(c.Collection); err != nil {
		return err
	}
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"lastLogin": now, "updatedAt": now}},
	)
	return err
}

// MongoOrganizationCollection implements OrganizationCollection for MongoDB
type MongoOrganizationCollection struct {
	Collection *mongo.Collection
}

// FindOrganizationByName finds an organization by its name
func (c *MongoOrganizationCollection) FindOrganizationByName(ctx context.Context, name string) (*models.Organization, error) {
	return findOne[models.Organization](ctx, c.Collection, bson.M{"name": name})
}

// EnsureOrganization creates the organization if it does not exist yet.
func (c *MongoOrganizationCollection) EnsureOrganization(ctx context.Context, name string) error {
	if err := checkCollection(c.Collection); err != nil {
		return err
	}
	now := time.Now()
	_, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"name": name},
		bson.M{
			"$setOnInsert": bson.M{"name": name, "suspended": false, "createdAt": now},
			"$set":         bson.M{"updatedAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
