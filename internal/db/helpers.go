package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ParseID converts a hex string into an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// ParseIDs converts every hex string, failing on the first malformed one.
func ParseIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ParseID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// OrganizationFilter scopes a query to one organization. An empty
// organization means no scoping (admin sessions).
func OrganizationFilter(organization string) bson.M {
	if organization == "" {
		return bson.M{}
	}
	return bson.M{"organization": organization}
}

func checkCollection(c *mongo.Collection) error {
	if c == nil {
		return fmt.Errorf("%w: mongo collection is nil", ErrDatabase)
	}
	return nil
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter interface{}) (*T, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	var out T
	err := c.FindOne(ctx, filter).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func findByID[T any](ctx context.Context, c *mongo.Collection, id string) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return findOne[T](ctx, c, bson.M{"_id": oid})
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	cursor, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func insertOne(ctx context.Context, c *mongo.Collection, doc interface{}) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	_, err := c.InsertOne(ctx, doc)
	return err
}

func replaceByID(ctx context.Context, c *mongo.Collection, id string, doc interface{}) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	result, err := c.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}
