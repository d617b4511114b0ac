package db

import (
	"context"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoOperatorCollection implements OperatorCollection for MongoDB
type MongoOperatorCollection struct {
	Collection *mongo.Collection
}

// InsertOperator inserts an operator record.
func (c *MongoOperatorCollection) InsertOperator(ctx context.Context, operator models.Operator) error {
	now := time.Now()
	operator.CreatedAt = now
	operator.UpdatedAt = now
	return insertOne(ctx, c.Collection, operator)
}

// FindOperators queries operators.
func (c *MongoOperatorCollection) FindOperators(ctx context.Context, filter bson.M) ([]models.Operator, error) {
	return findAll[models.Operator](ctx, c.Collection, filter, newestFirst())
}

// FindOperatorByID finds an operator by its ID.
func (c *MongoOperatorCollection) FindOperatorByID(ctx context.Context, id string) (*models.Operator, error) {
	return findByID[models.Operator](ctx, c.Collection, id)
}

// FindOperatorsByIDs returns the operators among ids that exist.
func (c *MongoOperatorCollection) FindOperatorsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Operator, error) {
	return findAll[models.Operator](ctx, c.Collection, bson.M{"_id": bson.M{"$in": ids}})
}

// UpdateOperator replaces an operator by its ID.
func (c *MongoOperatorCollection) UpdateOperator(ctx context.Context, id string, operator models.Operator) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	operator.ID = oid
	operator.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, operator)
}
