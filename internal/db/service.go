package db

import (
	"context"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoServiceCollection implements ServiceCollection for MongoDB
type MongoServiceCollection struct {
	Collection *mongo.Collection
}

// InsertService inserts a service record.
func (c *MongoServiceCollection) InsertService(ctx context.Context, service models.Service) error {
	now := time.Now()
	service.CreatedAt = now
	service.UpdatedAt = now
	service.ComputeCosts()
	return insertOne(ctx, c.Collection, service)
}

// FindServices queries service records.
func (c *MongoServiceCollection) FindServices(ctx context.Context, filter bson.M) ([]models.Service, error) {
	return findAll[models.Service](ctx, c.Collection, filter, newestFirst())
}

// FindServiceByID finds a service by its ID.
func (c *MongoServiceCollection) FindServiceByID(ctx context.Context, id string) (*models.Service, error) {
	return findByID[models.Service](ctx, c.Collection, id)
}

// UpdateService replaces a service by its ID.
func (c *MongoServiceCollection) UpdateService(ctx context.Context, id string, service models.Service) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	service.ID = oid
	service.UpdatedAt = time.Now()
	service.ComputeCosts()
	return replaceByID(ctx, c.Collection, id, service)
}

// FindStalePending returns pending services created before the cutoff that
// have not been reminded about yet.
func (c *MongoServiceCollection) FindStalePending(ctx context.Context, before time.Time) ([]models.Service, error) {
	filter := bson.M{
		"status":       models.ServicePending,
		"createdAt":    bson.M{"$lt": before},
		"reminderSent": bson.M{"$ne": true},
	}
	return findAll[models.Service](ctx, c.Collection, filter)
}

// MarkReminderSent flags a service so the reminder job skips it next time.
func (c *MongoServiceCollection) MarkReminderSent(ctx context.Context, id primitive.ObjectID) error {
	if err := checkCollection(c.Collection); err != nil {
		return err
	}
	_, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reminderSent": true}})
	return err
}
