package db

import (
	"context"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPreStartCollection implements PreStartCollection. Every write runs
// PreStart.Reconcile first so machineId and maquinaId stay in sync.
type MongoPreStartCollection struct {
	Collection *mongo.Collection
}

// InsertPreStart inserts a pre-start check.
func (c *MongoPreStartCollection) InsertPreStart(ctx context.Context, check models.PreStart) error {
	check.Reconcile()
	now := time.Now()
	check.CreatedAt = now
	check.UpdatedAt = now
	return insertOne(ctx, c.Collection, check)
}

// FindPreStarts queries pre-start checks.
func (c *MongoPreStartCollection) FindPreStarts(ctx context.Context, filter bson.M) ([]models.PreStart, error) {
	return findAll[models.PreStart](ctx, c.Collection, filter, newestFirst())
}

// FindPreStartByID finds a pre-start check by its ID.
func (c *MongoPreStartCollection) FindPreStartByID(ctx context.Context, id string) (*models.PreStart, error) {
	return findByID[models.PreStart](ctx, c.Collection, id)
}

// UpdatePreStart replaces a pre-start check by its ID.
func (c *MongoPreStartCollection) UpdatePreStart(ctx context.Context, id string, check models.PreStart) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	check.ID = oid
	check.Reconcile()
	check.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, check)
}

// MachineRefFilter matches checks referencing the machine through either field.
func MachineRefFilter(id string) (bson.M, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return bson.M{"$or": bson.A{bson.M{"machineId": oid}, bson.M{"maquinaId": oid}}}, nil
}
