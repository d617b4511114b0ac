package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoMachineCollection implements MachineCollection. Lookups by ID fall back
// to the legacy maquinas collection, whose records are converted to Machine.
type MongoMachineCollection struct {
	Collection *mongo.Collection
	Legacy     *mongo.Collection
}

// InsertMachine inserts a machine record into the collection.
func (c *MongoMachineCollection) InsertMachine(ctx context.Context, machine models.Machine) error {
	now := time.Now()
	machine.CreatedAt = now
	machine.UpdatedAt = now
	return insertOne(ctx, c.Collection, machine)
}

// FindMachines queries machine records from the collection.
func (c *MongoMachineCollection) FindMachines(ctx context.Context, filter bson.M) ([]models.Machine, error) {
	return findAll[models.Machine](ctx, c.Collection, filter, newestFirst())
}

// FindMachineByID finds a machine by its ID.
func (c *MongoMachineCollection) FindMachineByID(ctx context.Context, id string) (*models.Machine, error) {
	machine, err := findByID[models.Machine](ctx, c.Collection, id)
	if err == nil || !errors.Is(err, ErrNotFound) || c.Legacy == nil {
		return machine, err
	}

	legacy, err := findByID[models.Maquina](ctx, c.Legacy, id)
	if err != nil {
		return nil, err
	}
	converted := legacy.ToMachine()
	return &converted, nil
}

// UpdateMachine replaces a machine by its ID.
func (c *MongoMachineCollection) UpdateMachine(ctx context.Context, id string, machine models.Machine) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	machine.ID = oid
	machine.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, machine)
}

// DeleteMachine deletes a machine by its ID.
func (c *MongoMachineCollection) DeleteMachine(ctx context.Context, id string) error {
	if err := checkCollection(c.Collection); err != nil {
		return err
	}
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
