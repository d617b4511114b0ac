package db

import (
	"context"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDieselTankCollection implements DieselTankCollection for MongoDB
type MongoDieselTankCollection struct {
	Collection *mongo.Collection
}

func (c *MongoDieselTankCollection) InsertDieselTank(ctx context.Context, tank models.DieselTank) error {
	now := time.Now()
	tank.CreatedAt = now
	tank.UpdatedAt = now
	return insertOne(ctx, c.Collection, tank)
}

func (c *MongoDieselTankCollection) FindDieselTanks(ctx context.Context, filter bson.M) ([]models.DieselTank, error) {
	return findAll[models.DieselTank](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (c *MongoDieselTankCollection) FindDieselTankByID(ctx context.Context, id string) (*models.DieselTank, error) {
	return findByID[models.DieselTank](ctx, c.Collection, id)
}

func (c *MongoDieselTankCollection) UpdateDieselTank(ctx context.Context, id string, tank models.DieselTank) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	tank.ID = oid
	tank.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, tank)
}

// MongoPlanCollection implements PlanCollection for MongoDB
type MongoPlanCollection struct {
	Collection *mongo.Collection
}

func (c *MongoPlanCollection) InsertPlan(ctx context.Context, plan models.Plan) error {
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return insertOne(ctx, c.Collection, plan)
}

func (c *MongoPlanCollection) FindPlans(ctx context.Context, filter bson.M) ([]models.Plan, error) {
	return findAll[models.Plan](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "price", Value: 1}}))
}

func (c *MongoPlanCollection) FindPlanByID(ctx context.Context, id string) (*models.Plan, error) {
	return findByID[models.Plan](ctx, c.Collection, id)
}

func (c *MongoPlanCollection) UpdatePlan(ctx context.Context, id string, plan models.Plan) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	plan.ID = oid
	plan.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, plan)
}

// MongoAccessRequestCollection implements AccessRequestCollection for MongoDB
type MongoAccessRequestCollection struct {
	Collection *mongo.Collection
}

func (c *MongoAccessRequestCollection) InsertAccessRequest(ctx context.Context, req models.AccessRequest) error {
	now := time.Now()
	req.Email = NormalizeEmail(req.Email)
	req.CreatedAt = now
	req.UpdatedAt = now
	return insertOne(ctx, c.Collection, req)
}

func (c *MongoAccessRequestCollection) FindAccessRequests(ctx context.Context, filter bson.M) ([]models.AccessRequest, error) {
	return findAll[models.AccessRequest](ctx, c.Collection, filter, newestFirst())
}

func (c *MongoAccessRequestCollection) FindAccessRequestByID(ctx context.Context, id string) (*models.AccessRequest, error) {
	return findByID[models.AccessRequest](ctx, c.Collection, id)
}

func (c *MongoAccessRequestCollection) UpdateAccessRequest(ctx context.Context, id string, req models.AccessRequest) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	req.ID = oid
	req.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, req)
}

// MongoTemplateCollection implements TemplateCollection for MongoDB
type MongoTemplateCollection struct {
	Collection *mongo.Collection
}

func (c *MongoTemplateCollection) InsertTemplate(ctx context.Context, tpl models.ChecklistTemplate) error {
	tpl.CreatedAt = time.Now()
	return insertOne(ctx, c.Collection, tpl)
}

func (c *MongoTemplateCollection) FindTemplates(ctx context.Context, filter bson.M) ([]models.ChecklistTemplate, error) {
	return findAll[models.ChecklistTemplate](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (c *MongoTemplateCollection) FindTemplatesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.ChecklistTemplate, error) {
	opts := options.Find().SetProjection(bson.M{"name": 1})
	return findAll[models.ChecklistTemplate](ctx, c.Collection, bson.M{"_id": bson.M{"$in": ids}}, opts)
}
