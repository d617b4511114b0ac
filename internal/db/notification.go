package db

import (
	"context"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoNotificationCollection implements NotificationCollection for MongoDB
type MongoNotificationCollection struct {
	Collection *mongo.Collection
}

// InsertNotification stores a new unread notification.
func (c *MongoNotificationCollection) InsertNotification(ctx context.Context, n models.Notification) error {
	n.Read = false
	n.CreatedAt = time.Now()
	return insertOne(ctx, c.Collection, n)
}

// FindNotificationsForUser lists a user's notifications, newest first.
func (c *MongoNotificationCollection) FindNotificationsForUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{"userId": userID}
	if unreadOnly {
		filter["read"] = false
	}
	return findAll[models.Notification](ctx, c.Collection, filter, newestFirst().SetLimit(100))
}

// CountUnread counts a user's unread notifications.
func (c *MongoNotificationCollection) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	if err := checkCollection(c.Collection); err != nil {
		return 0, err
	}
	return c.Collection.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
}

// MarkRead marks one notification read. The notification must belong to userID.
func (c *MongoNotificationCollection) MarkRead(ctx context.Context, id string, userID primitive.ObjectID) error {
	if err := checkCollection(c.Collection); err != nil {
		return err
	}
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	now := time.Now()
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": bson.M{"read": true, "readAt": now}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of a user read and returns how many changed.
func (c *MongoNotificationCollection) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	if err := checkCollection(c.Collection); err != nil {
		return 0, err
	}
	now := time.Now()
	result, err := c.Collection.UpdateMany(
		ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "readAt": now}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
