package events

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationTopicPrefix is followed by the recipient's user ID.
const NotificationTopicPrefix = "machinery/notifications/"

// NotificationStore persists notifications.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n models.Notification) error
}

// Notifier stores in-app notifications and mirrors them to the event publisher.
type Notifier struct {
	store     NotificationStore
	publisher Publisher
}

// NewNotifier creates a notifier. A nil publisher means events are not mirrored.
func NewNotifier(store NotificationStore, publisher Publisher) *Notifier {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Notifier{store: store, publisher: publisher}
}

// Notify stores n. Publishing is best effort; a failure is only logged.
func (n *Notifier) Notify(ctx context.Context, notification models.Notification) error {
	if notification.UserID.IsZero() {
		return fmt.Errorf("notification has no recipient")
	}
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	if err := n.store.InsertNotification(ctx, notification); err != nil {
		return err
	}

	topic := NotificationTopicPrefix + notification.UserID.Hex()
	if err := n.publisher.Publish(topic, notification); err != nil {
		log.WithError(err).WithField("topic", topic).Warn("Failed to publish notification event")
	}
	return nil
}
