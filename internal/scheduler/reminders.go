package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingServices is what the reminder job needs from the service collection.
type PendingServices interface {
	FindStalePending(ctx context.Context, before time.Time) ([]models.Service, error)
	MarkReminderSent(ctx context.Context, id primitive.ObjectID) error
}

// MachineLookup resolves the owner of a machine.
type MachineLookup interface {
	FindMachineByID(ctx context.Context, id string) (*models.Machine, error)
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// ServiceReminderJob notifies machine owners about services still pending
// after maxAge. Each service is reminded at most once.
func ServiceReminderJob(services PendingServices, machines MachineLookup, notifier Notifier, maxAge time.Duration) Job {
	return func(ctx context.Context) error {
		stale, err := services.FindStalePending(ctx, time.Now().Add(-maxAge))
		if err != nil {
			return fmt.Errorf("find stale services: %w", err)
		}

		var errs []error
		for _, svc := range stale {
			if err := remind(ctx, svc, machines, notifier); err != nil {
				errs = append(errs, err)
				continue
			}
			if err := services.MarkReminderSent(ctx, svc.ID); err != nil {
				errs = append(errs, err)
			}
		}

		log.WithFields(log.Fields{"stale": len(stale), "failed": len(errs)}).Info("Service reminder run finished")
		return errors.Join(errs...)
	}
}

func remind(ctx context.Context, svc models.Service, machines MachineLookup, notifier Notifier) error {
	machine, err := machines.FindMachineByID(ctx, svc.MachineID.Hex())
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		// the machine was deleted; mark the service so it is not retried forever
		log.WithFields(log.Fields{"service_id": svc.ID.Hex(), "machine_id": svc.MachineID.Hex()}).
			Warn("Skipping reminder for service without machine")
		return nil
	}
	if err != nil {
		return fmt.Errorf("service %s: %w", svc.ID.Hex(), err)
	}
	if machine.OwnerID == nil {
		// nobody to tell; still mark it so it is not retried forever
		return nil
	}

	return notifier.Notify(ctx, models.Notification{
		UserID:  *machine.OwnerID,
		Type:    models.NotificationServiceReminder,
		Title:   "Service still pending",
		Message: fmt.Sprintf("%s service on %s %s has been pending since %s", svc.Type, machine.Brand, machine.Model, svc.CreatedAt.Format("2006-01-02")),
		Link:    "/services",
	})
}
