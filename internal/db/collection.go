package db

import (
	"context"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names
const (
	UsersCollection          = "users"
	OrganizationsCollection  = "organizations"
	MachinesCollection       = "machines"
	LegacyMachinesCollection = "maquinas"
	OperatorsCollection      = "operators"
	ServicesCollection       = "services"
	PreStartsCollection      = "prestarts"
	DieselTanksCollection    = "dieseltanks"
	PlansCollection          = "plans"
	AccessRequestsCollection = "accessrequests"
	NotificationsCollection  = "notifications"
	TemplatesCollection      = "templates"
)

// OrganizationCollection defines the interface for organization operations.
type OrganizationCollection interface {
	FindOrganizationByName(ctx context.Context, name string) (*models.Organization, error)
	EnsureOrganization(ctx context.Context, name string) error
}

// MachineCollection defines the interface for machine operations.
type MachineCollection interface {
	InsertMachine(ctx context.Context, machine models.Machine) error
	FindMachines(ctx context.Context, filter bson.M) ([]models.Machine, error)
	FindMachineByID(ctx context.Context, id string) (*models.Machine, error)
	UpdateMachine(ctx context.Context, id string, machine models.Machine) error
	DeleteMachine(ctx context.Context, id string) error
}

// OperatorCollection defines the interface for operator operations.
type OperatorCollection interface {
	InsertOperator(ctx context.Context, operator models.Operator) error
	FindOperators(ctx context.Context, filter bson.M) ([]models.Operator, error)
	FindOperatorByID(ctx context.Context, id string) (*models.Operator, error)
	FindOperatorsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Operator, error)
	UpdateOperator(ctx context.Context, id string, operator models.Operator) error
}

// ServiceCollection defines the interface for maintenance service operations.
type ServiceCollection interface {
	InsertService(ctx context.Context, service models.Service) error
	FindServices(ctx context.Context, filter bson.M) ([]models.Service, error)
	FindServiceByID(ctx context.Context, id string) (*models.Service, error)
	UpdateService(ctx context.Context, id string, service models.Service) error
	FindStalePending(ctx context.Context, before time.Time) ([]models.Service, error)
	MarkReminderSent(ctx context.Context, id primitive.ObjectID) error
}

// PreStartCollection defines the interface for pre-start check operations.
type PreStartCollection interface {
	InsertPreStart(ctx context.Context, check models.PreStart) error
	FindPreStarts(ctx context.Context, filter bson.M) ([]models.PreStart, error)
	FindPreStartByID(ctx context.Context, id string) (*models.PreStart, error)
	UpdatePreStart(ctx context.Context, id string, check models.PreStart) error
}

// DieselTankCollection defines the interface for diesel tank operations.
type DieselTankCollection interface {
	InsertDieselTank(ctx context.Context, tank models.DieselTank) error
	FindDieselTanks(ctx context.Context, filter bson.M) ([]models.DieselTank, error)
	FindDieselTankByID(ctx context.Context, id string) (*models.DieselTank, error)
	UpdateDieselTank(ctx context.Context, id string, tank models.DieselTank) error
}

// PlanCollection defines the interface for billing plan operations.
type PlanCollection interface {
	InsertPlan(ctx context.Context, plan models.Plan) error
	FindPlans(ctx context.Context, filter bson.M) ([]models.Plan, error)
	FindPlanByID(ctx context.Context, id string) (*models.Plan, error)
	UpdatePlan(ctx context.Context, id string, plan models.Plan) error
}

// AccessRequestCollection defines the interface for access request operations.
type AccessRequestCollection interface {
	InsertAccessRequest(ctx context.Context, req models.AccessRequest) error
	FindAccessRequests(ctx context.Context, filter bson.M) ([]models.AccessRequest, error)
	FindAccessRequestByID(ctx context.Context, id string) (*models.AccessRequest, error)
	UpdateAccessRequest(ctx context.Context, id string, req models.AccessRequest) error
}

// NotificationCollection defines the interface for notification operations.
type NotificationCollection interface {
	InsertNotification(ctx context.Context, n models.Notification) error
	FindNotificationsForUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id string, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// TemplateCollection defines the interface for checklist template operations.
type TemplateCollection interface {
	InsertTemplate(ctx context.Context, tpl models.ChecklistTemplate) error
	FindTemplates(ctx context.Context, filter bson.M) ([]models.ChecklistTemplate, error)
	FindTemplatesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.ChecklistTemplate, error)
}

// Store bundles every collection of the default database.
type Store struct {
	Users          *MongoUserCollection
	Organizations  *MongoOrganizationCollection
	Machines       *MongoMachineCollection
	Operators      *MongoOperatorCollection
	Services       *MongoServiceCollection
	PreStarts      *MongoPreStartCollection
	DieselTanks    *MongoDieselTankCollection
	Plans          *MongoPlanCollection
	AccessRequests *MongoAccessRequestCollection
	Notifications  *MongoNotificationCollection
	Templates      *MongoTemplateCollection
}

// NewStore binds every collection to the given database.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		Users:         &MongoUserCollection{Collection: database.Collection(UsersCollection)},
		Organizations: &MongoOrganizationCollection{Collection: database.Collection(OrganizationsCollection)},
		Machines: &MongoMachineCollection{
			Collection: database.Collection(MachinesCollection),
			Legacy:     database.Collection(LegacyMachinesCollection),
		},
		Operators:      &MongoOperatorCollection{Collection: database.Collection(OperatorsCollection)},
		Services:       &MongoServiceCollection{Collection: database.Collection(ServicesCollection)},
		PreStarts:      &MongoPreStartCollection{Collection: database.Collection(PreStartsCollection)},
		DieselTanks:    &MongoDieselTankCollection{Collection: database.Collection(DieselTanksCollection)},
		Plans:          &MongoPlanCollection{Collection: database.Collection(PlansCollection)},
		AccessRequests: &MongoAccessRequestCollection{Collection: database.Collection(AccessRequestsCollection)},
		Notifications:  &MongoNotificationCollection{Collection: database.Collection(NotificationsCollection)},
		Templates:      &MongoTemplateCollection{Collection: database.Collection(TemplatesCollection)},
	}
}
