package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/machinery-dashboard/internal/auth"
	"github.com/ukydev/machinery-dashboard/internal/middleware"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOrganizationCollection is a mock implementation of OrganizationCollection
type MockOrganizationCollection struct {
	mock.Mock
}

func (m *MockOrganizationCollection) FindOrganizationByName(ctx context.Context, name string) (*models.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationCollection) EnsureOrganization(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockMachineCollection is a mock implementation of MachineCollection
type MockMachineCollection struct {
	mock.Mock
}

func (m *MockMachineCollection) InsertMachine(ctx context.Context, machine models.Machine) error {
	args := m.Called(ctx, machine)
	return args.Error(0)
}

func (m *MockMachineCollection) FindMachines(ctx context.Context, filter bson.M) ([]models.Machine, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Machine), args.Error(1)
}

func (m *MockMachineCollection) FindMachineByID(ctx context.Context, id string) (*models.Machine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Machine), args.Error(1)
}

func (m *MockMachineCollection) UpdateMachine(ctx context.Context, id string, machine models.Machine) error {
	args := m.Called(ctx, id, machine)
	return args.Error(0)
}

func (m *MockMachineCollection) DeleteMachine(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOperatorCollection is a mock implementation of OperatorCollection
type MockOperatorCollection struct {
	mock.Mock
}

func (m *MockOperatorCollection) InsertOperator(ctx context.Context, operator models.Operator) error {
	args := m.Called(ctx, operator)
	return args.Error(0)
}

func (m *MockOperatorCollection) FindOperators(ctx context.Context, filter bson.M) ([]models.Operator, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Operator), args.Error(1)
}

func (m *MockOperatorCollection) FindOperatorByID(ctx context.Context, id string) (*models.Operator, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func (m *MockOperatorCollection) FindOperatorsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Operator, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Operator), args.Error(1)
}

func (m *MockOperatorCollection) UpdateOperator(ctx context.Context, id string, operator models.Operator) error {
	args := m.Called(ctx, id, operator)
	return args.Error(0)
}

// MockServiceCollection is a mock implementation of ServiceCollection
type MockServiceCollection struct {
	mock.Mock
}

func (m *MockServiceCollection) InsertService(ctx context.Context, service models.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceCollection) FindServices(ctx context.Context, filter bson.M) ([]models.Service, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *MockServiceCollection) FindServiceByID(ctx context.Context, id string) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceCollection) UpdateService(ctx context.Context, id string, service models.Service) error {
	args := m.Called(ctx, id, service)
	return args.Error(0)
}

func (m *MockServiceCollection) FindStalePending(ctx context.Context, before time.Time) ([]models.Service, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *MockServiceCollection) MarkReminderSent(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPreStartCollection is a mock implementation of PreStartCollection
type MockPreStartCollection struct {
	mock.Mock
}

func (m *MockPreStartCollection) InsertPreStart(ctx context.Context, check models.PreStart) error {
	args := m.Called(ctx, check)
	return args.Error(0)
}

func (m *MockPreStartCollection) FindPreStarts(ctx context.Context, filter bson.M) ([]models.PreStart, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PreStart), args.Error(1)
}

func (m *MockPreStartCollection) FindPreStartByID(ctx context.Context, id string) (*models.PreStart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PreStart), args.Error(1)
}

func (m *MockPreStartCollection) UpdatePreStart(ctx context.Context, id string, check models.PreStart) error {
	args := m.Called(ctx, id, check)
	return args.Error(0)
}

// MockDieselTankCollection is a mock implementation of DieselTankCollection
type MockDieselTankCollection struct {
	mock.Mock
}

func (m *MockDieselTankCollection) InsertDieselTank(ctx context.Context, tank models.DieselTank) error {
	args := m.Called(ctx, tank)
	return args.Error(0)
}

func (m *MockDieselTankCollection) FindDieselTanks(ctx context.Context, filter bson.M) ([]models.DieselTank, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DieselTank), args.Error(1)
}

func (m *MockDieselTankCollection) FindDieselTankByID(ctx context.Context, id string) (*models.DieselTank, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DieselTank), args.Error(1)
}

func (m *MockDieselTankCollection) UpdateDieselTank(ctx context.Context, id string, tank models.DieselTank) error {
	args := m.Called(ctx, id, tank)
	return args.Error(0)
}

// MockPlanCollection is a mock implementation of PlanCollection
type MockPlanCollection struct {
	mock.Mock
}

func (m *MockPlanCollection) InsertPlan(ctx context.Context, plan models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanCollection) FindPlans(ctx context.Context, filter bson.M) ([]models.Plan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plan), args.Error(1)
}

func (m *MockPlanCollection) FindPlanByID(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanCollection) UpdatePlan(ctx context.Context, id string, plan models.Plan) error {
	args := m.Called(ctx, id, plan)
	return args.Error(0)
}

// MockAccessRequestCollection is a mock implementation of AccessRequestCollection
type MockAccessRequestCollection struct {
	mock.Mock
}

func (m *MockAccessRequestCollection) InsertAccessRequest(ctx context.Context, req models.AccessRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAccessRequestCollection) FindAccessRequests(ctx context.Context, filter bson.M) ([]models.AccessRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessRequest), args.Error(1)
}

func (m *MockAccessRequestCollection) FindAccessRequestByID(ctx context.Context, id string) (*models.AccessRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessRequest), args.Error(1)
}

func (m *MockAccessRequestCollection) UpdateAccessRequest(ctx context.Context, id string, req models.AccessRequest) error {
	args := m.Called(ctx, id, req)
	return args.Error(0)
}

// MockNotificationCollection is a mock implementation of NotificationCollection
type MockNotificationCollection struct {
	mock.Mock
}

func (m *MockNotificationCollection) InsertNotification(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationCollection) FindNotificationsForUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationCollection) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationCollection) MarkRead(ctx context.Context, id string, userID primitive.ObjectID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationCollection) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTemplateCollection is a mock implementation of TemplateCollection
type MockTemplateCollection struct {
	mock.Mock
}

func (m *MockTemplateCollection) InsertTemplate(ctx context.Context, tpl models.ChecklistTemplate) error {
	args := m.Called(ctx, tpl)
	return args.Error(0)
}

func (m *MockTemplateCollection) FindTemplates(ctx context.Context, filter bson.M) ([]models.ChecklistTemplate, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChecklistTemplate), args.Error(1)
}

func (m *MockTemplateCollection) FindTemplatesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.ChecklistTemplate, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChecklistTemplate), args.Error(1)
}

// MockNotifier records notifications.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockMailer records outgoing mail.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendAccessApproved(ctx context.Context, to, name, tempPassword string) error {
	args := m.Called(ctx, to, name, tempPassword)
	return args.Error(0)
}

func newTestAuthService(t *testing.T) *auth.Service {
	t.Helper()
	svc, err := auth.NewService("test-secret-key-for-handlers", time.Hour, false)
	require.NoError(t, err)
	return svc
}

func managerClaims(org string) *models.Claims {
	return &models.Claims{
		UserID:       primitive.NewObjectID().Hex(),
		Email:        "manager@acme.test",
		Name:         "Manager",
		Role:         models.RoleManager,
		Organization: org,
	}
}

func adminClaims() *models.Claims {
	return &models.Claims{
		UserID:       primitive.NewObjectID().Hex(),
		Email:        "admin@acme.test",
		Name:         "Admin",
		Role:         models.RoleAdmin,
		Organization: "Acme",
	}
}

// newRequest builds a request carrying claims (when non-nil) and an {id} path value.
func newRequest(method, target, body string, claims *models.Claims, id string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if claims != nil {
		req = req.WithContext(middleware.ContextWithUser(req.Context(), claims))
	}
	if id != "" {
		req.SetPathValue("id", id)
	}
	return req
}
