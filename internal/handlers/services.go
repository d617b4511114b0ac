package handlers

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceHandler serves maintenance services.
type ServiceHandler struct {
	services db.ServiceCollection
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(services db.ServiceCollection) *ServiceHandler {
	return &ServiceHandler{services: services}
}

type serviceRequest struct {
	MachineID     string               `json:"machineId" validate:"required"`
	TechnicianID  string               `json:"technicianId"`
	Type          string               `json:"type" validate:"required"`
	Status        models.ServiceStatus `json:"status"`
	Description   string               `json:"description"`
	ScheduledDate *time.Time           `json:"scheduledDate"`
	CompletedDate *time.Time           `json:"completedDate"`
	Hours         float64              `json:"hours" validate:"gte=0"`
	LaborCost     float64              `json:"laborCost" validate:"gte=0"`
	PartsCost     float64              `json:"partsCost" validate:"gte=0"`
	Parts         []models.Part        `json:"parts"`
	Organization  string               `json:"organization"`
}

// List returns services. ?status= and ?machineId= narrow the result.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	filter := scope(claims)
	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		if !models.IsValidServiceStatus(models.ServiceStatus(status)) {
			respondError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		filter["status"] = status
	}
	if machineID := query.Get("machineId"); machineID != "" {
		oid, err := db.ParseID(machineID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid machine ID format")
			return
		}
		filter["machineId"] = oid
	}

	services, err := h.services.FindServices(r.Context(), filter)
	if err != nil {
		respondDBError(w, r, err, "Service not found")
		return
	}
	respondJSON(w, http.StatusOK, services)
}

// Create records a service.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req serviceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	machineID, err := db.ParseID(req.MachineID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid machine ID format")
		return
	}
	if req.Status == "" {
		req.Status = models.ServicePending
	}
	if !models.IsValidServiceStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	service := models.Service{
		ID:            primitive.NewObjectID(),
		MachineID:     machineID,
		Type:          req.Type,
		Status:        req.Status,
		Description:   req.Description,
		ScheduledDate: req.ScheduledDate,
		CompletedDate: req.CompletedDate,
		Hours:         req.Hours,
		LaborCost:     req.LaborCost,
		PartsCost:     req.PartsCost,
		Parts:         req.Parts,
		RequestedBy:   claims.Name,
		ContactEmail:  claims.Email,
		Organization:  organizationFor(claims, req.Organization),
	}
	if req.TechnicianID != "" {
		technicianID, err := db.ParseID(req.TechnicianID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid technician ID format")
			return
		}
		service.TechnicianID = &technicianID
	}
	if service.Parts == nil {
		service.Parts = []models.Part{}
	}
	service.ComputeCosts()

	if err := h.services.InsertService(r.Context(), service); err != nil {
		respondDBError(w, r, err, "Service not found")
		return
	}
	log.WithFields(log.Fields{"service_id": service.ID.Hex(), "machine_id": machineID.Hex()}).Info("Service created")
	respondJSON(w, http.StatusCreated, service)
}

func (h *ServiceHandler) find(w http.ResponseWriter, r *http.Request, claims *models.Claims) (*models.Service, bool) {
	service, err := h.services.FindServiceByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDBError(w, r, err, "Service not found")
		return nil, false
	}
	if !visible(claims, service.Organization) {
		respondError(w, http.StatusNotFound, "Service not found")
		return nil, false
	}
	return service, true
}

// Get returns one service.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	service, ok := h.find(w, r, claims)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, service)
}

// Update merges the submitted fields into the stored service. Moving a
// service to Completed stamps the completion date when none was given.
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	existing, ok := h.find(w, r, claims)
	if !ok {
		return
	}

	updated, ok := readPatch(w, r, *existing)
	if !ok {
		return
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.ReminderSent = existing.ReminderSent
	if !claims.IsAdmin() {
		updated.Organization = existing.Organization
	}
	if !models.IsValidServiceStatus(updated.Status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if updated.Status == models.ServiceCompleted && updated.CompletedDate == nil {
		now := time.Now()
		updated.CompletedDate = &now
	}
	updated.ComputeCosts()

	if err := h.services.UpdateService(r.Context(), existing.ID.Hex(), updated); err != nil {
		respondDBError(w, r, err, "Service not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
