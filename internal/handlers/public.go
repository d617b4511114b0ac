package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceInserter stores a service.
type ServiceInserter interface {
	InsertService(ctx context.Context, service models.Service) error
}

// PublicHandler serves the unauthenticated machine QR page.
type PublicHandler struct {
	machines MachineLookup
	services ServiceInserter
	notifier Notifier
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(machines MachineLookup, services ServiceInserter, notifier Notifier) *PublicHandler {
	return &PublicHandler{machines: machines, services: services, notifier: notifier}
}

type publicServiceRequest struct {
	MachineID    string `json:"machineId" validate:"required"`
	Type         string `json:"type"`
	Description  string `json:"description" validate:"required"`
	RequestedBy  string `json:"requestedBy" validate:"required"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
}

func (h *PublicHandler) machine(w http.ResponseWriter, r *http.Request, id string) (*models.Machine, bool) {
	if _, err := db.ParseID(id); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid machine ID format")
		return nil, false
	}
	machine, err := h.machines.FindMachineByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Machine not found")
			return nil, false
		}
		respondDBError(w, r, err, "Machine not found")
		return nil, false
	}
	return machine, true
}

// GetMachine returns the public view of a machine.
func (h *PublicHandler) GetMachine(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machine(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, machine.Public())
}

// CreateService files a Pending service request against a machine and
// notifies its owner.
func (h *PublicHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req publicServiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	machine, ok := h.machine(w, r, req.MachineID)
	if !ok {
		return
	}

	service := models.Service{
		ID:           primitive.NewObjectID(),
		MachineID:    machine.ID,
		Type:         req.Type,
		Status:       models.ServicePending,
		Description:  strings.TrimSpace(req.Description),
		Parts:        []models.Part{},
		RequestedBy:  strings.TrimSpace(req.RequestedBy),
		ContactEmail: db.NormalizeEmail(req.ContactEmail),
		Organization: machine.Organization,
	}
	if service.Type == "" {
		service.Type = "corrective"
	}

	if err := h.services.InsertService(r.Context(), service); err != nil {
		respondDBError(w, r, err, "Service not found")
		return
	}
	logger := log.WithFields(log.Fields{"service_id": service.ID.Hex(), "machine_id": machine.ID.Hex()})
	logger.Info("Public service request received")

	if machine.OwnerID != nil && h.notifier != nil {
		err := h.notifier.Notify(r.Context(), models.Notification{
			UserID:  *machine.OwnerID,
			Type:    models.NotificationServiceRequest,
			Title:   fmt.Sprintf("Service requested: %s %s", machine.Brand, machine.Model),
			Message: fmt.Sprintf("%s: %s", service.RequestedBy, service.Description),
			Link:    "/services",
		})
		if err != nil {
			logger.WithError(err).Warn("Failed to notify machine owner")
		}
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     service.ID,
		"status": service.Status,
	})
}
