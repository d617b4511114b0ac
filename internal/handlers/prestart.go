package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier delivers an in-app notification.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// MachineLookup finds a machine by ID, including legacy records.
type MachineLookup interface {
	FindMachineByID(ctx context.Context, id string) (*models.Machine, error)
}

// PreStartHandler serves pre-start safety checks.
type PreStartHandler struct {
	checks   db.PreStartCollection
	machines MachineLookup
	notifier Notifier
}

// NewPreStartHandler creates a pre-start handler. A failed check notifies the
// machine owner when machines and notifier are set.
func NewPreStartHandler(checks db.PreStartCollection, machines MachineLookup, notifier Notifier) *PreStartHandler {
	return &PreStartHandler{checks: checks, machines: machines, notifier: notifier}
}

type preStartRequest struct {
	OperatorID   string          `json:"operatorId"`
	Operator     string          `json:"operator"`
	MachineID    string          `json:"machineId"`
	MaquinaID    string          `json:"maquinaId"`
	TemplateID   string          `json:"templateId"`
	Checks       map[string]bool `json:"checks" validate:"required"`
	Hours        float64         `json:"hours" validate:"gte=0"`
	Observations string          `json:"observations"`
	Organization string          `json:"organization"`
}

// optionalID parses a non-empty hex id.
func optionalID(id string) (*primitive.ObjectID, error) {
	if id == "" {
		return nil, nil
	}
	oid, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	return &oid, nil
}

// List returns checks, optionally for one machine via ?machineId=, which
// matches either machine reference field.
func (h *PreStartHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	filter := scope(claims)
	if machineID := r.URL.Query().Get("machineId"); machineID != "" {
		ref, err := db.MachineRefFilter(machineID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid machine ID format")
			return
		}
		for k, v := range ref {
			filter[k] = v
		}
	}

	checks, err := h.checks.FindPreStarts(r.Context(), filter)
	if err != nil {
		respondDBError(w, r, err, "Pre-start check not found")
		return
	}
	respondJSON(w, http.StatusOK, checks)
}

// Create records a pre-start check. Either machineId or maquinaId is required.
func (h *PreStartHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req preStartRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.MachineID == "" && req.MaquinaID == "" {
		respondError(w, http.StatusBadRequest, "machineId is required")
		return
	}

	check := models.PreStart{
		ID:           primitive.NewObjectID(),
		OperatorName: strings.TrimSpace(req.Operator),
		Checks:       req.Checks,
		Hours:        req.Hours,
		Observations: req.Observations,
		Organization: organizationFor(claims, req.Organization),
	}
	var err error
	if check.MachineID, err = optionalID(req.MachineID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid machine ID format")
		return
	}
	if check.MaquinaID, err = optionalID(req.MaquinaID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid machine ID format")
		return
	}
	if check.OperatorID, err = optionalID(req.OperatorID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid operator ID format")
		return
	}
	if check.TemplateID, err = optionalID(req.TemplateID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid template ID format")
		return
	}
	if check.OperatorName == "" {
		check.OperatorName = claims.Name
	}
	check.Reconcile()

	if err := h.checks.InsertPreStart(r.Context(), check); err != nil {
		respondDBError(w, r, err, "Pre-start check not found")
		return
	}
	if !check.Passed {
		h.notifyFailed(r.Context(), check)
	}
	respondJSON(w, http.StatusCreated, check)
}

// notifyFailed tells the machine owner about failed items. Best effort.
func (h *PreStartHandler) notifyFailed(ctx context.Context, check models.PreStart) {
	if h.machines == nil || h.notifier == nil || check.MachineID == nil {
		return
	}
	logger := log.WithFields(log.Fields{"prestart_id": check.ID.Hex(), "machine_id": check.MachineID.Hex()})

	machine, err := h.machines.FindMachineByID(ctx, check.MachineID.Hex())
	if err != nil {
		logger.WithError(err).Warn("Failed to look up machine for failed pre-start check")
		return
	}
	if machine.OwnerID == nil {
		return
	}

	err = h.notifier.Notify(ctx, models.Notification{
		UserID:  *machine.OwnerID,
		Type:    models.NotificationPreStartFailed,
		Title:   fmt.Sprintf("Pre-start check failed: %s %s", machine.Brand, machine.Model),
		Message: fmt.Sprintf("%s reported failed items: %s", check.OperatorName, strings.Join(check.FailedChecks(), ", ")),
		Link:    "/prestart",
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to notify machine owner")
	}
}

func (h *PreStartHandler) find(w http.ResponseWriter, r *http.Request, claims *models.Claims) (*models.PreStart, bool) {
	check, err := h.checks.FindPreStartByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDBError(w, r, err, "Pre-start check not found")
		return nil, false
	}
	if !visible(claims, check.Organization) {
		respondError(w, http.StatusNotFound, "Pre-start check not found")
		return nil, false
	}
	return check, true
}

// Get returns one check.
func (h *PreStartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	check, ok := h.find(w, r, claims)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, check)
}

// Update merges the submitted fields into the stored check and reconciles
// the machine references again.
func (h *PreStartHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	existing, ok := h.find(w, r, claims)
	if !ok {
		return
	}

	updated, patch, ok := readPatchFields(w, r, *existing)
	if !ok {
		return
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if !claims.IsAdmin() {
		updated.Organization = existing.Organization
	}
	// The reference the patch carries wins; machineId wins if it carries both.
	_, sentMachine := patch["machineId"]
	_, sentMaquina := patch["maquinaId"]
	switch {
	case sentMachine && updated.MachineID != nil:
		updated.MaquinaID = nil
	case sentMaquina && updated.MaquinaID != nil:
		updated.MachineID = nil
	}
	updated.Reconcile()

	if err := h.checks.UpdatePreStart(r.Context(), existing.ID.Hex(), updated); err != nil {
		respondDBError(w, r, err, "Pre-start check not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
