package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MachineHandler serves the machine inventory.
type MachineHandler struct {
	machines db.MachineCollection
}

// NewMachineHandler creates a new machine handler
func NewMachineHandler(machines db.MachineCollection) *MachineHandler {
	return &MachineHandler{machines: machines}
}

type machineRequest struct {
	Brand        string            `json:"brand" validate:"required"`
	Model        string            `json:"model" validate:"required"`
	SerialNumber string            `json:"serialNumber"`
	Type         string            `json:"type"`
	Year         int               `json:"year" validate:"omitempty,gte=1900"`
	Hours        float64           `json:"hours" validate:"gte=0"`
	Fluids       models.FluidSpecs `json:"fluids"`
	Tires        models.TireSpecs  `json:"tires"`
	Organization string            `json:"organization"`
}

// List returns the machines of the caller's organization.
func (h *MachineHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	machines, err := h.machines.FindMachines(r.Context(), scope(claims))
	if err != nil {
		respondDBError(w, r, err, "Machine not found")
		return
	}
	respondJSON(w, http.StatusOK, machines)
}

// Create adds a machine owned by the caller.
func (h *MachineHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req machineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	machine := models.Machine{
		ID:           primitive.NewObjectID(),
		Brand:        req.Brand,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		Type:         req.Type,
		Year:         req.Year,
		Hours:        req.Hours,
		Fluids:       req.Fluids,
		Tires:        req.Tires,
		Organization: organizationFor(claims, req.Organization),
	}
	if owner, err := db.ParseID(claims.UserID); err == nil {
		machine.OwnerID = &owner
	}

	if err := h.machines.InsertMachine(r.Context(), machine); err != nil {
		respondDBError(w, r, err, "Machine not found")
		return
	}
	log.WithFields(log.Fields{"machine_id": machine.ID.Hex(), "organization": machine.Organization}).Info("Machine created")
	respondJSON(w, http.StatusCreated, machine)
}

// find loads a machine visible to the caller, answering on failure.
func (h *MachineHandler) find(w http.ResponseWriter, r *http.Request, claims *models.Claims) (*models.Machine, bool) {
	machine, err := h.machines.FindMachineByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDBError(w, r, err, "Machine not found")
		return nil, false
	}
	if !visible(claims, machine.Organization) {
		respondError(w, http.StatusNotFound, "Machine not found")
		return nil, false
	}
	return machine, true
}

// Get returns one machine.
func (h *MachineHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	machine, ok := h.find(w, r, claims)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, machine)
}

// Update merges the submitted fields into the stored machine.
func (h *MachineHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	if !claims.IsAdmin() {
		updated.Organization = existing.Organization
	}
	if updated.Brand == "" || updated.Model == "" {
		respondError(w, http.StatusBadRequest, "brand and model are required")
		return
	}

	if err := h.machines.UpdateMachine(r.Context(), existing.ID.Hex(), updated); err != nil {
		respondDBError(w, r, err, "Machine not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes a machine. Machines are the only hard-deletable records.
func (h *MachineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	machine, ok := h.find(w, r, claims)
	if !ok {
		return
	}

	if err := h.machines.DeleteMachine(r.Context(), machine.ID.Hex()); err != nil {
		respondDBError(w, r, err, "Machine not found")
		return
	}
	log.WithField("machine_id", machine.ID.Hex()).Info("Machine deleted")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Machine deleted"})
}
