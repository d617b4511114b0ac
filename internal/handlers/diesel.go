package handlers

import (
	"net/http"

	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DieselTankHandler serves on-site fuel tanks.
type DieselTankHandler struct {
	tanks db.DieselTankCollection
}

// NewDieselTankHandler creates a new diesel tank handler
func NewDieselTankHandler(tanks db.DieselTankCollection) *DieselTankHandler {
	return &DieselTankHandler{tanks: tanks}
}

type dieselTankRequest struct {
	Name         string  `json:"name" validate:"required"`
	Capacity     float64 `json:"capacity" validate:"gt=0"`
	CurrentLevel float64 `json:"currentLevel" validate:"gte=0"`
	Location     string  `json:"location"`
	Organization string  `json:"organization"`
}

type dieselTankResponse struct {
	models.DieselTank
	FillPercent float64 `json:"fillPercent"`
}

func withFill(tank models.DieselTank) dieselTankResponse {
	return dieselTankResponse{DieselTank: tank, FillPercent: tank.FillPercent()}
}

// List returns the tanks of the caller's organization.
func (h *DieselTankHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	tanks, err := h.tanks.FindDieselTanks(r.Context(), scope(claims))
	if err != nil {
		respondDBError(w, r, err, "Diesel tank not found")
		return
	}
	out := make([]dieselTankResponse, 0, len(tanks))
	for _, t := range tanks {
		out = append(out, withFill(t))
	}
	respondJSON(w, http.StatusOK, out)
}

// Create adds a tank.
func (h *DieselTankHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req dieselTankRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.CurrentLevel > req.Capacity {
		respondError(w, http.StatusBadRequest, "currentLevel cannot exceed capacity")
		return
	}

	tank := models.DieselTank{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Capacity:     req.Capacity,
		CurrentLevel: req.CurrentLevel,
		Location:     req.Location,
		Organization: organizationFor(claims, req.Organization),
	}
	if err := h.tanks.InsertDieselTank(r.Context(), tank); err != nil {
		respondDBError(w, r, err, "Diesel tank not found")
		return
	}
	respondJSON(w, http.StatusCreated, withFill(tank))
}

func (h *DieselTankHandler) find(w http.ResponseWriter, r *http.Request, claims *models.Claims) (*models.DieselTank, bool) {
	tank, err := h.tanks.FindDieselTankByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDBError(w, r, err, "Diesel tank not found")
		return nil, false
	}
	if !visible(claims, tank.Organization) {
		respondError(w, http.StatusNotFound, "Diesel tank not found")
		return nil, false
	}
	return tank, true
}

// Get returns one tank.
func (h *DieselTankHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	tank, ok := h.find(w, r, claims)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, withFill(*tank))
}

// Update merges the submitted fields into the stored tank.
func (h *DieselTankHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	if !claims.IsAdmin() {
		updated.Organization = existing.Organization
	}
	if updated.Capacity <= 0 || updated.CurrentLevel < 0 || updated.CurrentLevel > updated.Capacity {
		respondError(w, http.StatusBadRequest, "currentLevel must be between 0 and capacity")
		return
	}

	if err := h.tanks.UpdateDieselTank(r.Context(), existing.ID.Hex(), updated); err != nil {
		respondDBError(w, r, err, "Diesel tank not found")
		return
	}
	respondJSON(w, http.StatusOK, withFill(updated))
}
