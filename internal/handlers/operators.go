package handlers

import (
	"net/http"
	"time"

	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OperatorHandler serves operators and technicians.
type OperatorHandler struct {
	operators db.OperatorCollection
}

// NewOperatorHandler creates a new operator handler
func NewOperatorHandler(operators db.OperatorCollection) *OperatorHandler {
	return &OperatorHandler{operators: operators}
}

type operatorRequest struct {
	Name          string     `json:"name" validate:"required"`
	Email         string     `json:"email" validate:"omitempty,email"`
	Phone         string     `json:"phone"`
	Type          string     `json:"type" validate:"omitempty,oneof=operator technician"`
	License       string     `json:"license"`
	LicenseExpiry *time.Time `json:"licenseExpiry"`
	Active        *bool      `json:"active"`
	Organization  string     `json:"organization"`
}

// List returns the operators of the caller's organization. ?type= narrows the result.
func (h *OperatorHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	filter := scope(claims)
	if t := r.URL.Query().Get("type"); t != "" {
		if !models.IsValidOperatorType(t) {
			respondError(w, http.StatusBadRequest, "Invalid operator type")
			return
		}
		filter["type"] = t
	}

	operators, err := h.operators.FindOperators(r.Context(), filter)
	if err != nil {
		respondDBError(w, r, err, "Operator not found")
		return
	}
	respondJSON(w, http.StatusOK, operators)
}

// Create adds an operator.
func (h *OperatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req operatorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	operator := models.Operator{
		ID:            primitive.NewObjectID(),
		Name:          req.Name,
		Email:         db.NormalizeEmail(req.Email),
		Phone:         req.Phone,
		Type:          req.Type,
		License:       req.License,
		LicenseExpiry: req.LicenseExpiry,
		Active:        true,
		Organization:  organizationFor(claims, req.Organization),
	}
	if operator.Type == "" {
		operator.Type = models.OperatorTypeOperator
	}
	if req.Active != nil {
		operator.Active = *req.Active
	}

	if err := h.operators.InsertOperator(r.Context(), operator); err != nil {
		respondDBError(w, r, err, "Operator not found")
		return
	}
	respondJSON(w, http.StatusCreated, operator)
}

func (h *OperatorHandler) find(w http.ResponseWriter, r *http.Request, claims *models.Claims) (*models.Operator, bool) {
	operator, err := h.operators.FindOperatorByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDBError(w, r, err, "Operator not found")
		return nil, false
	}
	if !visible(claims, operator.Organization) {
		respondError(w, http.StatusNotFound, "Operator not found")
		return nil, false
	}
	return operator, true
}

// Get returns one operator.
func (h *OperatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	operator, ok := h.find(w, r, claims)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, operator)
}

// Update merges the submitted fields into the stored operator.
func (h *OperatorHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	if updated.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !models.IsValidOperatorType(updated.Type) {
		respondError(w, http.StatusBadRequest, "Invalid operator type")
		return
	}
	updated.Email = db.NormalizeEmail(updated.Email)

	if err := h.operators.UpdateOperator(r.Context(), existing.ID.Hex(), updated); err != nil {
		respondDBError(w, r, err, "Operator not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
