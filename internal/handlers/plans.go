package handlers

import (
	"net/http"

	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves billing plans. Writes are admin only.
type PlanHandler struct {
	plans db.PlanCollection
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(plans db.PlanCollection) *PlanHandler {
	return &PlanHandler{plans: plans}
}

type planRequest struct {
	Name         string          `json:"name" validate:"required"`
	Price        float64         `json:"price" validate:"gte=0"`
	Currency     string          `json:"currency"`
	BillingCycle string          `json:"billingCycle" validate:"required,oneof=monthly yearly"`
	MaxMachines  int             `json:"maxMachines" validate:"gte=0"`
	MaxUsers     int             `json:"maxUsers" validate:"gte=0"`
	Features     map[string]bool `json:"features"`
	Active       *bool           `json:"active"`
}

// List returns the plans. Non-admins only see active plans.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	filter := bson.M{}
	if !claims.IsAdmin() {
		filter["active"] = true
	}
	plans, err := h.plans.FindPlans(r.Context(), filter)
	if err != nil {
		respondDBError(w, r, err, "Plan not found")
		return
	}
	respondJSON(w, http.StatusOK, plans)
}

// Create adds a plan.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	plan := models.Plan{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Price:        req.Price,
		Currency:     req.Currency,
		BillingCycle: req.BillingCycle,
		MaxMachines:  req.MaxMachines,
		MaxUsers:     req.MaxUsers,
		Features:     req.Features,
		Active:       true,
	}
	if plan.Currency == "" {
		plan.Currency = "USD"
	}
	if plan.Features == nil {
		plan.Features = map[string]bool{}
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}

	if err := h.plans.InsertPlan(r.Context(), plan); err != nil {
		respondDBError(w, r, err, "Plan not found")
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

// Update merges the submitted fields into the stored plan.
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.plans.FindPlanByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDBError(w, r, err, "Plan not found")
		return
	}

	updated, ok := readPatch(w, r, *existing)
	if !ok {
		return
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if updated.BillingCycle != models.BillingMonthly && updated.BillingCycle != models.BillingYearly {
		respondError(w, http.StatusBadRequest, "billingCycle must be one of: monthly yearly")
		return
	}
	if updated.Price < 0 {
		respondError(w, http.StatusBadRequest, "price must be at least 0")
		return
	}

	if err := h.plans.UpdatePlan(r.Context(), existing.ID.Hex(), updated); err != nil {
		respondDBError(w, r, err, "Plan not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
