package handlers

import (
	"net/http"

	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateHandler serves pre-start checklist templates.
type TemplateHandler struct {
	templates db.TemplateCollection
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templates db.TemplateCollection) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type templateRequest struct {
	Name         string   `json:"name" validate:"required"`
	MachineType  string   `json:"machineType"`
	Items        []string `json:"items" validate:"required,min=1,dive,required"`
	Organization string   `json:"organization"`
}

// List returns the templates of the caller's organization.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	templates, err := h.templates.FindTemplates(r.Context(), scope(claims))
	if err != nil {
		respondDBError(w, r, err, "Template not found")
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

// Create adds a checklist template.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req templateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tpl := models.ChecklistTemplate{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		MachineType:  req.MachineType,
		Items:        req.Items,
		Organization: organizationFor(claims, req.Organization),
	}
	if err := h.templates.InsertTemplate(r.Context(), tpl); err != nil {
		respondDBError(w, r, err, "Template not found")
		return
	}
	respondJSON(w, http.StatusCreated, tpl)
}
