package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserSource resolves accounts by ID.
type UserSource interface {
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// OperatorSource resolves operators by ID.
type OperatorSource interface {
	FindOperatorsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Operator, error)
}

// TemplateSource resolves checklist templates by ID.
type TemplateSource interface {
	FindTemplatesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.ChecklistTemplate, error)
}

// LookupHandler resolves lists of IDs to display names or emails. Lookups
// spanning users and operators run one query per collection and merge the
// results in memory; on an ID present in both, the user record wins. Records
// outside the caller's organization are left out.
type LookupHandler struct {
	users     UserSource
	operators OperatorSource
	templates TemplateSource
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(users UserSource, operators OperatorSource, templates TemplateSource) *LookupHandler {
	return &LookupHandler{users: users, operators: operators, templates: templates}
}

type idsRequest struct {
	IDs json.RawMessage `json:"ids"`
}

// readIDs decodes {"ids": [...]} into ObjectIDs. Any malformed ID is a 400.
func readIDs(w http.ResponseWriter, r *http.Request) ([]primitive.ObjectID, bool) {
	var req idsRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	var ids []string
	if len(req.IDs) == 0 || json.Unmarshal(req.IDs, &ids) != nil || ids == nil {
		respondError(w, http.StatusBadRequest, "ids must be an array of strings")
		return nil, false
	}

	oids, err := db.ParseIDs(dedupe(ids))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID format")
		return nil, false
	}
	return oids, true
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// UserNames maps IDs to names from users and operators.
func (h *LookupHandler) UserNames(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	ids, ok := readIDs(w, r)
	if !ok {
		return
	}
	names := map[string]string{}
	if len(ids) == 0 {
		respondJSON(w, http.StatusOK, names)
		return
	}

	operators, err := h.operators.FindOperatorsByIDs(r.Context(), ids)
	if err != nil {
		respondDBError(w, r, err, "Operator not found")
		return
	}
	users, err := h.users.FindUsersByIDs(r.Context(), ids)
	if err != nil {
		respondDBError(w, r, err, "User not found")
		return
	}

	for _, o := range operators {
		if visible(claims, o.Organization) {
			names[o.ID.Hex()] = o.Name
		}
	}
	for _, u := range users {
		if visible(claims, models.ResolveOrganization(u.Company, u.Organization)) {
			names[u.ID.Hex()] = u.Name
		}
	}
	respondJSON(w, http.StatusOK, names)
}

// Emails maps IDs to email addresses from users and operators. Records
// without an email are left out.
func (h *LookupHandler) Emails(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	ids, ok := readIDs(w, r)
	if !ok {
		return
	}
	emails := map[string]string{}
	if len(ids) == 0 {
		respondJSON(w, http.StatusOK, emails)
		return
	}

	operators, err := h.operators.FindOperatorsByIDs(r.Context(), ids)
	if err != nil {
		respondDBError(w, r, err, "Operator not found")
		return
	}
	users, err := h.users.FindUsersByIDs(r.Context(), ids)
	if err != nil {
		respondDBError(w, r, err, "User not found")
		return
	}

	for _, o := range operators {
		if o.Email != "" && visible(claims, o.Organization) {
			emails[o.ID.Hex()] = o.Email
		}
	}
	for _, u := range users {
		if u.Email != "" && visible(claims, models.ResolveOrganization(u.Company, u.Organization)) {
			emails[u.ID.Hex()] = u.Email
		}
	}
	respondJSON(w, http.StatusOK, emails)
}

// TemplateNames maps template IDs to names.
func (h *LookupHandler) TemplateNames(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	ids, ok := readIDs(w, r)
	if !ok {
		return
	}
	names := map[string]string{}
	if len(ids) == 0 {
		respondJSON(w, http.StatusOK, names)
		return
	}

	templates, err := h.templates.FindTemplatesByIDs(r.Context(), ids)
	if err != nil {
		respondDBError(w, r, err, "Template not found")
		return
	}
	for _, t := range templates {
		if visible(claims, t.Organization) {
			names[t.ID.Hex()] = t.Name
		}
	}
	respondJSON(w, http.StatusOK, names)
}
