package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/formstate"
	"github.com/ukydev/machinery-dashboard/internal/middleware"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDBError maps collection errors onto the status taxonomy. Anything
// unexpected is a 500 carrying the raw error message.
func respondDBError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, db.ErrInvalidID):
		respondError(w, http.StatusBadRequest, "Invalid ID format")
	case errors.Is(err, db.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	default:
		log.WithError(err).WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).Error("Database operation failed")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// decodeAndValidate decodes then runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// sessionClaims returns the caller's claims or answers 401.
func sessionClaims(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return claims, true
}

// scope returns the query filter limiting a session to its organization.
// Admins see every organization.
func scope(claims *models.Claims) bson.M {
	if claims.IsAdmin() {
		return bson.M{}
	}
	return db.OrganizationFilter(claims.Organization)
}

// visible reports whether a record of organization may be seen by claims.
func visible(claims *models.Claims, organization string) bool {
	return claims.IsAdmin() || claims.Organization == organization
}

// organizationFor picks the organization a new record is filed under.
// Admins may file records for any organization.
func organizationFor(claims *models.Claims, requested string) string {
	if claims.IsAdmin() && requested != "" {
		return requested
	}
	return claims.Organization
}

// mergePatch applies a cleaned JSON patch onto existing: empty strings and
// empty objects in the patch are ignored, nested objects merge field by field.
// The cleaned patch is returned alongside the result.
func mergePatch[T any](existing T, body []byte) (T, map[string]any, error) {
	var patch map[string]any
	if err := json.Unmarshal(body, &patch); err != nil {
		return existing, nil, err
	}
	patch = formstate.CleanFormData(patch)

	baseJSON, err := json.Marshal(existing)
	if err != nil {
		return existing, nil, err
	}
	var base map[string]any
	if err := json.Unmarshal(baseJSON, &base); err != nil {
		return existing, nil, err
	}

	mergedJSON, err := json.Marshal(formstate.Merge(base, patch))
	if err != nil {
		return existing, nil, err
	}
	var out T
	if err := json.Unmarshal(mergedJSON, &out); err != nil {
		return existing, nil, err
	}
	return out, patch, nil
}

// readPatch reads the body and merges it onto existing, answering 400 on failure.
func readPatch[T any](w http.ResponseWriter, r *http.Request, existing T) (T, bool) {
	merged, _, ok := readPatchFields(w, r, existing)
	return merged, ok
}

// readPatchFields is readPatch that also returns the cleaned patch, for
// handlers that need to know which fields the caller sent.
func readPatchFields[T any](w http.ResponseWriter, r *http.Request, existing T) (T, map[string]any, bool) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return existing, nil, false
	}
	merged, patch, err := mergePatch(existing, body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return existing, nil, false
	}
	return merged, patch, true
}
