package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/auth"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/formstate"
	"github.com/ukydev/machinery-dashboard/internal/mailer"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessRequestHandler takes account requests from the landing page and
// lets admins review them.
type AccessRequestHandler struct {
	authService   *auth.Service
	requests      db.AccessRequestCollection
	users         db.UserCollection
	organizations db.OrganizationCollection
	mailer        mailer.Mailer
}

// NewAccessRequestHandler creates a new access request handler
func NewAccessRequestHandler(authService *auth.Service, requests db.AccessRequestCollection, users db.UserCollection, organizations db.OrganizationCollection, m mailer.Mailer) *AccessRequestHandler {
	return &AccessRequestHandler{
		authService:   authService,
		requests:      requests,
		users:         users,
		organizations: organizations,
		mailer:        m,
	}
}

type accessRequestPayload struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Company string `json:"company" validate:"required"`
	Message string `json:"message"`
}

type reviewPayload struct {
	Status models.AccessRequestStatus `json:"status" validate:"required,oneof=approved rejected"`
}

// Create files a pending access request.
func (h *AccessRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accessRequestPayload
	if !decodeAndValidate(w, r, &req) {
		return
	}
	email := db.NormalizeEmail(req.Email)

	_, err := h.users.FindUserByEmail(r.Context(), email)
	switch {
	case err == nil:
		respondError(w, http.StatusBadRequest, "User already exists")
		return
	case !errors.Is(err, db.ErrNotFound):
		respondDBError(w, r, err, "User not found")
		return
	}

	pending, err := h.requests.FindAccessRequests(r.Context(), bson.M{"email": email, "status": models.AccessPending})
	if err != nil {
		respondDBError(w, r, err, "Access request not found")
		return
	}
	if len(pending) > 0 {
		respondError(w, http.StatusBadRequest, "Access request already pending")
		return
	}

	request := models.AccessRequest{
		ID:      primitive.NewObjectID(),
		Name:    strings.TrimSpace(req.Name),
		Email:   email,
		Phone:   req.Phone,
		Company: strings.TrimSpace(req.Company),
		Message: req.Message,
		Status:  models.AccessPending,
	}
	if err := h.requests.InsertAccessRequest(r.Context(), request); err != nil {
		respondDBError(w, r, err, "Access request not found")
		return
	}
	log.WithFields(log.Fields{"request_id": request.ID.Hex(), "company": request.Company}).Info("Access request received")
	respondJSON(w, http.StatusCreated, request)
}

// List returns access requests, optionally filtered by ?status=.
func (h *AccessRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	requests, err := h.requests.FindAccessRequests(r.Context(), filter)
	if err != nil {
		respondDBError(w, r, err, "Access request not found")
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// Review approves or rejects a pending request. Approval creates the account
// with a temporary password and mails it to the requester.
func (h *AccessRequestHandler) Review(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req reviewPayload
	if !decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.requests.FindAccessRequestByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDBError(w, r, err, "Access request not found")
		return
	}
	if request.Status != models.AccessPending {
		respondError(w, http.StatusBadRequest, "Access request already reviewed")
		return
	}

	now := time.Now()
	request.Status = req.Status
	request.ReviewedBy = claims.Email
	request.ReviewedAt = &now

	var user models.User
	if req.Status == models.AccessApproved {
		var ok bool
		user, ok = h.newAccount(w, r, request)
		if !ok {
			return
		}
	}

	// The request is written before the account so a failed insert can be
	// reopened and retried.
	if err := h.requests.UpdateAccessRequest(r.Context(), request.ID.Hex(), *request); err != nil {
		respondDBError(w, r, err, "Access request not found")
		return
	}
	if req.Status == models.AccessApproved {
		if err := h.users.InsertUser(r.Context(), user); err != nil {
			h.reopen(r, request)
			respondDBError(w, r, err, "User not found")
			return
		}
		if err := h.organizations.EnsureOrganization(r.Context(), user.Organization); err != nil {
			log.WithError(err).WithField("organization", user.Organization).Warn("Failed to record organization")
		}
	}

	emailSent := false
	if req.Status == models.AccessApproved {
		if err := h.mailer.SendAccessApproved(r.Context(), user.Email, user.Name, request.TempPassword); err != nil {
			log.WithError(err).WithField("request_id", request.ID.Hex()).Error("Failed to send approval email")
		} else {
			emailSent = true
		}
	}

	log.WithFields(log.Fields{"request_id": request.ID.Hex(), "status": request.Status, "reviewed_by": claims.Email}).Info("Access request reviewed")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"request":   request,
		"emailSent": emailSent,
	})
}

// newAccount builds the user for an approved request and stores the
// temporary password on the request. Nothing is written.
func (h *AccessRequestHandler) newAccount(w http.ResponseWriter, r *http.Request, request *models.AccessRequest) (models.User, bool) {
	_, err := h.users.FindUserByEmail(r.Context(), request.Email)
	switch {
	case err == nil:
		respondError(w, http.StatusBadRequest, "User already exists")
		return models.User{}, false
	case !errors.Is(err, db.ErrNotFound):
		respondDBError(w, r, err, "User not found")
		return models.User{}, false
	}

	tempPassword, err := h.authService.GenerateTempPassword()
	if err != nil {
		log.WithError(err).Error("Failed to generate temporary password")
		respondError(w, http.StatusInternalServerError, "Failed to generate temporary password")
		return models.User{}, false
	}
	hash, err := h.authService.HashPassword(tempPassword)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return models.User{}, false
	}

	user := formstate.NormalizeUser(models.User{
		ID:                 primitive.NewObjectID(),
		Email:              request.Email,
		PasswordHash:       hash,
		Name:               request.Name,
		Role:               models.RoleManager,
		Company:            request.Company,
		IsActive:           true,
		MustChangePassword: true,
	})

	request.TempPassword = tempPassword
	return user, true
}

// reopen puts a request back to pending after its account could not be created.
func (h *AccessRequestHandler) reopen(r *http.Request, request *models.AccessRequest) {
	request.Status = models.AccessPending
	request.ReviewedBy = ""
	request.ReviewedAt = nil
	request.TempPassword = ""
	if err := h.requests.UpdateAccessRequest(r.Context(), request.ID.Hex(), *request); err != nil {
		log.WithError(err).WithField("request_id", request.ID.Hex()).Error("Failed to reopen access request")
	}
}
