package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/auth"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/formstate"
	"github.com/ukydev/machinery-dashboard/internal/middleware"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SuspensionChecker reports and forgets cached suspension state.
type SuspensionChecker interface {
	Check(ctx context.Context, claims *models.Claims) (middleware.SuspensionStatus, error)
	Invalidate(userID string)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService   *auth.Service
	users         db.UserCollection
	organizations db.OrganizationCollection
	suspension    SuspensionChecker
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, users db.UserCollection, organizations db.OrganizationCollection, suspension SuspensionChecker) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		users:         users,
		organizations: organizations,
		suspension:    suspension,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondDBError(w, r, err, "User not found")
		return
	}

	if !user.IsActive {
		respondError(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}
	if user.Suspended {
		respondError(w, http.StatusUnauthorized, "Account suspended")
		return
	}
	if !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	normalized := formstate.NormalizeUser(*user)
	token, err := h.authService.GenerateToken(&normalized)
	if err != nil {
		log.WithError(err).Error("Failed to generate token")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}
	if h.suspension != nil {
		h.suspension.Invalidate(user.ID.Hex())
	}

	h.authService.SetSessionCookie(w, token)
	respondJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: normalized})
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.users.FindUserByEmail(r.Context(), req.Email)
	switch {
	case err == nil:
		respondError(w, http.StatusBadRequest, "User already exists")
		return
	case !errors.Is(err, db.ErrNotFound):
		respondDBError(w, r, err, "User not found")
		return
	}

	// Self-registration founds a new organization. Joining an existing one
	// goes through an admin-reviewed access request.
	organization := models.ResolveOrganization(strings.TrimSpace(req.Company), strings.TrimSpace(req.Organization))
	if organization == models.DefaultOrganization {
		respondError(w, http.StatusBadRequest, "company is required")
		return
	}
	_, err = h.organizations.FindOrganizationByName(r.Context(), organization)
	switch {
	case err == nil:
		respondError(w, http.StatusBadRequest, "Organization already exists, request access instead")
		return
	case !errors.Is(err, db.ErrNotFound):
		respondDBError(w, r, err, "Organization not found")
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := formstate.NormalizeUser(models.User{
		ID:           primitive.NewObjectID(),
		Email:        db.NormalizeEmail(req.Email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Role:         models.RoleManager,
		Company:      strings.TrimSpace(req.Company),
		Organization: strings.TrimSpace(req.Organization),
		IsActive:     true,
	})

	if err := h.organizations.EnsureOrganization(r.Context(), user.Organization); err != nil {
		respondDBError(w, r, err, "Organization not found")
		return
	}
	if err := h.users.InsertUser(r.Context(), user); err != nil {
		respondDBError(w, r, err, "User not found")
		return
	}

	token, err := h.authService.GenerateToken(&user)
	if err != nil {
		log.WithError(err).Error("Failed to generate token")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID.Hex(), "organization": user.Organization}).Info("User registered")
	h.authService.SetSessionCookie(w, token)
	respondJSON(w, http.StatusCreated, models.LoginResponse{Token: token, User: user})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondDBError(w, r, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, formstate.NormalizeUser(*user))
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email" validate:"omitempty,email"`
		Company string `json:"company"`
	}
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondDBError(w, r, err, "User not found")
		return
	}

	if req.Name != "" {
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" && db.NormalizeEmail(req.Email) != user.Email {
		existing, err := h.users.FindUserByEmail(r.Context(), req.Email)
		switch {
		case err == nil && existing.ID != user.ID:
			respondError(w, http.StatusBadRequest, "User already exists")
			return
		case err != nil && !errors.Is(err, db.ErrNotFound):
			respondDBError(w, r, err, "User not found")
			return
		}
		user.Email = db.NormalizeEmail(req.Email)
	}
	// Only admins may move an account between organizations.
	if req.Company != "" && claims.IsAdmin() {
		user.Company = strings.TrimSpace(req.Company)
	}

	updated := formstate.NormalizeUser(*user)
	if err := h.users.UpdateUser(r.Context(), claims.UserID, updated); err != nil {
		respondDBError(w, r, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required"`
	}
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.authService.ValidatePassword(req.NewPassword); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondDBError(w, r, err, "User not found")
		return
	}
	if !h.authService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	user.PasswordHash = hash
	user.MustChangePassword = false

	if err := h.users.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		respondDBError(w, r, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// SessionStatus is polled by the dashboard to sign out suspended sessions.
func (h *AuthHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	status := middleware.SuspensionStatus{}
	if h.suspension != nil {
		var err error
		status, err = h.suspension.Check(r.Context(), claims)
		if err != nil {
			respondDBError(w, r, err, "User not found")
			return
		}
	}
	if status.Suspended {
		h.authService.ClearSessionCookie(w)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": !status.Suspended,
		"suspended":     status.Suspended,
		"reason":        status.Reason,
		"user":          claims,
	})
}

// CheckEmail reports whether an account exists for ?email=.
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	_, err := h.users.FindUserByEmail(r.Context(), email)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"exists": true})
	case errors.Is(err, db.ErrNotFound):
		respondJSON(w, http.StatusOK, map[string]bool{"exists": false})
	default:
		respondDBError(w, r, err, "User not found")
	}
}
