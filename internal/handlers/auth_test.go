package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/machinery-dashboard/internal/auth"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/middleware"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubSuspension struct {
	status      middleware.SuspensionStatus
	invalidated []string
}

func (s *stubSuspension) Check(_ context.Context, _ *models.Claims) (middleware.SuspensionStatus, error) {
	return s.status, nil
}

func (s *stubSuspension) Invalidate(userID string) {
	s.invalidated = append(s.invalidated, userID)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	authService := newTestAuthService(t)

	t.Run("existing email", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)

		users.On("FindUserByEmail", mock.Anything, "taken@acme.test").
			Return(&models.User{ID: primitive.NewObjectID(), Email: "taken@acme.test"}, nil)

		body := `{"name":"Taken","email":"taken@acme.test","password":"password123"}`
		w := httptest.NewRecorder()
		handler.Register(w, newRequest(http.MethodPost, "/api/auth/register", body, nil, ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User already exists", decodeError(t, w))
		users.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("creates user and session", func(t *testing.T) {
		users := new(MockUserCollection)
		orgs := new(MockOrganizationCollection)
		handler := NewAuthHandler(authService, users, orgs, nil)

		users.On("FindUserByEmail", mock.Anything, "new@acme.test").Return(nil, db.ErrNotFound)
		users.On("InsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == "new@acme.test" && u.Company == "Acme" && u.Organization == "Acme" &&
				u.Role == models.RoleManager && u.PasswordHash != "password123" && u.IsActive
		})).Return(nil)
		orgs.On("FindOrganizationByName", mock.Anything, "Acme").Return(nil, db.ErrNotFound)
		orgs.On("EnsureOrganization", mock.Anything, "Acme").Return(nil)

		body := `{"name":"New","email":"new@acme.test","password":"password123","company":"Acme"}`
		w := httptest.NewRecorder()
		handler.Register(w, newRequest(http.MethodPost, "/api/auth/register", body, nil, ""))

		require.Equal(t, http.StatusCreated, w.Code)
		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "Acme", resp.User.Organization)
		require.NotNil(t, sessionCookie(w))
		assert.Equal(t, resp.Token, sessionCookie(w).Value)

		claims, err := authService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "Acme", claims.Organization)

		users.AssertExpectations(t)
		orgs.AssertExpectations(t)
	})

	t.Run("requires a company", func(t *testing.T) {
		users := new(MockUserCollection)
		orgs := new(MockOrganizationCollection)
		handler := NewAuthHandler(authService, users, orgs, nil)

		users.On("FindUserByEmail", mock.Anything, "solo@acme.test").Return(nil, db.ErrNotFound)

		body := `{"name":"Solo","email":"solo@acme.test","password":"password123"}`
		w := httptest.NewRecorder()
		handler.Register(w, newRequest(http.MethodPost, "/api/auth/register", body, nil, ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "company is required", decodeError(t, w))
		users.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
		orgs.AssertNotCalled(t, "EnsureOrganization", mock.Anything, mock.Anything)
	})

	t.Run("existing organization cannot be joined", func(t *testing.T) {
		users := new(MockUserCollection)
		orgs := new(MockOrganizationCollection)
		handler := NewAuthHandler(authService, users, orgs, nil)

		users.On("FindUserByEmail", mock.Anything, "stranger@other.test").Return(nil, db.ErrNotFound)
		orgs.On("FindOrganizationByName", mock.Anything, "Acme").
			Return(&models.Organization{ID: primitive.NewObjectID(), Name: "Acme"}, nil)

		body := `{"name":"Stranger","email":"stranger@other.test","password":"password123","company":"Acme"}`
		w := httptest.NewRecorder()
		handler.Register(w, newRequest(http.MethodPost, "/api/auth/register", body, nil, ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Organization already exists, request access instead", decodeError(t, w))
		assert.Nil(t, sessionCookie(w))
		users.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
		orgs.AssertNotCalled(t, "EnsureOrganization", mock.Anything, mock.Anything)
	})

	t.Run("validation errors", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), new(MockOrganizationCollection), nil)

		cases := map[string]string{
			"invalid json":   `{`,
			"missing name":   `{"email":"a@acme.test","password":"password123"}`,
			"bad email":      `{"name":"A","email":"nope","password":"password123"}`,
			"short password": `{"name":"A","email":"a@acme.test","password":"short"}`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				w := httptest.NewRecorder()
				handler.Register(w, newRequest(http.MethodPost, "/api/auth/register", body, nil, ""))
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.NotEmpty(t, decodeError(t, w))
			})
		}
	})

	t.Run("database error surfaces message", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
		users.On("FindUserByEmail", mock.Anything, "a@acme.test").Return(nil, assert.AnError)

		body := `{"name":"A","email":"a@acme.test","password":"password123"}`
		w := httptest.NewRecorder()
		handler.Register(w, newRequest(http.MethodPost, "/api/auth/register", body, nil, ""))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, assert.AnError.Error(), decodeError(t, w))
	})
}

func TestAuthHandler_Login(t *testing.T) {
	authService := newTestAuthService(t)
	hash, err := authService.HashPassword("password123")
	require.NoError(t, err)

	newUser := func() *models.User {
		return &models.User{
			ID:           primitive.NewObjectID(),
			Email:        "op@acme.test",
			PasswordHash: hash,
			Name:         "Op",
			Role:         models.RoleOperator,
			Company:      "Acme",
			IsActive:     true,
		}
	}

	t.Run("successful login", func(t *testing.T) {
		users := new(MockUserCollection)
		suspension := &stubSuspension{}
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), suspension)

		user := newUser()
		users.On("FindUserByEmail", mock.Anything, "op@acme.test").Return(user, nil)
		users.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)

		w := httptest.NewRecorder()
		handler.Login(w, newRequest(http.MethodPost, "/api/auth/login", `{"email":"op@acme.test","password":"password123"}`, nil, ""))

		require.Equal(t, http.StatusOK, w.Code)
		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "Acme", resp.User.Organization)
		assert.NotNil(t, sessionCookie(w))
		assert.Equal(t, []string{user.ID.Hex()}, suspension.invalidated)
		users.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
		users.On("FindUserByEmail", mock.Anything, "who@acme.test").Return(nil, db.ErrNotFound)

		w := httptest.NewRecorder()
		handler.Login(w, newRequest(http.MethodPost, "/api/auth/login", `{"email":"who@acme.test","password":"password123"}`, nil, ""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", decodeError(t, w))
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
		users.On("FindUserByEmail", mock.Anything, "op@acme.test").Return(newUser(), nil)

		w := httptest.NewRecorder()
		handler.Login(w, newRequest(http.MethodPost, "/api/auth/login", `{"email":"op@acme.test","password":"wrong-password"}`, nil, ""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, sessionCookie(w))
	})

	t.Run("suspended account", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
		user := newUser()
		user.Suspended = true
		users.On("FindUserByEmail", mock.Anything, "op@acme.test").Return(user, nil)

		w := httptest.NewRecorder()
		handler.Login(w, newRequest(http.MethodPost, "/api/auth/login", `{"email":"op@acme.test","password":"password123"}`, nil, ""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Account suspended", decodeError(t, w))
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	handler := NewAuthHandler(newTestAuthService(t), new(MockUserCollection), new(MockOrganizationCollection), nil)

	w := httptest.NewRecorder()
	handler.Logout(w, newRequest(http.MethodPost, "/api/auth/logout", "", nil, ""))

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	authService := newTestAuthService(t)
	hash, err := authService.HashPassword("old-password")
	require.NoError(t, err)

	claims := managerClaims("Acme")
	user := &models.User{ID: primitive.NewObjectID(), PasswordHash: hash, MustChangePassword: true}

	t.Run("wrong current password", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
		users.On("FindUserByID", mock.Anything, claims.UserID).Return(user, nil)

		body := `{"currentPassword":"nope-nope","newPassword":"new-password"}`
		w := httptest.NewRecorder()
		handler.ChangePassword(w, newRequest(http.MethodPost, "/api/auth/password", body, claims, ""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		users.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("updates hash and clears flag", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
		u := *user
		users.On("FindUserByID", mock.Anything, claims.UserID).Return(&u, nil)
		users.On("UpdateUser", mock.Anything, claims.UserID, mock.MatchedBy(func(updated models.User) bool {
			return !updated.MustChangePassword && authService.CheckPassword("new-password", updated.PasswordHash)
		})).Return(nil)

		body := `{"currentPassword":"old-password","newPassword":"new-password"}`
		w := httptest.NewRecorder()
		handler.ChangePassword(w, newRequest(http.MethodPost, "/api/auth/password", body, claims, ""))

		assert.Equal(t, http.StatusOK, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("short new password", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), new(MockOrganizationCollection), nil)

		body := `{"currentPassword":"old-password","newPassword":"short"}`
		w := httptest.NewRecorder()
		handler.ChangePassword(w, newRequest(http.MethodPost, "/api/auth/password", body, claims, ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	authService := newTestAuthService(t)
	claims := managerClaims("Acme")
	user := &models.User{ID: primitive.NewObjectID(), Email: "manager@acme.test", Name: "Old", Company: "Acme", Organization: "Acme"}

	t.Run("manager cannot change company", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
		u := *user
		users.On("FindUserByID", mock.Anything, claims.UserID).Return(&u, nil)
		users.On("UpdateUser", mock.Anything, claims.UserID, mock.MatchedBy(func(updated models.User) bool {
			return updated.Name == "New Name" && updated.Company == "Acme" && updated.Organization == "Acme"
		})).Return(nil)

		w := httptest.NewRecorder()
		handler.UpdateProfile(w, newRequest(http.MethodPut, "/api/auth/me", `{"name":"New Name","company":"Other"}`, claims, ""))

		assert.Equal(t, http.StatusOK, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
		u := *user
		users.On("FindUserByID", mock.Anything, claims.UserID).Return(&u, nil)
		users.On("FindUserByEmail", mock.Anything, "other@acme.test").
			Return(&models.User{ID: primitive.NewObjectID()}, nil)

		w := httptest.NewRecorder()
		handler.UpdateProfile(w, newRequest(http.MethodPut, "/api/auth/me", `{"email":"other@acme.test"}`, claims, ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User already exists", decodeError(t, w))
	})
}

func TestAuthHandler_SessionStatus(t *testing.T) {
	authService := newTestAuthService(t)
	claims := managerClaims("Acme")

	t.Run("active", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), new(MockOrganizationCollection), &stubSuspension{})
		w := httptest.NewRecorder()
		handler.SessionStatus(w, newRequest(http.MethodGet, "/api/auth/session", "", claims, ""))

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, false, body["suspended"])
	})

	t.Run("suspended clears cookie", func(t *testing.T) {
		suspension := &stubSuspension{status: middleware.SuspensionStatus{Suspended: true, Reason: "organization suspended"}}
		handler := NewAuthHandler(authService, new(MockUserCollection), new(MockOrganizationCollection), suspension)
		w := httptest.NewRecorder()
		handler.SessionStatus(w, newRequest(http.MethodGet, "/api/auth/session", "", claims, ""))

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["suspended"])
		assert.Equal(t, "organization suspended", body["reason"])
		require.NotNil(t, sessionCookie(w))
		assert.Empty(t, sessionCookie(w).Value)
	})

	t.Run("no session", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), new(MockOrganizationCollection), nil)
		w := httptest.NewRecorder()
		handler.SessionStatus(w, newRequest(http.MethodGet, "/api/auth/session", "", nil, ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_CheckEmail(t *testing.T) {
	authService := newTestAuthService(t)

	t.Run("missing email", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), new(MockOrganizationCollection), nil)
		w := httptest.NewRecorder()
		handler.CheckEmail(w, newRequest(http.MethodGet, "/api/check-email", "", nil, ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	for _, tc := range []struct {
		name   string
		err    error
		exists bool
	}{
		{"exists", nil, true},
		{"absent", db.ErrNotFound, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			users := new(MockUserCollection)
			handler := NewAuthHandler(authService, users, new(MockOrganizationCollection), nil)
			if tc.err == nil {
				users.On("FindUserByEmail", mock.Anything, "x@acme.test").Return(&models.User{}, nil)
			} else {
				users.On("FindUserByEmail", mock.Anything, "x@acme.test").Return(nil, tc.err)
			}

			w := httptest.NewRecorder()
			handler.CheckEmail(w, newRequest(http.MethodGet, "/api/check-email?email=x@acme.test", "", nil, ""))

			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]bool
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.exists, body["exists"])
		})
	}
}
