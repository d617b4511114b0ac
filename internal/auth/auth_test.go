package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService("test-secret", time.Hour, false)
	require.NoError(t, err)
	return s
}

func TestNewService(t *testing.T) {
	_, err := NewService("", time.Hour, false)
	assert.Error(t, err)

	s, err := NewService("secret", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, s.tokenExp)
}

func TestHashPassword(t *testing.T) {
	s := newTestService(t)

	hash, err := s.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, s.CheckPassword("password123", hash))
	assert.False(t, s.CheckPassword("wrongpassword", hash))
}

func TestGenerateAndValidateToken(t *testing.T) {
	s := newTestService(t)
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        "jane@example.com",
		Name:         "Jane",
		Role:         models.RoleManager,
		Organization: "Ignored",
		Company:      "Acme",
	}

	token, err := s.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.Equal(t, "Acme", claims.Organization)

	claims, err = s.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
}

func TestValidateToken_Invalid(t *testing.T) {
	s := newTestService(t)

	_, err := s.ValidateToken("invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewService("other-secret", time.Hour, false)
	require.NoError(t, err)
	token, err := other.GenerateToken(&models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	s := newTestService(t)
	claims := jwt.MapClaims{
		"user_id": primitive.NewObjectID().Hex(),
		"role":    "admin",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestExtractToken(t *testing.T) {
	s := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := s.ExtractToken(req)
	assert.ErrorIs(t, err, ErrMissingToken)

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-token"})
	token, err := s.ExtractToken(req)
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", token)

	req.Header.Set("Authorization", "Bearer header-token")
	token, err = s.ExtractToken(req)
	require.NoError(t, err)
	assert.Equal(t, "header-token", token)

	req.Header.Set("Authorization", "Basic abc")
	_, err = s.ExtractToken(req)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionCookie(t *testing.T) {
	s := newTestService(t)

	w := httptest.NewRecorder()
	s.SetSessionCookie(w, "abc")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	w = httptest.NewRecorder()
	s.ClearSessionCookie(w)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestValidatePassword(t *testing.T) {
	s := newTestService(t)
	assert.Error(t, s.ValidatePassword("short"))
	assert.NoError(t, s.ValidatePassword("longenough"))
}

func TestGenerateTempPassword(t *testing.T) {
	s := newTestService(t)

	a, err := s.GenerateTempPassword()
	require.NoError(t, err)
	b, err := s.GenerateTempPassword()
	require.NoError(t, err)

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.True(t, strings.ContainsRune(tempPasswordAlphabet, r))
	}
	assert.NoError(t, s.ValidatePassword(a))
}
