package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/logging"
	"github.com/pageza/pantry-chef/backend/internal/models"
	"github.com/pageza/pantry-chef/backend/internal/service"
	"github.com/pageza/pantry-chef/backend/internal/testhelpers"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

var registerBody = map[string]string{
	"email":      "cook@example.com",
	"password":   "password123",
	"first_name": "Ada",
	"last_name":  "Lovelace",
}

func TestRegisterHandler(t *testing.T) {
	a := setupTestAPI(t, nil, nil)
	user := &models.User{ID: uuid.New(), Email: "cook@example.com", FirstName: "Ada"}
	a.auth.On("Register", mock.Anything, service.RegisterInput{
		Email:     "cook@example.com",
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}).Return(user, nil).Once()

	w := a.do(http.MethodPost, "/api/v1/auth/register", registerBody)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, user.ID.String(), decode(t, w)["user_id"])
}

func TestRegisterHandlerErrors(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		a := setupTestAPI(t, nil, nil)
		a.auth.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrUserExists).Once()
		w := a.do(http.MethodPost, "/api/v1/auth/register", registerBody)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		a := setupTestAPI(t, nil, nil)
		a.auth.On("Register", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
		w := a.do(http.MethodPost, "/api/v1/auth/register", registerBody)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})

	invalid := []map[string]string{
		{"email": "not-an-email", "password": "password123", "first_name": "Ada"},
		{"email": "cook@example.com", "password": "short", "first_name": "Ada"},
		{"email": "cook@example.com", "password": "password123"},
	}
	for _, body := range invalid {
		a := setupTestAPI(t, nil, nil)
		w := a.do(http.MethodPost, "/api/v1/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		a.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	}
}

func TestLoginHandler(t *testing.T) {
	a := setupTestAPI(t, nil, nil)
	user := &models.User{ID: uuid.New(), Email: "cook@example.com", FirstName: "Ada"}
	a.auth.On("Login", mock.Anything, "cook@example.com", "password123").Return(user, "signed-token", nil).Once()

	w := a.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "cook@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "signed-token", body["token"])
	assert.Equal(t, user.ID.String(), body["user_id"])
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	a := setupTestAPI(t, nil, nil)
	a.auth.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, "", service.ErrInvalidCredentials).Once()

	w := a.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "cook@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutHandler(t *testing.T) {
	a := setupTestAPI(t, nil, nil)
	claims := &types.TokenClaims{UserID: uuid.New()}
	claims.ID = "session-1"
	a.auth.On("ValidateToken", mock.Anything, "tok").Return(claims, nil)
	a.auth.On("Logout", mock.Anything, claims).Return(nil).Once()

	w := a.do(http.MethodPost, "/api/v1/auth/logout", nil, "Authorization", "Bearer tok")
	assert.Equal(t, http.StatusNoContent, w.Code)
	a.auth.AssertExpectations(t)
}

func TestLogoutRequiresAuth(t *testing.T) {
	a := setupTestAPI(t, nil, nil)
	w := a.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	a.auth.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
}

func TestMeHandler(t *testing.T) {
	a := setupTestAPI(t, nil, nil)
	user := &models.User{ID: uuid.New(), Email: "cook@example.com", FirstName: "Ada", LastName: "Lovelace"}
	a.auth.On("ValidateToken", mock.Anything, "tok").Return(&types.TokenClaims{UserID: user.ID}, nil)
	a.auth.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()

	w := a.do(http.MethodGet, "/api/v1/auth/me", nil, "Authorization", "Bearer tok")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+user.ID.String()+`","email":"cook@example.com","first_name":"Ada","last_name":"Lovelace"}`, w.Body.String())
}

func TestRegisterMultibytePasswordTooLong(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	authSvc := service.NewAuthService(db, service.NewMemorySessionStore(), config.JWTConfig{Secret: "test-secret", TTL: time.Hour})

	router := gin.New()
	NewAuthHandler(authSvc, logging.Discard()).RegisterRoutes(router.Group("/api/v1"))
	a := &testAPI{router: router}

	w := a.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":      "cook@example.com",
		"password":   strings.Repeat("é", 40),
		"first_name": "Ada",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "72 bytes")
}

// TestAuthFlow runs register, login, me and logout against the real service.
func TestAuthFlow(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	authSvc := service.NewAuthService(db, service.NewMemorySessionStore(), config.JWTConfig{Secret: "test-secret", TTL: time.Hour})

	router := gin.New()
	NewAuthHandler(authSvc, logging.Discard()).RegisterRoutes(router.Group("/api/v1"))
	a := &testAPI{router: router}

	w := a.do(http.MethodPost, "/api/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/register", registerBody)
	require.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "COOK@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	w = a.do(http.MethodGet, "/api/v1/auth/me", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada", decode(t, w)["first_name"])

	w = a.do(http.MethodPost, "/api/v1/auth/logout", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodGet, "/api/v1/auth/me", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
