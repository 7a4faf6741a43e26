package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	"github.com/mhofstetter/schulplan-api/internal/service"
	"github.com/mhofstetter/schulplan-api/internal/session"
	"github.com/mhofstetter/schulplan-api/pkg/config"
)

type userRepoMock struct {
	users  map[string]*models.User
	nextID int64
}

func newUserRepoMock() *userRepoMock {
	return &userRepoMock{users: map[string]*models.User{}, nextID: 1}
}

func (m *userRepoMock) FindByID(ctx context.Context, id int64) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *userRepoMock) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *userRepoMock) Create(ctx context.Context, user *models.User) error {
	if _, taken := m.users[user.Username]; taken {
		return repository.ErrDuplicate
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.Username] = user
	return nil
}

type sessionStoreMock struct {
	tokens map[string]int64
}

func newSessionStoreMock() *sessionStoreMock {
	return &sessionStoreMock{tokens: map[string]int64{}}
}

func (m *sessionStoreMock) Create(ctx context.Context, userID int64) (string, error) {
	token := "tok-fixed"
	m.tokens[token] = userID
	return token, nil
}

func (m *sessionStoreMock) Resolve(ctx context.Context, token string) (int64, error) {
	userID, ok := m.tokens[token]
	if !ok {
		return 0, session.ErrNotFound
	}
	return userID, nil
}

func (m *sessionStoreMock) Delete(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func newAuthHandler() (*AuthHandler, *userRepoMock) {
	repo := newUserRepoMock()
	svc := service.NewAuthService(repo, newSessionStoreMock(), validator.New(), zap.NewNop())
	cfg := config.SessionConfig{TTL: time.Hour, CookieName: "session_token"}
	return NewAuthHandler(svc, cfg), repo
}

func postJSON(t *testing.T, w *httptest.ResponseRecorder, path string, payload interface{}) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c
}

func TestAuthHandlerRegister(t *testing.T) {
	handler, repo := newAuthHandler()

	w := httptest.NewRecorder()
	c := postJSON(t, w, "/auth/register", service.RegisterRequest{Username: "anna", Password: "geheim1", Role: "student"})

	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, repo.users, "anna")
	assert.NotContains(t, w.Body.String(), "geheim1")
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestAuthHandlerRegisterDuplicate(t *testing.T) {
	handler, _ := newAuthHandler()

	w := httptest.NewRecorder()
	c := postJSON(t, w, "/auth/register", service.RegisterRequest{Username: "anna", Password: "geheim1", Role: "student"})
	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	c = postJSON(t, w, "/auth/register", service.RegisterRequest{Username: "anna", Password: "anders2", Role: "student"})
	handler.Register(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "USERNAME_TAKEN")
}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	handler, _ := newAuthHandler()

	w := httptest.NewRecorder()
	c := postJSON(t, w, "/auth/register", service.RegisterRequest{Username: "anna", Password: "geheim1", Role: "student"})
	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	c = postJSON(t, w, "/auth/login", service.LoginRequest{Username: "anna", Password: "geheim1"})
	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Header().Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.True(t, strings.HasPrefix(cookies[0], "session_token="))
	assert.Contains(t, w.Body.String(), "tok-fixed")
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	handler, _ := newAuthHandler()

	w := httptest.NewRecorder()
	c := postJSON(t, w, "/auth/login", service.LoginRequest{Username: "ghost", Password: "falsch"})
	handler.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}
