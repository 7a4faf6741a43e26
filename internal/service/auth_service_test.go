package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	"github.com/mhofstetter/schulplan-api/internal/session"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	createErr error
	nextID    int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{}, nextID: 1}
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, taken := m.users[user.Username]; taken {
		return repository.ErrDuplicate
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.Username] = user
	return nil
}

type mockSessionStore struct {
	tokens    map[string]int64
	createErr error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{tokens: map[string]int64{}}
}

func (m *mockSessionStore) Create(ctx context.Context, userID int64) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	token := fmt.Sprintf("token-%d", userID)
	m.tokens[token] = userID
	return token, nil
}

func (m *mockSessionStore) Resolve(ctx context.Context, token string) (int64, error) {
	userID, ok := m.tokens[token]
	if !ok {
		return 0, session.ErrNotFound
	}
	return userID, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func newAuthService(repo *mockUserRepo, sessions *mockSessionStore) *AuthService {
	return NewAuthService(repo, sessions, validator.New(), zap.NewNop())
}

func TestAuthServiceRegisterLoginRoundtrip(t *testing.T) {
	repo := newMockUserRepo()
	sessions := newMockSessionStore()
	svc := newAuthService(repo, sessions)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "anna", Password: "geheim1", Role: "student"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "geheim1", user.PasswordHash)

	res, err := svc.Login(ctx, LoginRequest{Username: "anna", Password: "geheim1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, user.ID, res.User.ID)

	resolved, err := svc.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "anna", resolved.Username)

	require.NoError(t, svc.Logout(ctx, res.Token))
	_, err = svc.ResolveSession(ctx, res.Token)
	assertAppError(t, err, appErrors.ErrUnauthorized.Code)
}

func TestAuthServiceRegisterDuplicateUsername(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo, newMockSessionStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "anna", Password: "geheim1", Role: "student"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "anna", Password: "anders2", Role: "teacher"})
	assertAppError(t, err, appErrors.ErrUsernameTaken.Code)
}

func TestAuthServiceRegisterRejectsUnknownRole(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), newMockSessionStore())

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "anna", Password: "geheim1", Role: "admin"})
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestAuthServiceLoginIndistinguishableFailures(t *testing.T) {
	repo := newMockUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("geheim1"), bcrypt.DefaultCost)
	repo.users["anna"] = &models.User{ID: 1, Username: "anna", PasswordHash: string(hash), Role: models.RoleStudent}
	svc := newAuthService(repo, newMockSessionStore())
	ctx := context.Background()

	_, wrongPassword := svc.Login(ctx, LoginRequest{Username: "anna", Password: "falsch"})
	_, unknownUser := svc.Login(ctx, LoginRequest{Username: "ghost", Password: "falsch"})

	assertAppError(t, wrongPassword, appErrors.ErrInvalidCredentials.Code)
	assertAppError(t, unknownUser, appErrors.ErrInvalidCredentials.Code)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestAuthServiceResolveSessionStaleUser(t *testing.T) {
	repo := newMockUserRepo()
	sessions := newMockSessionStore()
	sessions.tokens["token-99"] = 99
	svc := newAuthService(repo, sessions)

	_, err := svc.ResolveSession(context.Background(), "token-99")
	assertAppError(t, err, appErrors.ErrUnauthorized.Code)
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, code, appErr.Code)
}
