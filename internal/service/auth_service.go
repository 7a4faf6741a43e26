package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	"github.com/mhofstetter/schulplan-api/internal/session"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
)

type authUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type sessionStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the issued session token and the acting user.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService provides registration, login and session resolution.
type AuthService struct {
	repo      authUserRepository
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, sessions sessionStore, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, sessions: sessions, validator: validate, logger: logger}
}

// Register creates an account; teacher accounts get a linked teacher profile.
// A taken username is a conflict, not a fault.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.UserRole(req.Role),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrUsernameTaken
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.logger.Info("user logged in", zap.String("username", user.Username))
	return &LoginResult{Token: token, User: user}, nil
}

// Logout revokes a session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// ResolveSession materializes the acting user behind a token. Malformed and
// unknown tokens both resolve to ErrUnauthorized, never a fault.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve session")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}
