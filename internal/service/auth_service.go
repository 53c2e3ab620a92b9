package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

const emailTakenMessage = "The email has already been taken."

// AuthService coordinates registration and sign-in flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=3,max=255,nohtml"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// SignInInput is the credential payload.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminInput describes a department admin account.
type AdminInput struct {
	Name       string `json:"name" validate:"required,min=3,max=255,nohtml"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8"`
	Department string `json:"department" validate:"required,oneof=MARKETING FINANCIAL TECHNICAL"`
}

// Session is an issued access token.
type Session struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// Register creates a USER account and announces it so the welcome mail
// gets queued.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = validation.Text(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user := &domain.User{Name: in.Name, Email: in.Email, Role: domain.RoleUser}
	if err := s.createAccount(ctx, user, in.Password); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventUserRegistered, user.ID, events.Actor{ID: user.ID, Role: user.Role}, events.UserRegisteredPayload{
		Name:  user.Name,
		Email: user.Email,
	}))
	return user, nil
}

// SignIn verifies credentials and issues an access token.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewFieldError("email", "The selected email is invalid.")
		}
		return nil, mapError(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperrors.NewUnauthenticated("Wrong password!")
		}
		return nil, apperrors.NewInternalError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, AccessToken: token, ExpiresAt: exp}, nil
}

// CreateAdmin provisions an ADMIN bound to a department.
func (s *AuthService) CreateAdmin(ctx context.Context, in AdminInput) (*domain.User, error) {
	in.Name = validation.Text(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Department = strings.ToUpper(strings.TrimSpace(in.Department))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:       in.Name,
		Email:      in.Email,
		Role:       domain.RoleAdmin,
		Department: domain.Department(in.Department),
	}
	if err := s.createAccount(ctx, user, in.Password); err != nil {
		return nil, err
	}
	s.logger.Info("admin created", zap.Int64("user_id", user.ID), zap.String("department", in.Department))
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createAccount(ctx context.Context, user *domain.User, password string) error {
	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return apperrors.NewFieldError("email", emailTakenMessage)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return mapError(err, "user")
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.NewFieldError("email", emailTakenMessage)
		}
		return mapError(err, "user")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
