package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// MinPasswordLength applies to every account.
const MinPasswordLength = 8

// Session is the result of a successful login or registration.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AccountInput creates an account of any role.
type AccountInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.Role
	DepartmentID *string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

// Register creates a self-service Client account and logs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	user, err := s.createAccount(ctx, AccountInput{Name: name, Email: email, Password: password, Role: domain.RoleClient})
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateUser lets an admin create accounts of any role. Agents need a
// department.
func (s *AuthService) CreateUser(ctx context.Context, actor domain.Actor, input AccountInput) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may create accounts")
	}
	return s.createAccount(ctx, input)
}

func (s *AuthService) createAccount(ctx context.Context, input AccountInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < MinPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min": MinPasswordLength})
	}
	if !input.Role.Valid() {
		return nil, invalidEnum("role", input.Role)
	}
	if input.Role == domain.RoleAgent && input.DepartmentID == nil {
		return nil, requiredField("department_id")
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("department not found", map[string]any{"department_id": *input.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperrors.NewValidationError("password too long", map[string]any{"max_bytes": 72})
	} else if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates any role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if auth.NeedsRehash(user.PasswordHash, s.bcryptCost) {
		// Best effort: a failed upgrade must not block the login.
		if hash, err := auth.HashPassword(password, s.bcryptCost); err == nil {
			user.PasswordHash = hash
			_ = s.users.Update(ctx, user)
		}
	}
	return s.issue(user)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min": MinPasswordLength})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.NotFoundOr(err, "user", map[string]any{"user_id": userID})
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return apperrors.NewValidationError("password too long", map[string]any{"max_bytes": 72})
	} else if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return apperrors.MapError(s.users.Update(ctx, user))
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
