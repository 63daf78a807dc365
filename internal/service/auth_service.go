package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/selfservice/internal/auth"
	"github.com/spec-kit/selfservice/internal/config"
	"github.com/spec-kit/selfservice/internal/domain"
	"github.com/spec-kit/selfservice/internal/events"
	"github.com/spec-kit/selfservice/internal/repository"
	apperrors "github.com/spec-kit/selfservice/pkg/util"
)

const minPasswordLength = 6

// AuthService coordinates registration, login and profile update flows.
// Every successful call mints a fresh session from the account's current
// state; no session state is held between calls.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
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
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Register creates a new account with the CUSTOMER role and returns its session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.Session, error) {
	if err := validateProfile(name, email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.Role{domain.RoleCustomer},
		Enabled:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// the unique constraint wins races the existence check missed
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventUserRegistered,
		EntityID: user.ID,
		Payload:  events.UserRegisteredPayload{Email: user.Email, Name: user.Name},
	})

	return s.mintSession(user)
}

// Login verifies credentials and returns a session for the account.
// Unknown email and wrong password are reported identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.mintSession(user)
}

// UpdateUser applies name/email changes and an optional new password,
// then returns a session reflecting the updated state.
func (s *AuthService) UpdateUser(ctx context.Context, userID, name, email, newPassword string) (*domain.Session, error) {
	if err := validateProfile(name, email); err != nil {
		return nil, err
	}
	passwordChanged := strings.TrimSpace(newPassword) != ""
	if passwordChanged && len(newPassword) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// the account's own current email is exempt from the duplicate check
	if email != user.Email {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrEmailTaken
		}
	}

	user.Name = name
	user.Email = email
	if passwordChanged {
		hash, err := auth.HashPassword(newPassword, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventUserUpdated,
		EntityID: user.ID,
		Payload:  events.UserUpdatedPayload{Email: user.Email, Name: user.Name, PasswordChanged: passwordChanged},
	})

	return s.mintSession(user)
}

func (s *AuthService) mintSession(user *domain.User) (*domain.Session, error) {
	token, expiresAt, err := s.tokens.Mint(user.Email, user.Name, user.Roles)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		Token:     token,
		Type:      domain.SessionType,
		Email:     user.Email,
		Name:      user.Name,
		Roles:     user.Roles,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func validateProfile(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	if strings.TrimSpace(email) == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.NewValidationError("email is invalid", nil)
	}
	return nil
}
