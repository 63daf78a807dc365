package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/selfservice/internal/auth"
	"github.com/spec-kit/selfservice/internal/config"
	"github.com/spec-kit/selfservice/internal/domain"
	"github.com/spec-kit/selfservice/internal/repository"
	apperrors "github.com/spec-kit/selfservice/pkg/util"
)

// fakeUserRepo is an in-memory stand-in for the Postgres repository,
// including its unique-email behavior.
type fakeUserRepo struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*domain.User
	byEmail map[string]*domain.User

	createErr error
	existsErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[string]*domain.User{},
		byEmail: map[string]*domain.User{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	f.seq++
	user.ID = strconv.Itoa(f.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cpy := *user
	f.byID[user.ID] = &cpy
	f.byEmail[user.Email] = &cpy
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if other, exists := f.byEmail[user.Email]; exists && other.ID != user.ID {
		return repository.ErrDuplicateEmail
	}
	delete(f.byEmail, stored.Email)
	user.UpdatedAt = time.Now()
	cpy := *user
	f.byID[user.ID] = &cpy
	f.byEmail[user.Email] = &cpy
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cpy := *user
	return &cpy, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cpy := *user
	return &cpy, nil
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, exists := f.byEmail[email]
	return exists, nil
}

func newTestAuthService(repo repository.UserRepository) (*AuthService, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", 60, nil)
	svc := NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, AuthDependencies{
		UserRepo: repo,
		Tokens:   tokens,
	})
	return svc, tokens
}

func TestRegisterSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(repo)

	session, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionType, session.Type)
	assert.Equal(t, "ana@x.com", session.Email)
	assert.Equal(t, "Ana", session.Name)
	assert.Equal(t, []domain.Role{domain.RoleCustomer}, session.Roles)

	subject, err := tokens.ParseSubject(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", subject)

	stored, err := repo.GetByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other", "ana@x.com", "secret2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterDuplicateLostRace(t *testing.T) {
	// existence check passes but the unique constraint still fires on save
	repo := newFakeUserRepo()
	repo.createErr = repository.ErrDuplicateEmail
	svc, _ := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(repo)

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"blank name", "  ", "ana@x.com", "secret1"},
		{"blank email", "Ana", "", "secret1"},
		{"invalid email", "Ana", "not-an-email", "secret1"},
		{"short password", "Ana", "ana@x.com", "five5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.userName, tc.email, tc.password)
			require.Error(t, err)
			var domainErr *apperrors.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret1")
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	subject, err := tokens.ParseSubject(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", subject)
	assert.Equal(t, "Ana", session.Name)

	// wrong password and unknown email report the same failure
	_, err = svc.Login(context.Background(), "ana@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateUserNotFound(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(repo)

	_, err := svc.UpdateUser(context.Background(), "999", "Ana", "ana@x.com", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "Bob", "bob@x.com", "secret2")
	require.NoError(t, err)

	ana, err := repo.GetByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)

	_, err = svc.UpdateUser(context.Background(), ana.ID, "Ana", "bob@x.com", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// keeping the current email is not a conflict
	session, err := svc.UpdateUser(context.Background(), ana.ID, "Ana Maria", "ana@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", session.Name)
	assert.Equal(t, "ana@x.com", session.Email)
}

func TestUpdateUserChangesEmailAndPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret1")
	require.NoError(t, err)
	ana, err := repo.GetByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)
	previousUpdatedAt := ana.UpdatedAt

	session, err := svc.UpdateUser(context.Background(), ana.ID, "Ana", "ana@y.com", "newsecret")
	require.NoError(t, err)

	// the fresh token reflects the new email as subject
	subject, err := tokens.ParseSubject(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana@y.com", subject)

	_, err = svc.Login(context.Background(), "ana@y.com", "newsecret")
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "ana@y.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	updated, err := repo.GetByEmail(context.Background(), "ana@y.com")
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(previousUpdatedAt))
}

func TestUpdateUserBlankPasswordKeepsHash(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret1")
	require.NoError(t, err)
	ana, err := repo.GetByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)

	_, err = svc.UpdateUser(context.Background(), ana.ID, "Ana", "ana@x.com", "  ")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ana@x.com", "secret1")
	assert.NoError(t, err)
}

func TestRegisterLoginScenario(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(repo)

	session, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleCustomer}, session.Roles)

	_, err = svc.Login(context.Background(), "ana@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	again, err := svc.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", again.Email)
	assert.Equal(t, "Ana", again.Name)
}
