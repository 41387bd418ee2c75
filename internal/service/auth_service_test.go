package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type stubUserStore struct {
	byEmail map[string]*db.User
	created []*db.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byEmail: map[string]*db.User{}}
}

func (s *stubUserStore) Create(ctx context.Context, u *db.User) error {
	if _, exists := s.byEmail[u.Email]; exists {
		return errors.Conflict("email already registered")
	}
	s.byEmail[u.Email] = u
	s.created = append(s.created, u)
	return nil
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	return s.byEmail[email], nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id string) (*db.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.NotFound("user not found")
}

func TestAuthRegister(t *testing.T) {
	store := newStubUserStore()
	svc := NewAuthService(store, "test-secret")

	result, err := svc.Register(context.Background(), Credentials{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "supersecret",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.Email)
	assert.Equal(t, entities.RoleUser, result.Role)
	assert.NotEmpty(t, result.Token)

	stored := store.byEmail["alice@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "supersecret", stored.PasswordHash)
}

func TestAuthRegisterShortPassword(t *testing.T) {
	svc := NewAuthService(newStubUserStore(), "test-secret")

	_, err := svc.Register(context.Background(), Credentials{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "short",
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	store := newStubUserStore()
	store.byEmail["alice@example.com"] = &db.User{ID: "u1", Email: "alice@example.com"}
	svc := NewAuthService(store, "test-secret")

	_, err := svc.Register(context.Background(), Credentials{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestAuthLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	store := newStubUserStore()
	store.byEmail["alice@example.com"] = &db.User{
		ID:           "u1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         entities.RoleUser,
	}
	svc := NewAuthService(store, "test-secret")

	result, err := svc.Login(context.Background(), " Alice@Example.com ", "supersecret")

	require.NoError(t, err)
	assert.Equal(t, "u1", result.UserID)
	assert.NotEmpty(t, result.Token)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	store := newStubUserStore()
	store.byEmail["alice@example.com"] = &db.User{ID: "u1", Email: "alice@example.com", PasswordHash: string(hash)}
	svc := NewAuthService(store, "test-secret")

	_, err = svc.Login(context.Background(), "alice@example.com", "wrong")

	require.Error(t, err)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newStubUserStore(), "test-secret")

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")

	require.Error(t, err)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}

func TestSeedAdmin(t *testing.T) {
	store := newStubUserStore()
	svc := NewAuthService(store, "test-secret")

	require.NoError(t, svc.SeedAdmin(context.Background(), "admin@example.com", "adminpass"))
	require.Len(t, store.created, 1)
	assert.Equal(t, entities.RoleAdmin, store.created[0].Role)

	// second call leaves the existing account untouched
	require.NoError(t, svc.SeedAdmin(context.Background(), "admin@example.com", "otherpass"))
	assert.Len(t, store.created, 1)
}
