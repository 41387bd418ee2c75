package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"parkreserve/internal/auth"
	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type UserStore interface {
	Create(ctx context.Context, u *db.User) error
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id string) (*db.User, error)
}

// AuthService turns credentials into the verified {userId, role} identity the
// rest of the core consumes. Token mechanics beyond that stay out of the
// domain.
type AuthService struct {
	users     UserStore
	jwtSecret string
}

func NewAuthService(users UserStore, jwtSecret string) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret}
}

type Credentials struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type AuthResult struct {
	UserID string        `json:"user_id"`
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Role   entities.Role `json:"role"`
	Token  string        `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, creds Credentials) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" || strings.TrimSpace(creds.Name) == "" {
		return nil, errors.InvalidInput("name, email and password are required")
	}
	if len(creds.Password) < 8 {
		return nil, errors.InvalidInput("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &db.User{
		ID:           uuid.New().String(),
		Name:         creds.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         entities.RoleUser,
		Phone:        strings.TrimSpace(creds.Phone),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.authResult(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Forbidden("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Forbidden("invalid credentials")
	}
	return s.authResult(user)
}

// SeedAdmin makes sure the configured admin account exists. Called once at
// startup; an existing account is left untouched.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &db.User{
		ID:           uuid.New().String(),
		Name:         "ADMIN",
		Email:        email,
		PasswordHash: string(hash),
		Role:         entities.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("seeded admin account %s", email)
	return nil
}

func (s *AuthService) authResult(user *db.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(s.jwtSecret, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Token:  token,
	}, nil
}
