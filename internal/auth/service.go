// Package auth issues identity tokens, hashes passwords and guards API routes
// with the role permission table.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"grievance/backend/internal/config"
	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserExists         = errors.New("user already exists")
	ErrUnauthorized       = errors.New("not authorized")
)

const minPasswordLength = 6

// Service registers and authenticates users.
type Service struct {
	users  storage.UserStore
	secret string
	ttl    time.Duration
	cost   int
}

type Option func(*Service)

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(users storage.UserStore, secret string, ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	s := &Service{users: users, secret: secret, ttl: ttl, cost: config.BcryptCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	return string(b), err
}

func CheckPassword(hashed, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// NewUserInput describes an account to create.
type NewUserInput struct {
	Name         string
	Email        string
	Password     string
	Role         models.Role
	DepartmentID string
}

// CreateUser validates and stores a new account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, in NewUserInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: name, email and a password of at least %d characters are required", ErrInvalidInput, minPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = models.RoleCitizen
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if in.DepartmentID != "" {
		dept := in.DepartmentID
		u.DepartmentID = &dept
	}
	if err := s.users.CreateUser(ctx, u); errors.Is(err, storage.ErrDuplicateKey) {
		return nil, ErrUserExists
	} else if err != nil {
		return nil, err
	}
	return u, nil
}

// Register creates a citizen account and returns a token for it. Officer and
// admin accounts are created by admins only.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, *models.User, error) {
	u, err := s.CreateUser(ctx, NewUserInput{Name: name, Email: email, Password: password, Role: models.RoleCitizen})
	if err != nil {
		return "", nil, err
	}
	tok, err := s.Token(u)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := s.Token(u)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

func (s *Service) Token(u *models.User) (string, error) {
	return SignJWT(s.secret, u.ID, string(u.Role), s.ttl)
}

// Authenticate resolves a bearer token to the current user record.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := ParseJWT(s.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	u, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
