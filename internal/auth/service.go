// Package auth provides user registration, credential checks, cookie
// sessions and the related HTTP middleware.
package auth

import (
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/mrlokans/bookrank/internal/config"
	"github.com/mrlokans/bookrank/internal/database"
	"github.com/mrlokans/bookrank/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore defines the user data access the service needs.
type UserStore interface {
	CreateUser(username, passwordHash string) (*entities.User, error)
	GetUserByID(id uint) (*entities.User, error)
	GetUserByUsername(username string) (*entities.User, error)
	HasUsers() (bool, error)
}

// Service handles registration and authentication.
type Service struct {
	store  UserStore
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(store UserStore, cfg config.Auth) *Service {
	return &Service{store: store, config: cfg}
}

// Register validates the username and password, hashes the password and
// creates the user. A username race on the unique index is reported the same
// way as a pre-checked duplicate.
func (s *Service) Register(username, password string) (*entities.User, error) {
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	existing, err := s.store.GetUserByUsername(username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(username, hash)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user. Any failure mode
// (unknown user, wrong password) is reported uniformly as
// ErrInvalidCredentials so the response does not reveal which part failed.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.store.GetUserByID(id)
}

// HasUsers reports whether any account exists yet.
func (s *Service) HasUsers() (bool, error) {
	return s.store.HasUsers()
}
