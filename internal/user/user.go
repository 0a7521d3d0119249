package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"rollcall/internal/auth"
)

var (
	// ErrNotFound signals a lookup that matched no user.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken signals a signup with an already-registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBadCredentials signals a failed login.
	ErrBadCredentials = errors.New("invalid email or password")
)

// User is an account that owns rooms and sessions.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists users.
type Store interface {
	Insert(ctx context.Context, u User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

// Service handles signup and login.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Signup validates input, hashes the password and creates the account.
func (s *Service) Signup(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < 6 {
		return User{}, errors.New("name, email and a password of at least 6 characters are required")
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.store.Insert(ctx, User{Name: name, Email: email, PasswordHash: hash})
}

// Login checks credentials and returns the matching user.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrBadCredentials
		}
		return User{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.store.GetByID(ctx, id)
}
