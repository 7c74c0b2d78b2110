package account

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/maumchat/backend/internal/store"
)

var ErrMissingFields = errors.New("userId, name, password and email are required")

// Signup carries the registration payload.
type Signup struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
}

// Service handles account registration. Passwords are bcrypt-hashed before
// they reach the store; the plaintext is never persisted.
type Service struct {
	users store.UserRepo
}

// NewService creates the account service.
func NewService(users store.UserRepo) *Service {
	return &Service{users: users}
}

// Register creates a new account. Duplicate user IDs surface
// store.ErrDuplicateUser.
func (s *Service) Register(ctx context.Context, in Signup) error {
	if in.UserID == "" || in.Name == "" || in.Password == "" || in.Email == "" {
		return ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &store.User{
		UserID:       in.UserID,
		Name:         in.Name,
		PasswordHash: string(hash),
		Email:        in.Email,
		Gender:       in.Gender,
		BirthDate:    in.BirthDate,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			return err
		}
		return fmt.Errorf("%w: create user: %v", store.ErrUnavailable, err)
	}
	return nil
}
