package services

import (
	"context"
	"errors"
	"fmt"

	"hobbyhub/app/models"
	"hobbyhub/app/repositories"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles account signup
type UserService struct {
	userRepo repositories.UserRepository
	hashCost int
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, hashCost: bcrypt.DefaultCost}
}

// Signup validates the payload, rejects a taken username and stores the user
// with a bcrypt hash in place of the plain password.
func (s *UserService) Signup(ctx context.Context, in *models.InsertUser) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	_, err := s.userRepo.GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return nil, models.NewConflictError("Username already exists")
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, models.NewValidationError(err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, &models.InsertUser{Username: in.Username, Password: string(hash)})
	if errors.Is(err, repositories.ErrConflict) {
		return nil, models.NewConflictError("Username already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.userRepo.GetUser(ctx, id)
}
