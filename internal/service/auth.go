// Package service provides the identity workflow and account business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/sentinel"
)

// AuthRepository defines the persistence operations
// required by the account service.
type AuthRepository interface {
	// UserExists returns true if a user with the given login exists.
	UserExists(ctx context.Context, login string) (bool, error)
	// RegisterUser creates a new user record with the given login.
	RegisterUser(ctx context.Context, login string) (models.User, error)
	// FindUserByLogin returns the user with the given login.
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// AuthService implements account operations by delegating
// to an AuthRepository.
type AuthService struct {
	repo AuthRepository
}

// NewAuthService constructs a new AuthService using the provided repository.
func NewAuthService(repo AuthRepository) *AuthService {
	return &AuthService{repo: repo}
}

// UserExists checks whether a user with the specified login exists.
func (s *AuthService) UserExists(ctx context.Context, login string) (bool, error) {
	return s.repo.UserExists(ctx, login)
}

// RegisterUser registers a new user with the given login. The login becomes
// the CN of the user's client certificate.
func (s *AuthService) RegisterUser(ctx context.Context, login string) (models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return models.User{}, fmt.Errorf("%w: login is required", ErrValidation)
	}
	exists, err := s.repo.UserExists(ctx, login)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if exists {
		return models.User{}, fmt.Errorf("%w: user %q already exists", ErrConflict, login)
	}
	user, err := s.repo.RegisterUser(ctx, login)
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return models.User{}, fmt.Errorf("%w: user %q already exists", ErrConflict, login)
	case err != nil:
		return models.User{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return user, nil
}

// FindUser returns the user with the given login.
func (s *AuthService) FindUser(ctx context.Context, login string) (models.User, error) {
	user, err := s.repo.FindUserByLogin(ctx, login)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return models.User{}, fmt.Errorf("%w: user %q", ErrUnauthenticated, login)
	case err != nil:
		return models.User{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return user, nil
}
