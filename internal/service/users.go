package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
)

// UserRepository loads users by id.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService exposes the public profile of users.
type UserService struct {
	repo UserRepository
}

// NewUserService constructs a UserService using repo.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Get returns the public projection of the user with id, or apperr.ErrNotFound.
func (s *UserService) Get(ctx context.Context, id string) (models.PublicUser, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.PublicUser{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("get user: %w", err)
	}
	return u.Public(), nil
}
