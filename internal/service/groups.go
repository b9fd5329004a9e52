package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/access"
	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/google/uuid"
)

// GroupRepository defines the group persistence operations needed by GroupService.
type GroupRepository interface {
	ListByMember(ctx context.Context, userID string) ([]models.Group, error)
	GetByID(ctx context.Context, id string) (models.Group, error)
	Insert(ctx context.Context, g models.Group) error
	AddMember(ctx context.Context, link models.GroupLink) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	// Delete unshares the group's notes and removes its links before the group.
	Delete(ctx context.Context, groupID string) error
}

// GroupService implements group creation, membership and deletion.
type GroupService struct {
	repo GroupRepository
	now  func() time.Time
}

// NewGroupService constructs a GroupService using repo.
func NewGroupService(repo GroupRepository) *GroupService {
	return &GroupService{repo: repo, now: time.Now}
}

// ListMine returns the groups p has joined.
func (s *GroupService) ListMine(ctx context.Context, p models.Principal) ([]models.Group, error) {
	groups, err := s.repo.ListByMember(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// Create stores a new group created by p. The creator is not joined to it.
func (s *GroupService) Create(ctx context.Context, p models.Principal, in models.NewGroup) (models.Group, error) {
	g := models.Group{
		ID:        uuid.NewString(),
		CreatedAt: models.NewTimestamp(s.now()),
		CreatedBy: p.ID,
		Name:      in.Name,
		Color:     in.Color,
	}
	if err := s.repo.Insert(ctx, g); err != nil {
		return models.Group{}, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

func (s *GroupService) load(ctx context.Context, id string) (models.Group, error) {
	g, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Group{}, apperr.BadRequest(msgInvalidGroup)
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("load group: %w", err)
	}
	return g, nil
}

// Join adds p to the group with id. Joining twice is a no-op.
func (s *GroupService) Join(ctx context.Context, p models.Principal, id string) (models.Group, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return models.Group{}, err
	}
	link := models.GroupLink{ID: uuid.NewString(), GroupID: g.ID, UserID: p.ID}
	if err := s.repo.AddMember(ctx, link); err != nil {
		return models.Group{}, fmt.Errorf("join group: %w", err)
	}
	return g, nil
}

// Leave removes p from the group with id.
func (s *GroupService) Leave(ctx context.Context, p models.Principal, id string) (models.Group, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return models.Group{}, err
	}
	err = s.repo.RemoveMember(ctx, g.ID, p.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Group{}, apperr.BadRequest("Not a member of this group!")
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("leave group: %w", err)
	}
	return g, nil
}

// Delete removes the group with id. Only its creator may delete it.
func (s *GroupService) Delete(ctx context.Context, p models.Principal, id string) error {
	g, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanDeleteGroup(p, g) {
		return apperr.ErrForbidden
	}
	err = s.repo.Delete(ctx, g.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.BadRequest(msgInvalidGroup)
	}
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
