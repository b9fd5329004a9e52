package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/access"
	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/repository"
	"github.com/google/uuid"
)

const (
	msgInvalidNote  = "Invalid note identifiers!"
	msgInvalidGroup = "Invalid group identifier!"
)

// NoteRepository defines the note persistence operations needed by NoteService.
type NoteRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Note, error)
	ListPublic(ctx context.Context) ([]models.Note, error)
	GetByID(ctx context.Context, id string) (models.Note, error)
	Insert(ctx context.Context, n models.Note) error
	Update(ctx context.Context, id string, p models.NotePatch) (models.Note, error)
	Delete(ctx context.Context, id string) error
}

// NoteService implements note operations on behalf of an authenticated principal.
type NoteService struct {
	repo     NoteRepository
	isMember access.MembershipLookup
	now      func() time.Time
}

// NewNoteService constructs a NoteService. isMember answers group membership
// questions for the read rule.
func NewNoteService(repo NoteRepository, isMember access.MembershipLookup) *NoteService {
	return &NoteService{repo: repo, isMember: isMember, now: time.Now}
}

// ListOwn returns the notes owned by p.
func (s *NoteService) ListOwn(ctx context.Context, p models.Principal) ([]models.Note, error) {
	notes, err := s.repo.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list own notes: %w", err)
	}
	return notes, nil
}

// ListPublic returns every public note.
func (s *NoteService) ListPublic(ctx context.Context) ([]models.Note, error) {
	notes, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public notes: %w", err)
	}
	return notes, nil
}

func (s *NoteService) load(ctx context.Context, id string) (models.Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Note{}, apperr.BadRequest(msgInvalidNote)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("load note: %w", err)
	}
	return n, nil
}

// Get returns the note with id if p may read it.
func (s *NoteService) Get(ctx context.Context, p models.Principal, id string) (models.Note, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	ok, err := access.CanReadNote(ctx, p, n, s.isMember)
	if err != nil {
		return models.Note{}, fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return models.Note{}, apperr.ErrForbidden
	}
	return n, nil
}

// Create stores a new note owned by p. The date tag defaults to now.
func (s *NoteService) Create(ctx context.Context, p models.Principal, in models.NewNote) (models.Note, error) {
	n := models.Note{
		ID:      uuid.NewString(),
		GroupID: normalizeGroupID(in.GroupID),
		UserID:  p.ID,
		Title:   in.Title,
		DateTag: models.NewTimestamp(s.now()),
		Body:    in.Body,
		Public:  in.Public,
		Pinned:  in.Pinned,
	}
	if in.DateTag != nil && !in.DateTag.IsZero() {
		n.DateTag = models.NewTimestamp(in.DateTag.Time)
	}

	err := s.repo.Insert(ctx, n)
	if errors.Is(err, repository.ErrUnknownGroup) {
		return models.Note{}, apperr.BadRequest(msgInvalidGroup)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

// Update applies patch to the note with id. Only the owner may update a note.
func (s *NoteService) Update(ctx context.Context, p models.Principal, id string, patch models.NotePatch) (models.Note, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if !access.CanMutateNote(p, n) {
		return models.Note{}, apperr.ErrForbidden
	}
	switch {
	case patch.DateTag == nil:
	case patch.DateTag.IsZero():
		// An empty date tag leaves the stored one unchanged.
		patch.DateTag = nil
	default:
		ts := models.NewTimestamp(patch.DateTag.Time)
		patch.DateTag = &ts
	}

	updated, err := s.repo.Update(ctx, id, patch)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return models.Note{}, apperr.BadRequest(msgInvalidNote)
	case errors.Is(err, repository.ErrUnknownGroup):
		return models.Note{}, apperr.BadRequest(msgInvalidGroup)
	case err != nil:
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

// Delete removes the note with id. Only the owner may delete a note.
func (s *NoteService) Delete(ctx context.Context, p models.Principal, id string) error {
	n, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanMutateNote(p, n) {
		return apperr.ErrForbidden
	}
	err = s.repo.Delete(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.BadRequest(msgInvalidNote)
	}
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// normalizeGroupID treats an empty group id as no group.
func normalizeGroupID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}
