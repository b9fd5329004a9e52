package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres repositories with the
// same error contract.
type memStore struct {
	mu          sync.Mutex
	users       map[string]models.User
	invitations map[string]models.Invitation
	notes       map[string]models.Note
	groups      map[string]models.Group
	links       map[[2]string]models.GroupLink
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]models.User{},
		invitations: map[string]models.Invitation{},
		notes:       map[string]models.Note{},
		groups:      map[string]models.Group{},
		links:       map[[2]string]models.GroupLink{},
	}
}

func (m *memStore) CreatePending(_ context.Context, u models.User, inv models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.users[u.ID] = u
	m.invitations[inv.ID] = inv
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetInvitation(_ context.Context, id string) (models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok {
		return models.Invitation{}, apperr.ErrNotFound
	}
	return inv, nil
}

func (m *memStore) Activate(_ context.Context, invitationID, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[invitationID]
	if !ok || inv.Resolved != 0 || !inv.ExpiresAt.After(now) {
		return repository.ErrInvitationClosed
	}
	u, ok := m.users[userID]
	if !ok || u.Active != 0 {
		return repository.ErrInvitationClosed
	}
	inv.Resolved = 1
	u.Active = 1
	m.invitations[invitationID] = inv
	m.users[userID] = u
	return nil
}

func (m *memStore) IsMember(_ context.Context, userID, groupID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.links[[2]string{groupID, userID}]
	return ok, nil
}

type memNotes struct{ *memStore }

func (m memNotes) ListByUser(_ context.Context, userID string) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Note, 0)
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memNotes) ListPublic(_ context.Context) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Note, 0)
	for _, n := range m.notes {
		if n.Public == 1 {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m memNotes) GetByID(_ context.Context, id string) (models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, apperr.ErrNotFound
	}
	return n, nil
}

func (m memNotes) Insert(_ context.Context, n models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.GroupID != nil {
		if _, ok := m.groups[*n.GroupID]; !ok {
			return repository.ErrUnknownGroup
		}
	}
	m.notes[n.ID] = n
	return nil
}

func (m memNotes) Update(_ context.Context, id string, p models.NotePatch) (models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, apperr.ErrNotFound
	}
	switch {
	case p.GroupID == nil:
	case *p.GroupID == "":
		n.GroupID = nil
	default:
		if _, ok := m.groups[*p.GroupID]; !ok {
			return models.Note{}, repository.ErrUnknownGroup
		}
		g := *p.GroupID
		n.GroupID = &g
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.DateTag != nil {
		n.DateTag = *p.DateTag
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	if p.Public != nil {
		n.Public = *p.Public
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	m.notes[id] = n
	return n, nil
}

func (m memNotes) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

type memGroups struct{ *memStore }

func (m memGroups) ListByMember(_ context.Context, userID string) ([]models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Group, 0)
	for key := range m.links {
		if key[1] == userID {
			out = append(out, m.groups[key[0]])
		}
	}
	return out, nil
}

func (m memGroups) GetByID(_ context.Context, id string) (models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return models.Group{}, apperr.ErrNotFound
	}
	return g, nil
}

func (m memGroups) Insert(_ context.Context, g models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = g
	return nil
}

func (m memGroups) AddMember(_ context.Context, link models.GroupLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{link.GroupID, link.UserID}
	if _, ok := m.links[key]; !ok {
		m.links[key] = link
	}
	return nil
}

func (m memGroups) RemoveMember(_ context.Context, groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{groupID, userID}
	if _, ok := m.links[key]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.links, key)
	return nil
}

func (m memGroups) Delete(_ context.Context, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.notes {
		if n.GroupID != nil && *n.GroupID == groupID {
			n.GroupID = nil
			m.notes[id] = n
		}
	}
	for key := range m.links {
		if key[0] == groupID {
			delete(m.links, key)
		}
	}
	if _, ok := m.groups[groupID]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.groups, groupID)
	return nil
}
