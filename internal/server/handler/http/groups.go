package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/models"
	"go.uber.org/zap"
)

// GroupService defines the group operations required by GroupHandler.
type GroupService interface {
	ListMine(ctx context.Context, p models.Principal) ([]models.Group, error)
	Create(ctx context.Context, p models.Principal, in models.NewGroup) (models.Group, error)
	Join(ctx context.Context, p models.Principal, id string) (models.Group, error)
	Leave(ctx context.Context, p models.Principal, id string) (models.Group, error)
	Delete(ctx context.Context, p models.Principal, id string) error
}

// GroupHandler handles the /api/groups endpoints.
type GroupHandler struct {
	GroupService GroupService
	Log          *zap.Logger
}

// GroupRef is the JSON payload naming a group to join or leave.
type GroupRef struct {
	ID string `json:"id" validate:"required,uuid"`
}

// List handles GET /api/groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	groups, err := h.GroupService.ListMine(r.Context(), p)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// Create handles POST /api/groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	var in models.NewGroup
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	g, err := h.GroupService.Create(r.Context(), p, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Join handles POST /api/groups/join.
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.GroupService.Join)
}

// Leave handles POST /api/groups/leave.
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.GroupService.Leave)
}

func (h *GroupHandler) membership(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, models.Principal, string) (models.Group, error),
) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	var ref GroupRef
	if err := decodeJSON(r, &ref); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	g, err := op(r.Context(), p, ref.ID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Delete handles DELETE /api/groups/{id}.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.GroupService.Delete(r.Context(), p, id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
