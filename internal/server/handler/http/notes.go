package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"go.uber.org/zap"
)

// NoteService defines the note operations required by NoteHandler.
type NoteService interface {
	ListOwn(ctx context.Context, p models.Principal) ([]models.Note, error)
	ListPublic(ctx context.Context) ([]models.Note, error)
	Get(ctx context.Context, p models.Principal, id string) (models.Note, error)
	Create(ctx context.Context, p models.Principal, in models.NewNote) (models.Note, error)
	Update(ctx context.Context, p models.Principal, id string, patch models.NotePatch) (models.Note, error)
	Delete(ctx context.Context, p models.Principal, id string) error
}

// NoteHandler handles the /api/notes endpoints.
type NoteHandler struct {
	NoteService NoteService
	Log         *zap.Logger
}

// principal returns the caller, or answers 401 and reports false.
func principal(w http.ResponseWriter, r *http.Request, log *zap.Logger) (models.Principal, bool) {
	p, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, log, apperr.ErrUnauthorized)
	}
	return p, ok
}

// List handles GET /api/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	notes, err := h.NoteService.ListOwn(r.Context(), p)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// ListPublic handles GET /api/notes/public.
func (h *NoteHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	notes, err := h.NoteService.ListPublic(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// Get handles GET /api/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	n, err := h.NoteService.Get(r.Context(), p, id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Create handles POST /api/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	var in models.NewNote
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	n, err := h.NoteService.Create(r.Context(), p, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Update handles PATCH /api/notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var patch models.NotePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	n, err := h.NoteService.Update(r.Context(), p, id, patch)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Delete handles DELETE /api/notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.Log)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.NoteService.Delete(r.Context(), p, id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
