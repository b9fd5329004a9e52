package http

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/models"
	"go.uber.org/zap"
)

// UserService defines the user lookup required by UserHandler.
type UserService interface {
	Get(ctx context.Context, id string) (models.PublicUser, error)
}

// UserHandler handles GET /api/users/{id}.
type UserHandler struct {
	UserService UserService
	Log         *zap.Logger
}

// Get returns the public profile of a user.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	u, err := h.UserService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health answers GET /healthz with 200 when the database responds within
// two seconds and 503 otherwise.
func Health(db Pinger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			if log != nil {
				log.Warn("health check failed", zap.Error(err))
			}
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
