package http

import (
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps collects the handlers and collaborators mounted by NewRouter.
type RouterDeps struct {
	Auth   *AuthHandler
	Notes  *NoteHandler
	Groups *GroupHandler
	Users  *UserHandler
	// Sessions authenticates the protected routes.
	Sessions middleware.SessionExtractor
	// Health serves GET /healthz.
	Health http.Handler
	// FrontendOrigin is the single origin allowed to call the API with credentials.
	FrontendOrigin string
}

// NewRouter constructs and returns an HTTP handler that serves
// the NoteKeeper API.
//
// Routes:
//
//	POST   /api/auth/register      → Auth.Register
//	POST   /api/auth/confirm/{id}  → Auth.Confirm
//	POST   /api/auth/login         → Auth.Login
//	POST   /api/auth/logout        → Auth.Logout        (optional session)
//	GET    /api/auth/me            → Auth.Me            (session)
//	GET    /api/notes/public       → Notes.ListPublic
//	GET    /api/notes              → Notes.List         (session)
//	POST   /api/notes              → Notes.Create       (session)
//	GET    /api/notes/{id}         → Notes.Get          (session)
//	PATCH  /api/notes/{id}         → Notes.Update       (session)
//	DELETE /api/notes/{id}         → Notes.Delete       (session)
//	GET    /api/groups             → Groups.List        (session)
//	POST   /api/groups             → Groups.Create      (session)
//	POST   /api/groups/join        → Groups.Join        (session)
//	POST   /api/groups/leave       → Groups.Leave       (session)
//	DELETE /api/groups/{id}        → Groups.Delete      (session)
//	GET    /api/users/{id}         → Users.Get          (session)
//	GET    /healthz                → Health
//
// Middleware chain (applied in order):
//  1. RequestID
//  2. WithRequestLogging(logger)
//  3. Recoverer
//  4. CORS for FrontendOrigin with credentials
//  5. AllowContentType("application/json") for requests with a body
func NewRouter(deps RouterDeps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	// Inside the request log, so recovered panics are logged as 500s.
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.FrontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if deps.Health != nil {
		r.Method(http.MethodGet, "/healthz", deps.Health)
	}

	requireSession := middleware.SessionAuth(deps.Sessions)
	optionalSession := middleware.OptionalSession(deps.Sessions)

	r.Route("/api", func(r chi.Router) {
		// Only allow request bodies with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.Auth.Register)
			r.Post("/confirm/{id}", deps.Auth.Confirm)
			r.Post("/login", deps.Auth.Login)
			r.With(optionalSession).Post("/logout", deps.Auth.Logout)
			r.With(requireSession).Get("/me", deps.Auth.Me)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/public", deps.Notes.ListPublic)

			r.Group(func(r chi.Router) {
				r.Use(requireSession)
				r.Get("/", deps.Notes.List)
				r.Post("/", deps.Notes.Create)
				r.Get("/{id}", deps.Notes.Get)
				r.Patch("/{id}", deps.Notes.Update)
				r.Delete("/{id}", deps.Notes.Delete)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/", deps.Groups.List)
			r.Post("/", deps.Groups.Create)
			r.Post("/join", deps.Groups.Join)
			r.Post("/leave", deps.Groups.Leave)
			r.Delete("/{id}", deps.Groups.Delete)
		})

		r.With(requireSession).Get("/users/{id}", deps.Users.Get)
	})

	return r
}
