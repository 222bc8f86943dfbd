package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/atinyakov/NoteSync/internal/middleware"
)

// NewRouter constructs and returns the HTTP handler serving the NoteSync
// API. It applies CORS for the configured browser origin, request logging
// and JSON content-type enforcement, and mounts the public auth endpoints
// plus the session-protected resource, dashboard, contact and websocket
// endpoints.
//
// Routes:
//
//	POST /api/users            → authHandler.Register
//	POST /api/users/login      → authHandler.Login
//	POST /api/users/logout     → authHandler.Logout
//	/api/notes/**              → notesHandler (session required)
//	/api/todos/**              → todosHandler (session required)
//	GET  /api/all              → dashboardHandler.ListAll (session required)
//	GET  /api/shared-contacts  → contactsHandler.List (session required)
//	GET  /ws                   → wsHandler.Serve (session required)
func NewRouter(
	authHandler *AuthHandler,
	notesHandler *ResourceHandler,
	todosHandler *ResourceHandler,
	dashboardHandler *DashboardHandler,
	contactsHandler *ContactsHandler,
	wsHandler *WSHandler,
	jwtSecret string,
	allowedOrigin string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Credentialed CORS for the browser frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	withAuth := middleware.WithAuth(jwtSecret)

	r.Route("/api", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		// Public endpoints
		r.Post("/users", authHandler.Register)
		r.Post("/users/login", authHandler.Login)
		r.Post("/users/logout", authHandler.Logout)

		// Protected group: requires a valid session cookie
		r.Group(func(r chi.Router) {
			r.Use(withAuth)
			r.Mount("/notes", notesHandler.Routes())
			r.Mount("/todos", todosHandler.Routes())
			r.Get("/all", dashboardHandler.ListAll)
			r.Get("/shared-contacts", contactsHandler.List)
		})
	})

	// Event channel; joined once per session
	r.Group(func(r chi.Router) {
		r.Use(withAuth)
		r.Get("/ws", wsHandler.Serve)
	})

	return r
}
