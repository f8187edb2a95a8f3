package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts every route. Auth routes are reachable both under /auth
// and at the root.
func NewRouter(h *Handler, secret []byte, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)

	authRoutes := func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Get("/change-password", h.RequestPasswordReset)
		r.Post("/change-password", h.ConfirmPasswordReset)
	}
	r.Route("/auth", authRoutes)
	r.Group(authRoutes)

	requireAuth := RequireAuth(secret, logger)

	r.Route("/messages", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.SendMessage)
		r.Get("/{id}", h.GetMessage)
		r.Post("/{id}/read", h.MarkRead)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListUsers)

		r.Route("/{username}", func(r chi.Router) {
			r.Use(RequireSameUser(logger))
			r.Get("/", h.GetUser)
			r.Get("/to", h.MessagesTo)
			r.Get("/from", h.MessagesFrom)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errorBody{Message: "Not Found", Status: http.StatusNotFound}})
	})

	return r
}
