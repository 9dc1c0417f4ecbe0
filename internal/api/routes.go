package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	// Coach calls a paid model: burst of 10, then one every 6s.
	coachLimiter := NewRateLimiter(10, 6*time.Second)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Route("/users/{userID}", func(r chi.Router) {
				r.Use(UserMiddleware)
				r.Delete("/", h.DeleteUser)
				r.Get("/state", h.GetState)
				r.Put("/state", h.PutState)
				r.Get("/summary", h.Summary)
				r.Get("/export", h.Export)
				r.With(coachLimiter.Middleware).Post("/coach", h.Coach)
			})
		})
	})

	return r
}
