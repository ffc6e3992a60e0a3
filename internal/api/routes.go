package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, health *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Binary", "cmd/server")
			next.ServeHTTP(w, req)
		})
	})

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/live", health.HandleLiveness)
		r.Get("/health/ready", health.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/validate-subchannel-overlap", h.ValidateOverlap)

		r.Route("/channels", func(r chi.Router) {
			r.Get("/", h.ListChannels)
			r.Route("/{channelID}", func(r chi.Router) {
				r.Get("/", h.GetChannel)
				r.Get("/sub-channels", h.ListSubChannels)
				r.Post("/sub-channels", h.CreateSubChannel)
			})
		})

		r.Route("/sub-channels", func(r chi.Router) {
			r.Post("/check", h.CheckOverlap)
			r.Get("/{id}", h.GetSubChannel)
			r.Put("/{id}", h.UpdateSubChannel)
			r.Delete("/{id}", h.DeleteSubChannel)
		})

		r.Get("/attribution/resolve", h.ResolveAttribution)
	})

	return r
}
