package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries the cross-cutting pieces the router needs.
type RouterConfig struct {
	Logger      *slog.Logger
	CORSOrigin  string
	AuthLimiter *RateLimiter
}

// NewRouter builds the full HTTP API.
func NewRouter(h *EventHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(cfg.CORSOrigin))

	r.Get("/health", HealthCheck)

	r.Route("/api/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Put("/", h.ReplaceEvent)
			r.Delete("/", h.DeleteEvent)
			r.Get("/summary", h.Summary)

			r.Route("/auth", func(r chi.Router) {
				r.Get("/", h.ListParticipants)
				r.Group(func(r chi.Router) {
					if cfg.AuthLimiter != nil {
						r.Use(cfg.AuthLimiter.Middleware)
					}
					r.Post("/register", h.Register)
					r.Post("/authenticate", h.Authenticate)
				})
				r.Get("/session", h.CurrentSession)
				r.Delete("/session", h.SignOut)
			})

			r.Put("/participants/me", h.SaveAvailability)
			r.Delete("/participants/{name}", h.DeleteParticipant)

			r.Post("/suggestions", h.AddSuggestion)
			r.Patch("/suggestions/{sid}", h.EditSuggestion)
			r.Delete("/suggestions/{sid}", h.DeleteSuggestion)
			r.Put("/suggestions/{sid}/vote", h.Vote)
		})
	})

	return r
}
