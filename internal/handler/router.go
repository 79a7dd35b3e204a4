package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alphabot/alphabot-client/internal/credentials"
	"github.com/alphabot/alphabot-client/internal/middleware"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// RouterConfig wires the bridge handlers into one router.
type RouterConfig struct {
	Session *SessionHandler
	Stream  *StreamHandler
	Rooms   *RoomHandler
	Account *AccountHandler
	Library *LibraryHandler
	Health  *HealthHandler

	Credentials       credentials.Provider
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Logger            *logger.Logger
}

// NewRouter builds the bridge HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Identity(cfg.Credentials))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", cfg.Account.Login)
			r.Post("/signup", cfg.Account.Signup)
			r.Post("/logout", cfg.Account.Logout)
		})

		// Session state is readable signed out so the UI can render the
		// login redirect from the stream.
		r.Get("/session", cfg.Session.Snapshot)
		r.Delete("/session", cfg.Session.Close)
		r.Get("/session/stream", cfg.Stream.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(cfg.Credentials))

			r.Put("/session/ticker/{ticker}", cfg.Session.Open)
			r.Post("/session/messages", cfg.Session.Send)
			r.Post("/session/refresh", cfg.Session.Refresh)

			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", cfg.Rooms.List)
				r.Post("/", cfg.Rooms.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", cfg.Rooms.Rename)
					r.Post("/trash", cfg.Rooms.Trash)
					r.Post("/restore", cfg.Rooms.Restore)
					r.Get("/messages", cfg.Session.History)
					r.Get("/events", cfg.Stream.Replay)
				})
			})
			r.Get("/trash", cfg.Rooms.ListTrash)

			r.Get("/me", cfg.Account.Me)
			r.Patch("/me", cfg.Account.UpdateProfile)
			r.Put("/me/password", cfg.Account.ChangePassword)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", cfg.Library.ListCategories)
				r.Post("/", cfg.Library.CreateCategory)
				r.Get("/{id}", cfg.Library.GetCategory)
				r.Put("/{id}", cfg.Library.UpdateCategory)
				r.Delete("/{id}", cfg.Library.DeleteCategory)
			})

			r.Route("/bookmarks", func(r chi.Router) {
				r.Get("/", cfg.Library.ListBookmarks)
				r.Post("/", cfg.Library.SaveBookmark)
				r.Put("/{id}", cfg.Library.MoveBookmark)
				r.Delete("/{id}", cfg.Library.DeleteBookmark)
			})
		})
	})

	return r
}
