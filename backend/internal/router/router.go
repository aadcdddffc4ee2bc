package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itchan-dev/uniforum/backend/internal/setup"
	mw "github.com/itchan-dev/uniforum/shared/middleware"
	"github.com/itchan-dev/uniforum/shared/middleware/metrics"
)

// New builds the API router. Posting routes share one per-user limiter, so
// starting a thread and replying draw from the same budget.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(mw.RequestLogger)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", mw.RequestIdHeader},
		ExposedHeaders:   []string{mw.RequestIdHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeadersWithCSP(deps.Config.Public.SecureCookies, mw.APIContentSecurityPolicy))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(loggedIn chi.Router) {
			loggedIn.Use(authMw.NeedAuth())

			loggedIn.Get("/forums", h.GetForums)
			loggedIn.Get("/forums/{kind}/{location}/threads", h.GetThreads)
			loggedIn.Post("/forums/{kind}/{location}/paste", h.Paste)

			loggedIn.Get("/threads/{thread}", h.GetThread)
			loggedIn.Delete("/threads/{thread}", h.DeleteThread)

			loggedIn.Get("/posts/{post}", h.GetPost)
			loggedIn.Delete("/posts/{post}", h.DeletePost)
			loggedIn.Put("/posts/{post}/ban", h.BanPost)
			loggedIn.Delete("/posts/{post}/ban", h.UnbanPost)

			loggedIn.Get("/clipboard", h.GetClipboard)
			loggedIn.Post("/clipboard/{thread}", h.Cut)

			loggedIn.Group(func(posting chi.Router) {
				if deps.PostingLimiter != nil {
					posting.Use(mw.RateLimit(deps.PostingLimiter, mw.GetUserIDFromContext))
				}
				posting.Post("/forums/{kind}/{location}/threads", h.CreateThread)
				posting.Post("/threads/{thread}/posts", h.CreatePost)
			})
		})

		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(authMw.AdminOnly())
			admin.Delete("/locations/{scope}/{location}", h.RemoveForumsAt)
			admin.Delete("/users/{user}/forum-state", h.PurgeUserState)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return r
}
