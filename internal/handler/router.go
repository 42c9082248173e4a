package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"snippet-sharing-server/internal/security"
)

type Handlers struct {
	Auth     *AuthenticationHandler
	Users    *UserHandler
	Snippets *SnippetHandler
	JWT      *security.JWTService
	Limiter  *LoginRateLimiter
	Metrics  http.Handler
}

func SetupRoutes(r chi.Router, h Handlers) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	setupAuthRoutes(r, h)
	setupUserRoutes(r, h)
	setupSnippetRoutes(r, h)
}

func setupAuthRoutes(r chi.Router, h Handlers) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.Limiter.Middleware)
			r.Post("/login", h.Auth.Login)
		})
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware(h.JWT))
			r.Post("/revoke-all", h.Auth.RevokeAll)
			r.Get("/me", h.Auth.Me)
		})
	})
}

func setupUserRoutes(r chi.Router, h Handlers) {
	r.Route("/api/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.Limiter.Middleware)
			r.Post("/register", h.Users.Register)
			r.Post("/password-reset", h.Users.RequestPasswordReset)
			r.Post("/password-reset/{token}", h.Users.ResetPassword)
		})
		r.Post("/activate/{token}", h.Users.Activate)

		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware(h.JWT))
			r.Put("/me/password", h.Users.ChangePassword)
		})
	})
}

func setupSnippetRoutes(r chi.Router, h Handlers) {
	r.Route("/api/snippets", func(r chi.Router) {
		r.Use(security.JWTMiddleware(h.JWT))
		r.Get("/", h.Snippets.ListSnippets)
		r.Post("/", h.Snippets.CreateSnippet)

		r.Get("/search/{title}", h.Snippets.SearchSnippets)
		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.Snippets.ListFavorites)
			r.Post("/", h.Snippets.AddFavorite)
			r.Delete("/{uuid}", h.Snippets.RemoveFavorite)
		})

		r.Route("/{uuid}", func(r chi.Router) {
			r.Get("/", h.Snippets.GetSnippet)
			r.Patch("/", h.Snippets.UpdateSnippet)
			r.Delete("/", h.Snippets.DeleteSnippet)
		})
	})
}
