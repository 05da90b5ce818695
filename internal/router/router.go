// Package router sets up all HTTP routes and middleware chains for the
// Mentoro API. It organizes routes into the public read API and the
// admin API, each with its own middleware stack.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mentorocms/internal/handlers"
	"mentorocms/internal/middleware"
	"mentorocms/internal/session"
)

// Deps are the dependencies the router wires into its route groups.
// LoginLimiter may be nil.
type Deps struct {
	Sessions      *session.Store
	Users         middleware.UserFinder
	SecureCookies bool
	LoginLimiter  *middleware.RateLimiter

	Auth      *handlers.Auth
	Editorial *handlers.Editorial
	UserAdmin *handlers.Users
	Public    *handlers.Public
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	r.Get("/health", healthHandler)

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.NewCSRF(d.SecureCookies))

		login := http.HandlerFunc(d.Auth.Login)
		if d.LoginLimiter != nil {
			r.With(d.LoginLimiter.Middleware).Post("/login", login)
		} else {
			r.Post("/login", login)
		}
		r.Post("/logout", d.Auth.Logout)

		// 2FA requires a session but not a completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", d.Auth.TwoFASetup)
			r.Post("/2fa/verify", d.Auth.TwoFAVerify)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.LoadActor(d.Users))

			r.Get("/me", d.Auth.Me)
			r.Get("/review-queue", d.Editorial.ReviewQueue)
			r.Get("/my-drafts", d.Editorial.MyDrafts)
			r.Get("/cache-log", d.Editorial.CacheLog)

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", d.UserAdmin.List)
				r.Post("/", d.UserAdmin.Create)
				r.Put("/{id}/groups/{group}", d.UserAdmin.AddToGroup)
				r.Delete("/{id}/groups/{group}", d.UserAdmin.RemoveFromGroup)
				r.Post("/{id}/reset-2fa", d.UserAdmin.ResetTwoFA)
			})

			r.Route("/{kind}", func(r chi.Router) {
				r.Get("/", d.Editorial.List)
				r.Post("/", d.Editorial.Create)
				r.Post("/bulk/{transition}", d.Editorial.Bulk)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", d.Editorial.Get)
					r.Patch("/", d.Editorial.SaveDraft)
					r.Get("/diff", d.Editorial.Diff)
					r.Get("/revisions", d.Editorial.Revisions)
					r.Post("/transitions/{transition}", d.Editorial.Transition)

					// Guides only; other kinds answer 404.
					r.Post("/sections", d.Editorial.SaveSection)
					r.Put("/sections/{sectionID}", d.Editorial.SaveSection)
					r.Delete("/sections/{sectionID}", d.Editorial.DeleteSection)
				})
			})
		})
	})

	// Public read API, served from display values.
	r.Get("/api/{lang}/{segment}/", d.Public.List)
	r.Get("/api/{lang}/{segment}/{slug}", d.Public.Detail)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
