package api

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api/handler"
	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/billing"
	"github.com/talk2dom/web/internal/metrics"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger      handler.Pinger
	BackendPinger handler.Pinger
	Version       string
	OpenAPISpec   []byte

	Authenticator middleware.Authenticator
	Accounts      handler.AccountService
	Sessions      *handler.Sessions
	Billing       *billing.Service
	Tracker       *analytics.Safe
	AuthLimiter   *middleware.RateLimiter
	GoogleURL     string
	CookieSecure  bool
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.BackendPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	accountHandler := handler.NewAccountHandler(deps.Accounts, deps.Sessions, deps.GoogleURL, deps.CookieSecure, deps.Tracker)
	projectHandler := handler.NewProjectHandler(deps.Sessions, deps.Tracker)
	memberHandler := handler.NewMemberHandler(deps.Sessions, deps.Tracker)
	inviteHandler := handler.NewInviteHandler(deps.Sessions, deps.Tracker)
	locatorHandler := handler.NewLocatorCacheHandler(deps.Sessions)
	apiKeyHandler := handler.NewAPIKeyHandler(deps.Sessions, deps.Tracker)
	billingHandler := handler.NewBillingHandler(deps.Sessions, deps.Billing, deps.Tracker)
	playgroundHandler := handler.NewPlaygroundHandler(deps.Sessions, deps.Tracker)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Authenticator))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if deps.AuthLimiter != nil {
					r.Use(deps.AuthLimiter.Middleware)
				}
				r.Post("/register", accountHandler.Register)
				r.Post("/login", accountHandler.Login)
				r.Post("/forgot-password", accountHandler.ForgotPassword)
				r.Post("/reset-password", accountHandler.ResetPassword)
			})
			r.Get("/google", accountHandler.Google)
			r.Post("/logout", accountHandler.Logout)
			r.With(middleware.RequireSession).Get("/me", accountHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
				r.Delete("/{id}", projectHandler.Delete)

				r.Get("/{id}/members", memberHandler.List)
				r.Post("/{id}/members", memberHandler.Add)
				r.Delete("/{id}/members/{userId}", memberHandler.Remove)

				r.Get("/{id}/invites", inviteHandler.List)
				r.Post("/{id}/invites", inviteHandler.Create)
				r.Delete("/{id}/invites/{inviteId}", inviteHandler.Revoke)

				r.Get("/{id}/locator-cache", locatorHandler.List)
				r.Delete("/{id}/locator-cache/{entryId}", locatorHandler.Delete)
			})

			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", apiKeyHandler.List)
				r.Post("/", apiKeyHandler.Create)
				r.Delete("/{id}", apiKeyHandler.Delete)
			})

			r.Route("/billing", func(r chi.Router) {
				r.Post("/checkout", billingHandler.Checkout)
				r.Post("/one-time", billingHandler.OneTime)
				r.Post("/cancel", billingHandler.Cancel)
				r.Get("/history", billingHandler.History)
			})

			r.Route("/playground", func(r chi.Router) {
				r.Post("/locate", playgroundHandler.Locate)
				r.Post("/highlight", playgroundHandler.Highlight)
			})
		})
	})

	return r
}
