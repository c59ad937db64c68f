package routes

import (
	"net/http"
	"time"

	"github.com/cogzy/cogzy-api/app"
	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/middleware"
	"github.com/cogzy/cogzy-api/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.SecurityHeaders(auth.IsSecureURL(cfg.AppURL)))
	r.Use(chimw.Timeout(requestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/health", deps.HealthHandler.HandleHealth)
	r.Get("/healthz", deps.HealthHandler.HandleLiveness)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	if cfg.Observability.MetricsEnabled && deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints are rate limited per client IP
			r.Group(func(r chi.Router) {
				r.Use(deps.AuthRateLimit.Limit)
				r.Post("/sign-up", deps.AuthHandler.HandleSignUp)
				r.Post("/sign-in", deps.AuthHandler.HandleSignIn)
			})

			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireAuth)
				r.Post("/sign-out", deps.AuthHandler.HandleSignOut)
				r.Get("/session", deps.AuthHandler.HandleGetSession)
				r.Put("/session/active-organization", deps.AuthHandler.HandleSetActiveOrganization)
			})
		})

		// Everything below requires a session
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Route("/organizations", func(r chi.Router) {
				r.Get("/", deps.OrganizationHandler.HandleListOrganizations)
				r.Post("/", deps.OrganizationHandler.HandleCreateOrganization)
				r.Get("/members", deps.OrganizationHandler.HandleListMembers)
				r.Post("/invitations", deps.InvitationHandler.HandleInvite)
			})

			r.Route("/invitations/{invitationID}", func(r chi.Router) {
				r.Get("/", deps.InvitationHandler.HandleGetInvitation)
				r.Post("/accept", deps.InvitationHandler.HandleAcceptInvitation)
				r.Post("/decline", deps.InvitationHandler.HandleDeclineInvitation)
			})

			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", deps.WorkspaceHandler.HandleListWorkspaces)
				r.Post("/", deps.WorkspaceHandler.HandleCreateWorkspace)

				r.Route("/{workspaceID}", func(r chi.Router) {
					r.Get("/members", deps.WorkspaceHandler.HandleListMembers)
					r.Post("/members", deps.WorkspaceHandler.HandleAddMember)
					r.Get("/member-search", deps.WorkspaceHandler.HandleSearchMembers)

					r.Get("/documents", deps.ContentHandler.HandleListDocuments)
					r.Post("/documents", deps.ContentHandler.HandleCreateDocument)
					r.Get("/conversations", deps.ContentHandler.HandleListConversations)
					r.Post("/conversations", deps.ContentHandler.HandleCreateConversation)
				})
			})

			r.Route("/conversations/{conversationID}/messages", func(r chi.Router) {
				r.Get("/", deps.ContentHandler.HandleListMessages)
				r.Post("/", deps.ContentHandler.HandleAddMessage)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Endpoint not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed.", nil)
	})

	return r
}
