package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/GophIdentity/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the identity
// API under /api and Prometheus metrics under /metrics.
//
// Parameters:
//
//	authHandler     - handler for account registration and login
//	identityHandler - handler for the identity workflow endpoints
//	authenticate    - middleware resolving the caller (middleware.Authenticate)
//	metricsHandler  - handler exposing metrics, may be nil
//	logger          - structured logger for request logging middleware
//
// Routes:
//
//	POST /api/accounts/register                → authHandler.Register
//	POST /api/accounts/login                   → authHandler.Login (client certificate required)
//	POST /api/identities                       → identityHandler.Register
//	POST /api/identities/test-access           → identityHandler.TestAccess
//	POST /api/identities/confirm               → identityHandler.Confirm
//	POST /api/identities/{requestID}/response  → identityHandler.RecordResponse
//	GET  /api/identities/{requestID}/confirmation → identityHandler.Confirmation
//	GET  /api/providers                        → identityHandler.Providers
//	GET  /api/fields                           → identityHandler.FieldsList
func NewRouter(
	authHandler *AuthHandler,
	identityHandler *IdentityHandler,
	authenticate func(http.Handler) http.Handler,
	metricsHandler http.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Post("/accounts/register", authHandler.Register)
		r.With(middleware.RequireCertificate).Post("/accounts/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/identities", identityHandler.Register)
			r.Post("/identities/test-access", identityHandler.TestAccess)
			r.Post("/identities/confirm", identityHandler.Confirm)
			r.Post("/identities/{requestID}/response", identityHandler.RecordResponse)
			r.Get("/identities/{requestID}/confirmation", identityHandler.Confirmation)
			r.Get("/providers", identityHandler.Providers)
			r.Get("/fields", identityHandler.FieldsList)
		})
	})

	return r
}
