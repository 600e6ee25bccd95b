// Package http provides the HTTP handlers and routing of the identity
// confirmation API.
package http

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/GophIdentity/internal/middleware"
	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/service"
	"github.com/atinyakov/GophIdentity/internal/session"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// RegisterUser registers a new user with the given login.
	RegisterUser(context.Context, string) (models.User, error)
	// FindUser returns the user with the given login.
	FindUser(context.Context, string) (models.User, error)
}

// CertificateIssuer signs client certificates for new accounts.
type CertificateIssuer interface {
	IssueClientCertificate(commonName string) ([]byte, []byte, error)
}

// SessionStarter issues a session token for an authenticated user.
type SessionStarter interface {
	Login(ctx context.Context, user models.User) (context.Context, error)
}

// AuthHandler handles HTTP requests for account registration and login.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// Certificates signs the client certificate returned on registration.
	Certificates CertificateIssuer
	// Sessions issues the token returned on login.
	Sessions SessionStarter
	// Log records internal failures.
	Log *zap.Logger
}

// AccountRequest represents the JSON payload for account registration.
type AccountRequest struct {
	// Login is the username to register.
	Login string `json:"login"`
}

// Register handles account registration requests.
// It expects a JSON body with a non-empty "login" field, generates a client
// certificate signed by the CA with the login as CN, stores the user and
// returns the PEM-encoded certificate and private key.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := decode(r, &req); err != nil || req.Login == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request"})
		return
	}

	certPEM, keyPEM, err := h.Certificates.IssueClientCertificate(req.Login)
	if err != nil {
		writeError(w, h.Log, fmt.Errorf("generate certificate: %w", err))
		return
	}

	user, err := h.AuthService.RegisterUser(r.Context(), req.Login)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"cert":    string(certPEM),
		"key":     string(keyPEM),
	})
}

// Login handles certificate-based login requests.
// The CommonName of the client certificate, placed in the context by
// middleware.RequireCertificate, is the login. A known user receives a
// session token for the identity endpoints.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	login := middleware.GetLoginFromContext(r.Context())
	if login == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "client certificate required"})
		return
	}

	user, err := h.AuthService.FindUser(r.Context(), login)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, err := h.Sessions.Login(r.Context(), user)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"user":   login,
		"token":  session.TokenFromContext(ctx),
	})
}

// errUnauthenticated is reported when an endpoint needs a user but none was resolved.
var errUnauthenticated = fmt.Errorf("%w: session or check_sum required", service.ErrUnauthenticated)
