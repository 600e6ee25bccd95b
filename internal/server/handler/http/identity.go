package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/provider"
	"github.com/atinyakov/GophIdentity/internal/service"
	"github.com/atinyakov/GophIdentity/internal/session"
)

// IdentityService defines the identity workflow operations used by the handlers.
type IdentityService interface {
	Register(ctx context.Context, req service.RegisterRequest) (service.RegisterResult, error)
	TestAccess(requestID, checkSum string) bool
	ConfirmIdentity(ctx context.Context, requestID string, isAuthorized bool) (*service.ConfirmationResult, error)
	Confirm(ctx context.Context, email string) (*models.IdentityResponse, error)
	RecordResponse(ctx context.Context, requestID string, in service.ProviderResponse) (*models.IdentityResponse, error)
	GetProvidersList() []provider.Descriptor
}

// FieldLister returns the field dictionary.
type FieldLister interface {
	GetFieldsList(ctx context.Context) (*models.FieldDictionary, error)
}

// IdentityHandler serves the identity workflow endpoints.
type IdentityHandler struct {
	Service IdentityService
	Fields  FieldLister
	Log     *zap.Logger
}

// TestAccessRequest is the body of the access test endpoint.
type TestAccessRequest struct {
	RequestID string `json:"request_id"`
	CheckSum  string `json:"check_sum"`
}

// ConfirmRequest looks up a provider response by e-mail.
type ConfirmRequest struct {
	Email string `json:"email"`
}

// Register handles POST /api/identities.
func (h *IdentityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request"})
		return
	}
	res, err := h.Service.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// TestAccess handles POST /api/identities/test-access.
func (h *IdentityHandler) TestAccess(w http.ResponseWriter, r *http.Request) {
	var req TestAccessRequest
	if err := decode(r, &req); err != nil || req.RequestID == "" || req.CheckSum == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "request_id and check_sum are required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"access": h.Service.TestAccess(req.RequestID, req.CheckSum)})
}

// Confirmation handles GET /api/identities/{requestID}/confirmation.
// A caller without a session must pass the request checksum in the
// check_sum query parameter and is then logged in as the identity owner.
func (h *IdentityHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	_, isAuthorized := session.UserFromContext(r.Context())
	if !isAuthorized && !h.Service.TestAccess(requestID, r.URL.Query().Get("check_sum")) {
		writeError(w, h.Log, errUnauthenticated)
		return
	}

	res, err := h.Service.ConfirmIdentity(r.Context(), requestID, isAuthorized)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RecordResponse handles POST /api/identities/{requestID}/response.
func (h *IdentityHandler) RecordResponse(w http.ResponseWriter, r *http.Request) {
	var in service.ProviderResponse
	if err := decode(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request"})
		return
	}
	resp, err := h.Service.RecordResponse(r.Context(), chi.URLParam(r, "requestID"), in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Confirm handles POST /api/identities/confirm. It requires a session.
func (h *IdentityHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.UserFromContext(r.Context()); !ok {
		writeError(w, h.Log, errUnauthenticated)
		return
	}
	var req ConfirmRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request"})
		return
	}
	resp, err := h.Service.Confirm(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Providers handles GET /api/providers.
func (h *IdentityHandler) Providers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.GetProvidersList())
}

// FieldsList handles GET /api/fields.
func (h *IdentityHandler) FieldsList(w http.ResponseWriter, r *http.Request) {
	d, err := h.Fields.GetFieldsList(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	fields := d.Fields()
	if fields == nil {
		fields = []models.Field{}
	}
	writeJSON(w, http.StatusOK, fields)
}
