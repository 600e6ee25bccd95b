package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/atinyakov/GophIdentity/internal/checksum"
	"github.com/atinyakov/GophIdentity/internal/metrics"
	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/provider"
	"github.com/atinyakov/GophIdentity/internal/repository"
	"github.com/atinyakov/GophIdentity/internal/sentinel"
	"github.com/atinyakov/GophIdentity/internal/session"
	"github.com/atinyakov/GophIdentity/internal/similarity"
)

const tracerName = "github.com/atinyakov/GophIdentity/internal/service"

// DefaultResponseStatus is stored when a provider omits the status.
const DefaultResponseStatus = "confirmed"

// IdentityStore persists identities.
type IdentityStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	FindOneBy(ctx context.Context, attr repository.Attribute, value string) (*models.Identity, error)
	FindByWithFields(ctx context.Context, attr repository.Attribute, value string) (*models.Identity, error)
	FindByWithResponse(ctx context.Context, attr repository.Attribute, value string) (*models.Identity, error)
}

// DeclaredFieldStore persists declared fields.
type DeclaredFieldStore interface {
	Create(ctx context.Context, field *models.DeclaredField) error
}

// ConfirmationStore appends confirmation records.
type ConfirmationStore interface {
	Create(ctx context.Context, c *models.Confirmation) error
}

// ResponseStore persists provider responses.
type ResponseStore interface {
	Save(ctx context.Context, resp *models.IdentityResponse) error
}

// FieldDictionary returns the current field dictionary.
type FieldDictionary interface {
	GetFieldsList(ctx context.Context) (*models.FieldDictionary, error)
}

// ChecksumCalculator computes and verifies request checksums.
type ChecksumCalculator interface {
	Calculate(requestID string) string
	Verify(requestID, supplied string) bool
}

// SimilarityCalculator compares declared fields with confirmed values.
type SimilarityCalculator interface {
	Calculate(declared []models.DeclaredField, dictionary *models.FieldDictionary, reference map[string]string) []similarity.Result
}

// ProviderRegistry lists the confirmation providers.
type ProviderRegistry interface {
	List() []provider.Descriptor
	Get(name string) (provider.Descriptor, bool)
}

// Authenticator resolves and establishes the user of a request.
type Authenticator interface {
	CurrentUser(ctx context.Context) (models.User, bool)
	LoginUsingID(ctx context.Context, userID int64) (context.Context, error)
}

// IdentityDeps are the collaborators of IdentityService.
// Metrics, Log and Tracer may be nil.
type IdentityDeps struct {
	Identities    IdentityStore
	Fields        DeclaredFieldStore
	Confirmations ConfirmationStore
	Responses     ResponseStore
	Dictionary    FieldDictionary
	Checksum      ChecksumCalculator
	Similarity    SimilarityCalculator
	Providers     ProviderRegistry
	Auth          Authenticator
	Metrics       *metrics.Metrics
	Log           *zap.Logger
	Tracer        trace.Tracer
}

// RegisterRequest is an identity declaration.
type RegisterRequest struct {
	RequestID  string              `json:"request_id"`
	Email      string              `json:"email"`
	URLConfirm string              `json:"url_confirm"`
	Provider   string              `json:"provider"`
	Data       []models.FieldValue `json:"data"`
}

// RegisterResult is returned by Register.
type RegisterResult struct {
	ID       string `json:"id"`
	CheckSum string `json:"check_sum"`
}

// ConfirmationResult is returned by ConfirmIdentity.
type ConfirmationResult struct {
	RequestID string              `json:"requestId"`
	Fields    []similarity.Result `json:"fields"`
	// ConfirmationDate is always empty.
	ConfirmationDate string `json:"confirmation_date"`
	CheckSum         string `json:"checkSum"`
	URLConfirm       string `json:"url_confirm"`
	// SessionToken is set when the caller was logged in as the identity owner.
	SessionToken string `json:"session_token,omitempty"`
}

// ProviderResponse carries the values a provider confirmed for a request.
type ProviderResponse struct {
	Provider string              `json:"provider"`
	Status   string              `json:"status"`
	CheckSum string              `json:"check_sum"`
	Values   []models.FieldValue `json:"values"`
}

// IdentityService drives an identity through registration and confirmation.
type IdentityService struct {
	identities    IdentityStore
	fields        DeclaredFieldStore
	confirmations ConfirmationStore
	responses     ResponseStore
	dictionary    FieldDictionary
	checksum      ChecksumCalculator
	similarity    SimilarityCalculator
	providers     ProviderRegistry
	auth          Authenticator
	metrics       *metrics.Metrics
	log           *zap.Logger
	tracer        trace.Tracer
}

// NewIdentityService constructs an IdentityService from deps.
func NewIdentityService(deps IdentityDeps) *IdentityService {
	s := &IdentityService{
		identities:    deps.Identities,
		fields:        deps.Fields,
		confirmations: deps.Confirmations,
		responses:     deps.Responses,
		dictionary:    deps.Dictionary,
		checksum:      deps.Checksum,
		similarity:    deps.Similarity,
		providers:     deps.Providers,
		auth:          deps.Auth,
		metrics:       deps.Metrics,
		log:           deps.Log,
		tracer:        deps.Tracer,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Register stores an identity declaration for the current user together with
// every declared field the dictionary knows. Unknown field names are dropped.
func (s *IdentityService) Register(ctx context.Context, req RegisterRequest) (res RegisterResult, err error) {
	ctx, span := s.tracer.Start(ctx, "IdentityService.Register",
		trace.WithAttributes(attribute.String("request_id", req.RequestID)))
	defer func() { endSpan(span, err) }()

	user, ok := s.auth.CurrentUser(ctx)
	if !ok {
		return RegisterResult{}, fmt.Errorf("%w: register requires a logged in user", ErrUnauthenticated)
	}
	if err := validateRequestID(req.RequestID); err != nil {
		return RegisterResult{}, err
	}
	if req.Provider != "" {
		if _, ok := s.providers.Get(req.Provider); !ok {
			return RegisterResult{}, fmt.Errorf("%w: unknown provider %q", ErrValidation, req.Provider)
		}
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		return RegisterResult{}, err
	}
	sum := s.checksum.Calculate(req.RequestID)

	dictionary, err := s.dictionary.GetFieldsList(ctx)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	identity := &models.Identity{
		RequestID:  req.RequestID,
		UserID:     user.ID,
		SessionID:  sessionID,
		Email:      strings.TrimSpace(req.Email),
		URLConfirm: req.URLConfirm,
		Provider:   req.Provider,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return RegisterResult{}, fmt.Errorf("%w: request %q already registered", ErrConflict, req.RequestID)
		}
		return RegisterResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	for _, fv := range req.Data {
		field, known := dictionary.Lookup(fv.FieldName)
		if !known {
			s.log.Debug("dropping undeclared field",
				zap.String("request_id", req.RequestID),
				zap.String("field", fv.FieldName))
			s.metrics.IncDropped()
			continue
		}
		df := &models.DeclaredField{
			IdentityID:    identity.ID,
			FieldID:       field.ID,
			DeclaredValue: fv.FieldValue,
		}
		if err := s.fields.Create(ctx, df); err != nil {
			return RegisterResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	s.metrics.IncRegistered()
	s.log.Info("identity registered",
		zap.String("request_id", req.RequestID),
		zap.Int64("user_id", user.ID))
	return RegisterResult{ID: sessionID, CheckSum: sum}, nil
}

// TestAccess reports whether checkSum is the checksum of requestID.
func (s *IdentityService) TestAccess(requestID, checkSum string) bool {
	ok := s.checksum.Verify(requestID, checkSum)
	s.metrics.ObserveAccessTest(ok)
	return ok
}

// ConfirmIdentity compares the declared fields of requestID with the values
// the provider confirmed and records the confirmation. When isAuthorized is
// false the caller is first logged in as the identity owner.
func (s *IdentityService) ConfirmIdentity(ctx context.Context, requestID string, isAuthorized bool) (res *ConfirmationResult, err error) {
	ctx, span := s.tracer.Start(ctx, "IdentityService.ConfirmIdentity",
		trace.WithAttributes(
			attribute.String("request_id", requestID),
			attribute.Bool("authorized", isAuthorized),
		))
	defer func() { endSpan(span, err) }()

	if !isAuthorized {
		owner, err := s.identities.FindOneBy(ctx, repository.AttrRequestID, requestID)
		if err != nil {
			return nil, lookupError(err, "request", requestID)
		}
		ctx, err = s.auth.LoginUsingID(ctx, owner.UserID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, fmt.Errorf("%w: owner of request %q", ErrUnauthenticated, requestID)
			}
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		s.metrics.IncAutoLogins()
		s.log.Warn("logged in identity owner without session",
			zap.String("request_id", requestID),
			zap.Int64("user_id", owner.UserID))
	}

	identity, err := s.identities.FindByWithFields(ctx, repository.AttrRequestID, requestID)
	if err != nil {
		return nil, lookupError(err, "request", requestID)
	}
	if isAuthorized {
		user, ok := s.auth.CurrentUser(ctx)
		if !ok {
			return nil, fmt.Errorf("%w: confirmation requires a logged in user", ErrUnauthenticated)
		}
		if user.ID != identity.UserID {
			return nil, fmt.Errorf("%w: identity with request %q", ErrNotFound, requestID)
		}
	}
	withResponse, err := s.identities.FindByWithResponse(ctx, repository.AttrRequestID, requestID)
	if err != nil {
		return nil, lookupError(err, "request", requestID)
	}
	dictionary, err := s.dictionary.GetFieldsList(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	var reference map[string]string
	if withResponse.Response != nil {
		reference = withResponse.Response.Values
	}
	results := s.similarity.Calculate(identity.Fields, dictionary, reference)
	for _, r := range results {
		s.metrics.ObserveFieldComparison(string(r.Status))
	}

	c := &models.Confirmation{RequestID: requestID, Reason: models.ConfirmationReasonVerify}
	if err := s.confirmations.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.metrics.IncConfirmations()

	return &ConfirmationResult{
		RequestID:        requestID,
		Fields:           results,
		ConfirmationDate: "",
		CheckSum:         s.checksum.Calculate(requestID),
		URLConfirm:       identity.URLConfirm,
		SessionToken:     session.TokenFromContext(ctx),
	}, nil
}

// Confirm returns the provider response linked to the identity registered
// with email. Only the owner of the identity may read it.
func (s *IdentityService) Confirm(ctx context.Context, email string) (resp *models.IdentityResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "IdentityService.Confirm")
	defer func() { endSpan(span, err) }()

	user, ok := s.auth.CurrentUser(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: confirm requires a logged in user", ErrUnauthenticated)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	identity, err := s.identities.FindByWithResponse(ctx, repository.AttrEmail, email)
	if err != nil {
		return nil, lookupError(err, "email", email)
	}
	if identity.UserID != user.ID {
		return nil, fmt.Errorf("%w: identity with email %q", ErrNotFound, email)
	}
	if identity.Response == nil {
		return nil, fmt.Errorf("%w: no provider response for %q", ErrNotFound, email)
	}
	return identity.Response, nil
}

// RecordResponse stores the values a provider confirmed for requestID,
// replacing any earlier response. The provider must present the request
// checksum.
func (s *IdentityService) RecordResponse(ctx context.Context, requestID string, in ProviderResponse) (resp *models.IdentityResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "IdentityService.RecordResponse",
		trace.WithAttributes(attribute.String("request_id", requestID)))
	defer func() { endSpan(span, err) }()

	if !s.TestAccess(requestID, in.CheckSum) {
		return nil, fmt.Errorf("%w: checksum mismatch for request %q", ErrUnauthenticated, requestID)
	}
	p, ok := s.providers.Get(in.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrValidation, in.Provider)
	}

	identity, err := s.identities.FindOneBy(ctx, repository.AttrRequestID, requestID)
	if err != nil {
		return nil, lookupError(err, "request", requestID)
	}

	values := make(models.ConfirmedValues, len(in.Values))
	for _, fv := range in.Values {
		values[fv.FieldName] = fv.FieldValue
	}
	status := in.Status
	if status == "" {
		status = DefaultResponseStatus
	}
	resp = &models.IdentityResponse{
		IdentityID: identity.ID,
		Provider:   p.Name,
		Status:     status,
		Values:     values,
	}
	if err := s.responses.Save(ctx, resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.log.Info("provider response recorded",
		zap.String("request_id", requestID),
		zap.String("provider", p.Name),
		zap.Int("values", len(values)))
	return resp, nil
}

// GetProvidersList returns the registered providers.
func (s *IdentityService) GetProvidersList() []provider.Descriptor {
	return s.providers.List()
}

func validateRequestID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: request_id is required", ErrValidation)
	case len(id) > checksum.MaxRequestIDLength:
		return fmt.Errorf("%w: request_id exceeds %d bytes", ErrValidation, checksum.MaxRequestIDLength)
	}
	return nil
}

func lookupError(err error, by, value string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("%w: identity with %s %q", ErrNotFound, by, value)
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
