package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/session"
)

type fakeUsers struct {
	FindUserByLoginFunc func(ctx context.Context, login string) (models.User, error)
}

func (f *fakeUsers) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	return f.FindUserByLoginFunc(ctx, login)
}

func newIssuer(t *testing.T) *session.TokenIssuer {
	t.Helper()
	issuer, err := session.NewTokenIssuer("secret", "test", time.Minute)
	require.NoError(t, err)
	return issuer
}

func noUsers() *fakeUsers {
	return &fakeUsers{FindUserByLoginFunc: func(context.Context, string) (models.User, error) {
		return models.User{}, errors.New("not found")
	}}
}

func TestAuthenticate_BearerToken(t *testing.T) {
	issuer := newIssuer(t)
	token, err := issuer.Issue(models.User{ID: 7, Login: "alice"})
	require.NoError(t, err)

	dummy := &dummyHandler{}
	h := Authenticate(issuer, noUsers(), zap.NewNop())(dummy)
	req := httptest.NewRequest(http.MethodGet, "/api/identities/abc123/confirmation", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, dummy.called)
	u, ok := session.UserFromContext(dummy.ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), u.ID)
}

func TestAuthenticate_InvalidTokenPassesAnonymously(t *testing.T) {
	dummy := &dummyHandler{}
	h := Authenticate(newIssuer(t), noUsers(), zap.NewNop())(dummy)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	req.TLS = tlsState("alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, dummy.called)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := session.UserFromContext(dummy.ctx)
	assert.False(t, ok)
}

func TestAuthenticate_CertificateFallback(t *testing.T) {
	users := &fakeUsers{FindUserByLoginFunc: func(_ context.Context, login string) (models.User, error) {
		return models.User{ID: 3, Login: login}, nil
	}}
	dummy := &dummyHandler{}
	h := Authenticate(newIssuer(t), users, zap.NewNop())(dummy)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = tlsState("carol")
	h.ServeHTTP(httptest.NewRecorder(), req)

	u, ok := session.UserFromContext(dummy.ctx)
	require.True(t, ok)
	assert.Equal(t, "carol", u.Login)
	assert.Equal(t, int64(3), u.ID)
}

func TestAuthenticate_UnknownCertificateSubject(t *testing.T) {
	dummy := &dummyHandler{}
	h := Authenticate(newIssuer(t), noUsers(), zap.NewNop())(dummy)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = tlsState("mallory")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, dummy.called)
	_, ok := session.UserFromContext(dummy.ctx)
	assert.False(t, ok)
}

func TestWithRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buf), zap.InfoLevel)
	log := zap.New(core)

	h := chiMiddleware.RequestID(WithRequestLogging(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/providers", nil))

	out := buf.String()
	assert.Contains(t, out, `"path":"/api/providers"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id"`)
}
