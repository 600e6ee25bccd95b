package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/session"
)

// TokenValidator validates session tokens.
type TokenValidator interface {
	Validate(token string) (*session.Claims, error)
}

// UserLookup resolves users by login.
type UserLookup interface {
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// Authenticate resolves the caller from a Bearer session token or, when no
// token is sent, from the client certificate CN. Unresolved callers pass
// through anonymously; operations that need a user reject them later.
func Authenticate(tokens TokenValidator, users UserLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if raw, ok := bearerToken(r); ok {
				claims, err := tokens.Validate(raw)
				if err != nil {
					log.Debug("rejected session token", zap.Error(err))
				} else {
					ctx = session.WithUser(ctx, models.User{ID: claims.UserID, Login: claims.Login})
				}
			} else if cn := certificateCN(r); cn != "" {
				user, err := users.FindUserByLogin(ctx, cn)
				if err != nil {
					log.Debug("unknown certificate subject", zap.String("cn", cn), zap.Error(err))
				} else {
					ctx = session.WithUser(ctx, user)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
