// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const loginKey ctxKey = "login"

// RequireCertificate is a middleware that enforces mutual TLS authentication.
//
// It rejects requests without a client certificate. On success it stores the
// Common Name (CN) of the certificate in the request context, where handlers
// read it with GetLoginFromContext.
func RequireCertificate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cn := certificateCN(r)
		if cn == "" {
			http.Error(w, "no client certificate provided", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), loginKey, cn)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLoginFromContext extracts the login (Common Name from client certificate)
// from the request context. Returns an empty string if not found.
func GetLoginFromContext(ctx context.Context) string {
	val := ctx.Value(loginKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

func certificateCN(r *http.Request) string {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return ""
	}
	return r.TLS.PeerCertificates[0].Subject.CommonName
}
