// Package middleware provides HTTP middleware for the bridge server.
package middleware

import (
	"context"
	"net/http"

	"github.com/alphabot/alphabot-client/internal/credentials"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for the signed-in user's subject.
	UserIDKey ContextKey = "user_id"
)

// Identity attaches the subject of the stored access token to the request
// context. Requests without a usable token pass through anonymously.
func Identity(creds credentials.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := creds.Token(r.Context())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := credentials.ParseClaims(token)
			if err != nil || claims.Subject == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests when no access token is stored, pointing
// the caller at the login route.
func RequireSession(creds credentials.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := creds.Token(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"session expired","redirect":"/login"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID gets user ID from context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}
