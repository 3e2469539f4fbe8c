package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the values stored under them.
type contextKey string

const clientIDKey contextKey = "clientID"

// RequireAuth enforces bearer-token authentication on protected routes.
//
// It reads the token from the Authorization header ("Bearer <jwt>"),
// validates it, and stores the client ID in the request context. Missing or
// invalid tokens stop the chain with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				unauthorized(w)
				return
			}

			clientID, err := tokens.Validate(raw)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIDFromContext returns the authenticated client ID, if any.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error":"unauthorized","message":"valid bearer token required"}`, http.StatusUnauthorized)
}
