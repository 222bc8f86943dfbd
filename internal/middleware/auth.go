// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atinyakov/NoteSync/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "jwt"

// WithAuth returns a middleware that enforces cookie-session authentication.
//
// It reads the session JWT from the request cookie, verifies the HS256
// signature and expiry against secret, and stores the token's subject in the
// request context as the authenticated Principal. Requests without a cookie
// get 401; requests with an invalid or expired token get 403.
func WithAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid || claims.Subject == "" {
				http.Error(w, "invalid or expired session", http.StatusForbidden)
				return
			}

			ctx := WithPrincipal(r.Context(), models.Principal(claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPrincipal returns a context carrying p as the authenticated Principal.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, userKey, p)
}

// GetPrincipalFromContext extracts the authenticated Principal from the
// request context. Returns an empty Principal if not found.
func GetPrincipalFromContext(ctx context.Context) models.Principal {
	val := ctx.Value(userKey)
	if p, ok := val.(models.Principal); ok {
		return p
	}
	return ""
}
