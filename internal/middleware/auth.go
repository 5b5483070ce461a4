// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/slashmsg/internal/repository"
	"github.com/atinyakov/slashmsg/internal/service"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator resolves a bearer token to the account it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*repository.UserRecord, error)
}

// BearerAuth is a middleware that enforces bearer-token authentication.
//
// It extracts the token from the Authorization header, resolves it to
// an account, and stores the account in the request context so it can
// be used downstream as the authenticated user. Requests without a
// valid token are rejected with 401; suspended accounts with 403.
func BearerAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				detail(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			rec, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, service.ErrSuspended) {
					status = http.StatusForbidden
				}
				detail(w, status, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userKey, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated account from the request
// context. Returns nil if not found.
func UserFromContext(ctx context.Context) *repository.UserRecord {
	val := ctx.Value(userKey)
	if rec, ok := val.(*repository.UserRecord); ok {
		return rec
	}
	return nil
}

func detail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}
