package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/apperr"
	"github.com/hongminglow/reveal-be/internal/auth"
	"github.com/hongminglow/reveal-be/internal/http/respond"
	"github.com/hongminglow/reveal-be/internal/models"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// RequireUser rejects requests without a valid bearer token with 401 and
// injects the resolved user into the request context otherwise.
func RequireUser(authn Authenticator, log *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Error(w, log, apperr.New(apperr.Unauthorized, "token missing or invalid"))
				return
			}
			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				respond.Error(w, log, err)
				return
			}
			next(w, r.WithContext(auth.WithUser(r.Context(), user, token)))
		}
	}
}
