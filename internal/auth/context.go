package auth

import (
	"context"

	"github.com/hongminglow/reveal-be/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// WithUser stores the authenticated user and the token it presented.
func WithUser(ctx context.Context, user models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}
