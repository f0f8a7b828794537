// Package auth owns everything about "who is the current user": signup and
// login, signed session tokens, and resolving a token back into an identity.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized means the presented credential did not resolve to a user.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is a resolved user, as seen by the rest of the system.
type Identity struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type identityKeyType string

var identityCtxKey = identityKeyType("identity")

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// IdentityFromCtx returns the authenticated user. ok is false when the
// request carried no valid credential.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok
}
