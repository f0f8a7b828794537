package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenResolver resolves a session token into an identity. *Service
// implements it; subscription sessions and the HTTP middleware share it.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// NewFiberMiddleware puts the resolved identity of the request's bearer
// token into the request context. Requests without a valid token pass
// through unauthenticated; each operation decides whether that is an error.
func NewFiberMiddleware(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || token == "" {
			return c.Next()
		}

		identity, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, ErrUnauthorized) {
				slog.Error("can't resolve session token", "err", err)
			}
			return c.Next()
		}

		c.SetUserContext(WithIdentity(c.UserContext(), identity))
		return c.Next()
	}
}
