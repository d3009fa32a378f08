package middleware

import (
	"context"
	"strings"

	"hirocks/internal/auth"
	"hirocks/models"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier resolves a bearer token to the caller it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Caller, error)
}

// Authenticate resolves the caller from the Authorization header. Requests
// without the header continue anonymously; a malformed, expired or revoked
// token is rejected with 401.
func Authenticate(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthenticatedError())
		}

		caller, err := verifier.Verify(c.UserContext(), parts[1])
		if err != nil {
			Logger.DebugContext(c.UserContext(), "rejected bearer token", "error", err)
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthenticatedError())
		}

		ctx := auth.WithCaller(c.UserContext(), caller)
		ctx = WithUserID(ctx, caller.UserID)
		c.SetUserContext(ctx)
		c.Locals("userID", caller.UserID)

		return c.Next()
	}
}

// AuthRequired rejects anonymous requests. It must run after Authenticate.
func AuthRequired(c *fiber.Ctx) error {
	if _, ok := auth.CallerFrom(c.UserContext()); !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthenticatedError())
	}
	return c.Next()
}
