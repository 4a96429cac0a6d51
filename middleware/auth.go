package middleware

import (
	"log/slog"
	"strings"

	"admin-dashboard/utils"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "userID"

// TokenParser resolves a bearer token to the id of the user it was issued to.
type TokenParser interface {
	ParseToken(token string) (uint, error)
}

// AuthMiddleware requires "Authorization: Bearer <jwt>" and stores the user id
// in the request locals. With enabled false every request passes untouched.
func AuthMiddleware(parser TokenParser, enabled bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !enabled {
			return ctx.Next()
		}

		authHeader := ctx.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.Fail(ctx, fiber.StatusUnauthorized, "Missing Authorization header")
		}

		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
			return utils.Fail(ctx, fiber.StatusUnauthorized, "Invalid Authorization header format")
		}

		userID, err := parser.ParseToken(tokenParts[1])
		if err != nil {
			slog.Debug("rejected token", "path", ctx.Path(), "error", err)
			return utils.Fail(ctx, fiber.StatusUnauthorized, "Unauthorized: Invalid token")
		}

		ctx.Locals(userIDKey, userID)
		return ctx.Next()
	}
}

// UserID returns the authenticated user id, or 0 when auth is disabled.
func UserID(ctx *fiber.Ctx) uint {
	id, _ := ctx.Locals(userIDKey).(uint)
	return id
}
