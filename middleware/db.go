package middleware

import (
	"admin-dashboard/database"
	"admin-dashboard/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireDBMiddleware rejects a bad :name route parameter and makes sure the
// pool can open that database before the handler runs. Handlers reach the
// connection through the pool again; Get returns the cached one.
func RequireDBMiddleware(pool *database.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbName := c.Params("name")
		if !database.IsValidName(dbName) {
			return utils.Fail(c, fiber.StatusBadRequest, "Invalid database name")
		}

		if _, err := pool.Get(dbName); err != nil {
			return utils.Fail(c, fiber.StatusBadGateway, "error connecting to database: "+err.Error())
		}
		return c.Next()
	}
}
