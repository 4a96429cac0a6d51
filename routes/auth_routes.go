package routes

import (
	"admin-dashboard/config"
	"admin-dashboard/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authController *controllers.AuthController, auth fiber.Handler) {
	api := app.Group(config.MAIN_ROUTES + "/auth")
	api.Post("/login", authController.Login)
	api.Get("/me", auth, authController.Me)
}
