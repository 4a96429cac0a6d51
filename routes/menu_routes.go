package routes

import (
	"admin-dashboard/config"
	"admin-dashboard/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupMenuRoutes(app *fiber.App, menuController *controllers.MenuController, auth fiber.Handler) {
	api := app.Group(config.MAIN_ROUTES+"/menu", auth)

	api.Get("/", menuController.GetMenu)
	api.Get("/tree", menuController.GetTree)
	api.Get("/nav", menuController.GetNav)
	api.Get("/item", menuController.GetItem)
	api.Post("/", menuController.CreateItem)
	api.Put("/", menuController.UpdateItem)
	api.Delete("/", menuController.DeleteItem)
	api.Post("/defaults", menuController.SeedDefaults)
}
