package routes

import (
	"admin-dashboard/config"
	"admin-dashboard/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupDashboardRoutes(app *fiber.App, dashboardController *controllers.DashboardController, auth fiber.Handler) {
	api := app.Group(config.MAIN_ROUTES+"/dashboards", auth)

	api.Get("/", dashboardController.GetDashboards)
	api.Post("/", dashboardController.CreateDashboard)
	api.Put("/", dashboardController.UpdateDashboard)
	api.Delete("/", dashboardController.DeleteDashboard)
}
