package routes

import (
	"admin-dashboard/config"
	"admin-dashboard/controllers"
	"admin-dashboard/database"
	"admin-dashboard/middleware"
	"admin-dashboard/services"

	"github.com/gofiber/fiber/v2"
)

// Services is everything the HTTP layer needs.
type Services struct {
	Users      *services.UserService
	Menus      *services.MenuService
	Dashboards *services.DashboardService
	Admin      *services.DBAdminService
	Backups    *services.BackupService
	Pool       *database.Pool
}

// SetupRoutes mounts every route under config.MAIN_ROUTES.
func SetupRoutes(app *fiber.App, svc Services) {
	auth := middleware.AuthMiddleware(svc.Users, config.AuthEnabled)

	app.Get(config.MAIN_ROUTES+"/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"status": "ok"}})
	})

	SetupAuthRoutes(app, controllers.NewAuthController(svc.Users), auth)
	SetupMenuRoutes(app, controllers.NewMenuController(svc.Menus), auth)
	SetupDashboardRoutes(app, controllers.NewDashboardController(svc.Dashboards), auth)
	SetupDatabaseRoutes(app, controllers.NewDatabaseController(svc.Admin, svc.Backups), svc.Pool, auth)
}
