package routes

import (
	"admin-dashboard/config"
	"admin-dashboard/controllers"
	"admin-dashboard/database"
	"admin-dashboard/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupDatabaseRoutes(app *fiber.App, dbController *controllers.DatabaseController, pool *database.Pool, auth fiber.Handler) {
	api := app.Group(config.MAIN_ROUTES+"/databases", auth)

	api.Get("/", dbController.ListDatabases)
	api.Post("/", dbController.CreateDatabase)
	api.Get("/connections", dbController.Connections)
	api.Get("/history", dbController.History)
	api.Delete("/:name", dbController.DropDatabase)
	api.Post("/:name/backup", dbController.Backup)
	api.Get("/:name/backups", dbController.ListBackups)
	api.Post("/:name/restore", dbController.Restore)

	conn := middleware.RequireDBMiddleware(pool)
	api.Post("/:name/query", conn, dbController.RunQuery)
	api.Get("/:name/tables", conn, dbController.GetAllTables)
	api.Post("/:name/tables", conn, dbController.CreateTable)
	api.Delete("/:name/tables/:table", conn, dbController.DropTable)
	api.Get("/:name/tables/:table/columns", conn, dbController.Columns)
	api.Get("/:name/tables/:table/rows", conn, dbController.ListRows)
	api.Post("/:name/tables/:table/rows", conn, dbController.InsertRow)
	api.Put("/:name/tables/:table/rows", conn, dbController.UpdateRows)
	api.Delete("/:name/tables/:table/rows", conn, dbController.DeleteRows)
	api.Get("/:name/tables/:table/export", conn, dbController.ExportTable)
}
