package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admin-dashboard/cache"
	"admin-dashboard/config"
	"admin-dashboard/database"
	"admin-dashboard/idgen"
	"admin-dashboard/migration"
	"admin-dashboard/notify"
	"admin-dashboard/repositories"
	"admin-dashboard/routes"
	seed "admin-dashboard/seeder"
	"admin-dashboard/services"
	"admin-dashboard/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadConfig()

	if err := idgen.Init(config.SnowflakeNode); err != nil {
		log.Fatalf("Failed to init id generator: %v", err)
	}

	// Make sure the metadata database exists
	if err := database.EnsureDatabaseExists(config.DBName); err != nil {
		log.Fatalf("Failed to ensure database %s: %v", config.DBName, err)
	}

	pool := database.NewPool(nil)
	defer pool.CloseAll()

	mainDB, err := pool.Get(config.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migration.Migrate(mainDB); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}
	dashboard, err := database.RunSeeders(mainDB)
	if err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	if config.SeedSampleMenu {
		if err := seed.SeedSampleMenu(mainDB, dashboard.ID); err != nil {
			slog.Warn("sample menu not seeded", "dashboard_id", dashboard.ID, "error", err)
		}
	}

	menuRepo := repositories.NewMenuRepository(mainDB)
	dashboardRepo := repositories.NewDashboardRepository(mainDB)
	adminRepo := repositories.NewAdminRepository(mainDB)

	menuService := services.NewMenuService(menuRepo, dashboardRepo, cache.NewMenuCache(config.MenuCacheTTL))
	svc := routes.Services{
		Users:      services.NewUserService(repositories.NewUserRepository(mainDB), config.JWTSecret, time.Duration(config.JWTExpiration)*time.Second),
		Menus:      menuService,
		Dashboards: services.NewDashboardService(dashboardRepo, menuRepo, menuService),
		Admin:      services.NewDBAdminService(pool, database.OpenServer, adminRepo),
		Backups:    services.NewBackupService(adminRepo, notify.FromConfig(), services.BackupOptionsFromConfig()),
		Pool:       pool,
	}

	app := fiber.New(fiber.Config{
		AppName:      "admin-dashboard",
		ErrorHandler: utils.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	config.SetupCORS(app)
	routes.SetupRoutes(app, svc)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	port := config.APP_PORT
	slog.Info("server starting", "port", port, "driver", config.DBDriver, "auth", config.AuthEnabled)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
