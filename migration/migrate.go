package migration

import (
	"admin-dashboard/models"

	"gorm.io/gorm"
)

// Migrate creates the application's own tables in the metadata database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Dashboard{},
		&models.MenuItem{},
		&models.UserDashboard{},
		&models.ManagedDatabase{},
		&models.Backup{},
		&models.AdminHistory{},
	)
}

// MigrateSnapshots prepares the local store used by the menu client.
func MigrateSnapshots(db *gorm.DB) error {
	return db.AutoMigrate(&models.NavSnapshot{})
}
