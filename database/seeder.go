package database

import (
	"errors"
	"fmt"
	"log/slog"

	"admin-dashboard/config"
	"admin-dashboard/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RunSeeders creates the mock admin and gives it a first dashboard, which it
// returns.
func RunSeeders(db *gorm.DB) (*models.Dashboard, error) {
	admin, err := SeedAdmin(db, config.AdminUsername, config.AdminPassword, config.AdminEmail)
	if err != nil {
		return nil, err
	}
	return SeedDefaultDashboard(db, admin.ID)
}

// SeedAdmin inserts the admin account unless a user with that username exists.
func SeedAdmin(db *gorm.DB, username, password, email string) (*models.User, error) {
	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup admin %s: %w", username, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	user := models.User{
		Username: username,
		Password: string(hash),
		Name:     "Administrator",
		Email:    email,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("insert admin %s: %w", username, err)
	}
	slog.Info("seeded admin user", "username", username)
	return &user, nil
}

// SeedDefaultDashboard gives a user with no dashboards a "Main" dashboard
// holding the default menu item. It returns the user's default dashboard.
func SeedDefaultDashboard(db *gorm.DB, userID uint) (*models.Dashboard, error) {
	var link models.UserDashboard
	err := db.Where("user_id = ?", userID).Order("is_default desc, id").First(&link).Error
	if err == nil {
		var dashboard models.Dashboard
		if err := db.First(&dashboard, "id = ?", link.DashboardID).Error; err != nil {
			return nil, fmt.Errorf("load dashboard %s: %w", link.DashboardID, err)
		}
		return &dashboard, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup dashboards of user %d: %w", userID, err)
	}

	dashboard := models.Dashboard{Name: "Main", Plan: "free", IsActive: true}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dashboard).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.UserDashboard{
			UserID:      userID,
			DashboardID: dashboard.ID,
			Role:        models.DashboardRoleOwner,
			IsDefault:   true,
		}).Error; err != nil {
			return err
		}
		overview := models.MenuItem{
			Title:       models.DefaultMenuTitle,
			Icon:        "LayoutDashboard",
			URL:         models.MenuURL{Href: "/dashboard"},
			DashboardID: dashboard.ID,
			IsActive:    true,
		}
		if err := tx.Create(&overview).Error; err != nil {
			return err
		}
		dashboard.DefaultMenuID = &overview.ID
		return tx.Model(&dashboard).Update("default_menu_id", overview.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("seed default dashboard: %w", err)
	}
	slog.Info("seeded default dashboard", "dashboard_id", dashboard.ID, "user_id", userID)
	return &dashboard, nil
}
