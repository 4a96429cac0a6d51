package services_test

import (
	"testing"
	"time"

	"admin-dashboard/cache"
	"admin-dashboard/repositories"
	"admin-dashboard/services"
	"admin-dashboard/testutil"

	"gorm.io/gorm"
)

type menuFixture struct {
	db         *gorm.DB
	cache      *cache.MenuCache
	menus      *services.MenuService
	dashboards *services.DashboardService
}

func newMenuFixture(t *testing.T) menuFixture {
	t.Helper()
	return newMenuFixtureOn(t, testutil.NewTestDB(t))
}

func newMenuFixtureOn(t *testing.T, db *gorm.DB) menuFixture {
	t.Helper()

	c := cache.NewMenuCache(time.Hour)
	menuRepo := repositories.NewMenuRepository(db)
	dashRepo := repositories.NewDashboardRepository(db)
	menus := services.NewMenuService(menuRepo, dashRepo, c)
	return menuFixture{
		db:         db,
		cache:      c,
		menus:      menus,
		dashboards: services.NewDashboardService(dashRepo, menuRepo, menus),
	}
}

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }
