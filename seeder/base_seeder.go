// Package seed fills a dashboard with a sample navigation tree for local
// development.
package seed

import (
	"errors"
	"fmt"

	"admin-dashboard/models"

	"gorm.io/gorm"
)

type sampleItem struct {
	Title    string
	Icon     string
	Href     string
	Order    int
	Children []sampleItem
}

var sampleMenu = []sampleItem{
	{Title: "Databases", Icon: "Database", Href: "/databases", Order: 1, Children: []sampleItem{
		{Title: "Tables", Icon: "Table", Href: "/databases/tables", Order: 0},
		{Title: "Query", Icon: "Terminal", Href: "/databases/query", Order: 1},
		{Title: "Backups", Icon: "Archive", Href: "/databases/backups", Order: 2},
	}},
	{Title: "Settings", Icon: "Settings", Href: "/settings", Order: 2, Children: []sampleItem{
		{Title: "Dashboards", Icon: "LayoutGrid", Href: "/settings/dashboards", Order: 0},
		{Title: "Menu", Icon: "ListTree", Href: "/settings/menu", Order: 1},
	}},
}

// SeedSampleMenu adds the sample items to dashboardID. Items are matched by
// title and parent, so running it twice changes nothing.
func SeedSampleMenu(db *gorm.DB, dashboardID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return seedLevel(tx, dashboardID, nil, sampleMenu)
	})
}

func seedLevel(db *gorm.DB, dashboardID string, parentID *string, items []sampleItem) error {
	for _, s := range items {
		var existing models.MenuItem
		q := db.Where("dashboard_id = ? AND title = ?", dashboardID, s.Title)
		if parentID == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parentID)
		}
		err := q.First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existing = models.MenuItem{
				Title:       s.Title,
				Icon:        s.Icon,
				URL:         models.MenuURL{Href: s.Href},
				ParentID:    parentID,
				DashboardID: dashboardID,
				OrderIndex:  s.Order,
				IsActive:    true,
			}
			if err := db.Create(&existing).Error; err != nil {
				return fmt.Errorf("seed menu item %s: %w", s.Title, err)
			}
		} else if err != nil {
			return err
		}

		id := existing.ID
		if err := seedLevel(db, dashboardID, &id, s.Children); err != nil {
			return err
		}
	}
	return nil
}
