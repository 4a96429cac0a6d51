package models

import (
	"time"

	"admin-dashboard/idgen"

	"gorm.io/gorm"
)

// MenuURL is stored as url_href / url_target / url_rel.
type MenuURL struct {
	Href   string `json:"href"`
	Target string `json:"target,omitempty"`
	Rel    string `json:"rel,omitempty"`
}

// MenuItem is one navigable entry of a dashboard sidebar. ParentID points at
// another item of the same dashboard; nil means root level.
type MenuItem struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Icon        string    `json:"icon"`
	URL         MenuURL   `json:"url" gorm:"embedded;embeddedPrefix:url_"`
	ParentID    *string   `json:"parentId" gorm:"type:uuid;index"`
	Parent      *MenuItem `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL"`
	DashboardID string    `json:"dashboardId" gorm:"type:uuid;not null;index"`
	OrderIndex  int       `json:"orderIndex" gorm:"not null"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Filled by the tree fetch, never persisted.
	Level int     `json:"level,omitempty" gorm:"-"`
	Path  []int64 `json:"path,omitempty" gorm:"-"`
}

func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = idgen.NewUUID()
	}
	return nil
}

// IsRoot reports whether the item has no declared parent.
func (m MenuItem) IsRoot() bool {
	return m.ParentID == nil || *m.ParentID == ""
}

// DefaultMenuTitle is the root item seeded into every new dashboard.
const DefaultMenuTitle = "Overview"
