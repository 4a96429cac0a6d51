package models

import (
	"time"

	"admin-dashboard/idgen"

	"gorm.io/gorm"
)

type Dashboard struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string     `json:"name" gorm:"not null"`
	Logo          string     `json:"logo"`
	Plan          string     `json:"plan"`
	DefaultMenuID *string    `json:"defaultMenuId" gorm:"type:uuid"`
	IsPublic      bool       `json:"isPublic"`
	IsActive      bool       `json:"isActive"`
	MenuItems     []MenuItem `json:"-" gorm:"foreignKey:DashboardID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (d *Dashboard) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = idgen.NewUUID()
	}
	return nil
}

// UserDashboard links users to the dashboards they can open.
type UserDashboard struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"userId" gorm:"not null;uniqueIndex:idx_user_dashboard"`
	DashboardID string     `json:"dashboardId" gorm:"type:uuid;not null;uniqueIndex:idx_user_dashboard"`
	Role        string     `json:"role" gorm:"size:50;not null"`
	IsDefault   bool       `json:"isDefault"`
	User        *User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Dashboard   *Dashboard `json:"-" gorm:"foreignKey:DashboardID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"createdAt"`
}

const (
	DashboardRoleOwner  = "owner"
	DashboardRoleMember = "member"
)
