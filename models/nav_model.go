package models

import (
	"time"

	"gorm.io/datatypes"
)

// NavSnapshot is the locally persisted grouped navigation of one dashboard.
type NavSnapshot struct {
	DashboardID string         `gorm:"primaryKey"`
	Payload     datatypes.JSON `gorm:"type:json"`
	SavedAt     time.Time
}
