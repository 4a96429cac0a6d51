package models

import (
	"time"

	"admin-dashboard/idgen"
	"admin-dashboard/types"

	"gorm.io/gorm"
)

// AdminHistory is the audit trail of database administration actions.
type AdminHistory struct {
	ID        types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Action    string            `json:"action" gorm:"size:50;index"`
	Target    string            `json:"target"`
	Status    string            `json:"status" gorm:"size:20"`
	Detail    string            `json:"detail"`
	CreatedBy uint              `json:"created_by"`
	CreatedAt time.Time         `json:"created_at"`
}

func (h *AdminHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == 0 {
		h.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return nil
}
