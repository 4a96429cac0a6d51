package models

import (
	"time"

	"admin-dashboard/idgen"
	"admin-dashboard/types"

	"gorm.io/gorm"
)

// ManagedDatabase records a database created through the admin tooling.
type ManagedDatabase struct {
	gorm.Model
	DbName    string `json:"db_name" gorm:"unique"`
	IsActive  bool   `json:"is_active"`
	CreatedBy uint   `json:"created_by"`
}

const (
	BackupKindBackup  = "backup"
	BackupKindRestore = "restore"

	BackupStatusCompleted = "completed"
	BackupStatusFailed    = "failed"
)

// Backup is one pg_dump or psql run.
type Backup struct {
	ID         types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Kind       string            `json:"kind" gorm:"size:20;not null"`
	DbName     string            `json:"db_name" gorm:"index;not null"`
	FileName   string            `json:"file_name"`
	SizeBytes  int64             `json:"size_bytes"`
	Status     string            `json:"status" gorm:"size:20"`
	Error      string            `json:"error,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	CreatedBy  uint              `json:"created_by"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (b *Backup) BeforeCreate(tx *gorm.DB) error {
	if b.ID == 0 {
		b.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return nil
}
