package navstate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"admin-dashboard/menutree"
	"admin-dashboard/migration"
	"admin-dashboard/models"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SnapshotStore keeps the last grouped navigation of each dashboard so a
// client can render something while the server is unreachable.
type SnapshotStore interface {
	Save(ctx context.Context, dashboardID string, nav menutree.NavMainData) error
	Load(ctx context.Context, dashboardID string) (menutree.NavMainData, time.Time, bool, error)
}

type SQLiteSnapshotStore struct {
	db *gorm.DB
}

// OpenSQLiteSnapshotStore opens (creating if needed) the snapshot file at path.
func OpenSQLiteSnapshotStore(path string) (*SQLiteSnapshotStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	return NewSQLiteSnapshotStore(db)
}

func NewSQLiteSnapshotStore(db *gorm.DB) (*SQLiteSnapshotStore, error) {
	if err := migration.MigrateSnapshots(db); err != nil {
		return nil, err
	}
	return &SQLiteSnapshotStore{db: db}, nil
}

// Save replaces the dashboard's snapshot.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, dashboardID string, nav menutree.NavMainData) error {
	payload, err := json.Marshal(nav)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(&models.NavSnapshot{
		DashboardID: dashboardID,
		Payload:     datatypes.JSON(payload),
		SavedAt:     time.Now(),
	}).Error
}

// Load returns the stored snapshot and when it was saved; ok is false when the
// dashboard has none.
func (s *SQLiteSnapshotStore) Load(ctx context.Context, dashboardID string) (menutree.NavMainData, time.Time, bool, error) {
	var snap models.NavSnapshot
	err := s.db.WithContext(ctx).Where("dashboard_id = ?", dashboardID).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return menutree.NavMainData{}, time.Time{}, false, nil
	}
	if err != nil {
		return menutree.NavMainData{}, time.Time{}, false, err
	}

	var nav menutree.NavMainData
	if err := json.Unmarshal(snap.Payload, &nav); err != nil {
		return menutree.NavMainData{}, time.Time{}, false, err
	}
	return nav, snap.SavedAt, true, nil
}

func (s *SQLiteSnapshotStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
