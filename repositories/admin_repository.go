package repositories

import (
	"context"
	"errors"

	"admin-dashboard/models"

	"gorm.io/gorm"
)

// AdminRepository stores the bookkeeping of the database tooling: registered
// databases, backup runs and the action history.
type AdminRepository struct {
	DB *gorm.DB
}

func NewAdminRepository(DB *gorm.DB) *AdminRepository {
	return &AdminRepository{DB: DB}
}

func (r *AdminRepository) ListDatabases(ctx context.Context) ([]models.ManagedDatabase, error) {
	dbs := make([]models.ManagedDatabase, 0)
	err := r.DB.WithContext(ctx).Order("db_name asc").Find(&dbs).Error
	return dbs, err
}

// RegisterDatabase records dbName, reviving a soft-deleted row if one exists.
func (r *AdminRepository) RegisterDatabase(ctx context.Context, dbName string, createdBy uint) (*models.ManagedDatabase, error) {
	db := r.DB.WithContext(ctx)

	var existing models.ManagedDatabase
	err := db.Unscoped().Where("db_name = ?", dbName).First(&existing).Error
	if err == nil {
		existing.DeletedAt = gorm.DeletedAt{}
		existing.IsActive = true
		existing.CreatedBy = createdBy
		if err := db.Unscoped().Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	managed := models.ManagedDatabase{DbName: dbName, IsActive: true, CreatedBy: createdBy}
	if err := db.Create(&managed).Error; err != nil {
		return nil, err
	}
	return &managed, nil
}

func (r *AdminRepository) UnregisterDatabase(ctx context.Context, dbName string) error {
	return r.DB.WithContext(ctx).Where("db_name = ?", dbName).Delete(&models.ManagedDatabase{}).Error
}

func (r *AdminRepository) CreateBackup(ctx context.Context, b *models.Backup) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

// ListBackups returns the runs recorded for dbName, newest first.
func (r *AdminRepository) ListBackups(ctx context.Context, dbName string) ([]models.Backup, error) {
	backups := make([]models.Backup, 0)
	err := r.DB.WithContext(ctx).
		Where("db_name = ?", dbName).
		Order("created_at desc, id desc").
		Find(&backups).Error
	return backups, err
}

func (r *AdminRepository) Record(ctx context.Context, h *models.AdminHistory) error {
	return r.DB.WithContext(ctx).Create(h).Error
}

func (r *AdminRepository) History(ctx context.Context, limit int) ([]models.AdminHistory, error) {
	history := make([]models.AdminHistory, 0)
	q := r.DB.WithContext(ctx).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&history).Error
	return history, err
}
