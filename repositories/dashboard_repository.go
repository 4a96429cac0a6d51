package repositories

import (
	"context"

	"admin-dashboard/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DashboardRepository struct {
	DB *gorm.DB
}

func NewDashboardRepository(DB *gorm.DB) *DashboardRepository {
	return &DashboardRepository{DB: DB}
}

func (r *DashboardRepository) WithTx(tx *gorm.DB) *DashboardRepository {
	return &DashboardRepository{DB: tx}
}

func (r *DashboardRepository) GetAll(ctx context.Context) ([]models.Dashboard, error) {
	dashboards := make([]models.Dashboard, 0)
	err := r.DB.WithContext(ctx).Order("created_at asc, id asc").Find(&dashboards).Error
	return dashboards, err
}

func (r *DashboardRepository) GetByID(ctx context.Context, id string) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&dashboard).Error; err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// LockByID reads the dashboard with FOR UPDATE so concurrent writers to its
// menu queue behind the caller's transaction. SQLite ignores the clause and
// serializes writers on its own.
func (r *DashboardRepository) LockByID(ctx context.Context, id string) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&dashboard).Error
	if err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// ClearDefaultMenu unsets default_menu_id on dashboards pointing at any of ids.
func (r *DashboardRepository) ClearDefaultMenu(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).
		Model(&models.Dashboard{}).
		Where("default_menu_id IN ?", ids).
		Update("default_menu_id", nil).Error
}

// UserDashboardRow is a dashboard as seen by one linked user.
type UserDashboardRow struct {
	models.Dashboard
	Role      string `json:"role"`
	IsDefault bool   `json:"isDefault"`
}

// GetByUser lists the dashboards linked to userID, default first.
func (r *DashboardRepository) GetByUser(ctx context.Context, userID uint) ([]UserDashboardRow, error) {
	rows := make([]UserDashboardRow, 0)
	err := r.DB.WithContext(ctx).
		Table("dashboards").
		Select("dashboards.*, user_dashboards.role, user_dashboards.is_default").
		Joins("JOIN user_dashboards ON user_dashboards.dashboard_id = dashboards.id").
		Where("user_dashboards.user_id = ?", userID).
		Order("user_dashboards.is_default desc, dashboards.created_at asc").
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardRepository) Create(ctx context.Context, dashboard *models.Dashboard) error {
	return r.DB.WithContext(ctx).Create(dashboard).Error
}

// Update writes the given columns. Keys are column names.
func (r *DashboardRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&models.Dashboard{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DashboardRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Dashboard{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Link attaches a user to a dashboard. A default link clears the user's
// previous default.
func (r *DashboardRepository) Link(ctx context.Context, link *models.UserDashboard) error {
	db := r.DB.WithContext(ctx)
	if link.IsDefault {
		if err := db.Model(&models.UserDashboard{}).
			Where("user_id = ? AND is_default = ?", link.UserID, true).
			Update("is_default", false).Error; err != nil {
			return err
		}
	}
	return db.Create(link).Error
}

func (r *DashboardRepository) Unlink(ctx context.Context, dashboardID string) error {
	return r.DB.WithContext(ctx).Where("dashboard_id = ?", dashboardID).Delete(&models.UserDashboard{}).Error
}
