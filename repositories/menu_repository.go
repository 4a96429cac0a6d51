package repositories

import (
	"context"
	"errors"
	"time"

	"admin-dashboard/menutree"
	"admin-dashboard/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrEmptyDashboardID = errors.New("dashboardId is required")

type MenuRepository struct {
	DB *gorm.DB
}

func NewMenuRepository(DB *gorm.DB) *MenuRepository {
	return &MenuRepository{DB: DB}
}

// WithTx returns a repository bound to tx.
func (r *MenuRepository) WithTx(tx *gorm.DB) *MenuRepository {
	return &MenuRepository{DB: tx}
}

// treeQuery walks the dashboard's parent pointers from its roots. Items whose
// parent is missing from the dashboard start a tree of their own. sort_path
// holds per-parent sibling ranks so that equal order_index values still give
// one pre-order; visited stops the walk on a corrupted parent cycle.
const treeQuery = `
WITH RECURSIVE items AS (
	SELECT m.*,
		CASE WHEN m.parent_id IS NOT NULL AND EXISTS (
			SELECT 1 FROM menu_items p WHERE p.id = m.parent_id AND p.dashboard_id = m.dashboard_id
		) THEN m.parent_id END AS effective_parent
	FROM menu_items m
	WHERE m.dashboard_id = @dashboard
),
ranked AS (
	SELECT i.*,
		ROW_NUMBER() OVER (PARTITION BY i.effective_parent ORDER BY i.order_index, i.created_at, i.id) AS sibling_rank
	FROM items i
),
tree AS (
	SELECT r.id, r.effective_parent,
		1 AS level,
		ARRAY[r.order_index::bigint] AS path,
		ARRAY[r.sibling_rank::bigint] AS sort_path,
		ARRAY[r.id] AS visited
	FROM ranked r
	WHERE r.effective_parent IS NULL
	UNION ALL
	SELECT c.id, c.effective_parent,
		t.level + 1,
		t.path || c.order_index::bigint,
		t.sort_path || c.sibling_rank::bigint,
		t.visited || c.id
	FROM ranked c
	JOIN tree t ON c.effective_parent = t.id
	WHERE NOT c.id = ANY(t.visited)
)
SELECT m.id, m.title, m.icon, m.url_href, m.url_target, m.url_rel,
	m.parent_id, m.dashboard_id, m.order_index, m.is_active, m.created_at, m.updated_at,
	t.level, t.path
FROM tree t
JOIN menu_items m ON m.id = t.id
ORDER BY t.sort_path`

type treeRow struct {
	ID          string
	Title       string
	Icon        string
	URLHref     string `gorm:"column:url_href"`
	URLTarget   string `gorm:"column:url_target"`
	URLRel      string `gorm:"column:url_rel"`
	ParentID    *string
	DashboardID string
	OrderIndex  int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Level       int
	Path        pq.Int64Array `gorm:"column:path"`
}

func (row treeRow) item() models.MenuItem {
	return models.MenuItem{
		ID:          row.ID,
		Title:       row.Title,
		Icon:        row.Icon,
		URL:         models.MenuURL{Href: row.URLHref, Target: row.URLTarget, Rel: row.URLRel},
		ParentID:    row.ParentID,
		DashboardID: row.DashboardID,
		OrderIndex:  row.OrderIndex,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Level:       row.Level,
		Path:        []int64(row.Path),
	}
}

// FetchTree returns the dashboard's reachable items in pre-order with Level
// and Path filled. PostgreSQL runs the recursive query; other drivers load the
// rows and order them in memory the same way.
func (r *MenuRepository) FetchTree(ctx context.Context, dashboardID string) ([]models.MenuItem, error) {
	if dashboardID == "" {
		return nil, ErrEmptyDashboardID
	}

	if r.DB.Dialector.Name() != "postgres" {
		items, err := r.ListByDashboard(ctx, dashboardID)
		if err != nil {
			return nil, err
		}
		return menutree.Annotate(items), nil
	}

	var rows []treeRow
	err := r.DB.WithContext(ctx).
		Raw(treeQuery, map[string]interface{}{"dashboard": dashboardID}).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]models.MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item())
	}
	return items, nil
}

// ListByDashboard returns the dashboard's rows in sibling order, unnested.
func (r *MenuRepository) ListByDashboard(ctx context.Context, dashboardID string) ([]models.MenuItem, error) {
	if dashboardID == "" {
		return nil, ErrEmptyDashboardID
	}
	items := make([]models.MenuItem, 0)
	err := r.DB.WithContext(ctx).
		Where("dashboard_id = ?", dashboardID).
		Order("order_index asc, created_at asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *MenuRepository) GetByID(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindRootByTitle looks up a root-level item of the dashboard by title.
func (r *MenuRepository) FindRootByTitle(ctx context.Context, dashboardID, title string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.DB.WithContext(ctx).
		Where("dashboard_id = ? AND title = ? AND parent_id IS NULL", dashboardID, title).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *MenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

// Update writes the given columns of one item. Keys are column names.
func (r *MenuRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PromoteChildren moves the direct children of id to the root level.
func (r *MenuRepository) PromoteChildren(ctx context.Context, id string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("parent_id = ?", id).
		Update("parent_id", nil)
	return res.RowsAffected, res.Error
}

// DeleteIDs removes the listed items and reports how many rows went away.
func (r *MenuRepository) DeleteIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&models.MenuItem{})
	return res.RowsAffected, res.Error
}

// DeleteByDashboard removes every item of a dashboard.
func (r *MenuRepository) DeleteByDashboard(ctx context.Context, dashboardID string) error {
	return r.DB.WithContext(ctx).Where("dashboard_id = ?", dashboardID).Delete(&models.MenuItem{}).Error
}
