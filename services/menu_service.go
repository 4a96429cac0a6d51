package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"admin-dashboard/cache"
	"admin-dashboard/menutree"
	"admin-dashboard/models"
	"admin-dashboard/repositories"
	"admin-dashboard/types"

	"gorm.io/gorm"
)

type MenuService struct {
	repo       *repositories.MenuRepository
	dashboards *repositories.DashboardRepository
	cache      *cache.MenuCache
}

func NewMenuService(repo *repositories.MenuRepository, dashboards *repositories.DashboardRepository, c *cache.MenuCache) *MenuService {
	return &MenuService{repo: repo, dashboards: dashboards, cache: c}
}

// Invalidate drops the cached menu of a dashboard. Every write path ends here.
func (s *MenuService) Invalidate(dashboardID string) {
	s.cache.Invalidate(dashboardID)
}

// GetItems returns the dashboard's items in tree pre-order, served from the
// cache while fresh.
func (s *MenuService) GetItems(ctx context.Context, dashboardID string) ([]models.MenuItem, error) {
	if strings.TrimSpace(dashboardID) == "" {
		return nil, validationErrorf("dashboardId is required")
	}
	if entry, ok := s.cache.GetFresh(dashboardID); ok {
		return entry.Items, nil
	}

	items, err := s.repo.FetchTree(ctx, dashboardID)
	if err != nil {
		slog.Error("fetch menu tree", "dashboard_id", dashboardID, "error", err)
		return nil, err
	}
	s.cache.Set(dashboardID, items)
	return items, nil
}

// GetTree returns the nested forest. activeOnly hides inactive items along
// with everything below them.
func (s *MenuService) GetTree(ctx context.Context, dashboardID string, activeOnly bool) ([]*menutree.Node, error) {
	forest, ok := s.cachedTree(dashboardID)
	if !ok {
		items, err := s.GetItems(ctx, dashboardID)
		if err != nil {
			return nil, err
		}
		forest = s.build(dashboardID, items)
		s.cache.SetTree(dashboardID, forest)
	}
	if activeOnly {
		return menutree.PruneInactive(forest), nil
	}
	return forest, nil
}

// GetFlat returns the items without nesting; with activeOnly, inactive
// subtrees are left out.
func (s *MenuService) GetFlat(ctx context.Context, dashboardID string, activeOnly bool) ([]models.MenuItem, error) {
	if !activeOnly {
		return s.GetItems(ctx, dashboardID)
	}
	forest, err := s.GetTree(ctx, dashboardID, true)
	if err != nil {
		return nil, err
	}
	return menutree.Flatten(forest), nil
}

// GetNav returns the grouped sidebar representation.
func (s *MenuService) GetNav(ctx context.Context, dashboardID string) (menutree.NavMainData, error) {
	forest, err := s.GetTree(ctx, dashboardID, false)
	if err != nil {
		return menutree.NavMainData{}, err
	}
	return menutree.NavMain(dashboardID, forest), nil
}

func (s *MenuService) cachedTree(dashboardID string) ([]*menutree.Node, bool) {
	if _, fresh := s.cache.GetFresh(dashboardID); !fresh {
		return nil, false
	}
	return s.cache.GetTree(dashboardID)
}

func (s *MenuService) build(dashboardID string, items []models.MenuItem) []*menutree.Node {
	report := menutree.BuildTreeReport(items)
	if len(report.Orphans) > 0 {
		slog.Warn("menu items promoted to root, parent missing",
			"dashboard_id", dashboardID, "orphans", report.Orphans)
	}
	if len(report.Unreachable) > 0 {
		slog.Warn("menu items dropped, parent chain loops",
			"dashboard_id", dashboardID, "items", report.Unreachable)
	}
	if len(report.Duplicates) > 0 {
		slog.Warn("duplicate menu item ids", "dashboard_id", dashboardID, "ids", report.Duplicates)
	}
	return report.Roots
}

func (s *MenuService) GetItem(ctx context.Context, id string) (*models.MenuItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validationErrorf("id is required")
	}
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "menu item", id)
	}
	return item, nil
}

type CreateMenuItemInput struct {
	DashboardID string          `json:"dashboardId" validate:"required"`
	Title       string          `json:"title" validate:"required,max=255"`
	Icon        string          `json:"icon" validate:"max=100"`
	Href        string          `json:"href"`
	Target      string          `json:"target"`
	Rel         string          `json:"rel"`
	URL         *models.MenuURL `json:"url"`
	ParentID    *string         `json:"parentId"`
	OrderIndex  *int            `json:"orderIndex"`
	IsActive    *bool           `json:"isActive"`
}

func (in CreateMenuItemInput) menuURL() models.MenuURL {
	if in.URL != nil {
		return *in.URL
	}
	return models.MenuURL{Href: in.Href, Target: in.Target, Rel: in.Rel}
}

// CreateItem inserts a menu item. Without an orderIndex it goes after its
// last sibling; a parent must belong to the same dashboard.
func (s *MenuService) CreateItem(ctx context.Context, in CreateMenuItemInput) (*models.MenuItem, error) {
	if strings.TrimSpace(in.DashboardID) == "" {
		return nil, validationErrorf("dashboardId is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationErrorf("title is required")
	}
	if _, err := s.dashboards.GetByID(ctx, in.DashboardID); err != nil {
		return nil, mapNotFound(err, "dashboard", in.DashboardID)
	}

	existing, err := s.repo.ListByDashboard(ctx, in.DashboardID)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if in.ParentID != nil && *in.ParentID != "" {
		if !containsID(existing, *in.ParentID) {
			return nil, validationErrorf("parent %s is not an item of dashboard %s", *in.ParentID, in.DashboardID)
		}
		p := *in.ParentID
		parentID = &p
	}

	order := 0
	if in.OrderIndex != nil {
		order = *in.OrderIndex
	} else {
		order = nextOrderIndex(existing, parentID)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	item := models.MenuItem{
		Title:       strings.TrimSpace(in.Title),
		Icon:        in.Icon,
		URL:         in.menuURL(),
		ParentID:    parentID,
		DashboardID: in.DashboardID,
		OrderIndex:  order,
		IsActive:    active,
	}
	if err := s.repo.Create(ctx, &item); err != nil {
		slog.Error("create menu item", "dashboard_id", in.DashboardID, "title", in.Title, "error", err)
		return nil, err
	}
	s.Invalidate(in.DashboardID)
	return &item, nil
}

type UpdateMenuItemInput struct {
	ID         string               `json:"id" validate:"required"`
	Title      *string              `json:"title" validate:"omitempty,max=255"`
	Icon       *string              `json:"icon"`
	Href       *string              `json:"href"`
	URL        *models.MenuURL      `json:"url"`
	ParentID   types.NullableString `json:"parentId"`
	OrderIndex *int                 `json:"orderIndex"`
	IsActive   *bool                `json:"isActive"`
}

// UpdateItem applies the fields present in the input. parentId null moves the
// item to the root level; an absent parentId keeps the current parent.
func (s *MenuService) UpdateItem(ctx context.Context, in UpdateMenuItemInput) (*models.MenuItem, error) {
	current, err := s.GetItem(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, validationErrorf("title cannot be empty")
		}
		fields["title"] = title
	}
	if in.Icon != nil {
		fields["icon"] = *in.Icon
	}
	if in.URL != nil {
		fields["url_href"] = in.URL.Href
		fields["url_target"] = in.URL.Target
		fields["url_rel"] = in.URL.Rel
	} else if in.Href != nil {
		fields["url_href"] = *in.Href
	}
	if in.OrderIndex != nil {
		fields["order_index"] = *in.OrderIndex
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.ParentID.Set {
		parent := in.ParentID.Ptr()
		if parent != nil && *parent == "" {
			parent = nil
		}
		if parent != nil {
			items, err := s.repo.ListByDashboard(ctx, current.DashboardID)
			if err != nil {
				return nil, err
			}
			if !containsID(items, *parent) {
				return nil, validationErrorf("parent %s is not an item of dashboard %s", *parent, current.DashboardID)
			}
			if menutree.WouldCycle(items, current.ID, *parent) {
				return nil, validationErrorf("moving %s under %s would create a cycle", current.ID, *parent)
			}
			fields["parent_id"] = *parent
		} else {
			fields["parent_id"] = nil
		}
	}

	if len(fields) == 0 {
		return current, nil
	}
	if err := s.repo.Update(ctx, current.ID, fields); err != nil {
		slog.Error("update menu item", "id", current.ID, "error", err)
		return nil, mapNotFound(err, "menu item", current.ID)
	}
	s.Invalidate(current.DashboardID)
	return s.GetItem(ctx, current.ID)
}

type DeleteMenuItemResult struct {
	ID       string   `json:"id"`
	Deleted  []string `json:"deleted"`
	Promoted int64    `json:"promoted"`
}

// DeleteItem removes an item. With cascade its whole subtree goes too;
// otherwise its direct children become roots.
func (s *MenuService) DeleteItem(ctx context.Context, id string, cascade bool) (*DeleteMenuItemResult, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &DeleteMenuItemResult{ID: id, Deleted: []string{id}}
	err = s.repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if cascade {
			items, err := repo.ListByDashboard(ctx, item.DashboardID)
			if err != nil {
				return err
			}
			result.Deleted = append(result.Deleted, menutree.Descendants(items, id)...)
		} else {
			promoted, err := repo.PromoteChildren(ctx, id)
			if err != nil {
				return err
			}
			result.Promoted = promoted
		}
		if _, err := repo.DeleteIDs(ctx, result.Deleted); err != nil {
			return err
		}
		return s.dashboards.WithTx(tx).ClearDefaultMenu(ctx, result.Deleted)
	})
	if err != nil {
		slog.Error("delete menu item", "id", id, "cascade", cascade, "error", err)
		return nil, err
	}
	s.Invalidate(item.DashboardID)
	return result, nil
}

// SeedDefaults makes sure the dashboard has its root "Overview" item. It
// returns the item and whether it was created by this call.
func (s *MenuService) SeedDefaults(ctx context.Context, dashboardID string) (*models.MenuItem, bool, error) {
	if strings.TrimSpace(dashboardID) == "" {
		return nil, false, validationErrorf("dashboardId is required")
	}

	var (
		item    *models.MenuItem
		created bool
	)
	err := s.repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dashboards := s.dashboards.WithTx(tx)
		dashboard, err := dashboards.LockByID(ctx, dashboardID)
		if err != nil {
			return mapNotFound(err, "dashboard", dashboardID)
		}
		repo := s.repo.WithTx(tx)
		item, created, err = seedOverview(ctx, repo, dashboardID)
		if err != nil {
			return err
		}
		ok, err := defaultResolves(ctx, repo, dashboard)
		if err != nil || ok {
			return err
		}
		return dashboards.Update(ctx, dashboardID, map[string]interface{}{"default_menu_id": item.ID})
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("seed default menu", "dashboard_id", dashboardID, "error", err)
		}
		return nil, false, err
	}
	if created {
		s.Invalidate(dashboardID)
	}
	return item, created, nil
}

// seedOverview is the existence-checked insert shared by SeedDefaults and
// dashboard creation.
func seedOverview(ctx context.Context, repo *repositories.MenuRepository, dashboardID string) (*models.MenuItem, bool, error) {
	existing, err := repo.FindRootByTitle(ctx, dashboardID, models.DefaultMenuTitle)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	item := models.MenuItem{
		Title:       models.DefaultMenuTitle,
		Icon:        "LayoutDashboard",
		URL:         models.MenuURL{Href: "/dashboard"},
		DashboardID: dashboardID,
		OrderIndex:  0,
		IsActive:    true,
	}
	if err := repo.Create(ctx, &item); err != nil {
		return nil, false, fmt.Errorf("insert %s item: %w", models.DefaultMenuTitle, err)
	}
	return &item, true, nil
}

// defaultResolves reports whether the dashboard's default menu item still
// exists and belongs to it.
func defaultResolves(ctx context.Context, repo *repositories.MenuRepository, dashboard *models.Dashboard) (bool, error) {
	if dashboard.DefaultMenuID == nil {
		return false, nil
	}
	item, err := repo.GetByID(ctx, *dashboard.DefaultMenuID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return item.DashboardID == dashboard.ID, nil
}

func containsID(items []models.MenuItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func nextOrderIndex(items []models.MenuItem, parentID *string) int {
	next := 0
	for _, it := range items {
		sameParent := (parentID == nil && it.IsRoot()) ||
			(parentID != nil && !it.IsRoot() && *it.ParentID == *parentID)
		if sameParent && it.OrderIndex >= next {
			next = it.OrderIndex + 1
		}
	}
	return next
}
