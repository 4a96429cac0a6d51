package services

import (
	"context"
	"log/slog"
	"strings"

	"admin-dashboard/models"
	"admin-dashboard/repositories"

	"gorm.io/gorm"
)

type DashboardService struct {
	repo  *repositories.DashboardRepository
	menus *repositories.MenuRepository
	menu  *MenuService
}

func NewDashboardService(repo *repositories.DashboardRepository, menus *repositories.MenuRepository, menu *MenuService) *DashboardService {
	return &DashboardService{repo: repo, menus: menus, menu: menu}
}

func (s *DashboardService) List(ctx context.Context) ([]models.Dashboard, error) {
	return s.repo.GetAll(ctx)
}

func (s *DashboardService) Get(ctx context.Context, id string) (*models.Dashboard, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validationErrorf("id is required")
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "dashboard", id)
	}
	return d, nil
}

func (s *DashboardService) ListForUser(ctx context.Context, userID uint) ([]repositories.UserDashboardRow, error) {
	if userID == 0 {
		return nil, validationErrorf("userId is required")
	}
	return s.repo.GetByUser(ctx, userID)
}

type CreateDashboardInput struct {
	Name              string `json:"name" validate:"required,max=255"`
	Logo              string `json:"logo"`
	Plan              string `json:"plan" validate:"max=50"`
	IsPublic          bool   `json:"isPublic"`
	IsActive          *bool  `json:"isActive"`
	UserID            uint   `json:"userId"`
	Role              string `json:"role" validate:"omitempty,oneof=owner member"`
	IsDefault         bool   `json:"isDefault"`
	CreateDefaultMenu *bool  `json:"createDefaultMenu"`
}

// Create inserts the dashboard, links it to the user and seeds the default
// menu item in one transaction. Any failure leaves nothing behind.
func (s *DashboardService) Create(ctx context.Context, in CreateDashboardInput, currentUserID uint) (*models.Dashboard, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationErrorf("name is required")
	}

	dashboard := models.Dashboard{
		Name:     strings.TrimSpace(in.Name),
		Logo:     in.Logo,
		Plan:     in.Plan,
		IsPublic: in.IsPublic,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	userID := in.UserID
	if userID == 0 {
		userID = currentUserID
	}
	role := in.Role
	if role == "" {
		role = models.DashboardRoleOwner
	}
	seedMenu := in.CreateDefaultMenu == nil || *in.CreateDefaultMenu

	err := s.repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &dashboard); err != nil {
			return err
		}
		if userID != 0 {
			if err := repo.Link(ctx, &models.UserDashboard{
				UserID:      userID,
				DashboardID: dashboard.ID,
				Role:        role,
				IsDefault:   in.IsDefault,
			}); err != nil {
				return err
			}
		}
		if !seedMenu {
			return nil
		}
		item, _, err := seedOverview(ctx, s.menus.WithTx(tx), dashboard.ID)
		if err != nil {
			return err
		}
		dashboard.DefaultMenuID = &item.ID
		return repo.Update(ctx, dashboard.ID, map[string]interface{}{"default_menu_id": item.ID})
	})
	if err != nil {
		slog.Error("create dashboard", "name", in.Name, "user_id", userID, "error", err)
		return nil, err
	}
	return &dashboard, nil
}

type UpdateDashboardInput struct {
	ID            string  `json:"id" validate:"required"`
	Name          *string `json:"name" validate:"omitempty,max=255"`
	Logo          *string `json:"logo"`
	Plan          *string `json:"plan" validate:"omitempty,max=50"`
	DefaultMenuID *string `json:"defaultMenuId"`
	IsPublic      *bool   `json:"isPublic"`
	IsActive      *bool   `json:"isActive"`
}

func (s *DashboardService) Update(ctx context.Context, in UpdateDashboardInput) (*models.Dashboard, error) {
	current, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationErrorf("name cannot be empty")
		}
		fields["name"] = name
	}
	if in.Logo != nil {
		fields["logo"] = *in.Logo
	}
	if in.Plan != nil {
		fields["plan"] = *in.Plan
	}
	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.DefaultMenuID != nil {
		if *in.DefaultMenuID == "" {
			fields["default_menu_id"] = nil
		} else {
			item, err := s.menus.GetByID(ctx, *in.DefaultMenuID)
			if err != nil || item.DashboardID != current.ID {
				return nil, validationErrorf("defaultMenuId %s is not an item of dashboard %s", *in.DefaultMenuID, current.ID)
			}
			fields["default_menu_id"] = item.ID
		}
	}

	if len(fields) == 0 {
		return current, nil
	}
	if err := s.repo.Update(ctx, current.ID, fields); err != nil {
		slog.Error("update dashboard", "id", current.ID, "error", err)
		return nil, mapNotFound(err, "dashboard", current.ID)
	}
	return s.Get(ctx, current.ID)
}

// Delete removes the dashboard together with its menu items and user links.
func (s *DashboardService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	err := s.repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.menus.WithTx(tx).DeleteByDashboard(ctx, id); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		if err := repo.Unlink(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		slog.Error("delete dashboard", "id", id, "error", err)
		return mapNotFound(err, "dashboard", id)
	}
	s.menu.Invalidate(id)
	return nil
}
