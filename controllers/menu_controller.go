package controllers

import (
	"admin-dashboard/services"
	"admin-dashboard/utils"

	"github.com/gofiber/fiber/v2"
)

type MenuController struct {
	Menus *services.MenuService
}

func NewMenuController(menus *services.MenuService) *MenuController {
	return &MenuController{Menus: menus}
}

// GetMenu serves GET /menu?dashboardId=&format=flat|tree&activeOnly=.
func (mc *MenuController) GetMenu(ctx *fiber.Ctx) error {
	dashboardID := ctx.Query("dashboardId")
	activeOnly := ctx.QueryBool("activeOnly", false)

	switch ctx.Query("format", "flat") {
	case "tree":
		forest, err := mc.Menus.GetTree(ctx.UserContext(), dashboardID, activeOnly)
		if err != nil {
			return utils.Error(ctx, err)
		}
		return utils.OK(ctx, forest)
	case "flat":
		items, err := mc.Menus.GetFlat(ctx.UserContext(), dashboardID, activeOnly)
		if err != nil {
			return utils.Error(ctx, err)
		}
		return utils.OK(ctx, items)
	default:
		return utils.Fail(ctx, fiber.StatusBadRequest, "format must be flat or tree")
	}
}

func (mc *MenuController) GetTree(ctx *fiber.Ctx) error {
	forest, err := mc.Menus.GetTree(ctx.UserContext(), ctx.Query("dashboardId"), ctx.QueryBool("activeOnly", false))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, forest)
}

func (mc *MenuController) GetNav(ctx *fiber.Ctx) error {
	nav, err := mc.Menus.GetNav(ctx.UserContext(), ctx.Query("dashboardId"))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, nav)
}

func (mc *MenuController) GetItem(ctx *fiber.Ctx) error {
	item, err := mc.Menus.GetItem(ctx.UserContext(), ctx.Query("id"))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, item)
}

func (mc *MenuController) CreateItem(ctx *fiber.Ctx) error {
	var in services.CreateMenuItemInput
	if err := utils.ParseBody(ctx, &in); err != nil {
		return utils.Error(ctx, err)
	}
	item, err := mc.Menus.CreateItem(ctx.UserContext(), in)
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Created(ctx, item)
}

// UpdateItem treats "parentId": null as a move to the root level and an
// absent parentId as "keep the parent".
func (mc *MenuController) UpdateItem(ctx *fiber.Ctx) error {
	var in services.UpdateMenuItemInput
	if err := utils.ParseBody(ctx, &in); err != nil {
		return utils.Error(ctx, err)
	}
	item, err := mc.Menus.UpdateItem(ctx.UserContext(), in)
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, item)
}

func (mc *MenuController) DeleteItem(ctx *fiber.Ctx) error {
	id := ctx.Query("id")
	if id == "" {
		return utils.Fail(ctx, fiber.StatusBadRequest, "id is required")
	}
	result, err := mc.Menus.DeleteItem(ctx.UserContext(), id, ctx.QueryBool("cascade", false))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Message(ctx, "Menu item deleted", result)
}

type seedRequest struct {
	DashboardID string `json:"dashboardId" validate:"required"`
}

// SeedDefaults answers 201 when the Overview item was created and 200 when it
// already existed.
func (mc *MenuController) SeedDefaults(ctx *fiber.Ctx) error {
	var req seedRequest
	if err := utils.ParseBody(ctx, &req); err != nil {
		return utils.Error(ctx, err)
	}
	item, created, err := mc.Menus.SeedDefaults(ctx.UserContext(), req.DashboardID)
	if err != nil {
		return utils.Error(ctx, err)
	}
	if created {
		return utils.Created(ctx, item)
	}
	return utils.Message(ctx, "Default menu already present", item)
}
