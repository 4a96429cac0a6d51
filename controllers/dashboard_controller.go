package controllers

import (
	"strconv"

	"admin-dashboard/middleware"
	"admin-dashboard/services"
	"admin-dashboard/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	Dashboards *services.DashboardService
}

func NewDashboardController(dashboards *services.DashboardService) *DashboardController {
	return &DashboardController{Dashboards: dashboards}
}

// GetDashboards lists every dashboard, one by ?id=, or those linked to ?userId=.
func (c *DashboardController) GetDashboards(ctx *fiber.Ctx) error {
	if id := ctx.Query("id"); id != "" {
		d, err := c.Dashboards.Get(ctx.UserContext(), id)
		if err != nil {
			return utils.Error(ctx, err)
		}
		return utils.OK(ctx, d)
	}

	if raw := ctx.Query("userId"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.Fail(ctx, fiber.StatusBadRequest, "userId must be a number")
		}
		rows, err := c.Dashboards.ListForUser(ctx.UserContext(), uint(userID))
		if err != nil {
			return utils.Error(ctx, err)
		}
		return utils.OK(ctx, rows)
	}

	all, err := c.Dashboards.List(ctx.UserContext())
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, all)
}

func (c *DashboardController) CreateDashboard(ctx *fiber.Ctx) error {
	var in services.CreateDashboardInput
	if err := utils.ParseBody(ctx, &in); err != nil {
		return utils.Error(ctx, err)
	}
	d, err := c.Dashboards.Create(ctx.UserContext(), in, middleware.UserID(ctx))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Created(ctx, d)
}

func (c *DashboardController) UpdateDashboard(ctx *fiber.Ctx) error {
	var in services.UpdateDashboardInput
	if err := utils.ParseBody(ctx, &in); err != nil {
		return utils.Error(ctx, err)
	}
	d, err := c.Dashboards.Update(ctx.UserContext(), in)
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, d)
}

func (c *DashboardController) DeleteDashboard(ctx *fiber.Ctx) error {
	id := ctx.Query("id")
	if id == "" {
		return utils.Fail(ctx, fiber.StatusBadRequest, "id is required")
	}
	if err := c.Dashboards.Delete(ctx.UserContext(), id); err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Message(ctx, "Dashboard deleted", fiber.Map{"id": id})
}
