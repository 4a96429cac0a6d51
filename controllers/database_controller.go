package controllers

import (
	"fmt"
	"strings"
	"time"

	"admin-dashboard/middleware"
	"admin-dashboard/services"
	"admin-dashboard/utils"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DatabaseController struct {
	Admin   *services.DBAdminService
	Backups *services.BackupService
}

func NewDatabaseController(admin *services.DBAdminService, backups *services.BackupService) *DatabaseController {
	return &DatabaseController{Admin: admin, Backups: backups}
}

type DBRequest struct {
	Name string `json:"dbName" validate:"required"`
}

func (c *DatabaseController) ListDatabases(ctx *fiber.Ctx) error {
	dbs, err := c.Admin.ListDatabases(ctx.UserContext())
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, dbs)
}

func (c *DatabaseController) CreateDatabase(ctx *fiber.Ctx) error {
	var req DBRequest
	if err := utils.ParseBody(ctx, &req); err != nil {
		return utils.Error(ctx, err)
	}
	db, err := c.Admin.CreateDatabase(ctx.UserContext(), req.Name, middleware.UserID(ctx))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Created(ctx, db)
}

func (c *DatabaseController) DropDatabase(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	if err := c.Admin.DropDatabase(ctx.UserContext(), name, middleware.UserID(ctx)); err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Message(ctx, fmt.Sprintf("Database %s dropped", name), fiber.Map{"dbName": name})
}

func (c *DatabaseController) Connections(ctx *fiber.Ctx) error {
	return utils.OK(ctx, c.Admin.Connections())
}

func (c *DatabaseController) History(ctx *fiber.Ctx) error {
	history, err := c.Admin.History(ctx.UserContext(), ctx.QueryInt("limit", 100))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, history)
}

func (c *DatabaseController) Backup(ctx *fiber.Ctx) error {
	record, err := c.Backups.Backup(ctx.UserContext(), ctx.Params("name"), middleware.UserID(ctx))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Created(ctx, record)
}

func (c *DatabaseController) ListBackups(ctx *fiber.Ctx) error {
	backups, err := c.Backups.List(ctx.UserContext(), ctx.Params("name"))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, backups)
}

type restoreRequest struct {
	FileName string `json:"fileName" validate:"required"`
}

func (c *DatabaseController) Restore(ctx *fiber.Ctx) error {
	var req restoreRequest
	if err := utils.ParseBody(ctx, &req); err != nil {
		return utils.Error(ctx, err)
	}
	record, err := c.Backups.Restore(ctx.UserContext(), ctx.Params("name"), req.FileName, middleware.UserID(ctx))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, record)
}

func (c *DatabaseController) GetAllTables(ctx *fiber.Ctx) error {
	tables, err := c.Admin.ListTables(ctx.UserContext(), ctx.Params("name"))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, fiber.Map{"dbName": ctx.Params("name"), "tables": tables})
}

func (c *DatabaseController) CreateTable(ctx *fiber.Ctx) error {
	var in services.CreateTableInput
	if err := utils.ParseBody(ctx, &in); err != nil {
		return utils.Error(ctx, err)
	}
	if err := c.Admin.CreateTable(ctx.UserContext(), ctx.Params("name"), in, middleware.UserID(ctx)); err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Created(ctx, fiber.Map{"table": in.Name})
}

func (c *DatabaseController) DropTable(ctx *fiber.Ctx) error {
	table := ctx.Params("table")
	if err := c.Admin.DropTable(ctx.UserContext(), ctx.Params("name"), table, middleware.UserID(ctx)); err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Message(ctx, fmt.Sprintf("Table %s dropped", table), fiber.Map{"table": table})
}

func (c *DatabaseController) Columns(ctx *fiber.Ctx) error {
	cols, err := c.Admin.Columns(ctx.UserContext(), ctx.Params("name"), ctx.Params("table"))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, cols)
}

func (c *DatabaseController) ListRows(ctx *fiber.Ctx) error {
	res, err := c.Admin.ListRows(ctx.UserContext(), ctx.Params("name"), ctx.Params("table"),
		ctx.QueryInt("limit", 0), ctx.QueryInt("offset", 0))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, res)
}

func (c *DatabaseController) InsertRow(ctx *fiber.Ctx) error {
	values := map[string]interface{}{}
	if err := ctx.BodyParser(&values); err != nil {
		return utils.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	n, err := c.Admin.InsertRow(ctx.UserContext(), ctx.Params("name"), ctx.Params("table"), values)
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Created(ctx, fiber.Map{"rowsAffected": n})
}

func (c *DatabaseController) UpdateRows(ctx *fiber.Ctx) error {
	var in services.UpdateRowsInput
	if err := utils.ParseBody(ctx, &in); err != nil {
		return utils.Error(ctx, err)
	}
	n, err := c.Admin.UpdateRows(ctx.UserContext(), ctx.Params("name"), ctx.Params("table"), in)
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, fiber.Map{"rowsAffected": n})
}

type deleteRowsRequest struct {
	Where map[string]interface{} `json:"where" validate:"required,min=1"`
}

func (c *DatabaseController) DeleteRows(ctx *fiber.Ctx) error {
	var req deleteRowsRequest
	if err := utils.ParseBody(ctx, &req); err != nil {
		return utils.Error(ctx, err)
	}
	n, err := c.Admin.DeleteRows(ctx.UserContext(), ctx.Params("name"), ctx.Params("table"), req.Where)
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, fiber.Map{"rowsAffected": n})
}

// ExportTable streams the table as an .xlsx attachment.
func (c *DatabaseController) ExportTable(ctx *fiber.Ctx) error {
	name, table := ctx.Params("name"), ctx.Params("table")
	buf, err := c.Admin.ExportTable(ctx.UserContext(), name, table)
	if err != nil {
		return utils.Error(ctx, err)
	}
	fileName := fmt.Sprintf("%s_%s_%s.xlsx", name, table, time.Now().Format("20060102_150405"))
	ctx.Set(fiber.HeaderContentType, xlsxContentType)
	ctx.Attachment(fileName)
	return ctx.Send(buf.Bytes())
}

type queryRequest struct {
	SQL string `json:"sql" validate:"required"`
}

func (c *DatabaseController) RunQuery(ctx *fiber.Ctx) error {
	var req queryRequest
	if err := utils.ParseBody(ctx, &req); err != nil {
		return utils.Error(ctx, err)
	}
	res, err := c.Admin.RunQuery(ctx.UserContext(), ctx.Params("name"), strings.TrimSpace(req.SQL), middleware.UserID(ctx))
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, res)
}
