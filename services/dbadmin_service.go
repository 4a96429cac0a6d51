package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"admin-dashboard/database"
	"admin-dashboard/models"
	"admin-dashboard/repositories"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	defaultRowLimit = 50
	maxRowLimit     = 1000
)

// DBAdminService implements the database administration tooling on top of
// the connection pool.
type DBAdminService struct {
	pool   *database.Pool
	server func() (*gorm.DB, error)
	repo   *repositories.AdminRepository
}

// NewDBAdminService wires the service. server opens the maintenance
// connection used to create and drop databases.
func NewDBAdminService(pool *database.Pool, server func() (*gorm.DB, error), repo *repositories.AdminRepository) *DBAdminService {
	return &DBAdminService{pool: pool, server: server, repo: repo}
}

func (s *DBAdminService) record(ctx context.Context, action, target string, userID uint, opErr error, detail string) {
	h := models.AdminHistory{Action: action, Target: target, Status: "success", Detail: detail, CreatedBy: userID}
	if opErr != nil {
		h.Status = "failed"
		h.Detail = opErr.Error()
	}
	if err := s.repo.Record(ctx, &h); err != nil {
		slog.Warn("record admin history", "action", action, "target", target, "error", err)
	}
}

func checkName(kind, name string) error {
	if name == "" || !database.IsValidName(name) {
		return validationErrorf("invalid %s name %q", kind, name)
	}
	return nil
}

// Connections lists the databases that currently hold a pooled connection.
func (s *DBAdminService) Connections() []string {
	return s.pool.Names()
}

func (s *DBAdminService) ListDatabases(ctx context.Context) ([]models.ManagedDatabase, error) {
	return s.repo.ListDatabases(ctx)
}

func (s *DBAdminService) History(ctx context.Context, limit int) ([]models.AdminHistory, error) {
	return s.repo.History(ctx, limit)
}

// CreateDatabase creates dbName on the server and registers it.
func (s *DBAdminService) CreateDatabase(ctx context.Context, dbName string, userID uint) (*models.ManagedDatabase, error) {
	dbName = strings.TrimSpace(dbName)
	if err := checkName("database", dbName); err != nil {
		return nil, err
	}

	server, err := s.server()
	if err != nil {
		return nil, fmt.Errorf("connect to database server: %w", err)
	}
	server = server.WithContext(ctx)

	exists, err := database.DatabaseExists(server, dbName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: database %s already exists", ErrConflict, dbName)
	}

	err = database.CreateDatabase(server, dbName)
	s.record(ctx, "create_database", dbName, userID, err, "")
	if err != nil {
		slog.Error("create database", "db", dbName, "error", err)
		return nil, err
	}
	return s.repo.RegisterDatabase(ctx, dbName, userID)
}

// DropDatabase closes the pooled connection, drops dbName and unregisters it.
func (s *DBAdminService) DropDatabase(ctx context.Context, dbName string, userID uint) error {
	if err := checkName("database", dbName); err != nil {
		return err
	}

	server, err := s.server()
	if err != nil {
		return fmt.Errorf("connect to database server: %w", err)
	}
	server = server.WithContext(ctx)

	exists, err := database.DatabaseExists(server, dbName)
	if err != nil {
		return err
	}
	if !exists {
		return notFoundf("database %s", dbName)
	}

	if err := s.pool.Close(dbName); err != nil {
		slog.Warn("close pooled connection", "db", dbName, "error", err)
	}
	err = database.DropDatabase(server, dbName)
	s.record(ctx, "drop_database", dbName, userID, err, "")
	if err != nil {
		slog.Error("drop database", "db", dbName, "error", err)
		return err
	}
	return s.repo.UnregisterDatabase(ctx, dbName)
}

func (s *DBAdminService) conn(ctx context.Context, dbName string) (*gorm.DB, error) {
	if err := checkName("database", dbName); err != nil {
		return nil, err
	}
	db, err := s.pool.Get(dbName)
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

func (s *DBAdminService) ListTables(ctx context.Context, dbName string) ([]string, error) {
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return nil, err
	}
	return database.ListTables(db)
}

type CreateTableInput struct {
	Name    string               `json:"name" validate:"required"`
	Columns []database.ColumnDef `json:"columns" validate:"required,min=1,dive"`
}

func (s *DBAdminService) CreateTable(ctx context.Context, dbName string, in CreateTableInput, userID uint) error {
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return err
	}
	stmt, err := database.CreateTableSQL(database.Dialect(db), in.Name, in.Columns)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	err = db.Exec(stmt).Error
	s.record(ctx, "create_table", dbName+"."+in.Name, userID, err, stmt)
	if err != nil {
		slog.Error("create table", "db", dbName, "table", in.Name, "error", err)
	}
	return err
}

func (s *DBAdminService) DropTable(ctx context.Context, dbName, table string, userID uint) error {
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return err
	}
	if _, err := s.columns(db, table); err != nil {
		return err
	}
	err = database.DropTable(db, table)
	s.record(ctx, "drop_table", dbName+"."+table, userID, err, "")
	if err != nil {
		slog.Error("drop table", "db", dbName, "table", table, "error", err)
	}
	return err
}

func (s *DBAdminService) Columns(ctx context.Context, dbName, table string) ([]database.Column, error) {
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return nil, err
	}
	return s.columns(db, table)
}

// columns loads the table's columns; a table without columns does not exist.
func (s *DBAdminService) columns(db *gorm.DB, table string) ([]database.Column, error) {
	if err := checkName("table", table); err != nil {
		return nil, err
	}
	cols, err := database.ListColumns(db, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, notFoundf("table %s", table)
	}
	return cols, nil
}

// checkColumns rejects keys that are not real columns of the table. Keys
// match case-insensitively and come back under the column's own spelling,
// sorted, so the quoted identifiers name real columns on every dialect.
func checkColumns(cols []database.Column, values map[string]interface{}) ([]string, map[string]interface{}, error) {
	known := make(map[string]string, len(cols))
	for _, c := range cols {
		known[strings.ToLower(c.Name)] = c.Name
	}
	keys := make([]string, 0, len(values))
	canonical := make(map[string]interface{}, len(values))
	for k, v := range values {
		name, ok := known[strings.ToLower(k)]
		if !database.IsValidName(k) || !ok {
			return nil, nil, validationErrorf("unknown column %q", k)
		}
		if _, dup := canonical[name]; dup {
			return nil, nil, validationErrorf("column %q given more than once", name)
		}
		canonical[name] = v
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys, canonical, nil
}

type RowsResult struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	Total   int64                    `json:"total"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

// ListRows pages through a table. limit defaults to 50 and is capped at 1000.
func (s *DBAdminService) ListRows(ctx context.Context, dbName, table string, limit, offset int) (*RowsResult, error) {
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return nil, err
	}
	if _, err := s.columns(db, table); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRowLimit
	}
	if limit > maxRowLimit {
		limit = maxRowLimit
	}
	if offset < 0 {
		offset = 0
	}

	dialect := database.Dialect(db)
	quoted := database.QuoteIdent(dialect, table)

	var total int64
	if err := db.Raw("SELECT COUNT(*) FROM " + quoted).Scan(&total).Error; err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT ? OFFSET ?", quoted)
	args := []interface{}{limit, offset}
	if dialect == "sqlserver" {
		query = fmt.Sprintf("SELECT * FROM %s ORDER BY (SELECT NULL) OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", quoted)
		args = []interface{}{offset, limit}
	}
	rows, err := db.Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, data, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	return &RowsResult{Columns: columns, Rows: data, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *DBAdminService) InsertRow(ctx context.Context, dbName, table string, values map[string]interface{}) (int64, error) {
	if len(values) == 0 {
		return 0, validationErrorf("no values to insert")
	}
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return 0, err
	}
	cols, err := s.columns(db, table)
	if err != nil {
		return 0, err
	}
	keys, values, err := checkColumns(cols, values)
	if err != nil {
		return 0, err
	}

	dialect := database.Dialect(db)
	names := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		names[i] = database.QuoteIdent(dialect, k)
		marks[i] = "?"
		args[i] = values[k]
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		database.QuoteIdent(dialect, table), strings.Join(names, ", "), strings.Join(marks, ", "))
	res := db.Exec(stmt, args...)
	return res.RowsAffected, res.Error
}

type UpdateRowsInput struct {
	Where  map[string]interface{} `json:"where" validate:"required,min=1"`
	Values map[string]interface{} `json:"values" validate:"required,min=1"`
}

// UpdateRows sets values on the rows matching every where column. An empty
// where is rejected so a whole table is never rewritten by accident.
func (s *DBAdminService) UpdateRows(ctx context.Context, dbName, table string, in UpdateRowsInput) (int64, error) {
	if len(in.Where) == 0 || len(in.Values) == 0 {
		return 0, validationErrorf("where and values are required")
	}
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return 0, err
	}
	cols, err := s.columns(db, table)
	if err != nil {
		return 0, err
	}
	setKeys, setValues, err := checkColumns(cols, in.Values)
	if err != nil {
		return 0, err
	}
	whereKeys, whereValues, err := checkColumns(cols, in.Where)
	if err != nil {
		return 0, err
	}

	dialect := database.Dialect(db)
	sets := make([]string, 0, len(setKeys))
	args := make([]interface{}, 0, len(setKeys)+len(whereKeys))
	for _, k := range setKeys {
		sets = append(sets, database.QuoteIdent(dialect, k)+" = ?")
		args = append(args, setValues[k])
	}
	where, whereArgs := whereClause(dialect, whereKeys, whereValues)
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s", database.QuoteIdent(dialect, table), strings.Join(sets, ", "), where)
	res := db.Exec(stmt, args...)
	return res.RowsAffected, res.Error
}

// DeleteRows removes the rows matching every where column.
func (s *DBAdminService) DeleteRows(ctx context.Context, dbName, table string, where map[string]interface{}) (int64, error) {
	if len(where) == 0 {
		return 0, validationErrorf("where is required")
	}
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return 0, err
	}
	cols, err := s.columns(db, table)
	if err != nil {
		return 0, err
	}
	keys, where, err := checkColumns(cols, where)
	if err != nil {
		return 0, err
	}

	dialect := database.Dialect(db)
	clause, args := whereClause(dialect, keys, where)
	res := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s", database.QuoteIdent(dialect, table), clause), args...)
	return res.RowsAffected, res.Error
}

func whereClause(dialect string, keys []string, values map[string]interface{}) (string, []interface{}) {
	parts := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		if values[k] == nil {
			parts = append(parts, database.QuoteIdent(dialect, k)+" IS NULL")
			continue
		}
		parts = append(parts, database.QuoteIdent(dialect, k)+" = ?")
		args = append(args, values[k])
	}
	return strings.Join(parts, " AND "), args
}

// ExportTable writes every row of the table to an .xlsx workbook.
func (s *DBAdminService) ExportTable(ctx context.Context, dbName, table string) (*bytes.Buffer, error) {
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return nil, err
	}
	if _, err := s.columns(db, table); err != nil {
		return nil, err
	}

	rows, err := db.Raw("SELECT * FROM " + database.QuoteIdent(database.Dialect(db), table)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, data, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	return buildWorkbook(table, columns, data)
}

func buildWorkbook(table string, columns []string, data []map[string]interface{}) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := table
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil && len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheet, "A1", last, bold)
	}

	for r, row := range data {
		values := make([]interface{}, len(columns))
		for i, c := range columns {
			values[i] = row[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}

type QueryResult struct {
	ReturnsRows  bool                     `json:"returnsRows"`
	Columns      []string                 `json:"columns,omitempty"`
	Rows         []map[string]interface{} `json:"rows,omitempty"`
	RowsAffected int64                    `json:"rowsAffected"`
}

// RunQuery executes one SQL statement. Statements that return rows are
// scanned; everything else reports the affected row count.
func (s *DBAdminService) RunQuery(ctx context.Context, dbName, query string, userID uint) (*QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, validationErrorf("sql is required")
	}
	db, err := s.conn(ctx, dbName)
	if err != nil {
		return nil, err
	}

	if ReturnsRows(query) {
		rows, err := db.Raw(query).Rows()
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		columns, data, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		return &QueryResult{ReturnsRows: true, Columns: columns, Rows: data, RowsAffected: int64(len(data))}, nil
	}

	res := db.Exec(query)
	s.record(ctx, "query", dbName, userID, res.Error, truncate(query, 500))
	if res.Error != nil {
		return nil, res.Error
	}
	return &QueryResult{RowsAffected: res.RowsAffected}, nil
}

var rowKeywords = map[string]bool{
	"SELECT": true, "WITH": true, "SHOW": true, "EXPLAIN": true, "VALUES": true,
	"TABLE": true, "PRAGMA": true, "DESCRIBE": true, "DESC": true,
}

// ReturnsRows classifies a statement by its first keyword, skipping
// leading comments.
func ReturnsRows(query string) bool {
	q := strings.TrimSpace(query)
skip:
	for {
		switch {
		case strings.HasPrefix(q, "--"):
			if i := strings.Index(q, "\n"); i >= 0 {
				q = strings.TrimSpace(q[i+1:])
				continue
			}
			return false
		case strings.HasPrefix(q, "/*"):
			if i := strings.Index(q, "*/"); i >= 0 {
				q = strings.TrimSpace(q[i+2:])
				continue
			}
			return false
		case strings.HasPrefix(q, "("):
			q = strings.TrimSpace(q[1:])
		default:
			break skip
		}
	}
	end := strings.IndexFunc(q, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(q)
	}
	return rowKeywords[strings.ToUpper(q[:end])]
}

func scanRows(rows *sql.Rows) ([]string, []map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	data := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		data = append(data, row)
	}
	return columns, data, rows.Err()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// IsUnsupported reports whether err comes from a driver that lacks the
// requested operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, database.ErrUnsupported)
}
