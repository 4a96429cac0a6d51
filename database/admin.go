package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUnsupported = errors.New("operation not supported by this driver")

	validName   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	validColumn = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\(\d+(,\s*\d+)?\))?$`)
)

// IsValidName reports whether name is usable as a database, table or column
// identifier.
func IsValidName(name string) bool {
	return validName.MatchString(name)
}

// IsValidColumnType accepts plain SQL type names such as "varchar(255)" or
// "double precision".
func IsValidColumnType(t string) bool {
	return validColumn.MatchString(strings.TrimSpace(t))
}

// Dialect returns the gorm dialector name: postgres, mysql, sqlserver or sqlite.
func Dialect(db *gorm.DB) string {
	return db.Dialector.Name()
}

// QuoteIdent quotes an identifier that already passed IsValidName.
func QuoteIdent(dialect, name string) string {
	switch dialect {
	case "mysql":
		return "`" + name + "`"
	case "sqlserver":
		return "[" + name + "]"
	default:
		return `"` + name + `"`
	}
}

func DatabaseExists(db *gorm.DB, dbName string) (bool, error) {
	var exists bool
	switch Dialect(db) {
	case "postgres":
		err := db.Raw("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = ?)", dbName).Scan(&exists).Error
		return exists, err
	case "mysql":
		var count int64
		err := db.Raw("SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?", dbName).Scan(&count).Error
		return count > 0, err
	case "sqlserver":
		err := db.Raw(`SELECT IIF(EXISTS (
				SELECT 1 FROM master.sys.databases WHERE name = ?
			), 1, 0) AS exists_flag`, dbName).Scan(&exists).Error
		return exists, err
	default:
		return false, ErrUnsupported
	}
}

func CreateDatabase(db *gorm.DB, dbName string) error {
	if !IsValidName(dbName) {
		return fmt.Errorf("invalid database name %q", dbName)
	}
	if Dialect(db) == "sqlite" {
		return ErrUnsupported
	}
	return db.Exec("CREATE DATABASE " + QuoteIdent(Dialect(db), dbName)).Error
}

// DropDatabase drops dbName. Postgres refuses while sessions are open, so
// callers close their pooled connection first.
func DropDatabase(db *gorm.DB, dbName string) error {
	if !IsValidName(dbName) {
		return fmt.Errorf("invalid database name %q", dbName)
	}
	if Dialect(db) == "sqlite" {
		return ErrUnsupported
	}
	return db.Exec("DROP DATABASE " + QuoteIdent(Dialect(db), dbName)).Error
}

// ListTables returns the base tables of the connected database.
func ListTables(db *gorm.DB) ([]string, error) {
	var query string
	switch Dialect(db) {
	case "postgres":
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name`
	case "mysql":
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name`
	case "sqlserver":
		query = `SELECT TABLE_NAME AS table_name FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
	case "sqlite":
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	default:
		return nil, ErrUnsupported
	}

	rows, err := db.Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

// Column describes one column of a table.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey,omitempty"`
}

// ListColumns returns the columns of table in ordinal order. An unknown table
// yields an empty list.
func ListColumns(db *gorm.DB, table string) ([]Column, error) {
	if !IsValidName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if Dialect(db) == "sqlite" {
		return sqliteColumns(db, table)
	}

	var query string
	switch Dialect(db) {
	case "postgres":
		query = `SELECT column_name, data_type, is_nullable FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = ? ORDER BY ordinal_position`
	case "mysql":
		query = `SELECT column_name, data_type, is_nullable FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`
	case "sqlserver":
		query = `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM INFORMATION_SCHEMA.COLUMNS
			WHERE TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
	default:
		return nil, ErrUnsupported
	}

	rows, err := db.Raw(query, table).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make([]Column, 0)
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = strings.EqualFold(nullable, "YES")
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func sqliteColumns(db *gorm.DB, table string) ([]Column, error) {
	rows, err := db.Raw("PRAGMA table_info(" + QuoteIdent("sqlite", table) + ")").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make([]Column, 0)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue interface{}
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, Column{Name: name, Type: colType, Nullable: notNull == 0, PrimaryKey: pk > 0})
	}
	return columns, rows.Err()
}

// ColumnDef is one column of a CREATE TABLE request.
type ColumnDef struct {
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey"`
}

// CreateTableSQL renders a CREATE TABLE statement after checking every
// identifier and type.
func CreateTableSQL(dialect, table string, columns []ColumnDef) (string, error) {
	if !IsValidName(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	if len(columns) == 0 {
		return "", errors.New("at least one column is required")
	}

	defs := make([]string, 0, len(columns))
	var pks []string
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if !IsValidName(col.Name) {
			return "", fmt.Errorf("invalid column name %q", col.Name)
		}
		if seen[strings.ToLower(col.Name)] {
			return "", fmt.Errorf("duplicate column %q", col.Name)
		}
		seen[strings.ToLower(col.Name)] = true
		if !IsValidColumnType(col.Type) {
			return "", fmt.Errorf("invalid type %q for column %s", col.Type, col.Name)
		}
		def := QuoteIdent(dialect, col.Name) + " " + strings.TrimSpace(col.Type)
		if !col.Nullable || col.PrimaryKey {
			def += " NOT NULL"
		}
		defs = append(defs, def)
		if col.PrimaryKey {
			pks = append(pks, QuoteIdent(dialect, col.Name))
		}
	}
	if len(pks) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pks, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(dialect, table), strings.Join(defs, ", ")), nil
}

func CreateTable(db *gorm.DB, table string, columns []ColumnDef) error {
	stmt, err := CreateTableSQL(Dialect(db), table, columns)
	if err != nil {
		return err
	}
	return db.Exec(stmt).Error
}

func DropTable(db *gorm.DB, table string) error {
	if !IsValidName(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return db.Exec("DROP TABLE " + QuoteIdent(Dialect(db), table)).Error
}
