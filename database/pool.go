package database

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"admin-dashboard/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenFunc opens a connection to the named database.
type OpenFunc func(dbName string) (*gorm.DB, error)

// Pool keeps one *gorm.DB (and therefore one sql.DB pool) per database name.
type Pool struct {
	mu    sync.Mutex
	conns map[string]*gorm.DB
	open  OpenFunc
}

// NewPool returns a pool that opens connections with open, or with
// OpenDatabase when open is nil.
func NewPool(open OpenFunc) *Pool {
	if open == nil {
		open = OpenDatabase
	}
	return &Pool{conns: make(map[string]*gorm.DB), open: open}
}

// Get returns the pooled connection for dbName, opening it on first use.
func (p *Pool) Get(dbName string) (*gorm.DB, error) {
	if !IsValidName(dbName) {
		return nil, fmt.Errorf("invalid database name %q", dbName)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.conns[dbName]; ok {
		return db, nil
	}

	db, err := p.open(dbName)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbName, err)
	}
	p.conns[dbName] = db
	slog.Info("database connection opened", "db", dbName, "pooled", len(p.conns))
	return db, nil
}

// Put registers an already opened connection under dbName.
func (p *Pool) Put(dbName string, db *gorm.DB) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[dbName] = db
}

// Close releases and forgets the connection of dbName, if any.
func (p *Pool) Close(dbName string) error {
	p.mu.Lock()
	db, ok := p.conns[dbName]
	delete(p.conns, dbName)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Pool) CloseAll() {
	for _, name := range p.Names() {
		if err := p.Close(name); err != nil {
			slog.Warn("close database connection", "db", name, "error", err)
		}
	}
}

// Names lists the pooled database names in sorted order.
func (p *Pool) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.conns))
	for name := range p.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DSN builds the connection string of dbName for the configured driver.
func DSN(driver, dbName string) (string, error) {
	switch driver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			config.DBHost, config.DBUser, config.DBPassword, dbName, config.DBPort, config.DBSSLMode), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, dbName), nil
	case "mssql":
		return fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, dbName), nil
	case "sqlite":
		return filepath.Join(config.DBSQLiteDir, dbName+".db"), nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER: %s", driver)
	}
}

func dialector(driver, dsn string) gorm.Dialector {
	switch driver {
	case "postgres":
		return postgres.Open(dsn)
	case "mysql":
		return mysql.Open(dsn)
	case "mssql":
		return sqlserver.Open(dsn)
	default:
		return sqlite.Open(dsn)
	}
}

// OpenDatabase connects to dbName with the configured driver and pool limits.
func OpenDatabase(dbName string) (*gorm.DB, error) {
	dsn, err := DSN(config.DBDriver, dbName)
	if err != nil {
		return nil, err
	}
	return openWithLimits(dialector(config.DBDriver, dsn))
}

// OpenServer connects to the driver's maintenance database, used to create
// and drop other databases.
func OpenServer() (*gorm.DB, error) {
	var dsn string
	switch config.DBDriver {
	case "postgres":
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=postgres port=%s sslmode=%s",
			config.DBHost, config.DBUser, config.DBPassword, config.DBPort, config.DBSSLMode)
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/?charset=utf8mb4&parseTime=True&loc=Local",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort)
	case "mssql":
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=master",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort)
	default:
		return nil, fmt.Errorf("%w: server connection for %s", ErrUnsupported, config.DBDriver)
	}
	return openWithLimits(dialector(config.DBDriver, dsn))
}

func openWithLimits(d gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(config.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.DBConnMaxLifetime)
	return db, nil
}

// EnsureDatabaseExists creates dbName on the server when it is missing.
func EnsureDatabaseExists(dbName string) error {
	if config.DBDriver == "sqlite" {
		return nil
	}
	server, err := OpenServer()
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := server.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	exists, err := DatabaseExists(server, dbName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	slog.Info("creating application database", "db", dbName)
	return CreateDatabase(server, dbName)
}
