// Package testutil provides databases, fixtures and request helpers shared by
// the package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"admin-dashboard/migration"
	"admin-dashboard/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresDSNEnv names the variable that enables PostgreSQL integration tests.
const PostgresDSNEnv = "TEST_DATABASE_DSN"

// NewTestDB opens a migrated SQLite database in a file under t.TempDir().
// A file is used rather than :memory: so every pooled connection sees the
// same data.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, migration.Migrate(db), "migrate sqlite")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// PostgresDB connects to the database named by TEST_DATABASE_DSN, migrates it
// and empties the menu tables. The test is skipped when the variable is unset.
func PostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping PostgreSQL integration test", PostgresDSNEnv)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open postgres")
	require.NoError(t, migration.Migrate(db), "migrate postgres")
	require.NoError(t, db.Exec("TRUNCATE menu_items, user_dashboards, dashboards CASCADE").Error)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateTestDashboard inserts an active dashboard.
func CreateTestDashboard(t *testing.T, db *gorm.DB, name string) models.Dashboard {
	t.Helper()

	d := models.Dashboard{Name: name, Plan: "free", IsActive: true}
	require.NoError(t, db.Create(&d).Error, "create dashboard %s", name)
	return d
}

// CreateTestItem inserts a menu item; parentID may be nil for a root. Each
// call advances created_at so insertion order is stable.
func CreateTestItem(t *testing.T, db *gorm.DB, dashboardID, title string, parentID *string, order int) models.MenuItem {
	t.Helper()

	item := models.MenuItem{
		Title:       title,
		URL:         models.MenuURL{Href: "/" + title},
		ParentID:    parentID,
		DashboardID: dashboardID,
		OrderIndex:  order,
		IsActive:    true,
		CreatedAt:   nextCreatedAt(),
	}
	require.NoError(t, db.Create(&item).Error, "create menu item %s", title)
	return item
}

var (
	clockMu sync.Mutex
	clock   = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func nextCreatedAt() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()
	clock = clock.Add(time.Second)
	return clock
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}

// MakeRequest creates an HTTP test request with a JSON body.
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// DecodeEnvelope reads and closes the response body.
func DecodeEnvelope(t *testing.T, resp *http.Response) Envelope {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env), "decode body %s", string(raw))
	return env
}

// DecodeData unmarshals the envelope's data into out.
func DecodeData(t *testing.T, env Envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out), "decode data %s", string(env.Data))
}
