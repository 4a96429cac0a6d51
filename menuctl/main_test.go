package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"admin-dashboard/config"
	"admin-dashboard/menutree"
	"admin-dashboard/models"
	"admin-dashboard/navstate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTree(t *testing.T) {
	parent := "p"
	forest := menutree.BuildTree([]models.MenuItem{
		{ID: "p", Title: "Catalog", URL: models.MenuURL{Href: "/catalog"}, IsActive: true},
		{ID: "c", Title: "Products", ParentID: &parent, IsActive: false},
	})

	var out bytes.Buffer
	printTree(&out, forest, 0)
	assert.Equal(t, "- Catalog /catalog  [p]\n  - Products (inactive)  [c]\n", out.String())
}

func TestNavFallsBackToSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := navstate.OpenSQLiteSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "d1", menutree.NavMainData{
		DashboardID: "d1",
		NavMain: []menutree.NavGroup{{
			ID: "g", Title: "Catalog", URL: "/catalog",
			Items: []menutree.NavLink{{ID: "l", Title: "Products", URL: "/products", Level: 2}},
		}},
	}))
	require.NoError(t, store.Close())

	opts := options{api: "http://127.0.0.1:1/api", user: "admin", password: "admin", dashboardID: "d1", statePath: path}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, opts, []string{"nav"}))
	assert.Equal(t, "Catalog (/catalog)\n  Products (/products)\n", out.String())

	opts.dashboardID = "unknown"
	assert.Error(t, run(context.Background(), &out, opts, []string{"nav"}))
	assert.Error(t, run(context.Background(), &out, opts, []string{"tree"}))
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, options{api: "http://127.0.0.1:1/api", dashboardID: "d1"}, []string{"dance"})
	assert.EqualError(t, err, `unknown command "dance"`)
}

func TestDefaultOptionsFollowServerConfig(t *testing.T) {
	t.Setenv("MENUCTL_API", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("MAIN_ROUTES", "")
	t.Setenv("MENU_CACHE_TTL", "")
	config.LoadConfig()

	opts := defaultOptions()
	assert.Equal(t, "http://localhost:9000/api", opts.api)
	assert.Equal(t, 10*time.Second, opts.cacheTTL)

	t.Setenv("APP_PORT", "7001")
	t.Setenv("MENU_CACHE_TTL", "90s")
	config.LoadConfig()

	opts = defaultOptions()
	assert.Equal(t, "http://localhost:7001/api", opts.api)
	assert.Equal(t, 90*time.Second, opts.cacheTTL)

	t.Setenv("MENUCTL_API", "https://admin.example/api")
	assert.Equal(t, "https://admin.example/api", defaultOptions().api)
}
