package services_test

import (
	"context"
	"sync"
	"testing"

	"admin-dashboard/menutree"
	"admin-dashboard/models"
	"admin-dashboard/services"
	"admin-dashboard/testutil"
	"admin-dashboard/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childIDs(n *menutree.Node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.ID)
	}
	return out
}

func TestSeedDefaultsCreatesOverviewOnce(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")

	item, created, err := f.menus.SeedDefaults(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.DefaultMenuTitle, item.Title)
	assert.Equal(t, "/dashboard", item.URL.Href)
	assert.Nil(t, item.ParentID)

	again, created, err := f.menus.SeedDefaults(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)

	var count int64
	require.NoError(t, f.db.Model(&models.MenuItem{}).Where("dashboard_id = ?", d.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var reloaded models.Dashboard
	require.NoError(t, f.db.First(&reloaded, "id = ?", d.ID).Error)
	require.NotNil(t, reloaded.DefaultMenuID)
	assert.Equal(t, item.ID, *reloaded.DefaultMenuID)
}

func TestSeedDefaultsUnknownDashboard(t *testing.T) {
	f := newMenuFixture(t)

	_, _, err := f.menus.SeedDefaults(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, _, err = f.menus.SeedDefaults(context.Background(), " ")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestDeletingDefaultItemClearsAndReseedRestoresIt(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d, err := f.dashboards.Create(ctx, services.CreateDashboardInput{Name: "Ops"}, 0)
	require.NoError(t, err)
	require.NotNil(t, d.DefaultMenuID)
	overview := *d.DefaultMenuID

	_, err = f.menus.DeleteItem(ctx, overview, false)
	require.NoError(t, err)

	reloaded, err := f.dashboards.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DefaultMenuID)

	item, created, err := f.menus.SeedDefaults(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, overview, item.ID)

	reloaded, err = f.dashboards.Get(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.DefaultMenuID)
	assert.Equal(t, item.ID, *reloaded.DefaultMenuID)
}

func TestCascadeDeleteClearsDefaultInSubtree(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	root := testutil.CreateTestItem(t, f.db, d.ID, "Root", nil, 0)
	leaf := testutil.CreateTestItem(t, f.db, d.ID, "Leaf", &root.ID, 0)
	other := testutil.CreateTestDashboard(t, f.db, "D2")
	kept := testutil.CreateTestItem(t, f.db, other.ID, "Kept", nil, 0)
	require.NoError(t, f.db.Model(&models.Dashboard{}).Where("id = ?", d.ID).Update("default_menu_id", leaf.ID).Error)
	require.NoError(t, f.db.Model(&models.Dashboard{}).Where("id = ?", other.ID).Update("default_menu_id", kept.ID).Error)

	_, err := f.menus.DeleteItem(ctx, root.ID, true)
	require.NoError(t, err)

	reloaded, err := f.dashboards.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DefaultMenuID)
	untouched, err := f.dashboards.Get(ctx, other.ID)
	require.NoError(t, err)
	require.NotNil(t, untouched.DefaultMenuID)
	assert.Equal(t, kept.ID, *untouched.DefaultMenuID)
}

func TestSeedDefaultsRepairsForeignDefault(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	other := testutil.CreateTestDashboard(t, f.db, "D2")
	foreign := testutil.CreateTestItem(t, f.db, other.ID, "Elsewhere", nil, 0)
	require.NoError(t, f.db.Model(&models.Dashboard{}).Where("id = ?", d.ID).Update("default_menu_id", foreign.ID).Error)

	item, _, err := f.menus.SeedDefaults(ctx, d.ID)
	require.NoError(t, err)

	reloaded, err := f.dashboards.Get(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.DefaultMenuID)
	assert.Equal(t, item.ID, *reloaded.DefaultMenuID)
}

func TestSeedDefaultsConcurrentCallsCreateOneOverview(t *testing.T) {
	f := newMenuFixtureOn(t, testutil.PostgresDB(t))
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "Busy")

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]bool{}
		created int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, ok, err := f.menus.SeedDefaults(ctx, d.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[item.ID] = true
			if ok {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)
	var count int64
	require.NoError(t, f.db.Model(&models.MenuItem{}).Where("dashboard_id = ?", d.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateItemNestsChildrenInOrder(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")

	p, err := f.menus.CreateItem(ctx, services.CreateMenuItemInput{DashboardID: d.ID, Title: "P", Href: "/p"})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, 0, p.OrderIndex)

	c2, err := f.menus.CreateItem(ctx, services.CreateMenuItemInput{DashboardID: d.ID, Title: "C2", ParentID: &p.ID, OrderIndex: intPtr(1)})
	require.NoError(t, err)
	c1, err := f.menus.CreateItem(ctx, services.CreateMenuItemInput{DashboardID: d.ID, Title: "C1", ParentID: &p.ID, OrderIndex: intPtr(0)})
	require.NoError(t, err)

	forest, err := f.menus.GetTree(ctx, d.ID, false)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, p.ID, forest[0].ID)
	assert.Equal(t, []string{c1.ID, c2.ID}, childIDs(forest[0]))

	items, err := f.menus.GetItems(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 1, items[0].Level)
	assert.Equal(t, 2, items[1].Level)
	assert.Equal(t, []int64{0, 0}, items[1].Path)
}

func TestCreateItemAppendsAfterLastSibling(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	testutil.CreateTestItem(t, f.db, d.ID, "A", nil, 4)

	b, err := f.menus.CreateItem(ctx, services.CreateMenuItemInput{DashboardID: d.ID, Title: "B"})
	require.NoError(t, err)
	assert.Equal(t, 5, b.OrderIndex)
}

func TestCreateItemValidation(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d1 := testutil.CreateTestDashboard(t, f.db, "D1")
	d2 := testutil.CreateTestDashboard(t, f.db, "D2")
	foreign := testutil.CreateTestItem(t, f.db, d2.ID, "Foreign", nil, 0)

	tests := []struct {
		name string
		in   services.CreateMenuItemInput
		want error
	}{
		{"missing title", services.CreateMenuItemInput{DashboardID: d1.ID}, services.ErrValidation},
		{"missing dashboard", services.CreateMenuItemInput{Title: "X"}, services.ErrValidation},
		{"unknown dashboard", services.CreateMenuItemInput{DashboardID: "nope", Title: "X"}, services.ErrNotFound},
		{"parent of another dashboard", services.CreateMenuItemInput{DashboardID: d1.ID, Title: "X", ParentID: &foreign.ID}, services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.menus.CreateItem(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeleteItemPromotesChildren(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	p := testutil.CreateTestItem(t, f.db, d.ID, "P", nil, 0)
	c1 := testutil.CreateTestItem(t, f.db, d.ID, "C1", &p.ID, 0)
	c2 := testutil.CreateTestItem(t, f.db, d.ID, "C2", &p.ID, 1)

	_, err := f.menus.GetTree(ctx, d.ID, false)
	require.NoError(t, err)

	res, err := f.menus.DeleteItem(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, res.Deleted)
	assert.EqualValues(t, 2, res.Promoted)

	forest, err := f.menus.GetTree(ctx, d.ID, false)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, c1.ID, forest[0].ID)
	assert.Equal(t, c2.ID, forest[1].ID)
	assert.Nil(t, forest[0].ParentID)
	assert.Nil(t, menutree.Find(forest, p.ID))
}

func TestDeleteItemCascade(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	keep := testutil.CreateTestItem(t, f.db, d.ID, "Keep", nil, 0)
	p := testutil.CreateTestItem(t, f.db, d.ID, "P", nil, 1)
	c := testutil.CreateTestItem(t, f.db, d.ID, "C", &p.ID, 0)
	g := testutil.CreateTestItem(t, f.db, d.ID, "G", &c.ID, 0)

	res, err := f.menus.DeleteItem(ctx, p.ID, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{p.ID, c.ID, g.ID}, res.Deleted)

	items, err := f.menus.GetItems(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)

	_, err = f.menus.DeleteItem(ctx, p.ID, true)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdateItemMovesAndRejectsCycles(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	a := testutil.CreateTestItem(t, f.db, d.ID, "A", nil, 0)
	b := testutil.CreateTestItem(t, f.db, d.ID, "B", &a.ID, 0)

	_, err := f.menus.UpdateItem(ctx, services.UpdateMenuItemInput{
		ID:       a.ID,
		ParentID: types.NullableString{Set: true, Valid: true, Value: b.ID},
	})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.menus.UpdateItem(ctx, services.UpdateMenuItemInput{
		ID:       a.ID,
		ParentID: types.NullableString{Set: true, Valid: true, Value: a.ID},
	})
	assert.ErrorIs(t, err, services.ErrValidation)

	title := "B moved"
	updated, err := f.menus.UpdateItem(ctx, services.UpdateMenuItemInput{
		ID:       b.ID,
		Title:    &title,
		ParentID: types.NullableString{Set: true},
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Nil(t, updated.ParentID)

	// an absent parentId leaves the parent alone
	order := 3
	updated, err = f.menus.UpdateItem(ctx, services.UpdateMenuItemInput{ID: a.ID, OrderIndex: &order})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, 3, updated.OrderIndex)

	empty := "  "
	_, err = f.menus.UpdateItem(ctx, services.UpdateMenuItemInput{ID: a.ID, Title: &empty})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestMutationsInvalidateCache(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	a := testutil.CreateTestItem(t, f.db, d.ID, "A", nil, 0)

	items, err := f.menus.GetItems(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// written behind the service's back: the cached copy is still served
	testutil.CreateTestItem(t, f.db, d.ID, "Hidden", nil, 1)
	items, err = f.menus.GetItems(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.menus.CreateItem(ctx, services.CreateMenuItemInput{DashboardID: d.ID, Title: "B"})
	require.NoError(t, err)
	items, err = f.menus.GetItems(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	active := false
	_, err = f.menus.UpdateItem(ctx, services.UpdateMenuItemInput{ID: a.ID, IsActive: &active})
	require.NoError(t, err)
	_, ok := f.cache.Get(d.ID)
	assert.False(t, ok)

	forest, err := f.menus.GetTree(ctx, d.ID, true)
	require.NoError(t, err)
	assert.Nil(t, menutree.Find(forest, a.ID))
	assert.Equal(t, 2, menutree.Count(forest))
}

func TestGetFlatActiveOnlyHidesInactiveSubtrees(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	p := testutil.CreateTestItem(t, f.db, d.ID, "P", nil, 0)
	testutil.CreateTestItem(t, f.db, d.ID, "C", &p.ID, 0)
	q := testutil.CreateTestItem(t, f.db, d.ID, "Q", nil, 1)
	require.NoError(t, f.db.Model(&models.MenuItem{}).Where("id = ?", p.ID).Update("is_active", false).Error)

	all, err := f.menus.GetFlat(ctx, d.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := f.menus.GetFlat(ctx, d.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, q.ID, active[0].ID)
}

func TestGetNavGroupsRoots(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	d := testutil.CreateTestDashboard(t, f.db, "D1")
	p := testutil.CreateTestItem(t, f.db, d.ID, "P", nil, 0)
	c := testutil.CreateTestItem(t, f.db, d.ID, "C", &p.ID, 0)
	g := testutil.CreateTestItem(t, f.db, d.ID, "G", &c.ID, 0)

	nav, err := f.menus.GetNav(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, nav.DashboardID)
	require.Len(t, nav.NavMain, 1)
	require.Len(t, nav.NavMain[0].Items, 2)
	assert.Equal(t, 2, nav.NavMain[0].Items[0].Level)
	assert.Equal(t, 3, nav.NavMain[0].Items[1].Level)
	assert.Equal(t, p.ID, nav.GroupOf(g.ID))
}

func TestGetItemsRequiresDashboard(t *testing.T) {
	f := newMenuFixture(t)

	_, err := f.menus.GetItems(context.Background(), "")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.menus.GetItem(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
