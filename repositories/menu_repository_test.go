package repositories_test

import (
	"context"
	"testing"

	"admin-dashboard/models"
	"admin-dashboard/repositories"
	"admin-dashboard/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func itemIDs(items []models.MenuItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// assertPreOrder builds P(C1, C2), Q, with C2 inserted before C1 and Q
// tying with P on orderIndex, plus an orphan whose parent lives elsewhere.
func assertPreOrder(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	repo := repositories.NewMenuRepository(db)

	d := testutil.CreateTestDashboard(t, db, "D1")
	other := testutil.CreateTestDashboard(t, db, "D2")
	stranger := testutil.CreateTestItem(t, db, other.ID, "Stranger", nil, 0)

	p := testutil.CreateTestItem(t, db, d.ID, "P", nil, 0)
	c2 := testutil.CreateTestItem(t, db, d.ID, "C2", &p.ID, 1)
	c1 := testutil.CreateTestItem(t, db, d.ID, "C1", &p.ID, 0)
	q := testutil.CreateTestItem(t, db, d.ID, "Q", nil, 0)
	orphan := testutil.CreateTestItem(t, db, d.ID, "Orphan", &stranger.ID, 5)

	items, err := repo.FetchTree(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID, c1.ID, c2.ID, q.ID, orphan.ID}, itemIDs(items))

	assert.Equal(t, 1, items[0].Level)
	assert.Equal(t, []int64{0}, items[0].Path)
	assert.Equal(t, 2, items[2].Level)
	assert.Equal(t, []int64{0, 1}, items[2].Path)
	assert.Equal(t, 1, items[4].Level)
	assert.Equal(t, []int64{5}, items[4].Path)
}

func TestFetchTreeSQLite(t *testing.T) {
	assertPreOrder(t, testutil.NewTestDB(t))
}

func TestFetchTreePostgres(t *testing.T) {
	assertPreOrder(t, testutil.PostgresDB(t))
}

func TestFetchTreeSkipsCycles(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewMenuRepository(db)
	d := testutil.CreateTestDashboard(t, db, "D1")

	root := testutil.CreateTestItem(t, db, d.ID, "Root", nil, 0)
	b := testutil.CreateTestItem(t, db, d.ID, "B", nil, 1)
	c := testutil.CreateTestItem(t, db, d.ID, "C", &b.ID, 0)
	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", b.ID).Update("parent_id", c.ID).Error)

	items, err := repo.FetchTree(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{root.ID}, itemIDs(items))
}

func TestFetchTreeRequiresDashboard(t *testing.T) {
	repo := repositories.NewMenuRepository(testutil.NewTestDB(t))

	_, err := repo.FetchTree(context.Background(), "")
	assert.ErrorIs(t, err, repositories.ErrEmptyDashboardID)
}

func TestPromoteAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := repositories.NewMenuRepository(db)
	d := testutil.CreateTestDashboard(t, db, "D1")
	p := testutil.CreateTestItem(t, db, d.ID, "P", nil, 0)
	testutil.CreateTestItem(t, db, d.ID, "C1", &p.ID, 0)
	testutil.CreateTestItem(t, db, d.ID, "C2", &p.ID, 1)

	n, err := repo.PromoteChildren(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.DeleteIDs(ctx, []string{p.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	items, err := repo.ListByDashboard(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, it.IsRoot())
	}

	err = repo.Update(ctx, p.ID, map[string]interface{}{"title": "gone"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
