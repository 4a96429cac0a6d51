package seed

import (
	"testing"

	"admin-dashboard/menutree"
	"admin-dashboard/models"
	"admin-dashboard/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedSampleMenuIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	d := testutil.CreateTestDashboard(t, db, "Main")

	require.NoError(t, SeedSampleMenu(db, d.ID))
	require.NoError(t, SeedSampleMenu(db, d.ID))

	var items []models.MenuItem
	require.NoError(t, db.Where("dashboard_id = ?", d.ID).Find(&items).Error)
	assert.Len(t, items, 7)

	forest := menutree.BuildTree(menutree.Annotate(items))
	require.Len(t, forest, 2)
	assert.Equal(t, "Databases", forest[0].Title)
	assert.Len(t, forest[0].Children, 3)
	assert.Equal(t, "Settings", forest[1].Title)
	assert.Equal(t, "Menu", forest[1].Children[1].Title)
}
