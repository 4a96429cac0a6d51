package menutree

import (
	"testing"
	"time"

	"admin-dashboard/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatIDs(items []models.MenuItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestAnnotateYieldsPreOrder(t *testing.T) {
	items := []models.MenuItem{
		item("B", "", 1),
		item("A1", "A", 0),
		item("A", "", 0),
	}

	out := Annotate(items)

	require.Equal(t, []string{"A", "A1", "B"}, flatIDs(out))
	assert.Equal(t, 1, out[0].Level)
	assert.Equal(t, []int64{0}, out[0].Path)
	assert.Equal(t, 2, out[1].Level)
	assert.Equal(t, []int64{0, 0}, out[1].Path)
	assert.Equal(t, []int64{1}, out[2].Path)
}

func TestAnnotatePathsAreSorted(t *testing.T) {
	items := []models.MenuItem{
		item("R2", "", 5),
		item("R1", "", 2),
		item("R1b", "R1", 3),
		item("R1a", "R1", 1),
		item("R1a1", "R1a", 9),
		item("R2a", "R2", 0),
	}

	out := Annotate(items)

	require.Len(t, out, len(items))
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, ComparePaths(out[i-1].Path, out[i].Path), 0)
	}
	assert.Equal(t, []string{"R1", "R1a", "R1a1", "R1b", "R2", "R2a"}, flatIDs(out))

	forest := BuildTree(out)
	assert.Equal(t, []string{"R1a", "R1b"}, ids(forest[0].Children))
}

func TestAnnotateBreaksTiesByCreationThenID(t *testing.T) {
	early := item("z-early", "", 0)
	early.CreatedAt = baseTime
	late := item("a-late", "", 0)
	late.CreatedAt = baseTime.Add(time.Minute)
	sameTimeB := item("b", "", 1)
	sameTimeA := item("a", "", 1)

	out := Annotate([]models.MenuItem{late, sameTimeB, early, sameTimeA})

	assert.Equal(t, []string{"z-early", "a-late", "a", "b"}, flatIDs(out))
}

func TestAnnotateKeepsTiedSubtreesTogether(t *testing.T) {
	x := item("X", "", 0)
	y := item("Y", "", 0)
	y.CreatedAt = baseTime.Add(time.Second)

	out := Annotate([]models.MenuItem{y, x, item("Y1", "Y", 0), item("X1", "X", 0)})

	assert.Equal(t, []string{"X", "X1", "Y", "Y1"}, flatIDs(out))
}

func TestAnnotateGuardsAgainstCycles(t *testing.T) {
	items := []models.MenuItem{
		item("A", "", 0),
		item("B", "C", 0),
		item("C", "B", 0),
	}

	out := Annotate(items)

	assert.Equal(t, []string{"A"}, flatIDs(out))
}

func TestAnnotateTreatsOrphansAsRoots(t *testing.T) {
	out := Annotate([]models.MenuItem{item("C1", "gone", 0), item("C2", "gone", 1)})

	assert.Equal(t, []string{"C1", "C2"}, flatIDs(out))
	assert.Equal(t, 1, out[0].Level)
}

func TestComparePaths(t *testing.T) {
	assert.Equal(t, -1, ComparePaths([]int64{0}, []int64{0, 0}))
	assert.Equal(t, 1, ComparePaths([]int64{1}, []int64{0, 5}))
	assert.Equal(t, 0, ComparePaths([]int64{2, 3}, []int64{2, 3}))
}

func TestNavMainGroupsByRoot(t *testing.T) {
	items := []models.MenuItem{
		item("A", "", 0),
		item("A1", "A", 0),
		item("A11", "A1", 0),
		item("A2", "A", 1),
		item("B", "", 1),
	}

	data := NavMain("d1", BuildTree(items))

	require.Len(t, data.NavMain, 2)
	assert.Equal(t, "d1", data.DashboardID)
	assert.Equal(t, "/A", data.NavMain[0].URL)
	require.Len(t, data.NavMain[0].Items, 3)
	assert.Equal(t, "A1", data.NavMain[0].Items[0].ID)
	assert.Equal(t, 2, data.NavMain[0].Items[0].Level)
	assert.Equal(t, "A11", data.NavMain[0].Items[1].ID)
	assert.Equal(t, 3, data.NavMain[0].Items[1].Level)
	assert.Empty(t, data.NavMain[1].Items)

	assert.Equal(t, "A", data.GroupOf("A11"))
	assert.Equal(t, "B", data.GroupOf("B"))
	assert.Equal(t, "", data.GroupOf("nope"))
}
