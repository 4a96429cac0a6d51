package menutree

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"admin-dashboard/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func item(id string, parent string, order int) models.MenuItem {
	it := models.MenuItem{
		ID:          id,
		Title:       "Item " + id,
		DashboardID: "d1",
		OrderIndex:  order,
		IsActive:    true,
		URL:         models.MenuURL{Href: "/" + id},
		CreatedAt:   baseTime,
	}
	if parent != "" {
		p := parent
		it.ParentID = &p
	}
	return it
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildTreeNestsChildrenInInputOrder(t *testing.T) {
	items := []models.MenuItem{
		item("P", "", 0),
		item("C1", "P", 0),
		item("C2", "P", 1),
		item("G1", "C1", 0),
		item("Q", "", 1),
	}

	forest := BuildTree(items)

	require.Equal(t, []string{"P", "Q"}, ids(forest))
	assert.Equal(t, []string{"C1", "C2"}, ids(forest[0].Children))
	assert.Equal(t, []string{"G1"}, ids(forest[0].Children[0].Children))
	assert.Empty(t, forest[1].Children)
	assert.NotNil(t, forest[1].Children)
}

func TestBuildTreeCountsMatchInput(t *testing.T) {
	cases := [][]models.MenuItem{
		{},
		{item("A", "", 0)},
		{item("A", "", 0), item("B", "", 1), item("A1", "A", 0)},
		{item("A", "", 0), item("A1", "A", 0), item("A2", "A", 1), item("A21", "A2", 0), item("A211", "A21", 0), item("B", "", 1)},
	}

	for i, items := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			forest := BuildTree(items)

			rootCount := 0
			parents := map[string]bool{}
			for _, it := range items {
				if it.ParentID == nil {
					rootCount++
				} else {
					parents[*it.ParentID] = true
				}
			}

			assert.Equal(t, len(items), Count(forest))
			assert.Len(t, forest, rootCount)

			for _, flat := range Flatten(forest) {
				n := Find(forest, flat.ID)
				require.NotNil(t, n)
				if !parents[flat.ID] {
					assert.Empty(t, n.Children, "leaf %s should have no children", flat.ID)
				}
			}
		})
	}
}

func TestBuildTreeIsIdempotentAndPure(t *testing.T) {
	items := []models.MenuItem{item("A", "", 0), item("A1", "A", 0), item("B", "", 1)}
	before := make([]models.MenuItem, len(items))
	copy(before, items)

	first := BuildTree(items)
	second := BuildTree(items)

	assert.Equal(t, first, second)
	assert.NotSame(t, first[0], second[0])
	assert.Equal(t, before, items)

	first[0].Title = "changed"
	*first[0].Children[0].ParentID = "other"
	assert.Equal(t, "Item A", items[0].Title)
	assert.Equal(t, "A", *items[1].ParentID)
}

func TestBuildTreePromotesOrphans(t *testing.T) {
	items := []models.MenuItem{item("A", "", 0), item("X", "missing", 0)}

	report := BuildTreeReport(items)

	assert.Equal(t, []string{"A", "X"}, ids(report.Roots))
	assert.Equal(t, []string{"X"}, report.Orphans)
	assert.Empty(t, report.Unreachable)
}

func TestBuildTreeDropsCycles(t *testing.T) {
	items := []models.MenuItem{
		item("A", "", 0),
		item("B", "C", 0),
		item("C", "B", 0),
		item("D", "C", 0),
		item("S", "S", 0),
	}

	report := BuildTreeReport(items)

	assert.Equal(t, []string{"A"}, ids(report.Roots))
	assert.ElementsMatch(t, []string{"B", "C", "D", "S"}, report.Unreachable)

	_, err := json.Marshal(report.Roots)
	assert.NoError(t, err)
}

func TestBuildTreeSkipsDuplicateIDs(t *testing.T) {
	first := item("A", "", 0)
	dup := item("A", "", 5)
	dup.Title = "duplicate"

	report := BuildTreeReport([]models.MenuItem{first, dup})

	require.Len(t, report.Roots, 1)
	assert.Equal(t, "Item A", report.Roots[0].Title)
	assert.Equal(t, []string{"A"}, report.Duplicates)
}

func TestNodeJSONShape(t *testing.T) {
	forest := BuildTree([]models.MenuItem{item("A", "", 0), item("A1", "A", 0)})

	data, err := json.Marshal(forest)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "A", decoded[0]["id"])
	assert.Nil(t, decoded[0]["parentId"])
	children := decoded[0]["children"].([]interface{})
	require.Len(t, children, 1)
	child := children[0].(map[string]interface{})
	assert.Equal(t, "A", child["parentId"])
	assert.Equal(t, []interface{}{}, child["children"])
}

func TestPruneInactive(t *testing.T) {
	hidden := item("B", "", 1)
	hidden.IsActive = false
	items := []models.MenuItem{item("A", "", 0), hidden, item("B1", "B", 0), item("A1", "A", 0)}

	pruned := PruneInactive(BuildTree(items))

	assert.Equal(t, []string{"A"}, ids(pruned))
	assert.Equal(t, 2, Count(pruned))
}

func TestDescendantsAndWouldCycle(t *testing.T) {
	items := []models.MenuItem{
		item("A", "", 0),
		item("A1", "A", 0),
		item("A11", "A1", 0),
		item("A2", "A", 1),
		item("B", "", 1),
	}

	assert.Equal(t, []string{"A1", "A2", "A11"}, Descendants(items, "A"))
	assert.Empty(t, Descendants(items, "B"))

	assert.True(t, WouldCycle(items, "A", "A11"))
	assert.True(t, WouldCycle(items, "A", "A"))
	assert.False(t, WouldCycle(items, "A11", "B"))
	assert.False(t, WouldCycle(items, "A", ""))
}
