package menutree

import (
	"cmp"
	"strings"

	"admin-dashboard/models"

	"golang.org/x/exp/slices"
)

// CompareSiblings orders items sharing a parent: orderIndex first, then
// creation time, then id, so equal orderIndex values still sort the same way
// on every fetch.
func CompareSiblings(a, b models.MenuItem) int {
	if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Annotate is the in-memory form of the recursive tree fetch. It returns the
// reachable items of one dashboard in pre-order, each carrying its Level
// (1 for roots) and Path (orderIndex values from the root down to the item).
//
// Items whose parent is missing are treated as roots. Items caught in a parent
// cycle are never reached from a root and are left out; the visited set keeps a
// corrupted chain from looping forever.
func Annotate(items []models.MenuItem) []models.MenuItem {
	present := make(map[string]bool, len(items))
	for _, item := range items {
		present[item.ID] = true
	}

	var roots []models.MenuItem
	children := make(map[string][]models.MenuItem)
	for _, item := range items {
		if item.IsRoot() || !present[*item.ParentID] {
			roots = append(roots, item)
			continue
		}
		children[*item.ParentID] = append(children[*item.ParentID], item)
	}

	slices.SortStableFunc(roots, CompareSiblings)
	for parent := range children {
		slices.SortStableFunc(children[parent], CompareSiblings)
	}

	out := make([]models.MenuItem, 0, len(items))
	visited := make(map[string]bool, len(items))

	var walk func(item models.MenuItem, level int, path []int64)
	walk = func(item models.MenuItem, level int, path []int64) {
		if visited[item.ID] {
			return
		}
		visited[item.ID] = true

		itemPath := make([]int64, len(path)+1)
		copy(itemPath, path)
		itemPath[len(path)] = int64(item.OrderIndex)

		annotated := cloneItem(item)
		annotated.Level = level
		annotated.Path = itemPath
		out = append(out, annotated)

		for _, child := range children[item.ID] {
			walk(child, level+1, itemPath)
		}
	}

	for _, root := range roots {
		walk(root, 1, nil)
	}
	return out
}

// ComparePaths compares two materialized paths lexicographically; a prefix
// sorts before any longer path that extends it.
func ComparePaths(a, b []int64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}
