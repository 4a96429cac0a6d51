// Package menutree turns the flat menu_items rows of one dashboard into the
// nested forest rendered by the sidebar, plus the small helpers every caller
// of that forest needs.
//
// All functions are pure: inputs are never mutated and every returned node is
// a fresh copy.
package menutree

import "admin-dashboard/models"

// Node is a MenuItem with its nested children. Children is never nil.
type Node struct {
	models.MenuItem
	Children []*Node `json:"children"`
}

// Report describes what BuildTreeReport had to absorb to produce a forest.
type Report struct {
	Roots []*Node
	// Orphans are items whose parent is absent from the input; they were promoted to roots.
	Orphans []string
	// Unreachable items sit on (or below) a parent cycle and were left out.
	Unreachable []string
	// Duplicates are repeated ids; only the first occurrence is kept.
	Duplicates []string
}

// BuildTree nests items under their parents and returns the roots.
//
// Children keep the order in which they appear in items, so callers wanting
// orderIndex ordering must pass a pre-sorted list (the tree fetch already is).
// An item whose parent is missing from items becomes a root.
func BuildTree(items []models.MenuItem) []*Node {
	return BuildTreeReport(items).Roots
}

// BuildTreeReport is BuildTree plus the list of anomalies it absorbed.
func BuildTreeReport(items []models.MenuItem) Report {
	var report Report

	nodes := make(map[string]*Node, len(items))
	ordered := make([]*Node, 0, len(items))
	for _, item := range items {
		if _, dup := nodes[item.ID]; dup {
			report.Duplicates = append(report.Duplicates, item.ID)
			continue
		}
		n := &Node{MenuItem: cloneItem(item), Children: []*Node{}}
		nodes[item.ID] = n
		ordered = append(ordered, n)
	}

	reachable := resolveReachability(nodes)

	report.Roots = []*Node{}
	for _, n := range ordered {
		if !reachable[n.ID] {
			report.Unreachable = append(report.Unreachable, n.ID)
			continue
		}
		if n.IsRoot() {
			report.Roots = append(report.Roots, n)
			continue
		}
		parent, ok := nodes[*n.ParentID]
		if !ok {
			report.Orphans = append(report.Orphans, n.ID)
			report.Roots = append(report.Roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return report
}

// resolveReachability marks every node whose ancestor chain ends at a root
// (no parent, or a parent outside the set). Chains that loop are unreachable.
func resolveReachability(nodes map[string]*Node) map[string]bool {
	const (
		unknown = iota
		visiting
		done
	)
	state := make(map[string]int, len(nodes))
	reachable := make(map[string]bool, len(nodes))

	for id := range nodes {
		if state[id] == done {
			continue
		}
		var chain []string
		cur := id
		ok := false
		for {
			if state[cur] == done {
				ok = reachable[cur]
				break
			}
			if state[cur] == visiting {
				ok = false
				break
			}
			state[cur] = visiting
			chain = append(chain, cur)

			n := nodes[cur]
			if n.IsRoot() {
				ok = true
				break
			}
			if _, exists := nodes[*n.ParentID]; !exists {
				ok = true
				break
			}
			cur = *n.ParentID
		}
		for _, c := range chain {
			state[c] = done
			reachable[c] = ok
		}
	}
	return reachable
}

func cloneItem(item models.MenuItem) models.MenuItem {
	c := item
	if item.ParentID != nil {
		p := *item.ParentID
		c.ParentID = &p
	}
	if item.Path != nil {
		c.Path = append([]int64(nil), item.Path...)
	}
	c.Parent = nil
	return c
}

// CloneItems returns a deep copy of items in the same order.
func CloneItems(items []models.MenuItem) []models.MenuItem {
	out := make([]models.MenuItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

// CloneNode deep-copies a subtree.
func CloneNode(n *Node) *Node {
	c := &Node{MenuItem: cloneItem(n.MenuItem), Children: make([]*Node, 0, len(n.Children))}
	for _, child := range n.Children {
		c.Children = append(c.Children, CloneNode(child))
	}
	return c
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + Count(n.Children)
	}
	return total
}

// Flatten returns the forest's items in pre-order.
func Flatten(forest []*Node) []models.MenuItem {
	out := make([]models.MenuItem, 0, Count(forest))
	var walk func([]*Node)
	walk = func(level []*Node) {
		for _, n := range level {
			out = append(out, cloneItem(n.MenuItem))
			walk(n.Children)
		}
	}
	walk(forest)
	return out
}

// Find returns the node with the given id, or nil.
func Find(forest []*Node, id string) *Node {
	for _, n := range forest {
		if n.ID == id {
			return n
		}
		if found := Find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// PruneInactive returns a copy of the forest without inactive nodes; an
// inactive node hides its whole subtree.
func PruneInactive(forest []*Node) []*Node {
	out := make([]*Node, 0, len(forest))
	for _, n := range forest {
		if !n.IsActive {
			continue
		}
		out = append(out, &Node{MenuItem: cloneItem(n.MenuItem), Children: PruneInactive(n.Children)})
	}
	return out
}

// Descendants returns the ids below id in items, nearest first.
func Descendants(items []models.MenuItem, id string) []string {
	children := make(map[string][]string)
	for _, item := range items {
		if !item.IsRoot() {
			children[*item.ParentID] = append(children[*item.ParentID], item.ID)
		}
	}

	var out []string
	visited := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// WouldCycle reports whether making newParentID the parent of id would put id
// among its own ancestors.
func WouldCycle(items []models.MenuItem, id, newParentID string) bool {
	if newParentID == "" {
		return false
	}
	if newParentID == id {
		return true
	}
	parents := make(map[string]string, len(items))
	for _, item := range items {
		if !item.IsRoot() {
			parents[item.ID] = *item.ParentID
		}
	}

	visited := make(map[string]bool)
	cur := newParentID
	for cur != "" && !visited[cur] {
		if cur == id {
			return true
		}
		visited[cur] = true
		cur = parents[cur]
	}
	return false
}
