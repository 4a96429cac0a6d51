package menutree

// NavLink is one entry inside a sidebar group.
type NavLink struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Icon     string `json:"icon,omitempty"`
	IsActive bool   `json:"isActive"`
	Level    int    `json:"level"`
}

// NavGroup is a root item shown as a collapsible group.
type NavGroup struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Icon     string    `json:"icon,omitempty"`
	IsActive bool      `json:"isActive"`
	Items    []NavLink `json:"items"`
}

// NavMainData is the grouped navigation: one group per root, with every
// descendant of that root listed flat in pre-order.
type NavMainData struct {
	DashboardID string     `json:"dashboardId"`
	NavMain     []NavGroup `json:"navMain"`
}

// NavMain derives the grouped representation from a forest.
func NavMain(dashboardID string, forest []*Node) NavMainData {
	data := NavMainData{DashboardID: dashboardID, NavMain: make([]NavGroup, 0, len(forest))}
	for _, root := range forest {
		group := NavGroup{
			ID:       root.ID,
			Title:    root.Title,
			URL:      root.URL.Href,
			Icon:     root.Icon,
			IsActive: root.IsActive,
			Items:    []NavLink{},
		}
		var collect func(nodes []*Node, level int)
		collect = func(nodes []*Node, level int) {
			for _, n := range nodes {
				group.Items = append(group.Items, NavLink{
					ID:       n.ID,
					Title:    n.Title,
					URL:      n.URL.Href,
					Icon:     n.Icon,
					IsActive: n.IsActive,
					Level:    level,
				})
				collect(n.Children, level+1)
			}
		}
		collect(root.Children, 2)
		data.NavMain = append(data.NavMain, group)
	}
	return data
}

// GroupOf returns the id of the group (root) that holds itemID, or "".
func (d NavMainData) GroupOf(itemID string) string {
	for _, g := range d.NavMain {
		if g.ID == itemID {
			return g.ID
		}
		for _, link := range g.Items {
			if link.ID == itemID {
				return g.ID
			}
		}
	}
	return ""
}
