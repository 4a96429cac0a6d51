// Package navstate keeps the menu of the currently selected dashboard for a
// client: it fetches through a Backend, serves repeat selections from the
// shared cache, applies edits optimistically and persists the grouped
// navigation so it can be shown offline.
package navstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"admin-dashboard/cache"
	"admin-dashboard/idgen"
	"admin-dashboard/menutree"
	"admin-dashboard/models"
	"admin-dashboard/services"
	"admin-dashboard/types"
)

type State int

const (
	Idle State = iota
	Loading
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrSuperseded is returned by a Select whose result arrived after a newer
	// selection; the result was dropped.
	ErrSuperseded = errors.New("navstate: selection superseded")
	ErrNotReady   = errors.New("navstate: menu is not loaded")
)

// Backend is where menus come from and where edits go. apiclient.Client
// implements it over HTTP; ServiceBackend calls a MenuService in process.
type Backend interface {
	FetchMenu(ctx context.Context, dashboardID string) ([]models.MenuItem, error)
	CreateItem(ctx context.Context, in services.CreateMenuItemInput) (*models.MenuItem, error)
	UpdateItem(ctx context.Context, in services.UpdateMenuItemInput) (*models.MenuItem, error)
	DeleteItem(ctx context.Context, id string, cascade bool) (*services.DeleteMenuItemResult, error)
}

type ServiceBackend struct {
	Menus *services.MenuService
}

func (b ServiceBackend) FetchMenu(ctx context.Context, dashboardID string) ([]models.MenuItem, error) {
	return b.Menus.GetItems(ctx, dashboardID)
}

func (b ServiceBackend) CreateItem(ctx context.Context, in services.CreateMenuItemInput) (*models.MenuItem, error) {
	return b.Menus.CreateItem(ctx, in)
}

func (b ServiceBackend) UpdateItem(ctx context.Context, in services.UpdateMenuItemInput) (*models.MenuItem, error) {
	return b.Menus.UpdateItem(ctx, in)
}

func (b ServiceBackend) DeleteItem(ctx context.Context, id string, cascade bool) (*services.DeleteMenuItemResult, error) {
	return b.Menus.DeleteItem(ctx, id, cascade)
}

// View is a copy of the provider state, safe to keep and render.
type View struct {
	DashboardID string
	State       State
	Items       []models.MenuItem
	Tree        []*menutree.Node
	Nav         menutree.NavMainData
	Err         error
}

type Provider struct {
	backend Backend
	cache   *cache.MenuCache
	store   SnapshotStore

	mu          sync.Mutex
	dashboardID string
	state       State
	items       []models.MenuItem
	confirmed   []models.MenuItem
	tree        []*menutree.Node
	err         error
	gen         uint64
	cancel      context.CancelFunc
}

// NewProvider builds an idle provider. store may be nil.
func NewProvider(backend Backend, c *cache.MenuCache, store SnapshotStore) *Provider {
	if c == nil {
		c = cache.NewMenuCache(0)
	}
	return &Provider{backend: backend, cache: c, store: store}
}

// Select switches to dashboardID and loads its menu. Only the latest
// selection is committed: an older call still waiting on its fetch returns
// ErrSuperseded once the fetch ends, and its result is dropped. An empty id
// returns the provider to Idle.
func (p *Provider) Select(ctx context.Context, dashboardID string) error {
	dashboardID = strings.TrimSpace(dashboardID)

	p.mu.Lock()
	p.gen++
	gen := p.gen
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.dashboardID = dashboardID
	p.err = nil

	if dashboardID == "" {
		p.state = Idle
		p.setItems(nil)
		p.mu.Unlock()
		return nil
	}
	if entry, ok := p.cache.GetFresh(dashboardID); ok {
		p.confirm(entry.Items)
		p.mu.Unlock()
		return nil
	}

	p.state = Loading
	p.setItems(nil)
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	items, err := p.backend.FetchMenu(fetchCtx, dashboardID)
	return p.commit(ctx, gen, dashboardID, items, err)
}

func (p *Provider) commit(ctx context.Context, gen uint64, dashboardID string, items []models.MenuItem, fetchErr error) error {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		slog.Debug("drop superseded menu fetch", "dashboard_id", dashboardID)
		return ErrSuperseded
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if fetchErr != nil {
		p.state = Error
		p.err = fetchErr
		p.setItems(nil)
		p.confirmed = nil
		p.mu.Unlock()
		slog.Warn("fetch menu", "dashboard_id", dashboardID, "error", fetchErr)
		return fetchErr
	}

	p.cache.Set(dashboardID, items)
	p.confirm(items)
	nav := menutree.NavMain(dashboardID, p.tree)
	p.mu.Unlock()

	p.save(ctx, dashboardID, nav)
	return nil
}

// confirm records items as the server's view and moves to Ready. Callers hold mu.
func (p *Provider) confirm(items []models.MenuItem) {
	p.setItems(items)
	p.confirmed = menutree.CloneItems(p.items)
	p.state = Ready
	p.cache.SetTree(p.dashboardID, p.tree)
}

// setItems replaces the working list and rebuilds the tree. Callers hold mu.
func (p *Provider) setItems(items []models.MenuItem) {
	if items == nil {
		p.items = nil
		p.tree = nil
		return
	}
	p.items = menutree.Annotate(items)
	p.tree = menutree.BuildTree(p.items)
}

// View returns a copy of the current state.
func (p *Provider) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		DashboardID: p.dashboardID,
		State:       p.state,
		Items:       menutree.CloneItems(p.items),
		Tree:        make([]*menutree.Node, 0, len(p.tree)),
		Err:         p.err,
	}
	for _, n := range p.tree {
		v.Tree = append(v.Tree, menutree.CloneNode(n))
	}
	v.Nav = menutree.NavMain(p.dashboardID, v.Tree)
	return v
}

// Snapshot returns the last navigation persisted for dashboardID.
func (p *Provider) Snapshot(ctx context.Context, dashboardID string) (menutree.NavMainData, time.Time, bool, error) {
	if p.store == nil {
		return menutree.NavMainData{}, time.Time{}, false, nil
	}
	return p.store.Load(ctx, dashboardID)
}

// begin checks that a menu is loaded and returns the current selection.
func (p *Provider) begin() (uint64, string, error) {
	if p.state != Ready {
		return 0, "", ErrNotReady
	}
	return p.gen, p.dashboardID, nil
}

// AddItem shows the new item right away and then creates it on the server.
func (p *Provider) AddItem(ctx context.Context, in services.CreateMenuItemInput) (*models.MenuItem, error) {
	p.mu.Lock()
	gen, dashboardID, err := p.begin()
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	in.DashboardID = dashboardID

	var parentID *string
	if in.ParentID != nil && *in.ParentID != "" {
		id := *in.ParentID
		parentID = &id
	}
	order := nextOrder(p.items, parentID)
	if in.OrderIndex != nil {
		order = *in.OrderIndex
	}
	pending := models.MenuItem{
		ID:          "pending-" + idgen.NewUUID(),
		Title:       strings.TrimSpace(in.Title),
		Icon:        in.Icon,
		URL:         models.MenuURL{Href: in.Href, Target: in.Target, Rel: in.Rel},
		ParentID:    parentID,
		DashboardID: dashboardID,
		OrderIndex:  order,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   time.Now(),
	}
	if in.URL != nil {
		pending.URL = *in.URL
	}
	p.setItems(append(menutree.CloneItems(p.items), pending))
	p.mu.Unlock()

	created, err := p.backend.CreateItem(ctx, in)
	if err != nil {
		p.rollback(gen, err)
		return nil, err
	}
	p.settle(ctx, gen, dashboardID)
	return created, nil
}

// UpdateItem applies the change locally, then on the server.
func (p *Provider) UpdateItem(ctx context.Context, in services.UpdateMenuItemInput) (*models.MenuItem, error) {
	p.mu.Lock()
	gen, dashboardID, err := p.begin()
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}

	items := menutree.CloneItems(p.items)
	idx := indexOf(items, in.ID)
	if idx < 0 {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: menu item %s", services.ErrNotFound, in.ID)
	}
	if in.ParentID.Set {
		if parent := in.ParentID.Ptr(); parent != nil && *parent != "" {
			if indexOf(items, *parent) < 0 {
				p.mu.Unlock()
				return nil, fmt.Errorf("%w: parent %s is not an item of dashboard %s", services.ErrValidation, *parent, dashboardID)
			}
			if menutree.WouldCycle(items, in.ID, *parent) {
				p.mu.Unlock()
				return nil, fmt.Errorf("%w: moving %s under %s would create a cycle", services.ErrValidation, in.ID, *parent)
			}
		}
	}
	applyUpdate(&items[idx], in)
	p.setItems(items)
	p.mu.Unlock()

	updated, err := p.backend.UpdateItem(ctx, in)
	if err != nil {
		p.rollback(gen, err)
		return nil, err
	}
	p.settle(ctx, gen, dashboardID)
	return updated, nil
}

// DeleteItem hides the item (and with cascade its subtree; otherwise its
// children move to the root level) before asking the server.
func (p *Provider) DeleteItem(ctx context.Context, id string, cascade bool) (*services.DeleteMenuItemResult, error) {
	p.mu.Lock()
	gen, dashboardID, err := p.begin()
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if indexOf(p.items, id) < 0 {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: menu item %s", services.ErrNotFound, id)
	}

	gone := map[string]bool{id: true}
	if cascade {
		for _, d := range menutree.Descendants(p.items, id) {
			gone[d] = true
		}
	}
	kept := make([]models.MenuItem, 0, len(p.items))
	for _, item := range menutree.CloneItems(p.items) {
		if gone[item.ID] {
			continue
		}
		if !item.IsRoot() && *item.ParentID == id {
			item.ParentID = nil
		}
		kept = append(kept, item)
	}
	p.setItems(kept)
	p.mu.Unlock()

	result, err := p.backend.DeleteItem(ctx, id, cascade)
	if err != nil {
		p.rollback(gen, err)
		return nil, err
	}
	p.settle(ctx, gen, dashboardID)
	return result, nil
}

// ChangeGroup moves an item to the end of another sidebar group. An empty
// groupID makes the item a group of its own.
func (p *Provider) ChangeGroup(ctx context.Context, itemID, groupID string) (*models.MenuItem, error) {
	p.mu.Lock()
	if _, _, err := p.begin(); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	in := services.UpdateMenuItemInput{ID: itemID}
	var parent *string
	if groupID != "" {
		idx := indexOf(p.items, groupID)
		if idx < 0 || !p.items[idx].IsRoot() {
			p.mu.Unlock()
			return nil, fmt.Errorf("%w: %s is not a group", services.ErrValidation, groupID)
		}
		parent = &groupID
		in.ParentID = types.NullableString{Set: true, Valid: true, Value: groupID}
	} else {
		in.ParentID.Set = true
	}
	order := nextOrder(p.items, parent)
	in.OrderIndex = &order
	p.mu.Unlock()

	return p.UpdateItem(ctx, in)
}

// rollback restores the last state confirmed by the server, unless the
// selection changed meanwhile.
func (p *Provider) rollback(gen uint64, cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	p.setItems(p.confirmed)
	slog.Warn("menu change rejected, reverted", "dashboard_id", p.dashboardID, "error", cause)
}

// settle refetches after an accepted change and persists the navigation. A
// failed refetch keeps the optimistic state.
func (p *Provider) settle(ctx context.Context, gen uint64, dashboardID string) {
	p.cache.Invalidate(dashboardID)
	items, err := p.backend.FetchMenu(ctx, dashboardID)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	if err != nil {
		slog.Warn("refresh menu after change", "dashboard_id", dashboardID, "error", err)
	} else {
		p.cache.Set(dashboardID, items)
		p.confirm(items)
	}
	nav := menutree.NavMain(dashboardID, p.tree)
	p.mu.Unlock()

	p.save(ctx, dashboardID, nav)
}

func (p *Provider) save(ctx context.Context, dashboardID string, nav menutree.NavMainData) {
	if p.store == nil {
		return
	}
	if err := p.store.Save(ctx, dashboardID, nav); err != nil {
		slog.Warn("save navigation snapshot", "dashboard_id", dashboardID, "error", err)
	}
}

func applyUpdate(item *models.MenuItem, in services.UpdateMenuItemInput) {
	if in.Title != nil {
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Icon != nil {
		item.Icon = *in.Icon
	}
	if in.URL != nil {
		item.URL = *in.URL
	} else if in.Href != nil {
		item.URL.Href = *in.Href
	}
	if in.ParentID.Set {
		item.ParentID = in.ParentID.Ptr()
		if item.ParentID != nil && *item.ParentID == "" {
			item.ParentID = nil
		}
	}
	if in.OrderIndex != nil {
		item.OrderIndex = *in.OrderIndex
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
}

func indexOf(items []models.MenuItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func nextOrder(items []models.MenuItem, parentID *string) int {
	next := 0
	for _, item := range items {
		sameParent := (parentID == nil && item.IsRoot()) ||
			(parentID != nil && !item.IsRoot() && *item.ParentID == *parentID)
		if sameParent && item.OrderIndex >= next {
			next = item.OrderIndex + 1
		}
	}
	return next
}
