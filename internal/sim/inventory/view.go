package inventory

import (
	"strconv"

	"github.com/google/uuid"

	"voxelhold/internal/protocol"
)

type ViewID = uuid.UUID

// Layout describes the client-side arrangement a view renders with: a run of
// numeric slot ids plus optional named virtual controls with no backing slot.
type Layout struct {
	ID       string
	Slots    int
	Controls map[string]struct{}
}

func NewLayout(id string, slots int, controls ...string) *Layout {
	l := &Layout{ID: id, Slots: slots, Controls: map[string]struct{}{}}
	for _, c := range controls {
		l.Controls[c] = struct{}{}
	}
	return l
}

func (l *Layout) HasControl(name string) bool {
	if l == nil {
		return false
	}
	_, ok := l.Controls[name]
	return ok
}

// Target addresses either a numeric view-space slot or a named virtual
// control.
type Target struct {
	slot int
	name string
}

func NumericTarget(slot int) Target { return Target{slot: slot} }
func NamedTarget(name string) Target {
	return Target{slot: -1, name: name}
}

// ParseTarget maps a wire target string: all-digit strings address slots,
// anything else names a virtual control.
func ParseTarget(s string) Target {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return NumericTarget(n)
	}
	return NamedTarget(s)
}

func (t Target) Numeric() bool { return t.name == "" }
func (t Target) Slot() int     { return t.slot }
func (t Target) Name() string  { return t.name }

func (t Target) String() string {
	if t.Numeric() {
		return strconv.Itoa(t.slot)
	}
	return t.name
}

// View is a viewer-scoped window [low, high) over one inventory. It holds a
// handle into the table, never an owning reference; its lifetime is capped by
// the inventory's.
type View struct {
	id     ViewID
	table  *Table
	inv    Handle
	low    int
	high   int
	layout *Layout
	viewer *Viewer

	onClick  ClickHandler
	onScroll ScrollHandler
}

func (v *View) ID() ViewID      { return v.id }
func (v *View) Viewer() *Viewer { return v.viewer }
func (v *View) Layout() *Layout { return v.layout }
func (v *View) Size() int       { return v.high - v.low }

// Inventory resolves the owning inventory; nil once it has been destroyed.
func (v *View) Inventory() *Inventory { return v.table.Get(v.inv) }

func (v *View) contains(abs int) bool { return abs >= v.low && abs < v.high }

// mapSlot translates a view-space id to an inventory slot.
func (v *View) mapSlot(id int) (int, error) {
	if id < 0 || id >= v.Size() {
		return 0, ErrOutOfRange
	}
	return v.low + id, nil
}

func (v *View) GetItem(id int) (*ItemStack, error) {
	inv := v.Inventory()
	if inv == nil {
		return nil, ErrOutOfRange
	}
	abs, err := v.mapSlot(id)
	if err != nil {
		return nil, err
	}
	return inv.GetItem(abs)
}

// SetItem funnels the write through the owning inventory, which replicates
// the touched slot to this view's viewer and every other overlapping view.
func (v *View) SetItem(id int, st *ItemStack) error {
	inv := v.Inventory()
	if inv == nil {
		return ErrOutOfRange
	}
	abs, err := v.mapSlot(id)
	if err != nil {
		return err
	}
	return inv.SetItem(abs, st)
}

// SetTarget writes through a parsed target. Named virtual controls have no
// backing slot, so writes against them fail with ErrInvalidTarget.
func (v *View) SetTarget(t Target, st *ItemStack) error {
	if !t.Numeric() {
		return ErrInvalidTarget
	}
	return v.SetItem(t.Slot(), st)
}

// OpenView registers a viewer-facing window over [low, high) and sends the
// full snapshot (layout id, ordered slot contents) plus the current value of
// every client-visible property.
func (inv *Inventory) OpenView(viewer *Viewer, low, high int, layout *Layout, onClick ClickHandler, onScroll ScrollHandler) (*View, error) {
	if low < 0 || high > len(inv.slots) || low > high {
		return nil, ErrOutOfRange
	}
	v := &View{
		id:       uuid.New(),
		table:    inv.table,
		inv:      inv.handle,
		low:      low,
		high:     high,
		layout:   layout,
		viewer:   viewer,
		onClick:  onClick,
		onScroll: onScroll,
	}
	inv.views[v.id] = v

	if viewer != nil && viewer.Out != nil {
		slots := make([]*protocol.ItemStack, v.Size())
		for i := range slots {
			slots[i] = inv.slots[low+i].Wire()
		}
		layoutID := ""
		if layout != nil {
			layoutID = layout.ID
		}
		viewer.Out.Send(protocol.ViewMsg{
			Type:            protocol.TypeView,
			ProtocolVersion: protocol.Version,
			ViewID:          v.id.String(),
			Layout:          layoutID,
			Slots:           slots,
		})
		for name := range inv.clientVisible {
			viewer.Out.Send(protocol.PropertyMsg{
				Type:            protocol.TypeProperty,
				ProtocolVersion: protocol.Version,
				ViewID:          v.id.String(),
				Name:            name,
				Value:           inv.userData[name],
			})
		}
	}
	return v, nil
}

// FullView spans the whole inventory with no layout restriction, for
// programmatic population. It is not registered as an open view and never
// receives replication.
func (inv *Inventory) FullView() *View {
	return &View{
		table: inv.table,
		inv:   inv.handle,
		low:   0,
		high:  len(inv.slots),
	}
}

// CloseView removes a view. Closing never mutates the inventory; closing an
// unknown view is a no-op. During handler dispatch the removal is deferred
// until the dispatch completes.
func (inv *Inventory) CloseView(id ViewID) {
	if _, ok := inv.views[id]; !ok {
		return
	}
	if inv.dispatchDepth > 0 {
		inv.pendingCloses = append(inv.pendingCloses, id)
		return
	}
	inv.removeView(id)
}

func (inv *Inventory) removeView(id ViewID) {
	v, ok := inv.views[id]
	if !ok {
		return
	}
	delete(inv.views, id)
	if v.viewer != nil && v.viewer.Out != nil {
		v.viewer.Out.Send(protocol.ViewGoneMsg{
			Type:            protocol.TypeViewGone,
			ProtocolVersion: protocol.Version,
			ViewID:          id.String(),
		})
	}
}

// Close closes this view through its owning inventory; safe to call from
// inside a handler running against the same inventory.
func (v *View) Close() {
	inv := v.Inventory()
	if inv == nil {
		return
	}
	inv.CloseView(v.id)
}

// Attached reports whether the view is still registered with a live
// inventory. Scripts can close or destroy out from under a session, so
// session bookkeeping checks this before dispatching.
func (v *View) Attached() bool {
	inv := v.table.Get(v.inv)
	if inv == nil {
		return false
	}
	_, ok := inv.views[v.id]
	return ok
}
