package inventory

import (
	"sort"

	"voxelhold/internal/protocol"
	"voxelhold/internal/sim/catalogs"
)

// Outbox delivers protocol messages toward one connected client. The world
// loop supplies an implementation that marshals onto the connection's send
// queue; tests supply a recorder.
type Outbox interface {
	Send(v any)
}

// Viewer is the connection-side identity a view serves. The held (cursor)
// stack lives here, outside any inventory, and replicates to its owner only.
type Viewer struct {
	ID  string
	Out Outbox

	hand *ItemStack
}

func NewViewer(id string, out Outbox) *Viewer {
	return &Viewer{ID: id, Out: out}
}

func (p *Viewer) Hand() *ItemStack { return p.hand }

func (p *Viewer) SetHand(st *ItemStack) {
	p.hand = normalize(st)
	if p.Out != nil {
		p.Out.Send(protocol.HandMsg{
			Type:            protocol.TypeHand,
			ProtocolVersion: protocol.Version,
			Item:            p.hand.Wire(),
		})
	}
}

// Inventory owns the authoritative slot array plus arbitrary user data. It is
// only ever touched from the game-logic goroutine.
type Inventory struct {
	table  *Table
	handle Handle

	slots []*ItemStack

	userData      map[string]any
	clientVisible map[string]struct{}
	dirtyProps    map[string]struct{}

	views map[ViewID]*View

	// Handler dispatch may close views; removals are deferred until the
	// dispatch completes so the registry is never mutated while iterated.
	dispatchDepth int
	pendingCloses []ViewID
}

func (inv *Inventory) Handle() Handle { return inv.handle }
func (inv *Inventory) Size() int      { return len(inv.slots) }

// OpenViews reports the number of currently open views.
func (inv *Inventory) OpenViews() int { return len(inv.views) }

// GetItem returns the stack at slot, or nil for an empty slot.
func (inv *Inventory) GetItem(slot int) (*ItemStack, error) {
	if slot < 0 || slot >= len(inv.slots) {
		return nil, ErrOutOfRange
	}
	return inv.slots[slot], nil
}

// SetItem atomically assigns one slot and replicates only that slot to every
// open view whose range overlaps it. A zero-count stack stores as empty.
func (inv *Inventory) SetItem(slot int, st *ItemStack) error {
	if slot < 0 || slot >= len(inv.slots) {
		return ErrOutOfRange
	}
	inv.slots[slot] = normalize(st)
	inv.syncSlot(slot)
	return nil
}

func (inv *Inventory) syncSlot(slot int) {
	item := inv.slots[slot].Wire()
	for _, v := range inv.views {
		if !v.contains(slot) || v.viewer == nil || v.viewer.Out == nil {
			continue
		}
		v.viewer.Out.Send(protocol.SlotMsg{
			Type:            protocol.TypeSlot,
			ProtocolVersion: protocol.Version,
			ViewID:          v.id.String(),
			Slot:            slot - v.low,
			Item:            item,
		})
	}
}

func (inv *Inventory) SetUserData(name string, value any) {
	inv.userData[name] = value
	if _, ok := inv.clientVisible[name]; ok {
		inv.dirtyProps[name] = struct{}{}
	}
}

func (inv *Inventory) GetUserData(name string) any {
	return inv.userData[name]
}

// SetClientProperty writes user data flagged client-visible: the latest value
// written this tick replicates once to every client with an open view.
func (inv *Inventory) SetClientProperty(name string, value any) {
	inv.clientVisible[name] = struct{}{}
	inv.SetUserData(name, value)
}

// FlushProperties emits one PROPERTY update per dirty client-visible name to
// every open view, then clears all dirty flags. Called once per tick by the
// world loop; intermediate values written within the tick are never observed.
func (inv *Inventory) FlushProperties() {
	if len(inv.dirtyProps) == 0 {
		return
	}
	if len(inv.views) > 0 {
		names := make([]string, 0, len(inv.dirtyProps))
		for name := range inv.dirtyProps {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			inv.sendProperty(name, inv.userData[name])
		}
	}
	clear(inv.dirtyProps)
}

func (inv *Inventory) sendProperty(name string, value any) {
	for _, v := range inv.views {
		if v.viewer == nil || v.viewer.Out == nil {
			continue
		}
		v.viewer.Out.Send(protocol.PropertyMsg{
			Type:            protocol.TypeProperty,
			ProtocolVersion: protocol.Version,
			ViewID:          v.id.String(),
			Name:            name,
			Value:           value,
		})
	}
}

// SavedSlot is the persisted form of one slot.
type SavedSlot struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
	Meta  string `json:"meta,omitempty"`
}

// ExportContent snapshots the slot array as (item, count) rows. Empty slots
// export with an empty item id.
func (inv *Inventory) ExportContent() []SavedSlot {
	out := make([]SavedSlot, len(inv.slots))
	for i, st := range inv.slots {
		if st == nil {
			continue
		}
		out[i] = SavedSlot{Item: st.def.ID, Count: st.count, Meta: st.meta}
	}
	return out
}

// LoadContent replaces the slot array from persisted rows, resolving item ids
// against the catalog, and resyncs every loaded slot to every open view.
// Rows naming unknown items load as empty slots.
func (inv *Inventory) LoadContent(rows []SavedSlot, cats *catalogs.Catalogs) {
	n := len(rows)
	if n > len(inv.slots) {
		n = len(inv.slots)
	}
	for i := 0; i < n; i++ {
		var st *ItemStack
		if rows[i].Item != "" {
			st = NewStackMeta(cats.Item(rows[i].Item), rows[i].Meta, rows[i].Count)
		}
		inv.slots[i] = normalize(st)
		inv.syncSlot(i)
	}
}

func (inv *Inventory) beginDispatch() { inv.dispatchDepth++ }

func (inv *Inventory) endDispatch() {
	inv.dispatchDepth--
	if inv.dispatchDepth > 0 {
		return
	}
	for _, id := range inv.pendingCloses {
		inv.removeView(id)
	}
	inv.pendingCloses = inv.pendingCloses[:0]
}
