package inventory

// Handle is a stable identifier into a Table. Views hold handles rather than
// owning references, so an inventory and its views never form an ownership
// cycle; a destroyed inventory leaves dangling handles that resolve to nil.
type Handle uint64

// Table is the arena of live inventories. All access happens on the game-logic
// goroutine, so it needs no locking.
type Table struct {
	invs map[Handle]*Inventory
	next Handle
}

func NewTable() *Table {
	return &Table{invs: map[Handle]*Inventory{}}
}

// Create allocates a new inventory with size empty slots.
func (t *Table) Create(size int) Handle {
	t.next++
	h := t.next
	t.invs[h] = &Inventory{
		table:         t,
		handle:        h,
		slots:         make([]*ItemStack, size),
		userData:      map[string]any{},
		clientVisible: map[string]struct{}{},
		dirtyProps:    map[string]struct{}{},
		views:         map[ViewID]*View{},
	}
	return h
}

// Get resolves a handle; nil if the inventory was destroyed.
func (t *Table) Get(h Handle) *Inventory {
	return t.invs[h]
}

// Destroy force-closes every open view, then drops the inventory.
func (t *Table) Destroy(h Handle) {
	inv := t.invs[h]
	if inv == nil {
		return
	}
	for id := range inv.views {
		inv.CloseView(id)
	}
	delete(t.invs, h)
}

// Len reports the number of live inventories.
func (t *Table) Len() int { return len(t.invs) }

// Range visits every live inventory. The callback must not create or destroy
// inventories while iterating.
func (t *Table) Range(fn func(Handle, *Inventory)) {
	for h, inv := range t.invs {
		fn(h, inv)
	}
}
