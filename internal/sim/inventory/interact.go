package inventory

// Result is a click/scroll handler outcome: Consumed suppresses the built-in
// pickup/place behavior, Default requests it.
type Result int

const (
	Default Result = iota
	Consumed
)

type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// ClickContext is the per-event record threaded through a click dispatch. It
// is allocated per event and discarded when the dispatch returns.
type ClickContext struct {
	Viewer *Viewer
	View   *View
	Target Target
	Button Button
	Shift  bool
}

type ScrollContext struct {
	Viewer *Viewer
	View   *View
	Target Target
	X, Y   int
	Shift  bool
}

// ClickHandler is the dynamic-dispatch capability supplied per view: one
// implementing variant per handler source (scripted or built-in).
type ClickHandler interface {
	HandleClick(*ClickContext) (Result, error)
}

type ClickHandlerFunc func(*ClickContext) (Result, error)

func (f ClickHandlerFunc) HandleClick(ctx *ClickContext) (Result, error) { return f(ctx) }

type ScrollHandler interface {
	HandleScroll(*ScrollContext) (Result, error)
}

type ScrollHandlerFunc func(*ScrollContext) (Result, error)

func (f ScrollHandlerFunc) HandleScroll(ctx *ScrollContext) (Result, error) { return f(ctx) }

// Click routes one click through the view's handler and, when the handler
// returns Default, applies the built-in behavior. The dispatch runs to
// completion on the game-logic goroutine; view closes requested by the
// handler are deferred until it returns.
func (v *View) Click(t Target, button Button, shift bool) error {
	inv := v.Inventory()
	if inv == nil {
		return ErrOutOfRange
	}
	inv.beginDispatch()
	defer inv.endDispatch()

	result := Default
	if v.onClick != nil {
		r, err := v.onClick.HandleClick(&ClickContext{
			Viewer: v.viewer,
			View:   v,
			Target: t,
			Button: button,
			Shift:  shift,
		})
		if err != nil {
			return &HandlerFailure{Op: "click", Err: err}
		}
		result = r
	}
	if result == Consumed || !t.Numeric() {
		return nil
	}
	return v.defaultClick(t.Slot(), button, shift)
}

// defaultClick exchanges quantity between the viewer's held stack and the
// addressed slot. shift=true transfers the full matching quantity, shift=false
// exactly one unit; with shift held, the primary button works whole stacks and
// the secondary half (rounded down).
func (v *View) defaultClick(id int, button Button, shift bool) error {
	slotItem, err := v.GetItem(id)
	if err != nil {
		return err
	}
	if v.viewer == nil {
		return nil
	}
	hand := v.viewer.Hand()

	switch {
	case !shift:
		v.transferUnits(id, hand, slotItem, 1)
	case button == ButtonSecondary:
		source := hand
		if source == nil {
			source = slotItem
		}
		if source != nil {
			v.transferUnits(id, hand, slotItem, source.count/2)
		}
	default:
		v.swapWhole(id, hand, slotItem)
	}
	return nil
}

// swapWhole exchanges hand and slot. Stackable stacks rebalance so the slot
// holds as full a stack as possible and the hand keeps the remainder.
func (v *View) swapWhole(id int, hand, slotItem *ItemStack) {
	if hand.Stackable(slotItem) {
		total := hand.count + slotItem.count
		toSlot := min(total, slotItem.StackSize())
		_ = v.SetItem(id, slotItem.Copy(toSlot))
		v.viewer.SetHand(hand.Copy(total - toSlot))
		return
	}
	_ = v.SetItem(id, hand)
	v.viewer.SetHand(slotItem)
}

// transferUnits moves up to n units between hand and slot: out of the hand
// when it holds anything, otherwise out of the slot. Incompatible stacks
// leave both sides untouched.
func (v *View) transferUnits(id int, hand, slotItem *ItemStack, n int) {
	if n <= 0 {
		return
	}
	if hand != nil {
		switch {
		case slotItem == nil:
			moved := min(n, hand.count)
			_ = v.SetItem(id, hand.Copy(moved))
			v.viewer.SetHand(hand.Copy(hand.count - moved))
		case slotItem.Stackable(hand):
			moved := min(n, min(hand.count, slotItem.StackSize()-slotItem.count))
			if moved > 0 {
				_ = v.SetItem(id, slotItem.Copy(slotItem.count+moved))
				v.viewer.SetHand(hand.Copy(hand.count - moved))
			}
		}
		return
	}
	if slotItem == nil {
		return
	}
	moved := min(n, slotItem.count)
	v.viewer.SetHand(slotItem.Copy(moved))
	_ = v.SetItem(id, slotItem.Copy(slotItem.count-moved))
}

// Scroll routes one scroll event. The built-in behavior only ever adjusts
// quantity by one unit between hand and slot, in the direction of the scroll
// sign; it never changes item identity.
func (v *View) Scroll(t Target, x, y int, shift bool) error {
	inv := v.Inventory()
	if inv == nil {
		return ErrOutOfRange
	}
	inv.beginDispatch()
	defer inv.endDispatch()

	result := Default
	if v.onScroll != nil {
		r, err := v.onScroll.HandleScroll(&ScrollContext{
			Viewer: v.viewer,
			View:   v,
			Target: t,
			X:      x,
			Y:      y,
			Shift:  shift,
		})
		if err != nil {
			return &HandlerFailure{Op: "scroll", Err: err}
		}
		result = r
	}
	if result == Consumed || !t.Numeric() || y == 0 {
		return nil
	}
	return v.defaultScroll(t.Slot(), y)
}

func (v *View) defaultScroll(id, y int) error {
	slotItem, err := v.GetItem(id)
	if err != nil {
		return err
	}
	if v.viewer == nil {
		return nil
	}
	hand := v.viewer.Hand()

	// Scrolling down pushes one unit from hand into slot, up pulls one back.
	if y < 0 {
		switch {
		case hand == nil:
		case slotItem == nil:
			_ = v.SetItem(id, hand.Copy(1))
			v.viewer.SetHand(hand.Copy(hand.count - 1))
		case slotItem.Stackable(hand) && slotItem.count < slotItem.StackSize():
			_ = v.SetItem(id, slotItem.Copy(slotItem.count+1))
			v.viewer.SetHand(hand.Copy(hand.count - 1))
		}
		return nil
	}
	switch {
	case slotItem == nil:
	case hand == nil:
		v.viewer.SetHand(slotItem.Copy(1))
		_ = v.SetItem(id, slotItem.Copy(slotItem.count-1))
	case hand.Stackable(slotItem) && hand.count < hand.StackSize():
		v.viewer.SetHand(hand.Copy(hand.count + 1))
		_ = v.SetItem(id, slotItem.Copy(slotItem.count-1))
	}
	return nil
}
