package script

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxelhold/internal/protocol"
	"voxelhold/internal/sim/catalogs"
	"voxelhold/internal/sim/events"
	"voxelhold/internal/sim/inventory"
)

func testCatalogs() *catalogs.Catalogs {
	c := &catalogs.Catalogs{}
	c.Items.Defs = map[string]*catalogs.ItemDef{}
	for _, id := range []string{"voxel:dirt", "voxel:stone", "voxel:wood", "voxel:sand", "voxel:glass", "voxel:brick"} {
		c.Items.Palette = append(c.Items.Palette, id)
		c.Items.Defs[id] = &catalogs.ItemDef{ID: id, Kind: "BLOCK", StackSize: 64}
	}
	return c
}

type sink struct {
	msgs []any
}

func (s *sink) Send(v any) { s.msgs = append(s.msgs, v) }

func (s *sink) properties() []protocol.PropertyMsg {
	var out []protocol.PropertyMsg
	for _, m := range s.msgs {
		if p, ok := m.(protocol.PropertyMsg); ok {
			out = append(out, p)
		}
	}
	return out
}

func loadMod(t *testing.T, r *Runtime, src string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mod.lua"), []byte(src), 0o644); err != nil {
		t.Fatalf("write mod: %v", err)
	}
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("load mods: %v", err)
	}
}

func newRuntime() (*Runtime, *events.Bus, *inventory.Table) {
	bus := events.NewBus()
	invs := inventory.NewTable()
	r := New(bus, invs, testCatalogs(), log.New(os.Stderr, "", 0))
	return r, bus, invs
}

func TestLoadDirRegistersModSurface(t *testing.T) {
	r, bus, invs := newRuntime()
	loadMod(t, r, `
define_layout("chest", 27, "sort")
on_click("chest", function(view, target, button, shift) return "consumed" end)
on_scroll("chest", function(view, target, x, y, shift) end)
register_event("chest_opened", function(ctx) end)
create_container("shared_chest", 27, "chest")
`)
	layout := r.Layout("chest")
	if layout == nil || layout.Slots != 27 {
		t.Fatalf("layout chest not registered: %+v", layout)
	}
	if !layout.HasControl("sort") {
		t.Fatalf("layout missing sort control")
	}
	if r.ClickHandler("chest") == nil || r.ScrollHandler("chest") == nil {
		t.Fatalf("interaction handlers not registered")
	}
	if n := bus.Registered("chest_opened"); n != 1 {
		t.Fatalf("chest_opened handlers = %d, want 1", n)
	}
	h, ok := r.Container("shared_chest")
	if !ok {
		t.Fatalf("shared_chest not created")
	}
	if inv := invs.Get(h); inv == nil || inv.Size() != 27 {
		t.Fatalf("shared_chest inventory wrong: %v", inv)
	}
	if got := r.ContainerLayout("shared_chest"); got != "chest" {
		t.Fatalf("container layout = %q, want chest", got)
	}
}

func TestLoadDirMissingDirIsNoop(t *testing.T) {
	r, _, _ := newRuntime()
	if err := r.LoadDir(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatalf("missing mods dir: %v", err)
	}
}

func TestClickHandlerMutatesViewAndConsumes(t *testing.T) {
	r, _, invs := newRuntime()
	loadMod(t, r, `
define_layout("panel", 3, "toggle")
on_click("panel", function(view, target, button, shift)
  if target == "toggle" then
    view:set_user_data("on", not view:user_data("on"))
    view:set_property("lit", view:user_data("on"))
    view:set_item(0, "voxel:stone", 5)
    return "consumed"
  end
end)
`)
	inv := invs.Get(invs.Create(3))
	out := &sink{}
	viewer := inventory.NewViewer("p1", out)
	v, err := inv.OpenView(viewer, 0, 3, r.Layout("panel"), r.ClickHandler("panel"), nil)
	if err != nil {
		t.Fatalf("open view: %v", err)
	}

	if err := v.Click(inventory.NamedTarget("toggle"), inventory.ButtonPrimary, false); err != nil {
		t.Fatalf("click toggle: %v", err)
	}
	if on, _ := inv.GetUserData("on").(bool); !on {
		t.Fatalf("user data on = %v, want true", inv.GetUserData("on"))
	}
	st, err := v.GetItem(0)
	if err != nil || st == nil || st.Def().ID != "voxel:stone" || st.Count() != 5 {
		t.Fatalf("slot 0 = %v (%v), want 5 voxel:stone", st, err)
	}

	inv.FlushProperties()
	props := out.properties()
	if len(props) != 1 || props[0].Name != "lit" || props[0].Value != true {
		t.Fatalf("flushed properties = %+v", props)
	}
}

func TestClickHandlerDefaultResultFallsThrough(t *testing.T) {
	r, _, invs := newRuntime()
	loadMod(t, r, `
define_layout("plain", 3)
on_click("plain", function(view, target, button, shift) end)
`)
	inv := invs.Get(invs.Create(3))
	viewer := inventory.NewViewer("p1", &sink{})
	cats := testCatalogs()
	viewer.SetHand(inventory.NewStack(cats.Item("voxel:dirt"), 4))

	v, err := inv.OpenView(viewer, 0, 3, r.Layout("plain"), r.ClickHandler("plain"), nil)
	if err != nil {
		t.Fatalf("open view: %v", err)
	}
	if err := v.Click(inventory.NumericTarget(1), inventory.ButtonPrimary, false); err != nil {
		t.Fatalf("click: %v", err)
	}
	// Built-in behavior: one unit moves from the hand into the slot.
	st, _ := v.GetItem(1)
	if st == nil || st.Count() != 1 {
		t.Fatalf("slot 1 = %v, want 1 unit", st)
	}
	if viewer.Hand() == nil || viewer.Hand().Count() != 3 {
		t.Fatalf("hand = %v, want 3 units", viewer.Hand())
	}
}

func TestClickHandlerErrorBecomesHandlerFailure(t *testing.T) {
	r, _, invs := newRuntime()
	loadMod(t, r, `
define_layout("bomb", 1)
on_click("bomb", function(view, target, button, shift) error("boom") end)
`)
	inv := invs.Get(invs.Create(1))
	v, err := inv.OpenView(inventory.NewViewer("p1", &sink{}), 0, 1, r.Layout("bomb"), r.ClickHandler("bomb"), nil)
	if err != nil {
		t.Fatalf("open view: %v", err)
	}
	err = v.Click(inventory.NumericTarget(0), inventory.ButtonPrimary, false)
	var hf *inventory.HandlerFailure
	if !errors.As(err, &hf) {
		t.Fatalf("click error = %v, want HandlerFailure", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error %q does not carry the script message", err)
	}
}

func TestScrollHandlerReceivesDeltas(t *testing.T) {
	r, _, invs := newRuntime()
	loadMod(t, r, `
define_layout("wheel", 1)
on_scroll("wheel", function(view, target, x, y, shift)
  view:set_user_data("last_y", y)
  return "consumed"
end)
`)
	inv := invs.Get(invs.Create(1))
	v, err := inv.OpenView(inventory.NewViewer("p1", &sink{}), 0, 1, r.Layout("wheel"), nil, r.ScrollHandler("wheel"))
	if err != nil {
		t.Fatalf("open view: %v", err)
	}
	if err := v.Scroll(inventory.NumericTarget(0), 0, -1, false); err != nil {
		t.Fatalf("scroll: %v", err)
	}
	if got, _ := inv.GetUserData("last_y").(int); got != -1 {
		t.Fatalf("last_y = %v, want -1", inv.GetUserData("last_y"))
	}
}

func TestEventHandlersShareMutableContext(t *testing.T) {
	r, bus, _ := newRuntime()
	loadMod(t, r, `
register_event("craft", function(ctx)
  ctx.total = (ctx.total or 0) + ctx.amount
end)
register_event("craft", function(ctx)
  ctx.total = ctx.total * 2
  ctx.amount = nil
end)
`)
	ctx, err := bus.Call("craft", events.Context{"amount": 3})
	if err != nil {
		t.Fatalf("call craft: %v", err)
	}
	if got, _ := ctx["total"].(int); got != 6 {
		t.Fatalf("total = %v, want 6", ctx["total"])
	}
	if _, still := ctx["amount"]; still {
		t.Fatalf("amount should have been removed by the second handler")
	}
}

func TestEventHandlerErrorAbortsChain(t *testing.T) {
	r, bus, _ := newRuntime()
	loadMod(t, r, `
register_event("spawn", function(ctx) error("denied") end)
register_event("spawn", function(ctx) ctx.reached = true end)
`)
	ctx, err := bus.Call("spawn", events.Context{})
	if err == nil || !strings.Contains(err.Error(), "denied") {
		t.Fatalf("call spawn err = %v, want script failure", err)
	}
	if _, reached := ctx["reached"]; reached {
		t.Fatalf("second handler ran after the first failed")
	}
}

func TestModDepositThroughContainerView(t *testing.T) {
	r, bus, invs := newRuntime()
	loadMod(t, r, `
create_container("bin", 2)
register_event("drop", function(ctx)
  local bin = container("bin")
  ctx.leftover = bin:deposit(ctx.item, ctx.count)
end)
`)
	ctx, err := bus.Call("drop", events.Context{"item": "voxel:dirt", "count": 130})
	if err != nil {
		t.Fatalf("call drop: %v", err)
	}
	// A count above one stack clamps to the stack size at creation, so a
	// single drop is at most 64 units and fits in the first slot.
	if got, _ := ctx["leftover"].(int); got != 0 {
		t.Fatalf("leftover = %v, want 0", ctx["leftover"])
	}
	h, _ := r.Container("bin")
	st, _ := invs.Get(h).GetItem(0)
	if st == nil || st.Count() != 64 {
		t.Fatalf("bin slot 0 = %v, want full stack", st)
	}
}
