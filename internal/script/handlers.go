package script

import (
	"github.com/Shopify/go-lua"

	"voxelhold/internal/sim/events"
	"voxelhold/internal/sim/inventory"
)

// luaClickHandler calls a mod function as (view, target, button, shift) and
// reads an optional "consumed" string result.
type luaClickHandler struct {
	r   *Runtime
	ref int
}

func (h *luaClickHandler) HandleClick(ctx *inventory.ClickContext) (inventory.Result, error) {
	l := h.r.l
	l.RawGetInt(lua.RegistryIndex, h.ref)
	h.r.pushView(ctx.View)
	l.PushString(ctx.Target.String())
	l.PushString(buttonName(ctx.Button))
	l.PushBoolean(ctx.Shift)
	if err := l.ProtectedCall(4, 1, 0); err != nil {
		return inventory.Default, err
	}
	return popResult(l), nil
}

type luaScrollHandler struct {
	r   *Runtime
	ref int
}

func (h *luaScrollHandler) HandleScroll(ctx *inventory.ScrollContext) (inventory.Result, error) {
	l := h.r.l
	l.RawGetInt(lua.RegistryIndex, h.ref)
	h.r.pushView(ctx.View)
	l.PushString(ctx.Target.String())
	l.PushInteger(ctx.X)
	l.PushInteger(ctx.Y)
	l.PushBoolean(ctx.Shift)
	if err := l.ProtectedCall(5, 1, 0); err != nil {
		return inventory.Default, err
	}
	return popResult(l), nil
}

// luaEventHandler passes the shared event context as a table and merges the
// table back afterwards, so mutations reach later handlers in the chain.
type luaEventHandler struct {
	r   *Runtime
	ref int
}

func (h *luaEventHandler) Invoke(ctx events.Context) error {
	l := h.r.l
	h.r.pushContext(ctx)
	l.RawGetInt(lua.RegistryIndex, h.ref)
	l.PushValue(-2)
	if err := l.ProtectedCall(1, 0, 0); err != nil {
		l.Pop(1)
		return err
	}
	h.r.readContext(-1, ctx)
	l.Pop(1)
	return nil
}

func buttonName(b inventory.Button) string {
	if b == inventory.ButtonSecondary {
		return "secondary"
	}
	return "primary"
}

func popResult(l *lua.State) inventory.Result {
	res := inventory.Default
	if s, ok := l.ToString(-1); ok && s == "consumed" {
		res = inventory.Consumed
	}
	l.Pop(1)
	return res
}
