package inventory

import (
	"voxelhold/internal/protocol"
	"voxelhold/internal/sim/catalogs"
)

var (
	testStone = &catalogs.ItemDef{ID: "STONE", Kind: "BLOCK", StackSize: 64}
	testWood  = &catalogs.ItemDef{ID: "WOOD", Kind: "BLOCK", StackSize: 64}
	testPick  = &catalogs.ItemDef{ID: "PICKAXE", Kind: "TOOL", StackSize: 1}
)

// recorder collects everything sent toward one fake client.
type recorder struct {
	msgs []any
}

func (r *recorder) Send(v any) { r.msgs = append(r.msgs, v) }

func (r *recorder) reset() { r.msgs = nil }

func (r *recorder) views() []protocol.ViewMsg {
	var out []protocol.ViewMsg
	for _, m := range r.msgs {
		if v, ok := m.(protocol.ViewMsg); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *recorder) slots() []protocol.SlotMsg {
	var out []protocol.SlotMsg
	for _, m := range r.msgs {
		if v, ok := m.(protocol.SlotMsg); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *recorder) props() []protocol.PropertyMsg {
	var out []protocol.PropertyMsg
	for _, m := range r.msgs {
		if v, ok := m.(protocol.PropertyMsg); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *recorder) hands() []protocol.HandMsg {
	var out []protocol.HandMsg
	for _, m := range r.msgs {
		if v, ok := m.(protocol.HandMsg); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *recorder) gone() []protocol.ViewGoneMsg {
	var out []protocol.ViewGoneMsg
	for _, m := range r.msgs {
		if v, ok := m.(protocol.ViewGoneMsg); ok {
			out = append(out, v)
		}
	}
	return out
}
