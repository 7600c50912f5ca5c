package inventory

import (
	"voxelhold/internal/protocol"
	"voxelhold/internal/sim/catalogs"
)

// ItemStack is a quantity of one item type plus optional metadata. Two stacks
// are stackable iff type and metadata are equal. Counts are always within
// [0, stack_size]; a zero-count stack is normalized to an empty slot at every
// write site.
type ItemStack struct {
	def   *catalogs.ItemDef
	meta  string
	count int
}

func NewStack(def *catalogs.ItemDef, count int) *ItemStack {
	return NewStackMeta(def, "", count)
}

func NewStackMeta(def *catalogs.ItemDef, meta string, count int) *ItemStack {
	if def == nil {
		return nil
	}
	if count < 0 {
		count = 0
	}
	if count > def.StackSize {
		count = def.StackSize
	}
	return &ItemStack{def: def, meta: meta, count: count}
}

func (s *ItemStack) Def() *catalogs.ItemDef { return s.def }
func (s *ItemStack) Meta() string           { return s.meta }
func (s *ItemStack) Count() int             { return s.count }
func (s *ItemStack) StackSize() int         { return s.def.StackSize }

// Stackable reports whether o can merge into s.
func (s *ItemStack) Stackable(o *ItemStack) bool {
	if s == nil || o == nil {
		return false
	}
	return s.def == o.def && s.meta == o.meta
}

// Copy returns a new stack of the same type and metadata with the given count.
func (s *ItemStack) Copy(count int) *ItemStack {
	return NewStackMeta(s.def, s.meta, count)
}

// Add adjusts the count by n, clamped to [0, stack_size].
func (s *ItemStack) Add(n int) {
	s.count += n
	if s.count < 0 {
		s.count = 0
	}
	if s.count > s.def.StackSize {
		s.count = s.def.StackSize
	}
}

func (s *ItemStack) SetCount(n int) {
	s.count = 0
	s.Add(n)
}

// normalize maps a zero-count stack to an empty slot.
func normalize(s *ItemStack) *ItemStack {
	if s == nil || s.count == 0 {
		return nil
	}
	return s
}

// Wire converts to the protocol representation; nil stays nil (empty slot).
func (s *ItemStack) Wire() *protocol.ItemStack {
	if s == nil {
		return nil
	}
	return &protocol.ItemStack{Item: s.def.ID, Count: s.count, Meta: s.meta}
}
