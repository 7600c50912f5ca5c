package catalogs

// RenderData packs the per-instance field consumed by the renderer:
// bits [0,8) type/tool tag, bit 9 animated, bits [16,24) per-frame duration
// unit, bits [24,32) frame count. The renderer derives the active frame as
// (elapsed_ms / (duration*16)) mod frame_count.
func RenderData(d *ItemDef) uint32 {
	if d == nil {
		return 0
	}
	v := uint32(d.ToolTag)
	if d.Animated {
		v |= 1 << 9
	}
	v |= uint32(d.FrameDuration) << 16
	v |= uint32(d.FrameCount) << 24
	return v
}
