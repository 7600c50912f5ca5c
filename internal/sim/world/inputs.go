package world

import (
	"encoding/json"
	"errors"

	"voxelhold/internal/protocol"
	"voxelhold/internal/sim/inventory"
)

// applyInput routes one client message. The returned entry is what the audit
// log records; Code stays empty on success.
func (w *World) applyInput(p *Player, env InputEnvelope) InteractionEntry {
	entry := InteractionEntry{Tick: w.tick.Load(), Player: p.ID, Op: env.Type}
	switch env.Type {
	case protocol.TypeOpen:
		var msg protocol.OpenMsg
		if err := json.Unmarshal(env.Raw, &msg); err != nil {
			entry.Code = protocol.ErrProtoBadRequest
		} else {
			entry.Target = msg.Container
			entry.Code = w.handleOpen(p, msg)
		}
	case protocol.TypeClose:
		var msg protocol.CloseMsg
		if err := json.Unmarshal(env.Raw, &msg); err != nil {
			entry.Code = protocol.ErrProtoBadRequest
		} else {
			entry.ViewID = msg.ViewID
			entry.Code = w.handleClose(p, msg)
		}
	case protocol.TypeClick:
		var msg protocol.ClickMsg
		if err := json.Unmarshal(env.Raw, &msg); err != nil {
			entry.Code = protocol.ErrProtoBadRequest
		} else {
			entry.ViewID = msg.ViewID
			entry.Target = msg.Target
			entry.Code = w.handleClick(p, msg)
		}
	case protocol.TypeScroll:
		var msg protocol.ScrollMsg
		if err := json.Unmarshal(env.Raw, &msg); err != nil {
			entry.Code = protocol.ErrProtoBadRequest
		} else {
			entry.ViewID = msg.ViewID
			entry.Target = msg.Target
			entry.Code = w.handleScroll(p, msg)
		}
	default:
		entry.Code = protocol.ErrProtoBadRequest
	}
	if entry.Code != "" {
		w.sendError(p, entry.Code, env.Type)
	}
	return entry
}

func (w *World) sendError(p *Player, code, context string) {
	p.out.Send(protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         context,
	})
}

func (w *World) handleOpen(p *Player, msg protocol.OpenMsg) string {
	p.pruneViews()
	if len(p.views) >= w.tun.MaxOpenViews {
		return protocol.ErrBadRequest
	}

	var inv *inventory.Inventory
	var layoutID string
	if msg.Container == "self" {
		inv = w.invs.Get(p.self)
		layoutID = "self"
	} else {
		h, ok := w.mods.Container(msg.Container)
		if !ok {
			return protocol.ErrNotFound
		}
		inv = w.invs.Get(h)
		layoutID = w.mods.ContainerLayout(msg.Container)
	}
	if inv == nil {
		return protocol.ErrNotFound
	}

	v, err := inv.OpenView(p.viewer, 0, inv.Size(), w.mods.Layout(layoutID),
		w.mods.ClickHandler(layoutID), w.mods.ScrollHandler(layoutID))
	if err != nil {
		return protocol.ErrInternal
	}
	p.views[v.ID().String()] = v
	return ""
}

func (w *World) handleClose(p *Player, msg protocol.CloseMsg) string {
	// Closing an unknown or already-closed view is a no-op.
	v, ok := p.views[msg.ViewID]
	if !ok {
		return ""
	}
	v.Close()
	delete(p.views, msg.ViewID)
	return ""
}

func (w *World) handleClick(p *Player, msg protocol.ClickMsg) string {
	v := p.lookupView(msg.ViewID)
	if v == nil {
		return protocol.ErrNotFound
	}
	var button inventory.Button
	switch msg.Button {
	case "primary":
		button = inventory.ButtonPrimary
	case "secondary":
		button = inventory.ButtonSecondary
	default:
		return protocol.ErrProtoBadRequest
	}
	t := inventory.ParseTarget(msg.Target)
	if !t.Numeric() && !v.Layout().HasControl(t.Name()) {
		return protocol.ErrInvalidTarget
	}
	return errorCode(v.Click(t, button, msg.Shift))
}

func (w *World) handleScroll(p *Player, msg protocol.ScrollMsg) string {
	v := p.lookupView(msg.ViewID)
	if v == nil {
		return protocol.ErrNotFound
	}
	t := inventory.ParseTarget(msg.Target)
	if !t.Numeric() && !v.Layout().HasControl(t.Name()) {
		return protocol.ErrInvalidTarget
	}
	return errorCode(v.Scroll(t, msg.X, msg.Y, msg.Shift))
}

// lookupView resolves a view id against the session, dropping entries a
// script closed behind the session's back.
func (p *Player) lookupView(id string) *inventory.View {
	v, ok := p.views[id]
	if !ok {
		return nil
	}
	if !v.Attached() {
		delete(p.views, id)
		return nil
	}
	return v
}

func (p *Player) pruneViews() {
	for id, v := range p.views {
		if !v.Attached() {
			delete(p.views, id)
		}
	}
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var hf *inventory.HandlerFailure
	switch {
	case errors.Is(err, inventory.ErrOutOfRange):
		return protocol.ErrOutOfRange
	case errors.Is(err, inventory.ErrInvalidTarget):
		return protocol.ErrInvalidTarget
	case errors.As(err, &hf):
		return protocol.ErrHandlerFailure
	default:
		return protocol.ErrInternal
	}
}
