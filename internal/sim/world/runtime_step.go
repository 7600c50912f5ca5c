package world

import (
	"voxelhold/internal/sim/events"
	"voxelhold/internal/sim/inventory"
)

func (w *World) stepInternal(joins []JoinRequest, leaves []string, inputs []InputEnvelope) {
	nowTick := w.tick.Load()

	// Leaves then joins, deterministically at the tick boundary.
	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, req := range joins {
		resp := w.joinPlayer(req.Name, req.Out)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}

	// Apply inputs in server receive order (the inbox order).
	for _, env := range inputs {
		p := w.players[env.PlayerID]
		if p == nil {
			continue
		}
		entry := w.applyInput(p, env)
		if w.audit != nil {
			if err := w.audit.WriteInteraction(entry); err != nil {
				w.log.Printf("audit: %v", err)
			}
		}
	}

	// Mod tick hook, only when a mod asked for it.
	if w.bus.Registered("tick") > 0 {
		if _, err := w.bus.Call("tick", events.Context{"tick": int(nowTick)}); err != nil {
			w.log.Printf("tick event: %v", err)
		}
	}

	// One property emit per inventory per tick, after all mutations.
	w.invs.Range(func(_ inventory.Handle, inv *inventory.Inventory) {
		inv.FlushProperties()
	})

	// Sessions whose queues filled this tick are beyond recovery: their
	// replicated view state has gaps. Disconnect them.
	var dead []string
	for id, p := range w.players {
		if p.out.overflowed {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		w.log.Printf("kick %s: outbound queue overflow", id)
		w.handleLeave(id)
	}

	if w.tun.SaveEveryTicks > 0 && nowTick != 0 && nowTick%uint64(w.tun.SaveEveryTicks) == 0 {
		w.savePlayers()
	}

	w.playersN.Store(int64(len(w.players)))
	w.tick.Add(1)
}
