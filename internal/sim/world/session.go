package world

import (
	"encoding/json"
	"fmt"

	"voxelhold/internal/sim/events"
	"voxelhold/internal/sim/inventory"
)

// outbox serializes loop-side messages onto a session's byte channel. It
// never blocks the loop: a full queue marks the session dead and the loop
// kicks it at the end of the tick.
type outbox struct {
	ch         chan []byte
	closed     bool
	overflowed bool
}

func (o *outbox) Send(v any) {
	if o.closed || o.overflowed {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case o.ch <- b:
	default:
		o.overflowed = true
	}
}

func (o *outbox) close() {
	if o.closed {
		return
	}
	o.closed = true
	close(o.ch)
}

func (w *World) joinPlayer(name string, out chan []byte) JoinResponse {
	idNum := w.nextPlayerNum.Add(1)
	playerID := fmt.Sprintf("P%06d", idNum)

	p := &Player{
		ID:    playerID,
		Name:  name,
		out:   &outbox{ch: out},
		self:  w.invs.Create(w.tun.PlayerSlots),
		views: map[string]*inventory.View{},
	}
	p.viewer = inventory.NewViewer(playerID, p.out)

	if w.store != nil {
		rows, err := w.store.Load(name)
		switch {
		case err != nil:
			w.log.Printf("load inventory for %s: %v", name, err)
		case rows != nil:
			w.invs.Get(p.self).LoadContent(rows, w.cats)
		}
	}

	w.players[playerID] = p

	if _, err := w.bus.Call("player_joined", events.Context{"player": playerID, "name": name}); err != nil {
		w.log.Printf("player_joined event: %v", err)
	}

	return JoinResponse{
		Welcome:  w.buildWelcome(playerID),
		Catalogs: w.catalogMsgs(),
	}
}

func (w *World) handleLeave(playerID string) {
	p := w.players[playerID]
	if p == nil {
		return
	}
	for _, v := range p.views {
		v.Close()
	}
	if w.store != nil {
		if inv := w.invs.Get(p.self); inv != nil {
			if err := w.store.Save(p.Name, inv.ExportContent()); err != nil {
				w.log.Printf("save inventory for %s: %v", p.Name, err)
			}
		}
	}
	w.invs.Destroy(p.self)
	delete(w.players, playerID)
	p.out.close()

	if _, err := w.bus.Call("player_left", events.Context{"player": playerID, "name": p.Name}); err != nil {
		w.log.Printf("player_left event: %v", err)
	}
}

// savePlayers flushes every online player's inventory to the store.
func (w *World) savePlayers() {
	if w.store == nil {
		return
	}
	for _, p := range w.players {
		inv := w.invs.Get(p.self)
		if inv == nil {
			continue
		}
		if err := w.store.Save(p.Name, inv.ExportContent()); err != nil {
			w.log.Printf("save inventory for %s: %v", p.Name, err)
		}
	}
}
