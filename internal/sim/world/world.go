package world

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sort"
	"sync/atomic"

	"voxelhold/internal/protocol"
	"voxelhold/internal/script"
	"voxelhold/internal/sim/catalogs"
	"voxelhold/internal/sim/events"
	"voxelhold/internal/sim/inventory"
	"voxelhold/internal/sim/tuning"
)

type Config struct {
	ID string
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome  protocol.WelcomeMsg
	Catalogs []protocol.CatalogMsg
}

// InputEnvelope carries one decoded client message into the world loop. Raw
// holds the full frame; the loop re-decodes into the concrete type.
type InputEnvelope struct {
	PlayerID string
	Type     string
	Raw      json.RawMessage
}

// InventoryStore persists player inventories across sessions, keyed by player
// name. Implemented in internal/persistence/invdb.
type InventoryStore interface {
	Load(name string) ([]inventory.SavedSlot, error)
	Save(name string, rows []inventory.SavedSlot) error
}

// AuditLogger records every interaction the loop applies (may be nil).
// Implemented in internal/persistence/log.
type AuditLogger interface {
	WriteInteraction(e InteractionEntry) error
}

type InteractionEntry struct {
	Tick   uint64 `json:"tick"`
	Player string `json:"player"`
	Op     string `json:"op"` // "OPEN","CLOSE","CLICK","SCROLL"
	ViewID string `json:"view_id,omitempty"`
	Target string `json:"target,omitempty"`
	Code   string `json:"code,omitempty"` // error code, empty on success
}

// World is the single-threaded authoritative game-logic loop. All simulation
// state must be accessed only from the loop goroutine.
type World struct {
	cfg  Config
	tun  tuning.Tuning
	cats *catalogs.Catalogs
	log  *log.Logger

	tick     atomic.Uint64
	playersN atomic.Int64

	invs    *inventory.Table
	bus     *events.Bus
	mods    *script.Runtime
	players map[string]*Player

	inbox chan InputEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	nextPlayerNum atomic.Uint64

	layoutsDigest string
	layoutsCount  int

	// Optional sinks (may be nil).
	store InventoryStore
	audit AuditLogger
}

// Player is one connected session: its outbox, its own backing inventory, and
// the views it currently holds open.
type Player struct {
	ID     string
	Name   string
	out    *outbox
	viewer *inventory.Viewer
	self   inventory.Handle
	views  map[string]*inventory.View
}

func New(cfg Config, tun tuning.Tuning, cats *catalogs.Catalogs, mods *script.Runtime, invs *inventory.Table, bus *events.Bus, logger *log.Logger) *World {
	w := &World{
		cfg:     cfg,
		tun:     tun,
		cats:    cats,
		log:     logger,
		invs:    invs,
		bus:     bus,
		mods:    mods,
		players: map[string]*Player{},
		inbox:   make(chan InputEnvelope, 1024),
		join:    make(chan JoinRequest, 16),
		leave:   make(chan string, 64),
		stop:    make(chan struct{}),
	}
	w.layoutsDigest, w.layoutsCount = layoutsDigest(mods)
	return w
}

func (w *World) SetStore(s InventoryStore) { w.store = s }

func (w *World) SetAuditLogger(a AuditLogger) { w.audit = a }

func (w *World) ID() string { return w.cfg.ID }

func (w *World) TickRateHz() int { return w.tun.TickRateHz }

func (w *World) Tick() uint64 { return w.tick.Load() }

// Players reports the connected session count as of the last tick.
func (w *World) Players() int { return int(w.playersN.Load()) }

// Join hands a session to the loop; the response arrives on req.Resp after
// the next tick boundary.
func (w *World) Join(req JoinRequest) { w.join <- req }

// Leave queues a disconnect. Safe to call more than once per session.
func (w *World) Leave(playerID string) { w.leave <- playerID }

// Submit queues one client input in server receive order.
func (w *World) Submit(env InputEnvelope) { w.inbox <- env }

type paletteEntry struct {
	ID         string `json:"id"`
	StackSize  int    `json:"stack_size"`
	RenderData uint32 `json:"render_data"`
}

func (w *World) itemCatalogMsg() protocol.CatalogMsg {
	entries := make([]paletteEntry, 0, len(w.cats.Items.Palette))
	for _, id := range w.cats.Items.Palette {
		def := w.cats.Items.Defs[id]
		entries = append(entries, paletteEntry{
			ID:         id,
			StackSize:  def.StackSize,
			RenderData: catalogs.RenderData(def),
		})
	}
	return protocol.CatalogMsg{
		Type:            protocol.TypeCatalog,
		ProtocolVersion: protocol.Version,
		Name:            "item_palette",
		Digest:          w.cats.Items.PaletteDigest,
		Data:            entries,
	}
}

type layoutDef struct {
	ID       string   `json:"id"`
	Slots    int      `json:"slots"`
	Controls []string `json:"controls,omitempty"`
}

func layoutDefs(mods *script.Runtime) []layoutDef {
	if mods == nil {
		return nil
	}
	layouts := mods.Layouts()
	defs := make([]layoutDef, 0, len(layouts))
	for _, l := range layouts {
		d := layoutDef{ID: l.ID, Slots: l.Slots}
		for c := range l.Controls {
			d.Controls = append(d.Controls, c)
		}
		sort.Strings(d.Controls)
		defs = append(defs, d)
	}
	return defs
}

func layoutsDigest(mods *script.Runtime) (string, int) {
	defs := layoutDefs(mods)
	b, err := json.Marshal(defs)
	if err != nil {
		return "", 0
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), len(defs)
}

func (w *World) catalogMsgs() []protocol.CatalogMsg {
	return []protocol.CatalogMsg{w.itemCatalogMsg(), w.layoutsCatalogMsg()}
}

func (w *World) layoutsCatalogMsg() protocol.CatalogMsg {
	return protocol.CatalogMsg{
		Type:            protocol.TypeCatalog,
		ProtocolVersion: protocol.Version,
		Name:            "layouts",
		Digest:          w.layoutsDigest,
		Data:            layoutDefs(w.mods),
	}
}

func (w *World) buildWelcome(playerID string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        playerID,
		TickRateHz:      w.tun.TickRateHz,
		Catalogs: protocol.CatalogDigests{
			ItemPalette: protocol.DigestRef{
				Digest: w.cats.Items.PaletteDigest,
				Count:  len(w.cats.Items.Palette),
			},
			Layouts: protocol.DigestRef{
				Digest: w.layoutsDigest,
				Count:  w.layoutsCount,
			},
		},
	}
}
