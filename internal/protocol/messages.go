package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	PlayerName      string            `json:"player_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	PlayerID        string         `json:"player_id"`
	TickRateHz      int            `json:"tick_rate_hz"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ItemPalette DigestRef `json:"item_palette"`
	Layouts     DigestRef `json:"layouts"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// CATALOG (server -> client): one catalog as a single part.
type CatalogMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Name            string      `json:"name"`   // e.g. "item_palette"
	Digest          string      `json:"digest"` // sha256 hex
	Data            interface{} `json:"data"`
}

// ItemStack is the wire form of a stack. A nil *ItemStack means an empty slot.
type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
	Meta  string `json:"meta,omitempty"`
}

// OPEN (client -> server): request a view over a container.
type OpenMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Container       string `json:"container"` // "self" or a named shared container
}

// CLOSE (client -> server)
type CloseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ViewID          string `json:"view_id"`
}

// CLICK (client -> server). Target is a numeric slot id in view space or a
// named virtual control declared by the layout.
type ClickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ViewID          string `json:"view_id"`
	Target          string `json:"target"`
	Button          string `json:"button"` // "primary" | "secondary"
	Shift           bool   `json:"shift"`
}

// SCROLL (client -> server)
type ScrollMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ViewID          string `json:"view_id"`
	Target          string `json:"target"`
	X               int    `json:"x"`
	Y               int    `json:"y"`
	Shift           bool   `json:"shift"`
}

// VIEW (server -> client): full snapshot sent once when a view opens.
type ViewMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ViewID          string       `json:"view_id"`
	Layout          string       `json:"layout,omitempty"`
	Slots           []*ItemStack `json:"slots"`
}

// VIEW_GONE (server -> client): the view was closed server-side.
type ViewGoneMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ViewID          string `json:"view_id"`
}

// SLOT (server -> client): single-slot delta keyed by view-space id.
type SlotMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ViewID          string     `json:"view_id"`
	Slot            int        `json:"slot"`
	Item            *ItemStack `json:"item"`
}

// PROPERTY (server -> client): cosmetic client-visible inventory state.
type PropertyMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ViewID          string      `json:"view_id"`
	Name            string      `json:"name"`
	Value           interface{} `json:"value"`
}

// HAND (server -> client): the viewer's held stack, replicated to its owner only.
type HandMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Item            *ItemStack `json:"item"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
