package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello    = "HELLO"
	TypeWelcome  = "WELCOME"
	TypeCatalog  = "CATALOG"
	TypeOpen     = "OPEN"
	TypeClose    = "CLOSE"
	TypeClick    = "CLICK"
	TypeScroll   = "SCROLL"
	TypeView     = "VIEW"
	TypeViewGone = "VIEW_GONE"
	TypeSlot     = "SLOT"
	TypeProperty = "PROPERTY"
	TypeHand     = "HAND"
	TypeError    = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
