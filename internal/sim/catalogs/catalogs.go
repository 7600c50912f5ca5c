package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Items ItemCatalog
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]*ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"` // "BLOCK","TOOL","MATERIAL","FOOD"
	StackSize int    `json:"stack_size,omitempty"`

	// Render inputs consumed by the client-side instance field.
	ToolTag       uint8 `json:"tool_tag,omitempty"`
	Animated      bool  `json:"animated,omitempty"`
	FrameDuration uint8 `json:"frame_duration,omitempty"`
	FrameCount    uint8 `json:"frame_count,omitempty"`
}

func Load(configDir string, defaultStackSize int) (*Catalogs, error) {
	var c Catalogs
	if err := loadItems(filepath.Join(configDir, "items.json"), defaultStackSize, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, defaultStackSize int, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []*ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]*ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if d.StackSize <= 0 {
			d.StackSize = defaultStackSize
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

// Item returns the definition for id, or nil if the catalog doesn't know it.
func (c *Catalogs) Item(id string) *ItemDef {
	if c == nil {
		return nil
	}
	return c.Items.Defs[id]
}
