package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"voxelhold/internal/sim/world"
)

func TestAuditLoggerWritesDecodableEntries(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)

	entries := []world.InteractionEntry{
		{Tick: 1, Player: "P000001", Op: "OPEN", Target: "self"},
		{Tick: 2, Player: "P000001", Op: "CLICK", ViewID: "v1", Target: "3", Code: "E_OUT_OF_RANGE"},
	}
	for _, e := range entries {
		if err := l.WriteInteraction(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "audit", "audit-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("audit files = %v (%v)", matches, err)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []world.InteractionEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e world.InteractionEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 || got[0].Op != "OPEN" || got[1].Code != "E_OUT_OF_RANGE" {
		t.Fatalf("entries = %+v", got)
	}
}
