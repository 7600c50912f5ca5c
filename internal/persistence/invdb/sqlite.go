// Package invdb persists player and container inventories in a local SQLite
// database. All writes funnel through a single writer goroutine so the game
// loop never blocks on disk.
package invdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelhold/internal/sim/catalogs"
	"voxelhold/internal/sim/inventory"
)

type Store struct {
	db *sql.DB

	ch   chan saveReq
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type saveReq struct {
	name string
	rows []inventory.SavedSlot
	done chan struct{}
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		// Deep buffer: a periodic save enqueues one row per online player.
		ch: make(chan saveReq, 8192),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS inventories (
			name TEXT PRIMARY KEY,
			slots_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Save enqueues one inventory write. It reports when the queue is full and
// the write was dropped; the next periodic save carries the state anyway.
func (s *Store) Save(name string, rows []inventory.SavedSlot) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- saveReq{name: name, rows: rows}:
		return nil
	default:
		s.dropped.Add(1)
		return fmt.Errorf("invdb queue full, dropped save for %s", name)
	}
}

// Load reads one inventory synchronously. A missing row returns (nil, nil).
func (s *Store) Load(name string) ([]inventory.SavedSlot, error) {
	if s == nil {
		return nil, nil
	}
	var blob string
	err := s.db.QueryRow(`SELECT slots_json FROM inventories WHERE name = ?`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []inventory.SavedSlot
	if err := json.Unmarshal([]byte(blob), &rows); err != nil {
		return nil, fmt.Errorf("inventory %s: %w", name, err)
	}
	return rows, nil
}

// Dropped reports how many saves were discarded because the queue was full.
func (s *Store) Dropped() uint64 { return s.dropped.Load() }

// UpsertCatalogs records the item catalog the server booted with, so a
// digest mismatch on restart is visible in the database.
func (s *Store) UpsertCatalogs(configDir string, cats *catalogs.Catalogs) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	upsert := func(name, digest string, blob []byte) error {
		_, err := s.db.Exec(
			`INSERT INTO catalogs(name, digest, json, updated_at) VALUES(?,?,?,?)
			 ON CONFLICT(name) DO UPDATE SET digest=excluded.digest, json=excluded.json, updated_at=excluded.updated_at`,
			name, digest, string(blob), now)
		return err
	}

	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "items.json")); err == nil {
			if err := upsert("items_defs", cats.Items.DefsDigest, b); err != nil {
				return err
			}
		}
	}
	b, err := json.Marshal(cats.Items.Palette)
	if err != nil {
		return err
	}
	return upsert("item_palette", cats.Items.PaletteDigest, b)
}

func (s *Store) loop() {
	for r := range s.ch {
		if r.done != nil {
			close(r.done)
			continue
		}
		blob, err := json.Marshal(r.rows)
		if err != nil {
			continue
		}
		now := time.Now().UTC().Format(time.RFC3339Nano)
		_, _ = s.db.Exec(
			`INSERT INTO inventories(name, slots_json, updated_at) VALUES(?,?,?)
			 ON CONFLICT(name) DO UPDATE SET slots_json=excluded.slots_json, updated_at=excluded.updated_at`,
			r.name, blob, now)
	}
}

// Flush blocks until everything queued before it has been written.
func (s *Store) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- saveReq{done: done}
	<-done
}
