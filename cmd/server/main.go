package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"voxelhold/internal/persistence/invdb"
	persistlog "voxelhold/internal/persistence/log"
	"voxelhold/internal/script"
	"voxelhold/internal/sim/catalogs"
	"voxelhold/internal/sim/events"
	"voxelhold/internal/sim/inventory"
	"voxelhold/internal/sim/tuning"
	"voxelhold/internal/sim/world"
	"voxelhold/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "hold_1", "world id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable inventory persistence")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	cats, err := catalogs.Load(*configDir, tune.DefaultStackSize)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	var store *invdb.Store
	if !*disableDB {
		store, err = invdb.Open(filepath.Join(worldDir, "inventories.db"))
		if err != nil {
			logger.Fatalf("open inventory db: %v", err)
		}
		defer store.Close()
		if err := store.UpsertCatalogs(*configDir, cats); err != nil {
			logger.Printf("upsert catalogs: %v", err)
		}
	}

	bus := events.NewBus()
	invs := inventory.NewTable()
	mods := script.New(bus, invs, cats, logger)
	if err := mods.LoadDir(filepath.Join(*configDir, "mods")); err != nil {
		logger.Fatalf("load mods: %v", err)
	}

	w := world.New(world.Config{ID: *worldID}, tune, cats, mods, invs, bus, logger)
	if store != nil {
		w.SetStore(store)
	}

	auditLog := persistlog.NewAuditLogger(worldDir)
	defer auditLog.Close()
	w.SetAuditLogger(auditLog)

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP voxelhold_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE voxelhold_world_tick gauge\n")
		fmt.Fprintf(rw, "voxelhold_world_tick{world=%q} %d\n", *worldID, w.Tick())

		fmt.Fprintf(rw, "# HELP voxelhold_world_players Connected session count.\n")
		fmt.Fprintf(rw, "# TYPE voxelhold_world_players gauge\n")
		fmt.Fprintf(rw, "voxelhold_world_players{world=%q} %d\n", *worldID, w.Players())

		if store != nil {
			fmt.Fprintf(rw, "# HELP voxelhold_invdb_dropped_saves Inventory saves dropped on queue overflow.\n")
			fmt.Fprintf(rw, "# TYPE voxelhold_invdb_dropped_saves counter\n")
			fmt.Fprintf(rw, "voxelhold_invdb_dropped_saves{world=%q} %d\n", *worldID, store.Dropped())
		}
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
