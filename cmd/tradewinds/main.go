// Command tradewinds runs the settlement trade simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ashvale/tradewinds/internal/api"
	"github.com/ashvale/tradewinds/internal/engine"
	"github.com/ashvale/tradewinds/internal/persistence"
	"github.com/ashvale/tradewinds/internal/scenario"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "scenario YAML file (default: built-in world)")
		dbPath       = flag.String("db", "data/tradewinds.db", "world database path")
		apiPort      = flag.Int("port", 8080, "HTTP API port")
		speed        = flag.Float64("speed", 1.0, "simulation speed multiplier (0 = paused)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// ── Scenario ──────────────────────────────────────────────────────
	var scn *scenario.Scenario
	var err error
	if *scenarioPath != "" {
		scn, err = scenario.Load(*scenarioPath)
	} else {
		scn, err = scenario.Default()
	}
	if err != nil {
		slog.Error("failed to load scenario", "error", err)
		os.Exit(1)
	}
	slog.Info("scenario loaded", "name", scn.Name, "locations", len(scn.Locations))

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(*dbPath), 0755)
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	// ── World ─────────────────────────────────────────────────────────
	sim, err := engine.NewSimulation(scn)
	if err != nil {
		slog.Error("failed to build world", "error", err)
		os.Exit(1)
	}

	hasWorld, err := db.HasWorld()
	if err != nil {
		slog.Error("failed to inspect database", "error", err)
		os.Exit(1)
	}
	if hasWorld {
		if err := db.LoadWorldState(sim); err != nil {
			slog.Error("failed to restore world state", "error", err)
			os.Exit(1)
		}
	} else {
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	worldID, err := db.WorldID()
	if err != nil {
		slog.Error("failed to read world id", "error", err)
		os.Exit(1)
	}
	startTurn := sim.CurrentTurn()
	slog.Info("world ready",
		"world_id", worldID,
		"turn", startTurn,
		"sim_time", engine.SimTime(startTurn),
		"population", sim.Stats.TotalPopulation,
	)

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Turn = startTurn
	eng.SetSpeed(*speed)

	eng.OnTurn = sim.Turn
	eng.OnWeek = func(turn uint64) {
		sim.Report(turn)
		// Auto-save weekly.
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("weekly save failed", "error", err)
		}
	}
	eng.OnSeason = func(turn uint64) {
		slog.Info("season turned",
			"season", engine.SeasonName(engine.SeasonOf(turn)),
			"sim_time", engine.SimTime(turn),
		)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("TRADEWINDS_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("TRADEWINDS_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     *apiPort,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\n%s is open for trade: %d souls across %d settlements.\n",
		scn.Name, sim.Stats.TotalPopulation, len(sim.Settlements))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", *apiPort)
	if startTurn > 0 {
		fmt.Printf("Resuming from turn %d (%s)\n", startTurn, engine.SimTime(startTurn))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveWorldState(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. World state saved.")
}
