// Command parksim runs the theme park simulation with its HTTP API and
// SQLite telemetry log.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/parkworld/internal/api"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/engine"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.DBPath)

	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		slog.Error("failed to encode config", "error", err)
		os.Exit(1)
	}
	runID, err := db.StartRun(cfg.Seed, string(cfgYAML))
	if err != nil {
		slog.Error("failed to start run", "error", err)
		os.Exit(1)
	}

	// ── Park ──────────────────────────────────────────────────────────
	p, err := park.BuildDemo(cfg)
	if err != nil {
		slog.Error("failed to build park", "error", err)
		os.Exit(1)
	}

	rng := entropy.NewSeeded(cfg.Seed)
	rolls := entropy.NewBreakdownRolls(cfg.Storage.RandomOrgKey)
	breakdowns := entropy.BreakdownSource(rolls, rng)
	slog.Info("park built",
		"size", p.Grid.Width*p.Grid.Height,
		"rides", len(p.Rides),
		"facilities", len(p.Facilities),
		"seed", cfg.Seed,
		"random_org", rolls.Live(),
	)

	sim := engine.NewSimulation(cfg, p, rng, breakdowns)

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(cfg.Sim.TickRate)
	eng.SetSpeed(cfg.Sim.Speed)
	eng.OnTick = sim.Step
	eng.OnMinute = func(tick uint64) {
		sim.TickMinute(tick)
		if err := db.SaveTelemetry(runID, sim); err != nil {
			slog.Error("telemetry save failed", "error", err)
		}
	}
	eng.OnHour = sim.TickHour

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		RunID:    runID,
		Addr:     cfg.Server.Addr,
		AdminKey: cfg.Server.AdminKey,
	}
	srv := apiServer.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("simulation running", "run_id", runID, "tick_rate", cfg.Sim.TickRate, "speed", eng.Speed())
	eng.Run(ctx)
	slog.Info("shutting down", "tick", sim.CurrentTick(), "sim_time", sim.SimTime())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	// Final telemetry flush.
	if err := db.SaveTelemetry(runID, sim); err != nil {
		slog.Error("final telemetry save failed", "error", err)
	}
	sim.Book.LogSummary()
	slog.Info("simulation stopped", "breakdown_roll_fallbacks", rolls.Fallbacks())
}
