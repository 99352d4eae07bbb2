// Command parkmanager runs the autonomous park manager. It observes a running
// parksim through its API, triages park health and hires staff through the
// admin API when a hire would help.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/parkworld/internal/manager"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	apiURL := envOrDefault("PARKSIM_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("PARKSIM_ADMIN_KEY")
	intervalSec := envIntOrDefault("PARKMANAGER_INTERVAL", 60)
	memoryPath := envOrDefault("PARKMANAGER_MEMORY", "data/manager_memory.json")

	if adminKey == "" {
		slog.Error("PARKSIM_ADMIN_KEY is required")
		os.Exit(1)
	}

	interval := time.Duration(intervalSec) * time.Second
	policy := manager.DefaultPolicy()
	if v := envIntOrDefault("PARKMANAGER_MAX_STAFF", 0); v > 0 {
		policy.MaxStaff = v
	}

	slog.Info("park manager starting", "api_url", apiURL, "interval", interval, "max_staff", policy.MaxStaff)

	observer := manager.NewObserver(apiURL)
	actor := manager.NewActor(apiURL, adminKey)
	mem := manager.LoadMemory(memoryPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("waiting for parksim API...")
	if err := waitForAPI(ctx, apiURL); err != nil {
		slog.Error("parksim API unavailable", "error", err)
		os.Exit(1)
	}

	runCycle(observer, actor, mem, policy)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runCycle(observer, actor, mem, policy)
		case <-ctx.Done():
			slog.Info("park manager stopped")
			return
		}
	}
}

// runCycle executes one observe → triage → decide → act cycle.
func runCycle(observer *manager.Observer, actor *manager.Actor, mem *manager.CycleMemory, policy manager.Policy) {
	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}
	health := manager.Triage(snap)
	slog.Info("observation complete",
		"sim_time", snap.Status.SimTime,
		"guests", health.Guests,
		"satisfaction", fmt.Sprintf("%.2f", health.AvgSatisfaction),
		"litter", health.Litter,
		"broken_rides", health.BrokenRides,
		"level", health.Level,
	)

	decision := manager.Decide(snap, health, mem, policy)
	record := manager.CycleRecord{
		Tick:         snap.Status.Tick,
		Action:       decision.Action,
		Satisfaction: health.AvgSatisfaction,
		Litter:       health.Litter,
		Level:        health.Level,
		Rationale:    decision.Rationale,
	}
	defer func() {
		mem.Record(record)
		mem.Save()
	}()

	if decision.Hire == nil {
		slog.Info("cycle complete, no hire", "rationale", decision.Rationale)
		return
	}

	result, err := actor.Hire(decision.Hire)
	if err != nil {
		slog.Error("hire failed", "error", err)
		record.Action = "failed"
		return
	}
	record.Kind = result.Kind
	slog.Info("hired",
		"name", result.Name,
		"kind", result.Kind,
		"x", decision.Hire.X,
		"y", decision.Hire.Y,
		"rationale", decision.Rationale,
	)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds, giving up after five minutes.
func waitForAPI(ctx context.Context, apiURL string) error {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		resp, err := http.Get(apiURL + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("parksim API is ready")
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("no response from %s within 5 minutes", apiURL)
		}
		slog.Info("parksim not ready, retrying...", "backoff", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
