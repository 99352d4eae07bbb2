// Package engine provides the real-time tick loop and the simulation that
// runs the park each tick.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine drives the simulation forward. Each tick advances the park by
// 1/TickRate simulated seconds; Speed scales how fast ticks come in real time.
type Engine struct {
	Tick     uint64 // Current tick counter (monotonic, never resets)
	TickRate int    // Ticks per simulated second

	// Callbacks for each tick layer, populated during setup.
	OnTick   func(tick uint64, dt float64) // Every tick
	OnMinute func(tick uint64)             // Every simulated minute
	OnHour   func(tick uint64)             // Every simulated hour

	mu      sync.Mutex
	speed   float64 // 1.0 = real time, 0 = paused
	running bool
	stop    chan struct{}
}

// NewEngine creates an engine running at tickRate ticks per simulated second.
func NewEngine(tickRate int) *Engine {
	if tickRate <= 0 {
		tickRate = 10
	}
	return &Engine{
		TickRate: tickRate,
		speed:    1.0,
		stop:     make(chan struct{}),
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero pauses the loop.
func (e *Engine) SetSpeed(v float64) {
	if v < 0 {
		v = 0
	}
	e.mu.Lock()
	e.speed = v
	e.mu.Unlock()
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// TicksPerMinute is the number of ticks in one simulated minute.
func (e *Engine) TicksPerMinute() uint64 { return uint64(e.TickRate) * 60 }

// Interval is the real-time duration of one tick at speed 1.
func (e *Engine) Interval() time.Duration { return time.Second / time.Duration(e.TickRate) }

// Run starts the simulation loop. It blocks until ctx is cancelled or Stop
// is called.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()
	slog.Info("simulation engine started", "tick", e.Tick, "tick_rate", e.TickRate, "speed", e.Speed())

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick, "reason", ctx.Err())
			return
		case <-e.stop:
			slog.Info("simulation engine stopped", "tick", e.Tick)
			return
		default:
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused, check again shortly.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval()) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}

// Stop halts the simulation loop. It is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

// Step advances the simulation by one tick and fires the layered callbacks.
func (e *Engine) Step() {
	e.Tick++
	dt := 1 / float64(e.TickRate)

	if e.OnTick != nil {
		e.OnTick(e.Tick, dt)
	}

	perMinute := e.TicksPerMinute()
	if e.Tick%perMinute == 0 && e.OnMinute != nil {
		e.OnMinute(e.Tick)
	}
	if e.Tick%(perMinute*60) == 0 && e.OnHour != nil {
		e.OnHour(e.Tick)
	}
}

// SimTime renders a tick count as park clock time. The park opens at 09:00
// on day 1.
func SimTime(tick uint64, tickRate int) string {
	if tickRate <= 0 {
		tickRate = 1
	}
	seconds := tick/uint64(tickRate) + 9*3600
	days := seconds/86400 + 1
	seconds %= 86400
	return fmt.Sprintf("Day %d, %02d:%02d:%02d", days, seconds/3600, seconds%3600/60, seconds%60)
}
