// Package engine provides the turn-based simulation loop: production,
// consumption, caravan trade, and price discovery, in that order, once
// per turn. See design doc Section 3.4 and Section 8.2.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Turn cadence. A turn is one sim-day; seasons change production yields
// and the year wraps after four of them.
const (
	TurnsPerWeek   = 7
	TurnsPerSeason = 90
	TurnsPerYear   = 360
)

// Engine drives the simulation forward.
type Engine struct {
	Turn     uint64        // Current turn counter (monotonic, never resets)
	Interval time.Duration // Base turn interval (default 1 second)

	// Callbacks for each cadence layer — populated during setup.
	OnTurn   func(turn uint64) // Every turn
	OnWeek   func(turn uint64) // Every 7 turns
	OnSeason func(turn uint64) // Every 90 turns

	// Speed and the run flag are shared with the HTTP control plane.
	mu      sync.Mutex
	speed   float64
	running bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		speed:    1.0,
		Interval: time.Second,
	}
}

// Speed returns the current speed multiplier (1.0 = real-time, 0 = paused).
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Safe to call while running.
func (e *Engine) SetSpeed(v float64) {
	e.mu.Lock()
	e.speed = v
	e.mu.Unlock()
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) setRunning(v bool) {
	e.mu.Lock()
	e.running = v
	e.mu.Unlock()
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.setRunning(true)
	slog.Info("simulation engine started", "turn", e.Turn, "speed", e.Speed())

	for e.Running() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the turn interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "turn", e.Turn)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.setRunning(false)
}

// Step advances the simulation by one turn.
func (e *Engine) Step() {
	e.Turn++

	if e.OnTurn != nil {
		e.OnTurn(e.Turn)
	}
	if e.Turn%TurnsPerWeek == 0 && e.OnWeek != nil {
		e.OnWeek(e.Turn)
	}
	if e.Turn%TurnsPerSeason == 0 && e.OnSeason != nil {
		e.OnSeason(e.Turn)
	}
}

// SimTime returns a human-readable simulation date from a turn number.
func SimTime(turn uint64) string {
	days := turn%TurnsPerSeason + 1
	seasons := turn / TurnsPerSeason
	season := seasons % 4
	years := seasons/4 + 1

	return fmt.Sprintf("%s Day %d, Year %d", seasonNames[season], days, years)
}
