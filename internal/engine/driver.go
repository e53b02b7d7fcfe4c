package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Driver defaults.
const (
	DefaultStep               = 50 * time.Millisecond
	DefaultMaxStepsPerAdvance = 10
)

// Driver turns real elapsed time into fixed-size simulation steps. Time is
// poured into an accumulator and drained in Step increments, which decouples
// simulation rate from frame rate and keeps runs deterministic for a given
// step size and input sequence.
type Driver struct {
	Step               time.Duration // Fixed increment per simulation step
	Speed              float64       // Multiplier: 1.0 = real-time, 0 = paused
	MaxStepsPerAdvance int           // Cap per Advance; excess time is dropped
	Steps              uint64        // Steps taken so far (monotonic)

	// OnStep runs once per drained increment with the step in seconds.
	OnStep func(dt float64)

	accumulator time.Duration
}

// NewDriver creates a driver with default settings.
func NewDriver(onStep func(dt float64)) *Driver {
	return &Driver{
		Step:               DefaultStep,
		Speed:              1.0,
		MaxStepsPerAdvance: DefaultMaxStepsPerAdvance,
		OnStep:             onStep,
	}
}

// Advance adds elapsed real time (scaled by Speed) and runs as many whole
// steps as the accumulator holds. Returns the number of steps run.
func (d *Driver) Advance(elapsed time.Duration) int {
	if d.Speed <= 0 || d.Step <= 0 || elapsed <= 0 {
		return 0
	}
	d.accumulator += time.Duration(float64(elapsed) * d.Speed)

	dt := d.Step.Seconds()
	n := 0
	for d.accumulator >= d.Step {
		if d.MaxStepsPerAdvance > 0 && n >= d.MaxStepsPerAdvance {
			// Catching up would only fall further behind.
			slog.Warn("simulation falling behind, dropping time",
				"dropped", d.accumulator,
				"steps", n,
			)
			d.accumulator = 0
			break
		}
		if d.OnStep != nil {
			d.OnStep(dt)
		}
		d.accumulator -= d.Step
		d.Steps++
		n++
	}
	return n
}

// Pending returns the time waiting in the accumulator.
func (d *Driver) Pending() time.Duration {
	return d.accumulator
}

// Run drives the simulation in real time until ctx is done. Steps run on
// the calling goroutine; cancellation is only observed between steps.
func (d *Driver) Run(ctx context.Context) error {
	if d.Step <= 0 {
		return fmt.Errorf("driver: invalid step %v", d.Step)
	}
	slog.Info("simulation driver started", "steps", d.Steps, "speed", d.Speed, "step", d.Step)

	ticker := time.NewTicker(d.Step)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation driver stopped", "steps", d.Steps)
			return nil
		case now := <-ticker.C:
			d.Advance(now.Sub(last))
			last = now
		}
	}
}

// ClockTime returns the in-game time of day for a step count, with the
// lifts opening at 08:00 on day 1.
func ClockTime(steps uint64, step time.Duration) string {
	elapsed := time.Duration(steps)*step + 8*time.Hour
	days := int(elapsed / (24 * time.Hour))
	elapsed -= time.Duration(days) * 24 * time.Hour
	hours := int(elapsed / time.Hour)
	minutes := int((elapsed % time.Hour) / time.Minute)
	return fmt.Sprintf("Day %d, %d:%02d", days+1, hours, minutes)
}
