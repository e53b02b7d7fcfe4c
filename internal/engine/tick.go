// Package engine provides the tiered tick scheduler and the fixed-step
// driver that feeds it.
package engine

// Tick layer frequencies, in scheduler passes.
const (
	LongFrequency = 127
	RareFrequency = 255

	counterWrap = 256 // The pass counter wraps like a byte.
)

// Tickable is anything the scheduler drives. dt is the fixed step in
// seconds and is passed unscaled to every layer.
type Tickable interface {
	Tick(dt float64)     // Every pass
	TickLong(dt float64) // Passes 0 and LongFrequency of each cycle
	TickRare(dt float64) // Pass 0 of each cycle
}

// Scheduler is the single authority for what runs when.
type Scheduler struct {
	tickables []Tickable
	counter   int // 0..255
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Register appends t. Agents registered during a pass are first visited on
// the next pass.
func (s *Scheduler) Register(t Tickable) {
	s.tickables = append(s.tickables, t)
}

// Unregister removes t by identity. Unknown tickables are ignored. It is
// safe to call during a pass; the rest of that pass still visits every
// remaining tickable exactly once.
func (s *Scheduler) Unregister(t Tickable) {
	for i, x := range s.tickables {
		if x == t {
			s.tickables = append(s.tickables[:i], s.tickables[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered tickables.
func (s *Scheduler) Len() int {
	return len(s.tickables)
}

// Counter returns the pass counter that the next Tick will use.
func (s *Scheduler) Counter() int {
	return s.counter
}

// Tick runs one pass over every tickable in reverse registration order, so
// a tickable may unregister itself during its own callback without causing
// another to be skipped.
//
// The counter wraps at 256, so a plain modulo would also fire the long layer
// at 254 and the rare layer at 255. Each 256-pass cycle instead gets exactly
// two long passes (0 and LongFrequency) and one rare pass (0).
func (s *Scheduler) Tick(dt float64) {
	long := s.counter == 0 || s.counter == LongFrequency
	rare := s.counter == 0

	var last Tickable
	for i := len(s.tickables) - 1; i >= 0; i-- {
		// Earlier callbacks may have shrunk the list by more than one.
		if i >= len(s.tickables) {
			continue
		}
		t := s.tickables[i]
		// A removal below i shifted the one just visited down into i.
		if t == last {
			continue
		}
		last = t

		t.Tick(dt)
		if long {
			t.TickLong(dt)
		}
		if rare {
			t.TickRare(dt)
		}
	}

	s.counter = (s.counter + 1) % counterWrap
}
