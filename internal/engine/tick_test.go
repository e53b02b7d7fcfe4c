package engine

import (
	"context"
	"testing"
	"time"
)

type countingAgent struct {
	ticks, long, rare int
	longAt, rareAt    []int
	sched             *Scheduler
	onTick            func()
}

func (a *countingAgent) Tick(dt float64) {
	a.ticks++
	if a.onTick != nil {
		a.onTick()
	}
}

func (a *countingAgent) TickLong(dt float64) {
	a.long++
	a.longAt = append(a.longAt, a.ticks-1)
}

func (a *countingAgent) TickRare(dt float64) {
	a.rare++
	a.rareAt = append(a.rareAt, a.ticks-1)
}

func TestScheduler_LayerFrequenciesOver256Passes(t *testing.T) {
	s := NewScheduler()
	a := &countingAgent{}
	s.Register(a)

	for i := 0; i < 256; i++ {
		s.Tick(0.05)
	}

	if a.ticks != 256 {
		t.Fatalf("ticks=%d want=256", a.ticks)
	}
	if a.long != 2 || a.longAt[0] != 0 || a.longAt[1] != 127 {
		t.Fatalf("long=%d at=%v want 2 at [0 127]", a.long, a.longAt)
	}
	if a.rare != 1 || a.rareAt[0] != 0 {
		t.Fatalf("rare=%d at=%v want 1 at [0]", a.rare, a.rareAt)
	}
	if s.Counter() != 0 {
		t.Fatalf("counter=%d want wrapped to 0", s.Counter())
	}
}

func TestScheduler_CounterWraps(t *testing.T) {
	s := NewScheduler()
	a := &countingAgent{}
	s.Register(a)
	for i := 0; i < 512; i++ {
		s.Tick(0.05)
	}
	// Passes 0 and 127 of each 256-pass cycle; never 254 or 255.
	if a.long != 4 || a.rare != 2 {
		t.Fatalf("long=%d rare=%d want 4/2", a.long, a.rare)
	}
	wantLong := []int{0, 127, 256, 383}
	for i, at := range a.longAt {
		if at != wantLong[i] {
			t.Fatalf("long at=%v want=%v", a.longAt, wantLong)
		}
	}
	if a.rareAt[0] != 0 || a.rareAt[1] != 256 {
		t.Fatalf("rare at=%v want=[0 256]", a.rareAt)
	}
}

func TestScheduler_UnregisterOtherDuringTick(t *testing.T) {
	s := NewScheduler()
	a := &countingAgent{}
	b := &countingAgent{}
	c := &countingAgent{}
	c.onTick = func() { s.Unregister(a) }
	s.Register(a)
	s.Register(b)
	s.Register(c)

	s.Tick(0.05)
	if a.ticks != 0 || b.ticks != 1 || c.ticks != 1 {
		t.Fatalf("a=%d b=%d c=%d want 0 1 1", a.ticks, b.ticks, c.ticks)
	}
	if c.long != 1 {
		t.Fatalf("c long=%d want=1", c.long)
	}

	s.Tick(0.05)
	if b.ticks != 2 || c.ticks != 2 || s.Len() != 2 {
		t.Fatalf("b=%d c=%d len=%d", b.ticks, c.ticks, s.Len())
	}
}

func TestScheduler_ReverseOrder(t *testing.T) {
	s := NewScheduler()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		s.Register(&countingAgent{onTick: func() { order = append(order, i) }})
	}
	s.Tick(0.05)
	if len(order) != 3 || order[0] != 2 || order[1] != 1 || order[2] != 0 {
		t.Fatalf("order=%v want=[2 1 0]", order)
	}
}

func TestScheduler_SelfUnregisterDuringTick(t *testing.T) {
	s := NewScheduler()
	first := &countingAgent{}
	last := &countingAgent{}
	mid := &countingAgent{}
	mid.onTick = func() { s.Unregister(mid) }

	s.Register(first)
	s.Register(mid)
	s.Register(last)
	s.Tick(0.05)
	s.Tick(0.05)

	if first.ticks != 2 || last.ticks != 2 {
		t.Fatalf("neighbours skipped: first=%d last=%d", first.ticks, last.ticks)
	}
	if mid.ticks != 1 {
		t.Fatalf("mid ticks=%d want=1", mid.ticks)
	}
	if s.Len() != 2 {
		t.Fatalf("len=%d want=2", s.Len())
	}
}

func TestScheduler_RegisterDuringTickWaitsForNextPass(t *testing.T) {
	s := NewScheduler()
	late := &countingAgent{}
	spawner := &countingAgent{}
	spawner.onTick = func() {
		if spawner.ticks == 1 {
			s.Register(late)
		}
	}
	s.Register(spawner)

	s.Tick(0.05)
	if late.ticks != 0 {
		t.Fatalf("late agent ticked in the pass that registered it")
	}
	s.Tick(0.05)
	if late.ticks != 1 {
		t.Fatalf("late ticks=%d want=1", late.ticks)
	}
}

func TestScheduler_UnregisterUnknown(t *testing.T) {
	s := NewScheduler()
	s.Register(&countingAgent{})
	s.Unregister(&countingAgent{})
	if s.Len() != 1 {
		t.Fatalf("len=%d want=1", s.Len())
	}
}

func TestDriver_AccumulatesFixedSteps(t *testing.T) {
	var dts []float64
	d := NewDriver(func(dt float64) { dts = append(dts, dt) })

	if n := d.Advance(120 * time.Millisecond); n != 2 {
		t.Fatalf("steps=%d want=2", n)
	}
	if d.Pending() != 20*time.Millisecond {
		t.Fatalf("pending=%v want=20ms", d.Pending())
	}
	if n := d.Advance(30 * time.Millisecond); n != 1 {
		t.Fatalf("steps=%d want=1", n)
	}
	for _, dt := range dts {
		if dt != 0.05 {
			t.Fatalf("dt=%v want=0.05", dt)
		}
	}
	if d.Steps != 3 {
		t.Fatalf("Steps=%d want=3", d.Steps)
	}
}

func TestDriver_SpeedAndPause(t *testing.T) {
	calls := 0
	d := NewDriver(func(float64) { calls++ })
	d.Speed = 2
	d.Advance(100 * time.Millisecond)
	if calls != 4 {
		t.Fatalf("calls=%d want=4 at double speed", calls)
	}
	d.Speed = 0
	d.Advance(time.Second)
	if calls != 4 {
		t.Fatalf("paused driver stepped")
	}
}

func TestDriver_DropsTimeWhenFarBehind(t *testing.T) {
	calls := 0
	d := NewDriver(func(float64) { calls++ })
	if n := d.Advance(10 * time.Second); n != DefaultMaxStepsPerAdvance {
		t.Fatalf("steps=%d want=%d", n, DefaultMaxStepsPerAdvance)
	}
	if d.Pending() != 0 {
		t.Fatalf("pending=%v want=0 after drop", d.Pending())
	}
}

func TestDriver_RunStopsOnCancel(t *testing.T) {
	d := NewDriver(nil)
	d.Step = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	d.Step = 0
	if err := d.Run(context.Background()); err == nil {
		t.Fatalf("expected error for zero step")
	}
}

func TestClockTime(t *testing.T) {
	if got := ClockTime(0, DefaultStep); got != "Day 1, 8:00" {
		t.Fatalf("got %q", got)
	}
	// 20 steps per second, 72000 steps per hour.
	if got := ClockTime(72000*17, DefaultStep); got != "Day 2, 1:00" {
		t.Fatalf("got %q", got)
	}
}
