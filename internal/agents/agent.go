package agents

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/talgya/ski-resort/internal/economy"
	"github.com/talgya/ski-resort/internal/engine"
	"github.com/talgya/ski-resort/internal/navigation"
	"github.com/talgya/ski-resort/internal/structures"
	"github.com/talgya/ski-resort/internal/world"
)

// Deps are the collaborators a guest needs. All pointers are mandatory.
// A zero Params means DefaultParams.
type Deps struct {
	Grid       *world.Grid
	Economy    *economy.Economy
	Structures *structures.Registry
	Navigation *navigation.Service
	Scheduler  *engine.Scheduler
	Rand       *rand.Rand
	Params     Params
}

func (d Deps) validate() error {
	switch {
	case d.Grid == nil:
		return errors.New("agents: nil grid")
	case d.Economy == nil:
		return errors.New("agents: nil economy")
	case d.Structures == nil:
		return errors.New("agents: nil structure registry")
	case d.Navigation == nil:
		return errors.New("agents: nil navigation service")
	case d.Scheduler == nil:
		return errors.New("agents: nil scheduler")
	case d.Rand == nil:
		return errors.New("agents: nil rand source")
	}
	return nil
}

// GuestAgent drives one guest's GuestData through the state machine.
type GuestAgent struct {
	data *GuestData
	deps Deps
	p    Params

	timer    float64 // Seconds spent in a timed state
	lastLeg  bool    // Leaving: done with the parking-lot field
	queued   bool
	disposed bool
}

// NewGuestAgent wraps data, registers the agent with the scheduler and
// picks its first destination.
func NewGuestAgent(data *GuestData, deps Deps) (*GuestAgent, error) {
	if data == nil {
		return nil, errors.New("agents: nil guest data")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	p := deps.Params
	if p == (Params{}) {
		p = DefaultParams()
	}

	a := &GuestAgent{data: data, deps: deps, p: p}
	deps.Scheduler.Register(a)
	a.chooseDestination()
	return a, nil
}

// Data returns the guest's live data.
func (a *GuestAgent) Data() *GuestData {
	return a.data
}

// QueuedForDestruction reports whether the guest has left the resort and
// its owner should call Dispose.
func (a *GuestAgent) QueuedForDestruction() bool {
	return a.queued
}

// Disposed reports whether Dispose has run.
func (a *GuestAgent) Disposed() bool {
	return a.disposed
}

// Dispose unregisters the agent and removes it from the guest count.
// Calls after the first are no-ops.
func (a *GuestAgent) Dispose() {
	if a.disposed {
		slog.Debug("guest already disposed", "id", a.data.ID)
		return
	}
	a.disposed = true
	a.deps.Scheduler.Unregister(a)
	a.deps.Grid.Guests().Remove()
}

// Tick runs one step of the state machine.
func (a *GuestAgent) Tick(dt float64) {
	if a.queued {
		return
	}

	if a.data.Energy <= a.p.LeaveThreshold && a.data.State != StateLeaving {
		a.startLeaving()
	}

	switch a.data.State {
	case StateWaiting:
		a.handleWaiting(dt)
	case StateInsideLodge:
		a.handleInsideLodge(dt)
	case StateWalkingToLodge, StateWalkingToLift:
		a.followField(dt, a.p.WalkSpeed)
	case StateSkiing:
		a.followField(dt, a.p.SkiSpeed)
	case StateWandering:
		a.steerToTarget(dt, a.p.WalkSpeed)
	case StateLeaving:
		a.handleLeaving(dt)
	case StateRidingLift:
		a.handleLift(dt)
	}

	if a.data.Visible && a.data.State != StateRidingLift {
		a.applyGravity(dt)
	}
}

// TickLong charges energy for the current activity.
func (a *GuestAgent) TickLong(dt float64) {
	var cost uint8
	switch a.data.State {
	case StateSkiing:
		cost = a.p.SkiingEnergyCost
	case StateWandering, StateWalkingToLift:
		cost = a.p.WalkingEnergyCost
	}
	if cost >= a.data.Energy {
		a.data.Energy = 0
		return
	}
	a.data.Energy -= cost
}

// TickRare is unused by guests.
func (a *GuestAgent) TickRare(dt float64) {}
