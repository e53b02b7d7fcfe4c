package agents

import (
	"log/slog"
	"math"

	"github.com/talgya/ski-resort/internal/navigation"
	"github.com/talgya/ski-resort/internal/world"
)

// wanderAttempts bounds the search for a free random point.
const wanderAttempts = 8

// gravitySnap is how close to the ground a guest must be to land.
const gravitySnap = 0.05

// chooseDestination picks what to do next: ride a lift if any exist,
// otherwise visit a lodge, otherwise wander.
func (a *GuestAgent) chooseDestination() {
	a.timer = 0

	if lifts := a.deps.Structures.Lifts(); len(lifts) > 0 {
		a.setTarget(a.cellTarget(lifts[0].Start))
		a.data.State = StateWalkingToLift
		return
	}
	if lodges := a.deps.Structures.Lodges(); len(lodges) > 0 {
		a.setTarget(a.cellTarget(lodges[0]))
		a.data.State = StateWalkingToLodge
		return
	}
	a.setTarget(a.randomPoint())
	a.data.State = StateWandering
}

func (a *GuestAgent) startLeaving() {
	a.data.State = StateLeaving
	a.timer = 0
	a.lastLeg = false
	if a.data.Home != nil {
		a.setTarget(*a.data.Home)
		return
	}
	a.setTarget(a.randomPoint())
}

func (a *GuestAgent) handleWaiting(dt float64) {
	a.timer += dt
	if a.timer >= a.p.WanderWaitTime {
		a.chooseDestination()
	}
}

func (a *GuestAgent) handleInsideLodge(dt float64) {
	a.timer += dt
	if a.timer >= a.p.LodgeWaitTime {
		a.data.Visible = true
		a.chooseDestination()
	}
}

// fieldGoal is the navigation category a field-following state descends.
func (a *GuestAgent) fieldGoal() navigation.Goal {
	switch a.data.State {
	case StateWalkingToLodge:
		return navigation.GoalLodge
	case StateWalkingToLift:
		return navigation.GoalLiftEntrance
	case StateSkiing:
		if len(a.deps.Structures.ParkingLots()) > 0 {
			return navigation.GoalParkingLot
		}
		return navigation.GoalLodge
	default:
		return navigation.GoalNone
	}
}

// followField moves one step down the integration field for the current
// state's goal.
func (a *GuestAgent) followField(dt, speed float64) {
	if a.nearTarget() {
		a.onArrival()
		return
	}

	goal := a.fieldGoal()
	dir := a.deps.Navigation.Direction(a.data.Position, goal)
	if !dir.IsZero() {
		a.move(world.Vec3{X: dir.X, Z: dir.Y}, speed*dt)
		return
	}

	// No downhill neighbour: either on a goal tile, or cut off from all of them.
	d, reachable := a.deps.Navigation.Distance(a.data.Position, goal)
	if (reachable && d == 0) || a.data.State == StateSkiing {
		a.onArrival()
		return
	}
	slog.Debug("guest cannot reach goal, wandering",
		"id", a.data.ID,
		"state", a.data.State,
		"goal", goal,
	)
	a.data.State = StateWandering
	a.timer = 0
	a.setTarget(a.randomPoint())
}

// handleLeaving walks down the parking-lot field while it leads somewhere,
// then walks the last leg straight to the target. Once on the last leg the
// guest never returns to the field, so a home beyond the lot cannot make it
// oscillate.
func (a *GuestAgent) handleLeaving(dt float64) {
	if a.nearTarget() {
		a.onArrival()
		return
	}
	if !a.lastLeg && len(a.deps.Structures.ParkingLots()) > 0 {
		dir := a.deps.Navigation.Direction(a.data.Position, navigation.GoalParkingLot)
		if !dir.IsZero() {
			a.move(world.Vec3{X: dir.X, Z: dir.Y}, a.p.WalkSpeed*dt)
			return
		}
	}
	a.lastLeg = true
	a.steerToTarget(dt, a.p.WalkSpeed)
}

// steerToTarget walks straight at the target, ignoring the fields.
func (a *GuestAgent) steerToTarget(dt, speed float64) {
	if a.data.Target == nil || a.nearTarget() {
		a.onArrival()
		return
	}
	delta := a.data.Target.Sub(a.data.Position)
	delta.Y = 0
	step := math.Min(speed*dt, delta.Len())
	a.move(delta.Normalized(), step)
}

func (a *GuestAgent) handleLift(dt float64) {
	if a.data.Target == nil {
		a.onArrival()
		return
	}
	delta := a.data.Target.Sub(a.data.Position)
	step := math.Min(a.p.LiftSpeed*dt, delta.Len())
	a.data.Position = a.data.Position.Add(delta.Normalized().Scale(step))

	if a.data.Position.Sub(*a.data.Target).Len() < a.p.ArrivalThreshold {
		a.onArrival()
	}
}

// move translates the guest along a planar unit direction and faces it.
func (a *GuestAgent) move(dir world.Vec3, dist float64) {
	if dist <= 0 {
		return
	}
	a.data.Position = a.data.Position.Add(dir.Scale(dist))
	a.data.Rotation = math.Atan2(dir.X, dir.Z)
}

func (a *GuestAgent) applyGravity(dt float64) {
	ground := float64(a.deps.Grid.HeightAt(a.data.Position))
	if a.data.Position.Y > ground+gravitySnap {
		a.data.Position.Y = math.Max(ground, a.data.Position.Y-a.p.Gravity*dt)
		return
	}
	a.data.Position.Y = ground
}

func (a *GuestAgent) nearTarget() bool {
	return a.data.Target != nil &&
		world.PlanarDistance(a.data.Position, *a.data.Target) < a.p.ArrivalThreshold
}

// onArrival advances the state machine when the current leg is done.
func (a *GuestAgent) onArrival() {
	switch a.data.State {
	case StateWalkingToLodge:
		a.data.State = StateInsideLodge
		a.data.Visible = false
		a.timer = 0
		a.deps.Economy.Add(a.p.TicketPrice)

	case StateWalkingToLift:
		a.boardLift()

	case StateRidingLift:
		a.data.State = StateSkiing
		a.setTarget(a.skiTarget())

	case StateSkiing:
		a.chooseDestination()

	case StateLeaving:
		a.queued = true

	case StateWandering:
		a.data.State = StateWaiting
		a.timer = 0

	default:
		slog.Debug("arrival ignored", "id", a.data.ID, "state", a.data.State)
	}
}

// boardLift rides the first lift whose bottom station is close enough, and
// skis down from here otherwise.
func (a *GuestAgent) boardLift() {
	here := world.WorldToGrid(a.data.Position)
	for _, lift := range a.deps.Structures.Lifts() {
		if world.Distance(lift.Start, here) < a.p.LiftSearchRadius {
			a.data.State = StateRidingLift
			a.setTarget(a.cellTarget(lift.End))
			a.deps.Economy.Add(a.p.TicketPrice)
			return
		}
	}
	a.data.State = StateSkiing
	a.setTarget(a.skiTarget())
}

// skiTarget is where a run ends: a parking lot, else a lodge, else anywhere.
func (a *GuestAgent) skiTarget() world.Vec3 {
	if lots := a.deps.Structures.ParkingLots(); len(lots) > 0 {
		return a.cellTarget(lots[0])
	}
	if lodges := a.deps.Structures.Lodges(); len(lodges) > 0 {
		return a.cellTarget(lodges[0])
	}
	return a.randomPoint()
}

// randomPoint returns an in-bounds, unobstructed point within WanderRadius,
// or the current position when none turns up. Path reachability is not
// checked: the point may lie in a pocket walled off by structures, which is
// harmless because wandering guests, and leaving guests on their last leg,
// steer straight at it.
func (a *GuestAgent) randomPoint() world.Vec3 {
	g := a.deps.Grid
	r := a.p.WanderRadius
	for i := 0; i < wanderAttempts; i++ {
		p := world.Vec3{
			X: a.data.Position.X + (a.deps.Rand.Float64()*2-1)*r,
			Z: a.data.Position.Z + (a.deps.Rand.Float64()*2-1)*r,
		}
		c := world.WorldToGrid(p)
		if !g.Contains(c) || g.TileAt(c).Blocking() {
			continue
		}
		p.Y = float64(g.TileAt(c).Height)
		return p
	}
	return a.data.Position
}

func (a *GuestAgent) cellTarget(c world.Cell) world.Vec3 {
	return world.GridToWorld(c, a.deps.Grid.TileAt(c).Height)
}

func (a *GuestAgent) setTarget(p world.Vec3) {
	a.data.Target = &p
}
