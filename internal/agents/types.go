// Package agents provides the guest data model, the guest state machine,
// and the spawner that creates new guests at the resort entrance.
package agents

import (
	"github.com/talgya/ski-resort/internal/world"
)

// GuestState is a guest's current activity. Numeric values are stable and
// appear in saved data.
type GuestState uint8

const (
	StateWaiting        GuestState = iota // Idle after a wander, before choosing again
	StateWandering                        // Walking straight to a random point
	StateInsideLodge                      // Invisible, resting
	StateWalkingToLodge                   // Following the lodge field
	StateLeaving                          // Walking home, then removed
	StateWalkingToLift                    // Following the lift entrance field
	StateRidingLift                       // Travelling to the lift's top station
	StateSkiing                           // Following the parking lot (or lodge) field downhill
)

var stateNames = [...]string{
	StateWaiting:        "waiting",
	StateWandering:      "wandering",
	StateInsideLodge:    "inside_lodge",
	StateWalkingToLodge: "walking_to_lodge",
	StateLeaving:        "leaving",
	StateWalkingToLift:  "walking_to_lift",
	StateRidingLift:     "riding_lift",
	StateSkiing:         "skiing",
}

// AllStates lists every state in numeric order.
var AllStates = []GuestState{
	StateWaiting, StateWandering, StateInsideLodge, StateWalkingToLodge,
	StateLeaving, StateWalkingToLift, StateRidingLift, StateSkiing,
}

func (s GuestState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// GuestData is the plain state of one guest.
//
// A view layer may write Position and Rotation back each frame; the agent
// reads them on its next tick.
type GuestData struct {
	ID string `json:"id"`

	// Location
	Position world.Vec3  `json:"position"`
	Rotation float64     `json:"rotation"` // Yaw in radians, 0 faces +Z
	Home     *world.Vec3 `json:"home,omitempty"`
	Target   *world.Vec3 `json:"target,omitempty"`

	State   GuestState `json:"state"`
	Energy  uint8      `json:"energy"` // 255 fresh, leaves at or below the threshold
	Money   uint16     `json:"money"`  // Carried but not spent yet
	Visible bool       `json:"visible"`
}

// Params tunes guest behaviour. Speeds are world units per second and
// times are seconds.
type Params struct {
	WalkSpeed         float64
	SkiSpeed          float64
	LiftSpeed         float64
	Gravity           float64
	ArrivalThreshold  float64
	WanderWaitTime    float64
	LodgeWaitTime     float64
	WanderRadius      float64
	LiftSearchRadius  float64 // Cells
	SkiingEnergyCost  uint8
	WalkingEnergyCost uint8
	LeaveThreshold    uint8
	TicketPrice       int64
}

// DefaultParams returns the standard guest tuning.
func DefaultParams() Params {
	return Params{
		WalkSpeed:         3.5,
		SkiSpeed:          5,
		LiftSpeed:         10,
		Gravity:           5,
		ArrivalThreshold:  1.0,
		WanderWaitTime:    1,
		LodgeWaitTime:     3,
		WanderRadius:      20,
		LiftSearchRadius:  4,
		SkiingEnergyCost:  3,
		WalkingEnergyCost: 1,
		LeaveThreshold:    67,
		TicketPrice:       15,
	}
}
