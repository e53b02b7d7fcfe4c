// Guest spawning — creates arriving guests at the resort entrance.
package agents

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/ski-resort/internal/world"
)

// Guest starting values.
const (
	StartingEnergy = 255
	StartingMoney  = 255
)

// Spawner creates guest data and keeps the grid's guest count in step.
type Spawner struct {
	rng     *rand.Rand
	guests  *world.GuestCounter
	spawned uint64
}

// NewSpawner creates a guest spawner with the given seed.
func NewSpawner(seed int64, guests *world.GuestCounter) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		guests: guests,
	}
}

// Rand exposes the spawner's random source so agents it feeds share one
// seeded stream.
func (s *Spawner) Rand() *rand.Rand {
	return s.rng
}

// Spawned returns how many guests this spawner has created.
func (s *Spawner) Spawned() uint64 {
	return s.spawned
}

// Spawn creates a fresh guest standing at pos, whose home is pos.
func (s *Spawner) Spawn(pos world.Vec3) *GuestData {
	// IDs come from the seeded stream so runs replay identically.
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		id = uuid.New()
	}
	home := pos

	s.spawned++
	if s.guests != nil {
		s.guests.Add()
	}

	return &GuestData{
		ID:       id.String(),
		Position: pos,
		Home:     &home,
		State:    StateWandering,
		Energy:   StartingEnergy,
		Money:    StartingMoney,
		Visible:  true,
	}
}
