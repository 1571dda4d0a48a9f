package flock

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Aggregate is what NeighborAggregation produces for one agent. It is
// rewritten from zero every frame.
type Aggregate struct {
	FlockHeading  mgl32.Vec3 // sum of neighbour headings
	FlockCenter   mgl32.Vec3 // sum of neighbour positions
	Avoidance     mgl32.Vec3 // inverse-square repulsion from close neighbours
	NeighborCount int
}

// Agent is the per-frame record of one flocking agent. Index is the slot in
// the current dense array and changes whenever the population does.
type Agent struct {
	Index        int
	Position     mgl32.Vec3
	Up           mgl32.Vec3
	Heading      mgl32.Vec3
	Velocity     mgl32.Vec3
	Acceleration mgl32.Vec3
	Rotation     mgl32.Quat

	Aggregate
}

// Avoidance is the outcome of the obstacle avoidance search for one agent.
type Avoidance uint8

const (
	AvoidNone     Avoidance = iota // forward probe was clear
	AvoidSteered                   // a clear direction was found and steered towards
	AvoidFallback                  // every direction was blocked, agent flies straight
)

func (a Avoidance) String() string {
	switch a {
	case AvoidSteered:
		return "steered"
	case AvoidFallback:
		return "fallback"
	default:
		return "none"
	}
}
