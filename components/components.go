// Package components defines ECS components for the simulation and the
// transform capability the simulation core writes through.
package components

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Obstacle layers. Masks passed to sphere casts are ORs of these bits.
const (
	LayerAsteroid uint32 = 1 << iota
	LayerShip
)

// Transform is an entity's world pose.
type Transform struct {
	Position mgl32.Vec3 `inspect:"vector,fmt:%.1f"`
	Rotation mgl32.Quat `inspect:"skip"`
}

// Agent marks a flocking enemy and carries its velocity between frames.
type Agent struct {
	Velocity mgl32.Vec3 `inspect:"vector,fmt:%.2f"`
	Wave     uint32     `inspect:"label"` // spawn wave the agent came from
}

// BeltBody is an asteroid orbiting the belt pivot.
type BeltBody struct {
	OrbitSpeed float32 `inspect:"label,fmt:%.1f deg/s"`
	Clockwise  bool    `inspect:"bool"`
}

// Obstacle is a sphere that blocks sphere casts on its layer.
type Obstacle struct {
	Radius float32 `inspect:"bar,max:5"`
	Layer  uint32  `inspect:"label,fmt:%#x"`
}

// Ship is the player ship the flock chases. Angle is the autopilot phase
// along its circular path, in radians.
type Ship struct {
	Angle float32 `inspect:"angle"`
}

// Pivot marks the belt parent transform.
type Pivot struct{}

// TransformHandle is read/write access to one externally owned transform.
// The simulation core never creates or destroys the objects behind handles.
type TransformHandle interface {
	Position() mgl32.Vec3
	SetPosition(mgl32.Vec3)
	Rotation() mgl32.Quat
	SetRotation(mgl32.Quat)
	Forward() mgl32.Vec3
	Up() mgl32.Vec3
}

// VelocityHolder is implemented by handles that keep an agent's velocity
// across flock reinitialisation.
type VelocityHolder interface {
	Velocity() mgl32.Vec3
	SetVelocity(mgl32.Vec3)
}
