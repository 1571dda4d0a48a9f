package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/swarm/geom"
)

// Autopilot flies the ship on a horizontal circle around a center point.
type Autopilot struct {
	Center mgl32.Vec3
	Radius float32
	Height float32
	Speed  float32 // radians per second
}

// PoseAt returns the ship position and orientation at the given path angle.
// The ship faces along the path tangent.
func (a Autopilot) PoseAt(angle float32) (mgl32.Vec3, mgl32.Quat) {
	sin, cos := math.Sincos(float64(angle))
	pos := a.Center.Add(mgl32.Vec3{
		a.Radius * float32(cos),
		a.Height,
		a.Radius * float32(sin),
	})
	tangent := mgl32.Vec3{-float32(sin), 0, float32(cos)}
	return pos, geom.LookRotation(tangent, geom.WorldUp)
}

// Step advances the ship in w by dt seconds.
func (a Autopilot) Step(w *World, dt float32) {
	state := w.ShipState()
	state.Angle = float32(math.Mod(float64(state.Angle+a.Speed*dt), 2*math.Pi))
	pos, rot := a.PoseAt(state.Angle)
	ship := w.Ship()
	ship.SetPosition(pos)
	ship.SetRotation(rot)
}
