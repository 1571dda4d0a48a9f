// Package orbit moves asteroid belt bodies around a pivot. Each frame the
// pivot is snapshotted once and every body is rotated in parallel.
package orbit

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/swarm/geom"
)

// AngleScale converts orbit speed times delta time into degrees.
const AngleScale = 0.15

// Body is the orbit state of one belt object.
type Body struct {
	OrbitSpeed float32
	Clockwise  bool
}

// Pivot is the per-frame snapshot of the belt centre.
type Pivot struct {
	Position mgl32.Vec3
	Up       mgl32.Vec3
}

// RotateAround rotates pos about the axis through pivot by degrees.
func RotateAround(pos, pivot, axis mgl32.Vec3, degrees float32) mgl32.Vec3 {
	q := geom.AngleAxis(degrees, axis)
	return q.Rotate(pos.Sub(pivot)).Add(pivot)
}

// Step advances one body by dt. Clockwise bodies turn about +Up,
// counter-clockwise bodies about -Up.
func Step(pos mgl32.Vec3, b Body, p Pivot, dt float32) mgl32.Vec3 {
	axis := p.Up
	if !b.Clockwise {
		axis = axis.Mul(-1)
	}
	return RotateAround(pos, p.Position, axis, b.OrbitSpeed*dt*AngleScale)
}
