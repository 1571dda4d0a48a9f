package flock

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/geom"
)

// ObstacleProbe answers sphere casts against the obstacle layers. It must be
// safe for concurrent use while a frame is in flight.
type ObstacleProbe interface {
	SphereCast(origin, dir mgl32.Vec3, radius, maxDistance float32, mask uint32) bool
}

// AggregateNeighbors fills dst[start:end] from a full scan of agents.
// Each output depends only on the snapshot, so any partition of [0, n)
// produces identical results.
func AggregateNeighbors(dst []Aggregate, agents []Agent, s *Settings, start, end int) {
	perceptionSq := s.PerceptionSq()
	avoidanceSq := s.AvoidanceSq()

	for i := start; i < end; i++ {
		var agg Aggregate
		pos := agents[i].Position

		for j := range agents {
			if j == i {
				continue
			}
			other := &agents[j]
			offset := other.Position.Sub(pos)
			sqrDst := offset.LenSqr()

			if sqrDst >= perceptionSq {
				continue
			}
			agg.NeighborCount++
			agg.FlockHeading = agg.FlockHeading.Add(other.Heading)
			agg.FlockCenter = agg.FlockCenter.Add(other.Position)

			// Coincident agents have no direction to push apart along.
			if sqrDst < avoidanceSq && sqrDst > 0 {
				agg.Avoidance = agg.Avoidance.Sub(offset.Mul(1 / sqrDst))
			}
		}

		dst[i] = agg
	}
}

// ProbeObstacles casts one sphere forward from each agent in [start, end).
func ProbeObstacles(dst []bool, agents []Agent, probe ObstacleProbe, s *Settings, start, end int) {
	for i := start; i < end; i++ {
		if probe == nil {
			dst[i] = false
			continue
		}
		a := &agents[i]
		dst[i] = probe.SphereCast(a.Position, a.Heading, s.CastRadius, s.CastDistance, s.ObstacleMask)
	}
}

// SteerTowards returns the clamped correction that turns velocity towards
// desired at full speed. A zero or invalid desired vector needs no steering.
func SteerTowards(desired, velocity mgl32.Vec3, s *Settings) mgl32.Vec3 {
	dir, ok := geom.SafeNormalize(desired)
	if !ok {
		return mgl32.Vec3{}
	}
	return geom.ClampMagnitude(dir.Mul(s.MaxSpeed).Sub(velocity), s.MaxSteerForce)
}

// AvoidanceDirection searches the view directions, rotated into the agent's
// frame, for the first one whose cast is clear. found is false when every
// direction is blocked.
func AvoidanceDirection(a *Agent, probe ObstacleProbe, s *Settings) (dir mgl32.Vec3, found bool) {
	if probe == nil {
		return a.Heading, true
	}
	for _, local := range geom.ViewDirections {
		world := a.Rotation.Rotate(local)
		if !probe.SphereCast(a.Position, world, s.CastRadius, s.CastDistance, s.ObstacleMask) {
			return world, true
		}
	}
	return a.Heading, false
}

// Target is the point every agent seeks. A zero Target (Valid false) applies
// no target force.
type Target struct {
	Position mgl32.Vec3
	Valid    bool
}

// BlendForces sums the steering forces for one agent into a fresh
// acceleration. agg holds this frame's aggregate; hit is the forward probe
// result.
func BlendForces(a *Agent, agg *Aggregate, target Target, hit bool, probe ObstacleProbe, s *Settings) (mgl32.Vec3, Avoidance) {
	var accel mgl32.Vec3

	if target.Valid {
		toTarget := target.Position.Sub(a.Position)
		accel = SteerTowards(toTarget, a.Velocity, s).Mul(s.TargetWeight)
	}

	if agg.NeighborCount > 0 {
		center := agg.FlockCenter.Mul(1 / float32(agg.NeighborCount))
		offsetToCenter := center.Sub(a.Position)

		alignment := SteerTowards(agg.FlockHeading, a.Velocity, s).Mul(s.AlignmentWeight)
		cohesion := SteerTowards(offsetToCenter, a.Velocity, s).Mul(s.CohesionWeight)
		separation := SteerTowards(agg.Avoidance, a.Velocity, s).Mul(s.SeparationWeight)

		accel = accel.Add(alignment).Add(cohesion).Add(separation)
	}

	avoid := AvoidNone
	if hit {
		dir, found := AvoidanceDirection(a, probe, s)
		if found {
			avoid = AvoidSteered
			accel = accel.Add(SteerTowards(dir, a.Velocity, s).Mul(s.CollisionAvoidanceWeight))
		} else {
			avoid = AvoidFallback
		}
	}

	return accel, avoid
}

// Integrate advances one agent by dt and writes the new pose through h.
// The speed after integration is always within [MinSpeed, MaxSpeed].
func Integrate(a *Agent, h components.TransformHandle, dt float32, s *Settings) {
	v := a.Velocity.Add(a.Acceleration.Mul(dt))
	if !geom.IsFinite(v) {
		v = a.Velocity
	}

	dir, ok := geom.SafeNormalize(v)
	if !ok {
		dir, ok = geom.SafeNormalize(a.Heading)
		if !ok {
			dir = geom.WorldForward
		}
	}

	speed := v.Len()
	if !(speed >= s.MinSpeed) { // also catches NaN
		speed = s.MinSpeed
	}
	if speed > s.MaxSpeed {
		speed = s.MaxSpeed
	}

	v = dir.Mul(speed)
	a.Velocity = v
	a.Heading = dir
	a.Position = a.Position.Add(v.Mul(dt))
	a.Rotation = geom.LookRotation(dir, a.Up)

	if h == nil {
		return
	}
	h.SetPosition(a.Position)
	h.SetRotation(a.Rotation)
	if vh, ok := h.(components.VelocityHolder); ok {
		vh.SetVelocity(v)
	}
}
