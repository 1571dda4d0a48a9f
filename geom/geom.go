// Package geom holds the small amount of 3D math shared by the flock, orbit
// and scene packages. Everything operates on mgl32 values.
package geom

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon below which a vector is treated as zero-length.
const Epsilon = 1e-6

var (
	// WorldForward is the local +Z axis a rotation maps to the heading.
	WorldForward = mgl32.Vec3{0, 0, 1}
	// WorldUp is the local +Y axis.
	WorldUp = mgl32.Vec3{0, 1, 0}
)

// IsFinite reports whether every component of v is a real number.
func IsFinite(v mgl32.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// SafeNormalize returns v scaled to unit length. ok is false (and the zero
// vector returned) when v is too short or not finite.
func SafeNormalize(v mgl32.Vec3) (n mgl32.Vec3, ok bool) {
	if !IsFinite(v) {
		return mgl32.Vec3{}, false
	}
	m := max(abs32(v[0]), abs32(v[1]), abs32(v[2]))
	if m < Epsilon {
		return mgl32.Vec3{}, false
	}
	// Pre-scale by the largest component so the length cannot overflow.
	s := v.Mul(1 / m)
	return s.Mul(1 / s.Len()), true
}

// ClampMagnitude shortens v to at most max, preserving direction. Vectors
// that are not finite clamp to zero.
func ClampMagnitude(v mgl32.Vec3, max float32) mgl32.Vec3 {
	sq := v.LenSqr()
	if sq <= max*max {
		return v
	}
	n, ok := SafeNormalize(v)
	if !ok {
		return mgl32.Vec3{}
	}
	return n.Mul(max)
}

// LookRotation returns the rotation whose forward (+Z) axis points along
// forward and whose up (+Y) axis is as close to up as possible. A degenerate
// forward yields the identity; an up parallel to forward falls back to
// another axis.
func LookRotation(forward, up mgl32.Vec3) mgl32.Quat {
	f, ok := SafeNormalize(forward)
	if !ok {
		return mgl32.QuatIdent()
	}

	r, ok := SafeNormalize(up.Cross(f))
	if !ok {
		alt := mgl32.Vec3{0, 0, 1}
		if abs32(f.Z()) > 0.9 {
			alt = mgl32.Vec3{1, 0, 0}
		}
		r, _ = SafeNormalize(alt.Cross(f))
	}
	u := f.Cross(r)

	m := mgl32.Mat3FromCols(r, u, f)
	return mgl32.Mat4ToQuat(m.Mat4()).Normalize()
}

// Forward returns the world direction of q's local +Z axis.
func Forward(q mgl32.Quat) mgl32.Vec3 {
	return q.Rotate(WorldForward)
}

// Up returns the world direction of q's local +Y axis.
func Up(q mgl32.Quat) mgl32.Vec3 {
	return q.Rotate(WorldUp)
}

// AngleAxis builds a rotation of degrees about axis.
func AngleAxis(degrees float32, axis mgl32.Vec3) mgl32.Quat {
	a, ok := SafeNormalize(axis)
	if !ok {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(mgl32.DegToRad(degrees), a)
}

// EulerDegrees builds a rotation from Z, then X, then Y angles in degrees.
func EulerDegrees(x, y, z float32) mgl32.Quat {
	qx := mgl32.QuatRotate(mgl32.DegToRad(x), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(mgl32.DegToRad(y), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(mgl32.DegToRad(z), mgl32.Vec3{0, 0, 1})
	return qy.Mul(qx).Mul(qz)
}

// InsideUnitSphere samples a point uniformly from the unit ball.
func InsideUnitSphere(rng *rand.Rand) mgl32.Vec3 {
	for {
		v := mgl32.Vec3{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
		}
		if v.LenSqr() <= 1 {
			return v
		}
	}
}

// RandomRotation samples an orientation from three uniform Euler angles.
func RandomRotation(rng *rand.Rand) mgl32.Quat {
	return EulerDegrees(rng.Float32()*360, rng.Float32()*360, rng.Float32()*360)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
