// Package camera provides an orbit camera for viewing the belt.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera orbits a target point at a distance. Yaw and pitch are radians.
type Camera struct {
	// Target is the point the camera looks at
	Target mgl32.Vec3

	Yaw, Pitch float32
	Distance   float32

	// Vertical field of view in degrees
	Fovy float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Zoom constraints
	MinDistance, MaxDistance float32

	home mgl32.Vec3
}

// Pitch stays short of the poles so the up vector stays valid.
const maxPitch = math.Pi/2 - 0.05

// Clip planes for projection.
const (
	nearPlane = 0.1
	farPlane  = 2000
)

// New creates a camera looking at target from distance, slightly above the
// orbit plane.
func New(viewportW, viewportH float32, target mgl32.Vec3, distance float32) *Camera {
	return &Camera{
		Target:      target,
		Yaw:         0,
		Pitch:       0.6,
		Distance:    distance,
		Fovy:        60,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 5,
		MaxDistance: max(distance*4, 5),
		home:        target,
	}
}

// Position returns the camera eye in world coordinates.
func (c *Camera) Position() mgl32.Vec3 {
	sy, cy := math.Sincos(float64(c.Yaw))
	sp, cp := math.Sincos(float64(c.Pitch))
	offset := mgl32.Vec3{
		float32(cp * sy),
		float32(sp),
		-float32(cp * cy),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// View returns the view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.ViewportH > 0 {
		aspect = c.ViewportW / c.ViewportH
	}
	return mgl32.Perspective(mgl32.DegToRad(c.Fovy), aspect, nearPlane, farPlane)
}

// WorldToScreen projects a world point to screen pixels. ok is false when
// the point is behind the camera.
func (c *Camera) WorldToScreen(p mgl32.Vec3) (sx, sy float32, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	sx = (ndcX + 1) * 0.5 * c.ViewportW
	sy = (1 - ndcY) * 0.5 * c.ViewportH
	return sx, sy, true
}

// ScreenToRay returns the world ray through screen pixel (sx, sy).
func (c *Camera) ScreenToRay(sx, sy float32) (origin, dir mgl32.Vec3) {
	origin = c.Position()
	if c.ViewportW <= 0 || c.ViewportH <= 0 {
		return origin, c.Target.Sub(origin).Normalize()
	}
	ndcX := 2*sx/c.ViewportW - 1
	ndcY := 1 - 2*sy/c.ViewportH

	inv := c.Projection().Mul4(c.View()).Inv()
	far := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	if far.W() == 0 {
		return origin, c.Target.Sub(origin).Normalize()
	}
	farPt := far.Vec3().Mul(1 / far.W())
	return origin, farPt.Sub(origin).Normalize()
}

// IsVisible returns true if a sphere at p with the given radius could be
// on screen (conservative check for culling).
func (c *Camera) IsVisible(p mgl32.Vec3, radius float32) bool {
	eye := c.Position()
	forward := c.Target.Sub(eye).Normalize()
	toPoint := p.Sub(eye)

	depth := toPoint.Dot(forward)
	if depth < -radius {
		return false
	}
	if depth <= nearPlane {
		return true
	}

	// Half-extents of the view at this depth, padded by radius
	halfH := depth*float32(math.Tan(float64(mgl32.DegToRad(c.Fovy))/2)) + radius
	halfW := halfH
	if c.ViewportH > 0 {
		halfW = halfH * c.ViewportW / c.ViewportH
	}

	right := forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	up := right.Cross(forward)
	return absf(toPoint.Dot(right)) <= halfW+radius && absf(toPoint.Dot(up)) <= halfH+radius
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Orbit rotates the camera around its target. Yaw wraps, pitch clamps.
func (c *Camera) Orbit(dYaw, dPitch float32) {
	c.Yaw = mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the orbit distance by factor (factor > 1 moves closer).
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Follow moves the target toward p by fraction t in [0, 1].
func (c *Camera) Follow(p mgl32.Vec3, t float32) {
	t = clamp(t, 0, 1)
	c.Target = c.Target.Add(p.Sub(c.Target).Mul(t))
}

// Reset returns the camera to its initial target and angles.
func (c *Camera) Reset() {
	c.Target = c.home
	c.Yaw = 0
	c.Pitch = 0.6
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
