package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNew(t *testing.T) {
	target := mgl32.Vec3{1, 2, 3}
	cam := New(1280, 720, target, 50)

	if cam.Target != target {
		t.Errorf("expected target %v, got %v", target, cam.Target)
	}
	if d := cam.Position().Sub(target).Len(); math.Abs(float64(d-50)) > 1e-3 {
		t.Errorf("expected eye at distance 50, got %f", d)
	}
}

func TestTargetProjectsToCenter(t *testing.T) {
	cam := New(1280, 720, mgl32.Vec3{10, 0, -5}, 40)
	cam.Orbit(1.1, -0.3)

	sx, sy, ok := cam.WorldToScreen(cam.Target)
	if !ok {
		t.Fatal("target should be in front of the camera")
	}
	if math.Abs(float64(sx-640)) > 0.5 || math.Abs(float64(sy-360)) > 0.5 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestBehindCamera(t *testing.T) {
	cam := New(1280, 720, mgl32.Vec3{}, 20)
	eye := cam.Position()
	behind := eye.Add(eye.Sub(cam.Target))

	if _, _, ok := cam.WorldToScreen(behind); ok {
		t.Error("point behind the camera should not project")
	}
	if cam.IsVisible(behind, 1) {
		t.Error("point behind the camera should not be visible")
	}
}

func TestUpIsUpOnScreen(t *testing.T) {
	cam := New(1280, 720, mgl32.Vec3{}, 30)
	_, sy, ok := cam.WorldToScreen(mgl32.Vec3{0, 2, 0})
	if !ok {
		t.Fatal("expected point to project")
	}
	if sy >= 360 {
		t.Errorf("point above target should be in upper half, got y=%f", sy)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, mgl32.Vec3{}, 30)

	if !cam.IsVisible(cam.Target, 0.1) {
		t.Error("target should be visible")
	}

	// Far off to the side at the target's depth
	eye := cam.Position()
	forward := cam.Target.Sub(eye).Normalize()
	right := forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	side := cam.Target.Add(right.Mul(1000))
	if cam.IsVisible(side, 1) {
		t.Error("point far outside the frustum should be culled")
	}
	// Large radius brings it back
	if !cam.IsVisible(side, 1000) {
		t.Error("huge sphere should be conservatively visible")
	}
}

func TestOrbitClampsPitch(t *testing.T) {
	cam := New(800, 600, mgl32.Vec3{}, 10)

	cam.Orbit(0, 10)
	if cam.Pitch != maxPitch {
		t.Errorf("expected pitch clamped to %f, got %f", maxPitch, cam.Pitch)
	}
	cam.Orbit(0, -20)
	if cam.Pitch != -maxPitch {
		t.Errorf("expected pitch clamped to %f, got %f", -maxPitch, cam.Pitch)
	}
}

func TestOrbitWrapsYaw(t *testing.T) {
	cam := New(800, 600, mgl32.Vec3{}, 10)
	cam.Orbit(-0.5, 0)
	want := float32(2*math.Pi - 0.5)
	if math.Abs(float64(cam.Yaw-want)) > 1e-5 {
		t.Errorf("expected yaw %f, got %f", want, cam.Yaw)
	}
}

func TestZoomClamping(t *testing.T) {
	cam := New(800, 600, mgl32.Vec3{}, 20)

	cam.ZoomBy(1000)
	if cam.Distance != cam.MinDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MinDistance, cam.Distance)
	}
	cam.ZoomBy(0.0001)
	if cam.Distance != cam.MaxDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MaxDistance, cam.Distance)
	}
	before := cam.Distance
	cam.ZoomBy(0)
	if cam.Distance != before {
		t.Error("zero factor should be ignored")
	}
}

func TestFollowAndReset(t *testing.T) {
	cam := New(800, 600, mgl32.Vec3{}, 20)
	cam.Follow(mgl32.Vec3{10, 0, 0}, 0.5)
	if cam.Target != (mgl32.Vec3{5, 0, 0}) {
		t.Errorf("expected target halfway, got %v", cam.Target)
	}
	cam.Orbit(1, 0.2)
	cam.Reset()
	if cam.Target != (mgl32.Vec3{}) || cam.Yaw != 0 || cam.Pitch != 0.6 {
		t.Errorf("reset failed: target=%v yaw=%f pitch=%f", cam.Target, cam.Yaw, cam.Pitch)
	}
}

func TestScreenToRay(t *testing.T) {
	cam := New(1280, 720, mgl32.Vec3{3, 1, -2}, 25)
	cam.Orbit(0.7, 0.1)

	origin, dir := cam.ScreenToRay(640, 360)
	if origin != cam.Position() {
		t.Errorf("ray should start at the eye")
	}
	want := cam.Target.Sub(origin).Normalize()
	if dir.Sub(want).Len() > 1e-3 {
		t.Errorf("center ray %v, want %v", dir, want)
	}

	// A pixel's ray should project back onto that pixel
	_, dir = cam.ScreenToRay(200, 500)
	sx, sy, ok := cam.WorldToScreen(origin.Add(dir.Mul(10)))
	if !ok || math.Abs(float64(sx-200)) > 0.5 || math.Abs(float64(sy-500)) > 0.5 {
		t.Errorf("roundtrip failed: got (%f, %f, %v)", sx, sy, ok)
	}
}
