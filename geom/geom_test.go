package geom

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-4

// vecNear compares component-wise with an absolute tolerance, which stays
// meaningful when an expected component is exactly zero.
func vecNear(t *testing.T, want, got mgl32.Vec3, msg string) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "%s: want %v, got %v", msg, want, got)
	}
}

func TestSafeNormalize(t *testing.T) {
	n, ok := SafeNormalize(mgl32.Vec3{3, 0, 4})
	require.True(t, ok)
	vecNear(t, mgl32.Vec3{0.6, 0, 0.8}, n, "normalized")

	_, ok = SafeNormalize(mgl32.Vec3{})
	assert.False(t, ok, "zero vector must not normalize")

	nan := float32(math.NaN())
	_, ok = SafeNormalize(mgl32.Vec3{nan, 1, 0})
	assert.False(t, ok, "NaN vector must not normalize")

	inf := float32(math.Inf(1))
	_, ok = SafeNormalize(mgl32.Vec3{inf, 0, 0})
	assert.False(t, ok, "infinite vector must not normalize")
}

func TestClampMagnitude(t *testing.T) {
	v := ClampMagnitude(mgl32.Vec3{10, 0, 0}, 3)
	vecNear(t, mgl32.Vec3{3, 0, 0}, v, "clamped")

	short := mgl32.Vec3{0.5, 0.5, 0}
	assert.Equal(t, short, ClampMagnitude(short, 3), "short vectors pass through")

	huge := ClampMagnitude(mgl32.Vec3{3e38, 3e38, 0}, 2)
	assert.InDelta(t, 2, huge.Len(), tol, "overflowing length still clamps")
}

func TestLookRotation(t *testing.T) {
	tests := []struct {
		name    string
		forward mgl32.Vec3
		up      mgl32.Vec3
	}{
		{"identity", mgl32.Vec3{0, 0, 1}, WorldUp},
		{"right", mgl32.Vec3{1, 0, 0}, WorldUp},
		{"back", mgl32.Vec3{0, 0, -1}, WorldUp},
		{"diagonal", mgl32.Vec3{1, 2, 3}, WorldUp},
		{"straight up", mgl32.Vec3{0, 1, 0}, WorldUp},
		{"straight down", mgl32.Vec3{0, -5, 0}, WorldUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := LookRotation(tt.forward, tt.up)
			want := tt.forward.Normalize()
			vecNear(t, want, Forward(q), "forward")

			u := Up(q)
			assert.InDelta(t, 0, u.Dot(want), tol, "up must be orthogonal to forward")
			assert.InDelta(t, 1, u.Len(), tol, "up must be unit length")
		})
	}

	q := LookRotation(mgl32.Vec3{1, 0, 0}, WorldUp)
	vecNear(t, WorldUp, Up(q), "horizontal heading keeps world up")

	assert.Equal(t, mgl32.QuatIdent(), LookRotation(mgl32.Vec3{}, WorldUp), "zero forward gives identity")
}

func TestAngleAxis(t *testing.T) {
	q := AngleAxis(90, WorldUp)
	vecNear(t, mgl32.Vec3{1, 0, 0}, q.Rotate(WorldForward), "90 degrees about +Y turns +Z into +X")

	assert.Equal(t, mgl32.QuatIdent(), AngleAxis(45, mgl32.Vec3{}))
}

func TestInsideUnitSphere(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := InsideUnitSphere(rng)
		require.LessOrEqual(t, v.LenSqr(), float32(1))
	}
}

func TestGoldenSpiral(t *testing.T) {
	dirs := GoldenSpiral(NumViewDirections)
	require.Len(t, dirs, NumViewDirections)

	vecNear(t, WorldForward, dirs[0], "first direction is straight ahead")

	for i, d := range dirs {
		assert.InDelta(t, 1, d.Len(), tol, "direction %d not unit length", i)
		if i > 0 {
			assert.LessOrEqual(t, d.Z(), dirs[i-1].Z()+tol, "directions must go front to back")
		}
	}

	// Rough uniformity: the set should cover both hemispheres evenly.
	var front int
	for _, d := range dirs {
		if d.Z() > 0 {
			front++
		}
	}
	assert.InDelta(t, NumViewDirections/2, front, 2)
}
