package orbit

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/swarm/geom"
)

// Annulus describes where belt bodies are scattered around the pivot.
type Annulus struct {
	Count       int
	Seed        int64
	InnerRadius float32
	OuterRadius float32
	Height      float32
	MinRadius   float32 // body size range
	MaxRadius   float32
}

// Placement is the initial pose and size of one body.
type Placement struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Radius   float32
}

// Place scatters a.Count bodies in the annulus around center, oriented by
// rot. The same seed always yields the same belt.
func Place(a Annulus, center mgl32.Vec3, rot mgl32.Quat) []Placement {
	rng := rand.New(rand.NewSource(a.Seed))
	out := make([]Placement, a.Count)

	for i := range out {
		angle := rng.Float64() * 2 * math.Pi
		dist := a.InnerRadius + rng.Float32()*(a.OuterRadius-a.InnerRadius)
		y := -a.Height/2 + rng.Float32()*a.Height

		local := mgl32.Vec3{
			dist * float32(math.Cos(angle)),
			y,
			dist * float32(math.Sin(angle)),
		}

		out[i] = Placement{
			Position: center.Add(rot.Rotate(local)),
			Rotation: geom.RandomRotation(rng),
			Radius:   a.MinRadius + rng.Float32()*(a.MaxRadius-a.MinRadius),
		}
	}
	return out
}
