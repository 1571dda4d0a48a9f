package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NumViewDirections is the size of the precomputed avoidance direction set.
const NumViewDirections = 100

// ViewDirections are unit vectors in local space spread over the sphere
// along a golden-ratio spiral. Index 0 is straight ahead (+Z) and the
// inclination grows with the index, so iteration order is front to back.
var ViewDirections = GoldenSpiral(NumViewDirections)

// GoldenSpiral returns n roughly uniform unit directions ordered from +Z
// towards -Z.
func GoldenSpiral(n int) []mgl32.Vec3 {
	dirs := make([]mgl32.Vec3, n)
	goldenRatio := (1 + math.Sqrt(5)) / 2
	angleIncrement := math.Pi * 2 * goldenRatio

	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		inclination := math.Acos(1 - 2*t)
		azimuth := angleIncrement * float64(i)

		dirs[i] = mgl32.Vec3{
			float32(math.Sin(inclination) * math.Cos(azimuth)),
			float32(math.Sin(inclination) * math.Sin(azimuth)),
			float32(math.Cos(inclination)),
		}
	}
	return dirs
}
