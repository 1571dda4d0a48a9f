package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/swarm/geom"
)

// Sphere is one obstacle in a field snapshot.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
	Layer  uint32
}

// ObstacleField is an immutable-per-frame snapshot of obstacle spheres in a
// spatial hash grid. SphereCast may be called from many goroutines between
// rebuilds.
type ObstacleField struct {
	cellSize  float32
	cells     map[uint64][]int32
	spheres   []Sphere
	maxRadius float32
}

// NewObstacleField creates an empty field with the given grid cell size.
func NewObstacleField(cellSize float32) *ObstacleField {
	if cellSize <= 0 {
		cellSize = 4
	}
	return &ObstacleField{
		cellSize: cellSize,
		cells:    make(map[uint64][]int32),
	}
}

// Rebuild replaces the snapshot with the current obstacles of w.
func (f *ObstacleField) Rebuild(w *World) {
	f.Reset()
	query := w.obstacleFilter.Query()
	for query.Next() {
		t, o := query.Get()
		f.Insert(Sphere{Center: t.Position, Radius: o.Radius, Layer: o.Layer})
	}
}

// Reset empties the field, keeping allocated cells.
func (f *ObstacleField) Reset() {
	for k, v := range f.cells {
		f.cells[k] = v[:0]
	}
	f.spheres = f.spheres[:0]
	f.maxRadius = 0
}

// Insert adds one sphere, bucketed by its center.
func (f *ObstacleField) Insert(s Sphere) {
	idx := int32(len(f.spheres))
	f.spheres = append(f.spheres, s)
	if s.Radius > f.maxRadius {
		f.maxRadius = s.Radius
	}
	key := f.hashKey(f.cellIndex(s.Center.X()), f.cellIndex(s.Center.Y()), f.cellIndex(s.Center.Z()))
	f.cells[key] = append(f.cells[key], idx)
}

// Len returns the number of spheres in the snapshot.
func (f *ObstacleField) Len() int {
	return len(f.spheres)
}

// SphereCast reports whether a sphere of the given radius swept from origin
// along dir for maxDistance touches any obstacle whose layer is in mask.
// Obstacles the cast starts inside are ignored.
func (f *ObstacleField) SphereCast(origin, dir mgl32.Vec3, radius, maxDistance float32, mask uint32) bool {
	if len(f.spheres) == 0 {
		return false
	}
	d, ok := geom.SafeNormalize(dir)
	if !ok {
		return false
	}

	// Broadphase: cells overlapping the swept segment's bounds, padded so
	// any sphere centered outside still reaching the segment is visited.
	end := origin.Add(d.Mul(maxDistance))
	pad := radius + f.maxRadius
	minX, maxX := f.cellRange(origin.X(), end.X(), pad)
	minY, maxY := f.cellRange(origin.Y(), end.Y(), pad)
	minZ, maxZ := f.cellRange(origin.Z(), end.Z(), pad)

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				for _, idx := range f.cells[f.hashKey(x, y, z)] {
					s := &f.spheres[idx]
					if s.Layer&mask == 0 {
						continue
					}
					if castHits(origin, d, radius, maxDistance, s) {
						return true
					}
				}
			}
		}
	}
	return false
}

// castHits intersects the ray origin+t*d, t in [0, maxDistance], with the
// obstacle inflated by the cast radius.
func castHits(origin, d mgl32.Vec3, radius, maxDistance float32, s *Sphere) bool {
	r := s.Radius + radius
	oc := origin.Sub(s.Center)
	c := oc.LenSqr() - r*r
	if c <= 0 {
		return false
	}
	b := oc.Dot(d)
	if b > 0 {
		// moving away
		return false
	}
	disc := b*b - c
	if disc < 0 {
		return false
	}
	t := -b - float32(math.Sqrt(float64(disc)))
	return t <= maxDistance
}

func (f *ObstacleField) cellRange(a, b, pad float32) (int, int) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return f.cellIndex(lo - pad), f.cellIndex(hi + pad)
}

func (f *ObstacleField) cellIndex(pos float32) int {
	return int(math.Floor(float64(pos / f.cellSize)))
}

// hashKey mixes cell coordinates with large primes. Colliding cells only
// add broadphase candidates.
func (f *ObstacleField) hashKey(x, y, z int) uint64 {
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}
