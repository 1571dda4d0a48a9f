package flock

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/config"
	"github.com/pthm-cable/swarm/geom"
	"github.com/pthm-cable/swarm/parallel"
)

const tol = 1e-4

// vecNear compares component-wise with an absolute tolerance, which stays
// meaningful when an expected component is exactly zero.
func vecNear(t *testing.T, want, got mgl32.Vec3, delta float64, msgAndArgs ...interface{}) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, msgAndArgs...)
	}
}

// testHandle is an in-memory transform that counts writes.
type testHandle struct {
	pos    mgl32.Vec3
	rot    mgl32.Quat
	vel    mgl32.Vec3
	writes int
}

func newTestHandle(pos mgl32.Vec3, rot mgl32.Quat, vel mgl32.Vec3) *testHandle {
	return &testHandle{pos: pos, rot: rot, vel: vel}
}

func (h *testHandle) Position() mgl32.Vec3     { return h.pos }
func (h *testHandle) SetPosition(p mgl32.Vec3) { h.pos = p; h.writes++ }
func (h *testHandle) Rotation() mgl32.Quat     { return h.rot }
func (h *testHandle) SetRotation(q mgl32.Quat) { h.rot = q }
func (h *testHandle) Forward() mgl32.Vec3      { return geom.Forward(h.rot) }
func (h *testHandle) Up() mgl32.Vec3           { return geom.Up(h.rot) }
func (h *testHandle) Velocity() mgl32.Vec3     { return h.vel }
func (h *testHandle) SetVelocity(v mgl32.Vec3) { h.vel = v }

type probeFunc func(origin, dir mgl32.Vec3, radius, maxDistance float32, mask uint32) bool

func (f probeFunc) SphereCast(origin, dir mgl32.Vec3, radius, maxDistance float32, mask uint32) bool {
	return f(origin, dir, radius, maxDistance, mask)
}

var alwaysBlocked = probeFunc(func(mgl32.Vec3, mgl32.Vec3, float32, float32, uint32) bool { return true })

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func settingsWith(t *testing.T, mutate func(c *config.BoidsConfig)) *Settings {
	t.Helper()
	c := config.BoidsConfig{
		MinimumSpeed:             2,
		MaximumSpeed:             5,
		PerceptionRadius:         2.5,
		AvoidanceRadius:          1,
		MaxSteerForce:            3,
		AlignmentWeight:          1,
		CohesionWeight:           1,
		SeparationWeight:         1,
		TargetWeight:             1,
		ObstacleLayerMask:        1,
		SphereCastRadius:         0.27,
		CollisionAvoidanceWeight: 10,
		CollisionAvoidanceDist:   5,
	}
	if mutate != nil {
		mutate(&c)
	}
	s, err := NewSettings(c)
	require.NoError(t, err)
	return s
}

func randomAgents(rng *rand.Rand, n int, extent float32) []Agent {
	agents := make([]Agent, n)
	for i := range agents {
		agents[i] = Agent{
			Index: i,
			Position: mgl32.Vec3{
				(rng.Float32()*2 - 1) * extent,
				(rng.Float32()*2 - 1) * extent,
				(rng.Float32()*2 - 1) * extent,
			},
			Heading: geom.InsideUnitSphere(rng).Normalize(),
		}
	}
	return agents
}

func TestNewSettingsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.BoidsConfig)
	}{
		{"min above max", func(c *config.BoidsConfig) { c.MinimumSpeed = 6 }},
		{"zero perception", func(c *config.BoidsConfig) { c.PerceptionRadius = 0 }},
		{"avoidance beyond perception", func(c *config.BoidsConfig) { c.AvoidanceRadius = 3 }},
		{"zero steer", func(c *config.BoidsConfig) { c.MaxSteerForce = 0 }},
		{"negative cast", func(c *config.BoidsConfig) { c.SphereCastRadius = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.BoidsConfig{
				MinimumSpeed: 2, MaximumSpeed: 5, PerceptionRadius: 2.5,
				AvoidanceRadius: 1, MaxSteerForce: 3,
			}
			tt.mutate(&c)
			_, err := NewSettings(c)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, float32(6.25), s.PerceptionSq())
	assert.Equal(t, float32(1), s.AvoidanceSq())
	assert.Equal(t, float32(3.5), s.InitialSpeed())
	assert.Equal(t, float32(10), s.CollisionAvoidanceWeight)
}

func TestAggregateDetectionIsSymmetric(t *testing.T) {
	s := DefaultSettings()
	rng := rand.New(rand.NewSource(1))
	agents := randomAgents(rng, 200, 6)

	aggs := make([]Aggregate, len(agents))
	AggregateNeighbors(aggs, agents, s, 0, len(agents))

	total := 0
	for i := range agents {
		want := 0
		var center mgl32.Vec3
		for j := range agents {
			if i == j {
				continue
			}
			if agents[j].Position.Sub(agents[i].Position).LenSqr() < s.PerceptionSq() {
				want++
				center = center.Add(agents[j].Position)
				// the same predicate seen from j
				assert.Less(t, agents[i].Position.Sub(agents[j].Position).LenSqr(), s.PerceptionSq())
			}
		}
		require.Equal(t, want, aggs[i].NeighborCount, "agent %d", i)
		vecNear(t, center, aggs[i].FlockCenter, 1e-3)
		total += aggs[i].NeighborCount
	}
	assert.Equal(t, 0, total%2, "every detected pair is counted from both sides")
}

func TestAvoidanceWeightsByInverseDistance(t *testing.T) {
	s := DefaultSettings()
	agents := []Agent{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{0.5, 0, 0}},
		{Position: mgl32.Vec3{0, 0, 2}}, // perceived but outside avoidance radius
	}
	aggs := make([]Aggregate, len(agents))
	AggregateNeighbors(aggs, agents, s, 0, len(agents))

	// offset / |offset|^2 has magnitude 1/d
	vecNear(t, aggs[0].Avoidance, mgl32.Vec3{-2, 0, 0}, tol, "got %v", aggs[0].Avoidance)
	vecNear(t, aggs[1].Avoidance, mgl32.Vec3{2, 0, 0}, tol, "got %v", aggs[1].Avoidance)
	assert.Equal(t, mgl32.Vec3{}, aggs[2].Avoidance)
	assert.Equal(t, 2, aggs[0].NeighborCount)
	assert.Equal(t, 2, aggs[2].NeighborCount, "both others are within perception radius")
}

func TestAggregateIsPartitionIndependent(t *testing.T) {
	s := DefaultSettings()
	rng := rand.New(rand.NewSource(2))
	agents := randomAgents(rng, 300, 5)

	want := make([]Aggregate, len(agents))
	AggregateNeighbors(want, agents, s, 0, len(agents))

	for _, workers := range []int{2, 3, 7, 16} {
		pool := parallel.NewPool(workers, 1)
		got := make([]Aggregate, len(agents))
		pool.Run(len(agents), func(start, end int) {
			AggregateNeighbors(got, agents, s, start, end)
		})
		pool.Stop()
		require.Equal(t, want, got, "workers=%d", workers)
	}

	// Arbitrary uneven partition
	got := make([]Aggregate, len(agents))
	for _, r := range [][2]int{{200, 300}, {0, 1}, {1, 77}, {77, 200}} {
		AggregateNeighbors(got, agents, s, r[0], r[1])
	}
	require.Equal(t, want, got)
}

func TestIsolatedAgentHasZeroFlockForces(t *testing.T) {
	s := DefaultSettings()
	agents := []Agent{
		{Position: mgl32.Vec3{0, 0, 0}, Heading: mgl32.Vec3{0, 0, 1}, Velocity: mgl32.Vec3{0, 0, 3}},
		{Position: mgl32.Vec3{50, 0, 0}, Heading: mgl32.Vec3{1, 0, 0}, Velocity: mgl32.Vec3{3, 0, 0}},
	}
	aggs := make([]Aggregate, len(agents))
	AggregateNeighbors(aggs, agents, s, 0, len(agents))

	for i := range agents {
		assert.Equal(t, Aggregate{}, aggs[i])
		accel, avoid := BlendForces(&agents[i], &aggs[i], Target{}, false, nil, s)
		assert.Equal(t, mgl32.Vec3{}, accel, "no target, no neighbours, no hit")
		assert.Equal(t, AvoidNone, avoid)
	}
}

func TestSteerForceNeverExceedsMax(t *testing.T) {
	s := DefaultSettings()
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 5000; i++ {
		scale := float32(math.Pow(10, float64(rng.Intn(12)-4)))
		desired := geom.InsideUnitSphere(rng).Mul(scale)
		velocity := geom.InsideUnitSphere(rng).Mul(scale)

		f := SteerTowards(desired, velocity, s)
		require.LessOrEqual(t, f.Len(), s.MaxSteerForce+tol, "desired=%v velocity=%v", desired, velocity)
		require.True(t, geom.IsFinite(f))
	}

	assert.Equal(t, mgl32.Vec3{}, SteerTowards(mgl32.Vec3{}, mgl32.Vec3{1, 2, 3}, s), "zero desired means no steering")
	nan := float32(math.NaN())
	assert.Equal(t, mgl32.Vec3{}, SteerTowards(mgl32.Vec3{nan, 0, 0}, mgl32.Vec3{}, s))
}

func TestIntegrateClampsSpeed(t *testing.T) {
	s := DefaultSettings()
	rng := rand.New(rand.NewSource(4))

	accels := []mgl32.Vec3{
		{1e30, -1e30, 1e30},
		{3e38, 3e38, 3e38},
		{0, 0, 0},
		{0, 0, -1e6},
	}
	for i := 0; i < 500; i++ {
		scale := float32(math.Pow(10, float64(rng.Intn(40)-5)))
		accels = append(accels, geom.InsideUnitSphere(rng).Mul(scale))
	}

	for _, acc := range accels {
		a := Agent{
			Heading:      mgl32.Vec3{0, 0, 1},
			Up:           geom.WorldUp,
			Velocity:     mgl32.Vec3{0, 0, 3},
			Acceleration: acc,
		}
		h := newTestHandle(mgl32.Vec3{}, mgl32.QuatIdent(), a.Velocity)
		Integrate(&a, h, 0.02, s)

		speed := a.Velocity.Len()
		require.GreaterOrEqual(t, speed, s.MinSpeed-tol, "accel %v", acc)
		require.LessOrEqual(t, speed, s.MaxSpeed+tol, "accel %v", acc)
		require.True(t, geom.IsFinite(h.pos))
		assert.InDelta(t, 1, h.rot.Len(), tol)
		assert.Equal(t, a.Velocity, h.vel)
	}
}

func TestIntegrateZeroVelocityKeepsHeading(t *testing.T) {
	s := DefaultSettings()
	a := Agent{Heading: mgl32.Vec3{1, 0, 0}, Up: geom.WorldUp}
	Integrate(&a, nil, 0.1, s)

	vecNear(t, a.Velocity, mgl32.Vec3{s.MinSpeed, 0, 0}, tol, "got %v", a.Velocity)
	vecNear(t, geom.Forward(a.Rotation), mgl32.Vec3{1, 0, 0}, tol)
}

func TestAvoidanceDirectionFindsFirstClear(t *testing.T) {
	s := DefaultSettings()

	tests := []struct {
		name string
		rot  mgl32.Quat
	}{
		{"identity", mgl32.QuatIdent()},
		{"turned", geom.AngleAxis(90, geom.WorldUp)},
		{"tilted", geom.EulerDegrees(30, 60, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward := geom.Forward(tt.rot)
			// Block everything in the forward hemisphere.
			probe := probeFunc(func(_, dir mgl32.Vec3, _, _ float32, _ uint32) bool {
				return dir.Dot(forward) > 0.01
			})

			var want mgl32.Vec3
			for _, local := range geom.ViewDirections {
				w := tt.rot.Rotate(local)
				if w.Dot(forward) <= 0.01 {
					want = w
					break
				}
			}

			a := Agent{Position: mgl32.Vec3{1, 2, 3}, Rotation: tt.rot, Heading: forward}
			dir, found := AvoidanceDirection(&a, probe, s)
			require.True(t, found)
			vecNear(t, want, dir, tol, "want %v got %v", want, dir)
			assert.LessOrEqual(t, dir.Dot(forward), float32(0.01))

			accel, avoid := BlendForces(&a, &Aggregate{}, Target{}, true, probe, s)
			assert.Equal(t, AvoidSteered, avoid)
			wantAccel := SteerTowards(dir, a.Velocity, s).Mul(s.CollisionAvoidanceWeight)
			vecNear(t, wantAccel, accel, tol)
		})
	}
}

func TestManagerRejectsNilSettings(t *testing.T) {
	_, err := NewManager(nil, nil, nil, quietLogger())
	assert.ErrorIs(t, err, ErrNilSettings)
}

func TestManagerValidatesLiteralSettings(t *testing.T) {
	_, err := NewManager(&Settings{MinSpeed: 9, MaxSpeed: 1, PerceptionRadius: 1, MaxSteerForce: 1}, nil, nil, quietLogger())
	assert.ErrorIs(t, err, ErrInvalidSettings)

	lit := &Settings{
		MinSpeed:         1,
		MaxSpeed:         2,
		PerceptionRadius: 2.5,
		AvoidanceRadius:  1,
		MaxSteerForce:    1,
	}
	m, err := NewManager(lit, parallel.NewPool(1, 1), nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, float32(6.25), m.Settings().PerceptionSq())
	assert.Equal(t, float32(1), m.Settings().AvoidanceSq())

	agents := []Agent{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
	}
	aggs := make([]Aggregate, len(agents))
	AggregateNeighbors(aggs, agents, m.Settings(), 0, len(agents))
	assert.Equal(t, 1, aggs[0].NeighborCount)
	assert.Equal(t, 1, aggs[1].NeighborCount)
}

func TestClearedTargetDropsTargetForce(t *testing.T) {
	m, err := NewManager(DefaultSettings(), parallel.NewPool(1, 1), nil, quietLogger())
	require.NoError(t, err)

	h := newTestHandle(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{0, 0, 3})
	m.SetTarget(newTestHandle(mgl32.Vec3{10, 0, 0}, mgl32.QuatIdent(), mgl32.Vec3{}))
	m.SetTarget(nil)
	require.NoError(t, m.Spawned([]components.TransformHandle{h}))

	m.Tick(0.1)
	m.Join()
	vecNear(t, mgl32.Vec3{0, 0, 3}, h.vel, tol, "lone agent without a target keeps its velocity")
	vecNear(t, mgl32.Vec3{0, 0, 0.3}, h.pos, tol)
}

func TestManagerIdleTickIsNoop(t *testing.T) {
	m, err := NewManager(DefaultSettings(), parallel.NewPool(2, 1), nil, quietLogger())
	require.NoError(t, err)

	m.Tick(0.1)
	m.Join()
	assert.False(t, m.Active())
	assert.Nil(t, m.Agents())
	assert.Equal(t, 0, m.Len())
}

func TestThreeAgentsSteerTowardCentroidAndTarget(t *testing.T) {
	s := settingsWith(t, func(c *config.BoidsConfig) {
		c.MinimumSpeed = 0.1
		c.MaximumSpeed = 5
		c.MaxSteerForce = 100
		c.AlignmentWeight = 0
		c.SeparationWeight = 0
		c.AvoidanceRadius = 0.5
	})

	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	handles := make([]*testHandle, len(positions))
	ths := make([]components.TransformHandle, len(positions))
	for i, p := range positions {
		handles[i] = newTestHandle(p, mgl32.QuatIdent(), mgl32.Vec3{})
		ths[i] = handles[i]
	}
	target := newTestHandle(mgl32.Vec3{0, 0, 10}, mgl32.QuatIdent(), mgl32.Vec3{})

	pool := parallel.NewPool(2, 1)
	defer pool.Stop()
	m, err := NewManager(s, pool, nil, quietLogger())
	require.NoError(t, err)
	m.SetTarget(target)
	require.NoError(t, m.Spawned(ths))

	const dt = float32(0.1)
	m.Tick(dt)
	m.Join()

	for i, p := range positions {
		var centroid mgl32.Vec3
		for j, q := range positions {
			if j != i {
				centroid = centroid.Add(q)
			}
		}
		centroid = centroid.Mul(0.5)

		toCenter := centroid.Sub(p).Normalize()
		toTarget := target.pos.Sub(p).Normalize()
		accel := toCenter.Mul(s.MaxSpeed).Add(toTarget.Mul(s.MaxSpeed))

		speed := accel.Len() * dt
		if speed < s.MinSpeed {
			speed = s.MinSpeed
		}
		if speed > s.MaxSpeed {
			speed = s.MaxSpeed
		}
		want := accel.Normalize().Mul(speed)

		got := handles[i].vel
		vecNear(t, want, got, tol, "agent %d: want %v got %v", i, want, got)
		assert.Greater(t, got.Dot(toCenter), float32(0), "agent %d moves toward the flock", i)
		assert.Greater(t, got.Dot(toTarget), float32(0), "agent %d moves toward the target", i)

		wantPos := p.Add(want.Mul(dt))
		vecNear(t, wantPos, handles[i].pos, tol)
		assert.Equal(t, 2, m.Agents()[i].NeighborCount)
	}
}

func TestBlockedAgentFliesStraight(t *testing.T) {
	s := DefaultSettings()
	h := newTestHandle(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{0, 0, 3})

	m, err := NewManager(s, parallel.NewPool(1, 1), alwaysBlocked, quietLogger())
	require.NoError(t, err)
	require.NoError(t, m.Spawned([]components.TransformHandle{h}))

	m.Tick(0.1)
	m.Join()

	require.True(t, geom.IsFinite(h.pos))
	require.True(t, geom.IsFinite(h.vel))
	vecNear(t, h.vel, mgl32.Vec3{0, 0, 3}, tol, "got %v", h.vel)
	vecNear(t, h.pos, mgl32.Vec3{0, 0, 0.3}, tol, "got %v", h.pos)
	vecNear(t, geom.Forward(h.rot), mgl32.Vec3{0, 0, 1}, tol)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Fallbacks)
	assert.Equal(t, 0, stats.Steered)
}

func makeHandles(rng *rand.Rand, n int) ([]*testHandle, []components.TransformHandle) {
	hs := make([]*testHandle, n)
	ths := make([]components.TransformHandle, n)
	for i := range hs {
		hs[i] = newTestHandle(
			geom.InsideUnitSphere(rng).Mul(10),
			geom.RandomRotation(rng),
			mgl32.Vec3{0, 0, 3},
		)
		ths[i] = hs[i]
	}
	return hs, ths
}

func TestResizeReinitialisesStorage(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	pool := parallel.NewPool(4, 1)
	defer pool.Stop()

	m, err := NewManager(DefaultSettings(), pool, nil, quietLogger())
	require.NoError(t, err)

	oldHandles, oldTHs := makeHandles(rng, 50)
	require.NoError(t, m.Spawned(oldTHs))
	m.Tick(0.02)
	// Leave the integrate job in flight; Spawned must join it.
	old := m.store
	require.Equal(t, uint64(1), old.generation)

	newHandles, newTHs := makeHandles(rng, 80)
	require.NoError(t, m.Spawned(newTHs))

	assert.Equal(t, uint64(2), m.Generation())
	assert.Nil(t, old.agents, "old store must be released")
	assert.Nil(t, old.handles, "old store must drop its handles")
	assert.Nil(t, old.aggs)
	assert.Nil(t, old.hits)

	require.Equal(t, 80, m.Len())
	assert.Equal(t, 80, cap(m.store.agents))
	assert.Equal(t, 80, cap(m.store.aggs))
	assert.Equal(t, 80, cap(m.store.hits))
	assert.Equal(t, 80, len(m.store.handles))

	for _, h := range oldHandles {
		require.Equal(t, 1, h.writes, "old handles are written exactly once before the resize")
		h.writes = 0
	}

	m.Tick(0.02)
	m.Join()

	for _, h := range oldHandles {
		assert.Equal(t, 0, h.writes, "stale handle written after resize")
	}
	for _, h := range newHandles {
		assert.Equal(t, 1, h.writes)
	}
	for i, a := range m.Agents() {
		assert.Equal(t, i, a.Index)
	}
}

func TestSpawnedRejectsEmptyPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	m, err := NewManager(DefaultSettings(), parallel.NewPool(2, 1), nil, quietLogger())
	require.NoError(t, err)

	_, ths := makeHandles(rng, 10)
	require.NoError(t, m.Spawned(ths))

	err = m.Spawned(nil)
	assert.ErrorIs(t, err, ErrEmptyPopulation)
	assert.Equal(t, uint64(1), m.Generation())
	assert.Equal(t, 10, m.Len())
}

func TestClearedReturnsToIdle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m, err := NewManager(DefaultSettings(), parallel.NewPool(2, 1), nil, quietLogger())
	require.NoError(t, err)

	hs, ths := makeHandles(rng, 20)
	require.NoError(t, m.Spawned(ths))
	m.Tick(0.02)
	m.Cleared()

	assert.False(t, m.Active())
	for _, h := range hs {
		assert.Equal(t, 1, h.writes, "in-flight frame completes before release")
	}
	m.Tick(0.02)
	for _, h := range hs {
		assert.Equal(t, 1, h.writes)
	}
}

func TestHandlesWithoutVelocityStartAtMidSpeed(t *testing.T) {
	s := DefaultSettings()
	st := newStore(1, []components.TransformHandle{plainHandle{rot: geom.AngleAxis(90, geom.WorldUp)}}, s)
	want := mgl32.Vec3{s.InitialSpeed(), 0, 0}
	vecNear(t, want, st.agents[0].Velocity, tol, "got %v", st.agents[0].Velocity)
}

// plainHandle does not implement components.VelocityHolder.
type plainHandle struct {
	pos mgl32.Vec3
	rot mgl32.Quat
}

func (h plainHandle) Position() mgl32.Vec3   { return h.pos }
func (h plainHandle) SetPosition(mgl32.Vec3) {}
func (h plainHandle) Rotation() mgl32.Quat   { return h.rot }
func (h plainHandle) SetRotation(mgl32.Quat) {}
func (h plainHandle) Forward() mgl32.Vec3    { return geom.Forward(h.rot) }
func (h plainHandle) Up() mgl32.Vec3         { return geom.Up(h.rot) }

func TestSetSettingsSwapsBetweenFrames(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m, err := NewManager(DefaultSettings(), parallel.NewPool(2, 1), nil, quietLogger())
	require.NoError(t, err)

	_, ths := makeHandles(rng, 8)
	require.NoError(t, m.Spawned(ths))
	m.Tick(0.02)

	s := *DefaultSettings()
	s.PerceptionRadius = 4
	s.CohesionWeight = 2
	require.NoError(t, m.SetSettings(&s))
	assert.Equal(t, float32(16), m.Settings().PerceptionSq())
	assert.Equal(t, float32(2), m.Settings().CohesionWeight)
	assert.Equal(t, 8, m.Len(), "population survives a settings swap")

	bad := s
	bad.MaxSteerForce = 0
	assert.ErrorIs(t, m.SetSettings(&bad), ErrInvalidSettings)
	assert.Equal(t, float32(3), m.Settings().MaxSteerForce)
	assert.ErrorIs(t, m.SetSettings(nil), ErrNilSettings)
}
