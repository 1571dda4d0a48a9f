package flock

import (
	"log/slog"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/parallel"
	"github.com/pthm-cable/swarm/telemetry"
)

// PhaseTimer receives phase boundaries while a frame is being built.
// telemetry.PerfCollector satisfies it.
type PhaseTimer interface {
	StartPhase(phase string)
}

// FrameStats summarises the most recently completed frame.
type FrameStats struct {
	Generation uint64
	Agents     int
	Hits       int // forward probes that hit
	Steered    int // hits resolved by a clear direction
	Fallbacks  int // hits with every direction blocked
}

// store is the backing storage for one population. A new store, with a new
// generation, is allocated on every population change.
type store struct {
	generation uint64
	handles    []components.TransformHandle
	agents     []Agent
	aggs       []Aggregate
	hits       []bool
	avoid      []Avoidance
}

func newStore(generation uint64, handles []components.TransformHandle, s *Settings) *store {
	n := len(handles)
	st := &store{
		generation: generation,
		handles:    make([]components.TransformHandle, n),
		agents:     make([]Agent, n),
		aggs:       make([]Aggregate, n),
		hits:       make([]bool, n),
		avoid:      make([]Avoidance, n),
	}
	copy(st.handles, handles)

	for i, h := range st.handles {
		a := &st.agents[i]
		a.Index = i
		a.Position = h.Position()
		a.Rotation = h.Rotation()
		a.Heading = h.Forward()
		a.Up = h.Up()
		if vh, ok := h.(components.VelocityHolder); ok {
			a.Velocity = vh.Velocity()
		} else {
			a.Velocity = a.Heading.Mul(s.InitialSpeed())
		}
	}
	return st
}

// release drops every reference the store holds so nothing can write
// through a stale handle.
func (st *store) release() {
	st.handles = nil
	st.agents = nil
	st.aggs = nil
	st.hits = nil
	st.avoid = nil
}

// Manager runs the flock pipeline. Its methods must be called from a single
// orchestrating goroutine; only the jobs it schedules run on the pool.
type Manager struct {
	settings Settings
	pool     *parallel.Pool
	probe    ObstacleProbe
	logger   *slog.Logger
	timer    PhaseTimer

	target     components.TransformHandle
	generation uint64
	store      *store
	pending    *parallel.Job
	stats      FrameStats
}

// NewManager creates an idle manager. Settings are copied and validated,
// so a hand-built Settings literal works the same as one from NewSettings.
func NewManager(s *Settings, pool *parallel.Pool, probe ObstacleProbe, logger *slog.Logger) (*Manager, error) {
	if s == nil {
		return nil, ErrNilSettings
	}
	settings := *s
	if err := settings.prepare(); err != nil {
		return nil, err
	}
	if pool == nil {
		pool = parallel.NewPool(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		settings: settings,
		pool:     pool,
		probe:    probe,
		logger:   logger,
	}, nil
}

// SetTarget sets the transform every agent seeks. The target force applies
// every frame while a target is set. With nil there is nothing to seek, so
// agents steer on the flock rules and obstacle avoidance alone.
func (m *Manager) SetTarget(h components.TransformHandle) {
	m.target = h
}

// SetProbe replaces the obstacle probe. Takes effect on the next Tick.
func (m *Manager) SetProbe(p ObstacleProbe) {
	m.probe = p
}

// SetPhaseTimer installs an optional phase timer.
func (m *Manager) SetPhaseTimer(t PhaseTimer) {
	m.timer = t
}

// Settings returns the manager's copy of the settings.
func (m *Manager) Settings() *Settings {
	return &m.settings
}

// SetSettings replaces the tunables between frames. The in-flight frame is
// joined first so no stage observes a half-written value.
func (m *Manager) SetSettings(s *Settings) error {
	if s == nil {
		return ErrNilSettings
	}
	settings := *s
	if err := settings.prepare(); err != nil {
		return err
	}
	m.Join()
	m.settings = settings
	return nil
}

// Active reports whether a population is loaded.
func (m *Manager) Active() bool {
	return m.store != nil
}

// Generation is incremented on every population change.
func (m *Manager) Generation() uint64 {
	return m.generation
}

// Len returns the current population size.
func (m *Manager) Len() int {
	if m.store == nil {
		return 0
	}
	return len(m.store.agents)
}

// Agents returns the agent records of the last joined frame. The slice is
// owned by the manager and valid until the next Tick or population change.
func (m *Manager) Agents() []Agent {
	m.Join()
	if m.store == nil {
		return nil
	}
	return m.store.agents
}

// Stats returns the summary of the last completed frame.
func (m *Manager) Stats() FrameStats {
	return m.stats
}

// Spawned replaces the population with handles. The in-flight frame is
// joined and the old storage released before the new one is allocated.
// An empty population is rejected and the current one kept.
func (m *Manager) Spawned(handles []components.TransformHandle) error {
	if len(handles) == 0 {
		return ErrEmptyPopulation
	}

	oldSize := m.Len()
	m.teardown()

	m.generation++
	m.store = newStore(m.generation, handles, &m.settings)
	m.stats = FrameStats{Generation: m.generation, Agents: len(handles)}

	m.logger.Info("flock population initialised",
		"old_size", oldSize,
		"new_size", len(handles),
		"generation", m.generation,
	)
	return nil
}

// Cleared joins any in-flight frame and releases the population.
func (m *Manager) Cleared() {
	if m.store == nil {
		return
	}
	size := m.Len()
	m.teardown()
	m.stats = FrameStats{Generation: m.generation}
	m.logger.Info("flock population cleared", "size", size, "generation", m.generation)
}

func (m *Manager) teardown() {
	m.Join()
	if m.store != nil {
		m.store.release()
		m.store = nil
	}
}

// Join blocks until the last scheduled integration has written every transform.
func (m *Manager) Join() {
	if m.pending != nil {
		m.pending.Wait()
		m.pending = nil
	}
}

func (m *Manager) phase(name string) {
	if m.timer != nil {
		m.timer.StartPhase(name)
	}
}

// Tick runs one frame up to scheduling integration. Call Join before
// reading any agent transform. Tick with no population does nothing.
func (m *Manager) Tick(dt float32) {
	m.Join()
	st := m.store
	if st == nil {
		return
	}
	s := &m.settings
	n := len(st.agents)

	// Snapshot
	m.phase(telemetry.PhaseFlockSnapshot)
	for i, h := range st.handles {
		a := &st.agents[i]
		a.Position = h.Position()
		a.Rotation = h.Rotation()
		a.Heading = h.Forward()
		a.Up = h.Up()
	}
	var target Target
	if m.target != nil {
		target = Target{Position: m.target.Position(), Valid: true}
	}

	// Aggregate and probe only read the snapshot, so they run side by side.
	m.phase(telemetry.PhaseAggregateProbe)
	agents, aggs, hits, probe := st.agents, st.aggs, st.hits, m.probe
	aggJob := m.pool.Schedule(n, func(start, end int) {
		AggregateNeighbors(aggs, agents, s, start, end)
	})
	probeJob := m.pool.Schedule(n, func(start, end int) {
		ProbeObstacles(hits, agents, probe, s, start, end)
	})
	aggJob.Wait()
	probeJob.Wait()

	m.phase(telemetry.PhaseBlend)
	avoid := st.avoid
	m.pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			a := &agents[i]
			a.Acceleration, avoid[i] = BlendForces(a, &aggs[i], target, hits[i], probe, s)
		}
	})

	// State update on the orchestrating goroutine.
	stats := FrameStats{Generation: st.generation, Agents: n}
	for i := range agents {
		agents[i].Aggregate = aggs[i]
		if hits[i] {
			stats.Hits++
		}
		switch avoid[i] {
		case AvoidSteered:
			stats.Steered++
		case AvoidFallback:
			stats.Fallbacks++
		}
	}
	m.stats = stats

	m.phase(telemetry.PhaseIntegrate)
	handles := st.handles
	m.pending = m.pool.Schedule(n, func(start, end int) {
		for i := start; i < end; i++ {
			Integrate(&agents[i], handles[i], dt, s)
		}
	})
}

// Speeds returns the speed of every agent in the last joined frame.
func (m *Manager) Speeds(dst []float64) []float64 {
	dst = dst[:0]
	for _, a := range m.Agents() {
		dst = append(dst, float64(a.Velocity.Len()))
	}
	return dst
}

// NeighborCounts returns the neighbour count of every agent in the last
// joined frame.
func (m *Manager) NeighborCounts(dst []float64) []float64 {
	dst = dst[:0]
	for _, a := range m.Agents() {
		dst = append(dst, float64(a.NeighborCount))
	}
	return dst
}
