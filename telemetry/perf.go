package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one frame. The flock phases are reported by flock.Manager
// through its PhaseTimer; the rest by the frame scheduler.
const (
	PhaseObstacles      = "obstacles"
	PhaseBelt           = "belt"
	PhaseShip           = "ship"
	PhaseFlockSnapshot  = "flock_snapshot"
	PhaseAggregateProbe = "aggregate_probe"
	PhaseBlend          = "blend"
	PhaseIntegrate      = "integrate"
	PhaseJoin           = "join"
	PhaseContacts       = "contacts"
	PhaseTelemetry      = "telemetry"
	// PhaseOther collects time spent in phases not listed above.
	PhaseOther = "other"
)

// framePhases lists phases in frame order for logging and CSV export.
var framePhases = []string{
	PhaseObstacles, PhaseBelt, PhaseShip, PhaseFlockSnapshot,
	PhaseAggregateProbe, PhaseBlend, PhaseIntegrate, PhaseJoin,
	PhaseContacts, PhaseTelemetry, PhaseOther,
}

var phaseSlot = func() map[string]int {
	m := make(map[string]int, len(framePhases))
	for i, p := range framePhases {
		m[p] = i
	}
	return m
}()

const numPhases = 11

// FramePhases returns the phase names in frame order.
func FramePhases() []string {
	out := make([]string, len(framePhases))
	copy(out, framePhases)
	return out
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Agents       int
	Phases       [numPhases]time.Duration
}

// PerfCollector tracks per-phase tick timings over a rolling window. The
// window belongs to one flock generation: aggregation is quadratic in the
// population, so timings taken at another population size are dropped when
// the generation changes.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	generation uint64
	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	lastSlot   int // -1 when no phase is open

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
		lastSlot:   -1,
	}
}

// StartTick begins timing a tick of the given flock generation and size.
func (p *PerfCollector) StartTick(generation uint64, agents int) {
	if generation != p.generation {
		p.generation = generation
		p.writeIndex = 0
		p.sampleCount = 0
	}
	p.tickStart = time.Now()
	p.current = PerfSample{Agents: agents}
	p.lastSlot = -1
}

// StartPhase closes the open phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	slot, ok := phaseSlot[phase]
	if !ok {
		slot = phaseSlot[PhaseOther]
	}
	p.phaseStart = now
	p.lastSlot = slot
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.lastSlot >= 0 {
		p.current.Phases[p.lastSlot] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.lastSlot = -1
	p.current.TickDuration = now.Sub(p.tickStart)

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Generation uint64
	Samples    int
	Agents     float64 // mean population over the window

	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of tick time per phase. Phases that never
	// ran are absent.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// PairCost is the aggregate/probe time divided by the ordered neighbour
	// pairs N(N-1) it scans. Zero below two agents.
	PairCost time.Duration

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	st := PerfStats{
		Generation:    p.generation,
		Samples:       p.sampleCount,
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		st.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return st
	}

	var total time.Duration
	var agents int
	var sums [numPhases]time.Duration
	ran := [numPhases]bool{}
	for i := 0; i < p.sampleCount; i++ {
		s := &p.samples[i]
		total += s.TickDuration
		agents += s.Agents
		if i == 0 || s.TickDuration < st.MinTickDuration {
			st.MinTickDuration = s.TickDuration
		}
		st.MaxTickDuration = max(st.MaxTickDuration, s.TickDuration)
		for k, d := range s.Phases {
			if d > 0 {
				sums[k] += d
				ran[k] = true
			}
		}
	}

	n := time.Duration(p.sampleCount)
	st.AvgTickDuration = total / n
	st.Agents = float64(agents) / float64(p.sampleCount)
	if st.AvgTickDuration > 0 {
		st.TicksPerSecond = float64(time.Second) / float64(st.AvgTickDuration)
	}
	for k, name := range framePhases {
		if !ran[k] {
			continue
		}
		avg := sums[k] / n
		st.PhaseAvg[name] = avg
		if st.AvgTickDuration > 0 {
			st.PhasePct[name] = float64(avg) / float64(st.AvgTickDuration) * 100
		}
	}
	if pairs := st.Agents * (st.Agents - 1); pairs >= 1 {
		st.PairCost = time.Duration(float64(st.PhaseAvg[PhaseAggregateProbe]) / pairs)
	}
	return st
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer. Phase shares are listed in frame order.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Uint64("generation", s.Generation),
		slog.Int("agents", int(s.Agents)),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.Int64("pair_ns", s.PairCost.Nanoseconds()),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, phase := range framePhases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd         int32   `csv:"window_end"`
	Generation        uint64  `csv:"generation"`
	Agents            float64 `csv:"agents"`
	AvgTickUS         int64   `csv:"avg_tick_us"`
	MinTickUS         int64   `csv:"min_tick_us"`
	MaxTickUS         int64   `csv:"max_tick_us"`
	TicksPerSec       float64 `csv:"ticks_per_sec"`
	PairNS            int64   `csv:"pair_ns"`
	FPS               float64 `csv:"fps"`
	ObstaclesPct      float64 `csv:"obstacles_pct"`
	BeltPct           float64 `csv:"belt_pct"`
	ShipPct           float64 `csv:"ship_pct"`
	FlockSnapshotPct  float64 `csv:"flock_snapshot_pct"`
	AggregateProbePct float64 `csv:"aggregate_probe_pct"`
	BlendPct          float64 `csv:"blend_pct"`
	IntegratePct      float64 `csv:"integrate_pct"`
	JoinPct           float64 `csv:"join_pct"`
	ContactsPct       float64 `csv:"contacts_pct"`
	TelemetryPct      float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:         windowEnd,
		Generation:        s.Generation,
		Agents:            s.Agents,
		AvgTickUS:         s.AvgTickDuration.Microseconds(),
		MinTickUS:         s.MinTickDuration.Microseconds(),
		MaxTickUS:         s.MaxTickDuration.Microseconds(),
		TicksPerSec:       s.TicksPerSecond,
		PairNS:            s.PairCost.Nanoseconds(),
		FPS:               s.FPS,
		ObstaclesPct:      s.PhasePct[PhaseObstacles],
		BeltPct:           s.PhasePct[PhaseBelt],
		ShipPct:           s.PhasePct[PhaseShip],
		FlockSnapshotPct:  s.PhasePct[PhaseFlockSnapshot],
		AggregateProbePct: s.PhasePct[PhaseAggregateProbe],
		BlendPct:          s.PhasePct[PhaseBlend],
		IntegratePct:      s.PhasePct[PhaseIntegrate],
		JoinPct:           s.PhasePct[PhaseJoin],
		ContactsPct:       s.PhasePct[PhaseContacts],
		TelemetryPct:      s.PhasePct[PhaseTelemetry],
	}
}
