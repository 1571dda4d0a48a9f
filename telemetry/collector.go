package telemetry

import "math"

// FrameSample is the per-frame avoidance summary reported by the flock.
type FrameSample struct {
	Hits      int
	Steered   int
	Fallbacks int
}

// Population is the state sampled at the end of a window.
type Population struct {
	Agents     int
	BeltBodies int
	Generation uint64

	Speeds      []float64
	Neighbors   []float64
	TargetDists []float64
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	runID               string
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	contacts  int
	reinits   int
	waves     int
	hits      int
	steered   int
	fallbacks int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(runID string, windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		runID:               runID,
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordContact records an agent reaching the ship.
func (c *Collector) RecordContact() {
	c.contacts++
}

// RecordReinit records a flock reinitialisation.
func (c *Collector) RecordReinit() {
	c.reinits++
}

// RecordWave records a spawn wave.
func (c *Collector) RecordWave() {
	c.waves++
}

// RecordFrame adds one frame's avoidance counts.
func (c *Collector) RecordFrame(f FrameSample) {
	c.hits += f.Hits
	c.steered += f.Steered
	c.fallbacks += f.Fallbacks
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	var fallbackRate float64
	if c.hits > 0 {
		fallbackRate = float64(c.fallbacks) / float64(c.hits)
	}

	speed := Summarize(pop.Speeds)
	neighbors := Summarize(pop.Neighbors)
	dist := Summarize(pop.TargetDists)

	stats := WindowStats{
		RunID:           c.runID,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Agents:     pop.Agents,
		BeltBodies: pop.BeltBodies,
		Generation: pop.Generation,

		Contacts: c.contacts,
		Reinits:  c.reinits,
		Waves:    c.waves,

		ProbeHits:      c.hits,
		AvoidSteered:   c.steered,
		AvoidFallbacks: c.fallbacks,
		FallbackRate:   fallbackRate,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP10:  speed.P10,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,

		NeighborsMean: neighbors.Mean,
		NeighborsP50:  neighbors.P50,
		NeighborsP90:  neighbors.P90,

		TargetDistMean: dist.Mean,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.contacts = 0
	c.reinits = 0
	c.waves = 0
	c.hits = 0
	c.steered = 0
	c.fallbacks = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
