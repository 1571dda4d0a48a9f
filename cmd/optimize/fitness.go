package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/swarm/config"
	"github.com/pthm-cable/swarm/game"
	"github.com/pthm-cable/swarm/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
	lastRate    float64 // contacts per sim-minute from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 5.0, // 5 seconds per window
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the window stats of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastContactRate returns the mean contacts per sim-minute from the most
// recent evaluation.
func (fe *FitnessEvaluator) LastContactRate() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRate
}

// runResult holds the results from a single simulation run.
type runResult struct {
	ticks       int32
	dt          float64
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
	failed      bool                    // the parameters were rejected at startup
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	rate    float64
	windows []telemetry.WindowStats
}

// failedFitness is returned for parameter vectors that cannot start a run.
const failedFitness = 1e6

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			results[idx] = seedResult{
				fitness: fe.computeFitness(result),
				quality: fe.computeQuality(result.windowStats),
				rate:    contactRate(result),
				windows: result.windowStats,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality, totalRate float64
	bestSeedFitness := math.Inf(1)
	var bestSeedWindows []telemetry.WindowStats

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalRate += r.rate
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedWindows = r.windows
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	// Update best tracking
	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = bestSeedWindows
	}
	fe.lastQuality = totalQuality / n
	fe.lastRate = totalRate / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run of maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	// Create a fresh config copy and apply parameters
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	// Seeds already run in parallel; keep each run on a single worker.
	cfg.Derived.WorkerCount = 1

	result := &runResult{dt: cfg.Physics.DT}

	opts := game.DefaultOptions()
	opts.Seed = seed
	opts.Headless = true
	opts.StatsWindowSec = fe.statsWindow
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		result.failed = true
		return result
	}
	defer g.Unload()

	// Collect window stats via callback
	g.SetStatsCallback(func(stats telemetry.WindowStats) {
		result.windowStats = append(result.windowStats, stats)
	})

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	result.ticks = g.Tick()
	return result
}

// contactRate returns contacts per sim-minute after warmup.
func contactRate(r *runResult) float64 {
	if r.failed || len(r.windowStats) <= qualityWarmupWindows {
		return 0
	}
	valid := r.windowStats[qualityWarmupWindows:]
	var contacts int
	for _, w := range valid {
		contacts += w.Contacts
	}
	span := valid[len(valid)-1].SimTimeSec - r.windowStats[qualityWarmupWindows-1].SimTimeSec
	if span <= 0 {
		return 0
	}
	return float64(contacts) / (span / 60.0)
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -((contactRate + approach) × (1.0 + 0.2 × quality))
// Contacts dominate; approach rewards closing on the ship when no agent
// reaches it, and quality adds up to 20% to separate similar rates.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	if r.failed {
		return failedFitness
	}
	quality := fe.computeQuality(r.windowStats)
	return -((contactRate(r) + approachScore(r.windowStats)) * (1.0 + 0.2*quality))
}

// approachScore is 1 when agents sit on the ship and decays with mean
// target distance.
func approachScore(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	var sum float64
	var n int
	for _, w := range windows[qualityWarmupWindows:] {
		if w.Agents == 0 {
			continue
		}
		sum += w.TargetDistMean
		n++
	}
	if n == 0 {
		return 0
	}
	return 1.0 / (1.0 + sum/float64(n)/approachScale)
}

// Quality component weights.
const (
	qualityWeightCohesion  = 0.40
	qualityWeightSteady    = 0.30
	qualityWeightAvoidance = 0.30

	qualityWarmupWindows = 2  // skip first N windows (warmup)
	qualityMinAgents     = 5  // exclude windows with fewer agents
	targetNeighbors      = 6  // preferred mean neighbour count
	approachScale        = 10 // distance at which approach score halves
)

// computeQuality computes flock quality ∈ [0, 1] from window stats.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var cohesionSum, avoidSum float64
	var cohesionCount, avoidCount int
	speeds := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Agents < qualityMinAgents {
			continue
		}

		// 1. Cohesion: neighbour count near the preferred flock density
		d := (w.NeighborsMean - targetNeighbors) / 4.0
		cohesionSum += math.Exp(-d * d)
		cohesionCount++

		speeds = append(speeds, w.SpeedMean)

		// 3. Avoidance: probes that found a clear direction
		if w.ProbeHits > 0 {
			avoidSum += 1.0 - w.FallbackRate
			avoidCount++
		}
	}

	if cohesionCount == 0 {
		return 0
	}
	cohesionScore := cohesionSum / float64(cohesionCount)

	// 2. Steady cruising speed across windows
	steadyScore := 0.0
	if len(speeds) >= 2 {
		c := cv(speeds)
		steadyScore = math.Exp(-c * c * 25)
	}

	avoidScore := 1.0
	if avoidCount > 0 {
		avoidScore = avoidSum / float64(avoidCount)
	}

	quality := qualityWeightCohesion*cohesionScore +
		qualityWeightSteady*steadyScore +
		qualityWeightAvoidance*avoidScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff/n) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
