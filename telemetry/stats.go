package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Agents     int    `csv:"agents"`
	BeltBodies int    `csv:"belt_bodies"`
	Generation uint64 `csv:"generation"`

	// Events during window
	Contacts int `csv:"contacts"`
	Reinits  int `csv:"reinits"`
	Waves    int `csv:"waves"`

	// Obstacle avoidance, summed over frames
	ProbeHits      int     `csv:"probe_hits"`
	AvoidSteered   int     `csv:"avoid_steered"`
	AvoidFallbacks int     `csv:"avoid_fallbacks"`
	FallbackRate   float64 `csv:"fallback_rate"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Neighbour count distribution (sampled at window end)
	NeighborsMean float64 `csv:"neighbors_mean"`
	NeighborsP50  float64 `csv:"neighbors_p50"`
	NeighborsP90  float64 `csv:"neighbors_p90"`

	// Mean distance from agents to the ship
	TargetDistMean float64 `csv:"target_dist_mean"`
}

// Distribution summarises a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Summarize computes mean, standard deviation and empirical quantiles.
// An empty sample summarises to zeros. values is not modified.
func Summarize(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	var d Distribution
	if n == 1 {
		d.Mean = values[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	d.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("belt_bodies", s.BeltBodies),
		slog.Uint64("generation", s.Generation),
		slog.Int("contacts", s.Contacts),
		slog.Int("reinits", s.Reinits),
		slog.Int("waves", s.Waves),
		slog.Int("probe_hits", s.ProbeHits),
		slog.Int("avoid_steered", s.AvoidSteered),
		slog.Int("avoid_fallbacks", s.AvoidFallbacks),
		slog.Float64("fallback_rate", s.FallbackRate),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("neighbors_mean", s.NeighborsMean),
		slog.Float64("neighbors_p50", s.NeighborsP50),
		slog.Float64("neighbors_p90", s.NeighborsP90),
		slog.Float64("target_dist_mean", s.TargetDistMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
