package main

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/swarm/config"
	"github.com/pthm-cable/swarm/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s: got %v, want %v", pv.Specs[i].Name, back[i], def[i])
		}
	}
}

func TestDefaultsWithinBounds(t *testing.T) {
	pv := NewParamVector()
	for _, spec := range pv.Specs {
		if spec.Default < spec.Min || spec.Default > spec.Max {
			t.Errorf("%s default %v outside [%v, %v]", spec.Name, spec.Default, spec.Min, spec.Max)
		}
	}
}

func TestApplyExtract(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pv := NewParamVector()
	values := []float64{0.5, 1.5, 2.5, 3.5, 12, 4, 2, 3, 1.5}
	pv.ApplyToConfig(cfg, values)

	got := pv.ExtractFromConfig(cfg)
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("%s: got %v, want %v", pv.Specs[i].Name, got[i], values[i])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config invalid: %v", err)
	}
}

func TestApplyCapsAvoidanceRadius(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pv := NewParamVector()
	values := pv.DefaultVector()
	values[7] = 1.0 // perception
	values[8] = 2.5 // avoidance
	pv.ApplyToConfig(cfg, values)

	if cfg.Boids.AvoidanceRadius != 1.0 {
		t.Errorf("avoidance radius = %v, want capped to 1.0", cfg.Boids.AvoidanceRadius)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config invalid: %v", err)
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i := range v {
		v[i] = -100
	}
	v[0] = 100
	c := pv.Clamp(v)
	if c[0] != pv.Specs[0].Max {
		t.Errorf("clamp high: got %v", c[0])
	}
	for i := 1; i < len(c); i++ {
		if c[i] != pv.Specs[i].Min {
			t.Errorf("clamp low %s: got %v", pv.Specs[i].Name, c[i])
		}
	}
}

func steadyWindows(n int, contacts int) []telemetry.WindowStats {
	ws := make([]telemetry.WindowStats, n)
	for i := range ws {
		ws[i] = telemetry.WindowStats{
			SimTimeSec:     float64(i+1) * 5,
			Agents:         50,
			Contacts:       contacts,
			ProbeHits:      10,
			FallbackRate:   0,
			SpeedMean:      3,
			NeighborsMean:  targetNeighbors,
			TargetDistMean: 20,
		}
	}
	return ws
}

func TestQuality(t *testing.T) {
	fe := &FitnessEvaluator{}

	if q := fe.computeQuality(steadyWindows(qualityWarmupWindows, 0)); q != 0 {
		t.Errorf("warmup-only quality = %v, want 0", q)
	}
	if q := fe.computeQuality(steadyWindows(10, 0)); math.Abs(q-1) > 1e-9 {
		t.Errorf("ideal quality = %v, want 1", q)
	}

	sparse := steadyWindows(10, 0)
	for i := range sparse {
		sparse[i].Agents = qualityMinAgents - 1
	}
	if q := fe.computeQuality(sparse); q != 0 {
		t.Errorf("sparse quality = %v, want 0", q)
	}

	blocked := steadyWindows(10, 0)
	for i := range blocked {
		blocked[i].FallbackRate = 1
	}
	want := qualityWeightCohesion + qualityWeightSteady
	if q := fe.computeQuality(blocked); math.Abs(q-want) > 1e-9 {
		t.Errorf("blocked quality = %v, want %v", q, want)
	}
}

func TestContactRate(t *testing.T) {
	// 10 windows of 5s; 8 after warmup span 40s with 2 contacts each.
	r := &runResult{windowStats: steadyWindows(10, 2)}
	if got, want := contactRate(r), 16.0/(40.0/60.0); math.Abs(got-want) > 1e-9 {
		t.Errorf("contact rate = %v, want %v", got, want)
	}
	if got := contactRate(&runResult{failed: true}); got != 0 {
		t.Errorf("failed run rate = %v", got)
	}
}

func TestFitnessOrdering(t *testing.T) {
	fe := &FitnessEvaluator{}
	idle := fe.computeFitness(&runResult{windowStats: steadyWindows(10, 0)})
	busy := fe.computeFitness(&runResult{windowStats: steadyWindows(10, 3)})
	failed := fe.computeFitness(&runResult{failed: true})

	if !(busy < idle) {
		t.Errorf("more contacts should be better: busy=%v idle=%v", busy, idle)
	}
	if !(idle < failed) {
		t.Errorf("failed run should be worst: idle=%v failed=%v", idle, failed)
	}
}

func TestCV(t *testing.T) {
	if got := cv(nil); got != 0 {
		t.Errorf("cv(nil) = %v", got)
	}
	if got := cv([]float64{2, 2, 2}); got != 0 {
		t.Errorf("cv(constant) = %v", got)
	}
	if got := cv([]float64{1, 3}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("cv = %v, want 0.5", got)
	}
}

func TestSelectGroups(t *testing.T) {
	pv := NewParamVector()
	base := pv.DefaultVector()

	all, err := pv.Select([]string{""}, base)
	if err != nil {
		t.Fatalf("Select(all): %v", err)
	}
	if all.Dim() != pv.Dim() {
		t.Errorf("empty group list selects %d params, want %d", all.Dim(), pv.Dim())
	}

	avoid, err := pv.Select([]string{"avoidance"}, base)
	if err != nil {
		t.Fatalf("Select(avoidance): %v", err)
	}
	want := []string{"collision_avoidance_weight", "collision_avoidance_distance"}
	if got := avoid.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	if _, err := pv.Select([]string{"flock", "nope"}, base); err == nil {
		t.Error("unknown group accepted")
	}
}

func TestSubspaceExpandKeepsFixedParams(t *testing.T) {
	pv := NewParamVector()
	base := pv.DefaultVector()
	base[0] = 2.5 // alignment, fixed below

	sub, err := pv.Select([]string{"avoidance"}, base)
	if err != nil {
		t.Fatal(err)
	}
	start := sub.Start()
	if got := sub.Expand(start); math.Abs(got[4]-base[4]) > 1e-9 || got[0] != 2.5 {
		t.Errorf("Expand(Start()) = %v, want base %v", got, base)
	}

	raw := sub.Expand([]float64{1, 2}) // second coordinate past the upper bound
	if raw[4] != pv.Specs[4].Max || raw[5] != pv.Specs[5].Max {
		t.Errorf("free params = %v, %v, want upper bounds", raw[4], raw[5])
	}
	for _, i := range []int{0, 1, 2, 3, 6, 7, 8} {
		if raw[i] != base[i] {
			t.Errorf("%s moved to %v", pv.Specs[i].Name, raw[i])
		}
	}
}

func TestReportFlagsPinnedParams(t *testing.T) {
	pv := NewParamVector()
	sub, err := pv.Select([]string{"flock"}, pv.DefaultVector())
	if err != nil {
		t.Fatal(err)
	}
	values := pv.DefaultVector()
	values[0] = 0    // alignment at lower bound
	values[1] = 3.99 // cohesion within margin of upper bound
	values[4] = 1    // avoidance weight at its minimum but fixed
	rep := sub.Report(values)

	if rep[0].Bound != "lower" || rep[1].Bound != "upper" || rep[2].Bound != "" {
		t.Errorf("bounds = %q %q %q", rep[0].Bound, rep[1].Bound, rep[2].Bound)
	}
	if rep[4].Free || rep[4].Bound != "" {
		t.Errorf("fixed param reported as %+v", rep[4])
	}
}

func TestStopRule(t *testing.T) {
	tests := []struct {
		rule          stopRule
		rate, quality float64
		want          bool
	}{
		{stopRule{}, 100, 1, false},
		{stopRule{Rate: 10, Quality: 0.8}, 12, 0.9, true},
		{stopRule{Rate: 10, Quality: 0.8}, 12, 0.5, false},
		{stopRule{Rate: 10, Quality: 0.8}, 8, 0.9, false},
	}
	for _, tt := range tests {
		if got := tt.rule.met(tt.rate, tt.quality); got != tt.want {
			t.Errorf("%+v.met(%v, %v) = %v, want %v", tt.rule, tt.rate, tt.quality, got, tt.want)
		}
	}
}

// fixedScorer returns the contact rate it is given as a negative fitness.
type fixedScorer struct {
	rates []float64
	calls int
	last  []float64
}

func (f *fixedScorer) Evaluate(x []float64) float64 {
	f.last = x
	f.calls++
	return -f.LastContactRate()
}
func (f *fixedScorer) LastQuality() float64 { return 0.9 }
func (f *fixedScorer) LastContactRate() float64 {
	return f.rates[min(f.calls, len(f.rates))-1]
}

func TestSearchStopsAtTargetRate(t *testing.T) {
	pv := NewParamVector()
	sub, err := pv.Select([]string{"flock"}, pv.DefaultVector())
	if err != nil {
		t.Fatal(err)
	}
	sc := &fixedScorer{rates: []float64{5, 25, 3}}
	var logBuf bytes.Buffer
	s := newSearch(sub, sc, stopRule{Rate: 20, Quality: 0.8}, 10, &logBuf, io.Discard)

	s.objective(sub.Start())
	if st, _ := s.status(); st != optimize.NotTerminated {
		t.Fatalf("status after slow eval = %v", st)
	}
	s.objective(sub.Start())
	if st, _ := s.status(); st != optimize.FunctionThreshold {
		t.Errorf("status after target reached = %v", st)
	}
	if s.bestFitness != -25 || len(s.best) != pv.Dim() {
		t.Errorf("best = %v (%v)", s.bestFitness, s.best)
	}
	if len(sc.last) != pv.Dim() {
		t.Errorf("scorer saw %d values, want full vector", len(sc.last))
	}

	lines := strings.Split(strings.TrimSpace(logBuf.String()), "\n")
	if len(lines) != 1+2*pv.Dim() {
		t.Fatalf("log has %d lines, want header + %d rows", len(lines), 2*pv.Dim())
	}
	if lines[0] != "eval,fitness,contacts_per_min,quality,param,value" {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(logBuf.String(), "eval,") != 1 {
		t.Error("header written more than once")
	}
}

func TestDefaultPopulation(t *testing.T) {
	for _, tt := range []struct{ dim, want int }{{1, 4}, {2, 6}, {9, 10}} {
		if got := defaultPopulation(tt.dim); got != tt.want {
			t.Errorf("defaultPopulation(%d) = %d, want %d", tt.dim, got, tt.want)
		}
	}
}
