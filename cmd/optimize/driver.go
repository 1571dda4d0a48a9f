package main

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"
)

// evalRow is one line of optimize_log.csv: one row per parameter per
// evaluation, so the log keeps a fixed shape whatever groups are tuned.
type evalRow struct {
	Eval        int     `csv:"eval"`
	Fitness     float64 `csv:"fitness"`
	ContactRate float64 `csv:"contacts_per_min"`
	Quality     float64 `csv:"quality"`
	Param       string  `csv:"param"`
	Value       float64 `csv:"value"`
}

// stopRule ends the search once a swarm reaches the ship often enough while
// keeping formation. A zero Rate disables it.
type stopRule struct {
	Rate    float64 // contacts per sim-minute
	Quality float64
}

func (r stopRule) met(rate, quality float64) bool {
	return r.Rate > 0 && rate >= r.Rate && quality >= r.Quality
}

// scorer evaluates a full raw parameter vector. FitnessEvaluator satisfies it.
type scorer interface {
	Evaluate(x []float64) float64
	LastQuality() float64
	LastContactRate() float64
}

// search drives CMA-ES over a Subspace, logging every evaluation.
type search struct {
	space    *Subspace
	eval     scorer
	stop     stopRule
	maxEvals int
	log      io.Writer
	progress io.Writer

	evals       int
	headerDone  bool
	bestFitness float64
	best        []float64
	stopped     atomic.Bool // read by the optimizer's status hook
	started     time.Time
}

func newSearch(space *Subspace, eval scorer, stop stopRule, maxEvals int, log, progress io.Writer) *search {
	return &search{
		space:       space,
		eval:        eval,
		stop:        stop,
		maxEvals:    maxEvals,
		log:         log,
		progress:    progress,
		bestFitness: math.Inf(1),
	}
}

// objective is the optimize.Problem Func. It must not modify x.
func (s *search) objective(x []float64) float64 {
	raw := s.space.Expand(x)
	fitness := s.eval.Evaluate(raw)
	rate := s.eval.LastContactRate()
	quality := s.eval.LastQuality()
	s.evals++

	if fitness < s.bestFitness {
		s.bestFitness = fitness
		s.best = raw
	}
	if s.stop.met(rate, quality) {
		s.stopped.Store(true)
	}

	if err := s.record(raw, fitness, rate, quality); err != nil {
		fmt.Fprintf(s.progress, "log write failed: %v\n", err)
	}

	elapsed := time.Since(s.started)
	eta := time.Duration(0)
	if s.evals < s.maxEvals {
		eta = elapsed / time.Duration(s.evals) * time.Duration(s.maxEvals-s.evals)
	}
	fmt.Fprintf(s.progress, "eval %d/%d  contacts/min=%.1f  quality=%.2f  fitness=%.3f (best %.3f)  %s elapsed, ~%s left\n",
		s.evals, s.maxEvals, rate, quality, fitness, s.bestFitness,
		elapsed.Round(time.Second), eta.Round(time.Second))
	return fitness
}

// status is the optimize.Problem Status hook.
func (s *search) status() (optimize.Status, error) {
	if s.stopped.Load() {
		return optimize.FunctionThreshold, nil
	}
	return optimize.NotTerminated, nil
}

func (s *search) record(raw []float64, fitness, rate, quality float64) error {
	rows := make([]evalRow, 0, len(raw))
	for i, spec := range s.space.pv.Specs {
		rows = append(rows, evalRow{
			Eval:        s.evals,
			Fitness:     fitness,
			ContactRate: rate,
			Quality:     quality,
			Param:       spec.Name,
			Value:       raw[i],
		})
	}
	if !s.headerDone {
		s.headerDone = true
		return gocsv.Marshal(&rows, s.log)
	}
	return gocsv.MarshalWithoutHeaders(&rows, s.log)
}

// run minimizes and returns the best full raw vector seen, which may come
// from any evaluation rather than the final mean.
func (s *search) run(popSize int) ([]float64, optimize.Status, error) {
	s.started = time.Now()
	problem := optimize.Problem{Func: s.objective, Status: s.status}
	settings := &optimize.Settings{FuncEvaluations: s.maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	result, err := optimize.Minimize(problem, s.space.Start(), settings, method)
	var st optimize.Status
	if result != nil {
		st = result.Status
		if s.best == nil {
			s.best = s.space.Expand(result.X)
		}
	}
	if s.best == nil {
		s.best = s.space.Expand(s.space.Start())
	}
	return s.best, st, err
}

// defaultPopulation is the CMA-ES rule 4 + floor(3 ln n).
func defaultPopulation(dim int) int {
	if dim < 1 {
		dim = 1
	}
	return 4 + int(3*math.Log(float64(dim)))
}
