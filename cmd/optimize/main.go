// Command optimize searches flocking weights with CMA-ES for swarms that
// reach the ship while holding formation through the belt.
//
// Usage: go run ./cmd/optimize -output runs/opt1 [-groups flock,avoidance] [-target-rate 20]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/swarm/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 3600, "Simulation duration in ticks per run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	groups := flag.String("groups", "", "Parameter groups to tune: flock, avoidance, steering (empty = all)")
	targetRate := flag.Float64("target-rate", 0, "Stop once contacts per sim-minute reach this (0 = run all evals)")
	minQuality := flag.Float64("min-quality", 0.8, "Flock quality required alongside -target-rate")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	space, err := params.Select(strings.Split(*groups, ","), params.ExtractFromConfig(baseCfg))
	if err != nil {
		log.Fatal(err)
	}

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, int32(*maxTicks), evalSeeds, baseCfg)

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	popSize := *population
	if popSize == 0 {
		popSize = defaultPopulation(space.Dim())
	}

	fmt.Printf("Tuning %s (population %d, up to %d evals, %d seeds x %d ticks)\n",
		strings.Join(space.Names(), ", "), popSize, *maxEvals, *seeds, *maxTicks)

	s := newSearch(space, evaluator, stopRule{Rate: *targetRate, Quality: *minQuality}, *maxEvals, logFile, os.Stdout)
	best, status, err := s.run(popSize)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	fmt.Printf("\nFinished after %d evaluations (%v), best fitness %.3f\n", s.evals, status, s.bestFitness)

	report := space.Report(best)
	for _, r := range report {
		mark := ""
		if !r.Free {
			mark = "  (fixed)"
		} else if r.Bound != "" {
			mark = "  (at " + r.Bound + " bound, consider widening)"
		}
		fmt.Printf("  %-30s %8.4f  [%g, %g]%s\n", r.Name, r.Value, r.Min, r.Max, mark)
	}
	if err := writeCSV(filepath.Join(*outputDir, "best_params.csv"), &report); err != nil {
		log.Printf("failed to write best params: %v", err)
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, best)
	configOut := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOut); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOut)
	}

	if windows := evaluator.BestWindows(); len(windows) > 0 {
		if err := writeCSV(filepath.Join(*outputDir, "best_windows.csv"), &windows); err != nil {
			log.Printf("failed to write best windows: %v", err)
		}
	}
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
