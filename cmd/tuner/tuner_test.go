package main

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/swarm/config"
)

func TestTunablesCoverDistinctFields(t *testing.T) {
	var c config.BoidsConfig
	seen := make(map[*float64]string)
	for _, tn := range tunables {
		if tn.Min >= tn.Max {
			t.Errorf("%s: empty range [%v, %v]", tn.Label, tn.Min, tn.Max)
		}
		p := tn.Field(&c)
		if other, ok := seen[p]; ok {
			t.Errorf("%s and %s share a field", tn.Label, other)
		}
		seen[p] = tn.Label
	}
}

func TestApplySliderClamps(t *testing.T) {
	var c config.BoidsConfig
	tn := tunables[0]

	if !applySlider(&c, tn, tn.Max+5) {
		t.Fatal("expected a change")
	}
	if c.AlignmentWeight != tn.Max {
		t.Errorf("AlignmentWeight = %v, want %v", c.AlignmentWeight, tn.Max)
	}
	if applySlider(&c, tn, tn.Max) {
		t.Error("same value reported as a change")
	}
	applySlider(&c, tn, -1)
	if c.AlignmentWeight != tn.Min {
		t.Errorf("AlignmentWeight = %v, want %v", c.AlignmentWeight, tn.Min)
	}
}

func TestBoidsYAMLRoundTrips(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Boids.CohesionWeight = 2.5

	text, err := boidsYAML(cfg.Boids)
	if err != nil {
		t.Fatalf("boidsYAML: %v", err)
	}
	if !strings.HasPrefix(text, "boids:\n") {
		t.Errorf("missing boids key:\n%s", text)
	}

	var back struct {
		Boids config.BoidsConfig `yaml:"boids"`
	}
	if err := yaml.Unmarshal([]byte(text), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Boids != cfg.Boids {
		t.Errorf("got %+v, want %+v", back.Boids, cfg.Boids)
	}
}
