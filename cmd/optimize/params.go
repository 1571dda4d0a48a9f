// Package main provides CMA-ES optimization for swarm flocking parameters.
package main

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/swarm/config"
)

// Parameter groups, selectable with -groups.
const (
	GroupFlock     = "flock"     // the four rule weights
	GroupAvoidance = "avoidance" // obstacle cast weight and distance
	GroupSteering  = "steering"  // steer force and perception radii
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Group   string
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Flocking rule weights
			{Name: "alignment_weight", Path: "boids.alignment_weight", Min: 0, Max: 4, Default: 1, Group: GroupFlock},
			{Name: "cohesion_weight", Path: "boids.cohesion_weight", Min: 0, Max: 4, Default: 1, Group: GroupFlock},
			{Name: "separation_weight", Path: "boids.separation_weight", Min: 0, Max: 4, Default: 1, Group: GroupFlock},
			{Name: "target_weight", Path: "boids.target_weight", Min: 0, Max: 4, Default: 1, Group: GroupFlock},
			// Obstacle avoidance
			{Name: "collision_avoidance_weight", Path: "boids.collision_avoidance_weight", Min: 1, Max: 30, Default: 10, Group: GroupAvoidance},
			{Name: "collision_avoidance_distance", Path: "boids.collision_avoidance_distance", Min: 1, Max: 10, Default: 5, Group: GroupAvoidance},
			// Steering and perception (avoidance radius is capped at perception)
			{Name: "max_steer_force", Path: "boids.max_steer_force", Min: 0.5, Max: 10, Default: 3, Group: GroupSteering},
			{Name: "perception_radius", Path: "boids.perception_radius", Min: 1, Max: 6, Default: 2.5, Group: GroupSteering},
			{Name: "avoidance_radius", Path: "boids.avoidance_radius", Min: 0.2, Max: 3, Default: 1, Group: GroupSteering},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Clamp values to ensure they're within bounds
	clamped := pv.Clamp(values)

	// Order must match Specs order
	b := &cfg.Boids
	b.AlignmentWeight = clamped[0]
	b.CohesionWeight = clamped[1]
	b.SeparationWeight = clamped[2]
	b.TargetWeight = clamped[3]
	b.CollisionAvoidanceWeight = clamped[4]
	b.CollisionAvoidanceDist = clamped[5]
	b.MaxSteerForce = clamped[6]
	b.PerceptionRadius = clamped[7]
	b.AvoidanceRadius = min(clamped[8], b.PerceptionRadius)
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	b := cfg.Boids
	return []float64{
		b.AlignmentWeight,
		b.CohesionWeight,
		b.SeparationWeight,
		b.TargetWeight,
		b.CollisionAvoidanceWeight,
		b.CollisionAvoidanceDist,
		b.MaxSteerForce,
		b.PerceptionRadius,
		b.AvoidanceRadius,
	}
}

// Subspace is the part of the parameter vector the optimizer moves. The
// remaining parameters stay at their base values.
type Subspace struct {
	pv     *ParamVector
	active []int
	base   []float64
}

// Select builds a subspace over the parameters of the named groups, with
// base as the values of the fixed ones. An empty group list selects all.
func (pv *ParamVector) Select(groups []string, base []float64) (*Subspace, error) {
	want := make(map[string]bool, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		switch g {
		case "":
		case GroupFlock, GroupAvoidance, GroupSteering:
			want[g] = true
		default:
			return nil, fmt.Errorf("unknown parameter group %q", g)
		}
	}
	sub := &Subspace{pv: pv, base: pv.Clamp(base)}
	for i, spec := range pv.Specs {
		if len(want) == 0 || want[spec.Group] {
			sub.active = append(sub.active, i)
		}
	}
	return sub, nil
}

// Dim returns the number of free parameters.
func (s *Subspace) Dim() int {
	return len(s.active)
}

// Names returns the free parameter names in optimizer order.
func (s *Subspace) Names() []string {
	names := make([]string, len(s.active))
	for j, i := range s.active {
		names[j] = s.pv.Specs[i].Name
	}
	return names
}

// Start returns the normalized starting point: the base values of the free
// parameters.
func (s *Subspace) Start() []float64 {
	x := make([]float64, len(s.active))
	for j, i := range s.active {
		spec := s.pv.Specs[i]
		x[j] = (s.base[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return x
}

// Expand turns a normalized point of the subspace into a full, clamped raw
// parameter vector. Fixed parameters keep their base values exactly.
func (s *Subspace) Expand(x []float64) []float64 {
	raw := make([]float64, len(s.base))
	copy(raw, s.base)
	for j, i := range s.active {
		spec := s.pv.Specs[i]
		raw[i] = spec.Min + x[j]*(spec.Max-spec.Min)
	}
	return s.pv.Clamp(raw)
}

// boundMargin is the fraction of a range treated as pinned to a bound.
const boundMargin = 0.02

// BoundReport describes where a tuned value sits within its range.
type BoundReport struct {
	Name  string  `csv:"param"`
	Value float64 `csv:"value"`
	Min   float64 `csv:"min"`
	Max   float64 `csv:"max"`
	Free  bool    `csv:"free"`
	Bound string  `csv:"bound"` // "lower", "upper" or empty
}

// Report lists every parameter of a full raw vector, flagging free ones that
// ended within boundMargin of a bound. Those ranges are worth widening.
func (s *Subspace) Report(values []float64) []BoundReport {
	free := make(map[int]bool, len(s.active))
	for _, i := range s.active {
		free[i] = true
	}
	out := make([]BoundReport, len(s.pv.Specs))
	for i, spec := range s.pv.Specs {
		r := BoundReport{Name: spec.Name, Value: values[i], Min: spec.Min, Max: spec.Max, Free: free[i]}
		if r.Free {
			margin := (spec.Max - spec.Min) * boundMargin
			switch {
			case values[i] <= spec.Min+margin:
				r.Bound = "lower"
			case values[i] >= spec.Max-margin:
				r.Bound = "upper"
			}
		}
		out[i] = r
	}
	return out
}
