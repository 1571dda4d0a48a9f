package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/swarm/config"
)

// tunable is one slider row bound to a BoidsConfig field.
type tunable struct {
	Label string
	Key   string // yaml key under boids:
	Min   float64
	Max   float64
	Field func(c *config.BoidsConfig) *float64
}

var tunables = []tunable{
	{"Alignment", "alignment_weight", 0, 4, func(c *config.BoidsConfig) *float64 { return &c.AlignmentWeight }},
	{"Cohesion", "cohesion_weight", 0, 4, func(c *config.BoidsConfig) *float64 { return &c.CohesionWeight }},
	{"Separation", "separation_weight", 0, 4, func(c *config.BoidsConfig) *float64 { return &c.SeparationWeight }},
	{"Target", "target_weight", 0, 4, func(c *config.BoidsConfig) *float64 { return &c.TargetWeight }},
	{"Avoid weight", "collision_avoidance_weight", 0, 30, func(c *config.BoidsConfig) *float64 { return &c.CollisionAvoidanceWeight }},
	{"Avoid distance", "collision_avoidance_distance", 0.5, 10, func(c *config.BoidsConfig) *float64 { return &c.CollisionAvoidanceDist }},
	{"Max steer", "max_steer_force", 0.1, 10, func(c *config.BoidsConfig) *float64 { return &c.MaxSteerForce }},
	{"Perception", "perception_radius", 0.5, 6, func(c *config.BoidsConfig) *float64 { return &c.PerceptionRadius }},
	{"Avoid radius", "avoidance_radius", 0, 3, func(c *config.BoidsConfig) *float64 { return &c.AvoidanceRadius }},
	{"Min speed", "minimum_speed", 0, 10, func(c *config.BoidsConfig) *float64 { return &c.MinimumSpeed }},
	{"Max speed", "maximum_speed", 0.5, 15, func(c *config.BoidsConfig) *float64 { return &c.MaximumSpeed }},
}

// applySlider writes v into the field behind t, clamped to the slider range.
// It reports whether the value changed.
func applySlider(c *config.BoidsConfig, t tunable, v float64) bool {
	v = min(max(v, t.Min), t.Max)
	p := t.Field(c)
	if *p == v {
		return false
	}
	*p = v
	return true
}

// boidsYAML renders the boids section so it can be pasted into a config file.
func boidsYAML(c config.BoidsConfig) (string, error) {
	data, err := yaml.Marshal(map[string]config.BoidsConfig{"boids": c})
	if err != nil {
		return "", fmt.Errorf("marshaling boids: %w", err)
	}
	return string(data), nil
}
