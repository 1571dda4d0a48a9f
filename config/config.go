// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Workers   WorkersConfig   `yaml:"workers"`
	Boids     BoidsConfig     `yaml:"boids"`
	Spawner   SpawnerConfig   `yaml:"spawner"`
	Belt      BeltConfig      `yaml:"belt"`
	Ship      ShipConfig      `yaml:"ship"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Observer  ObserverConfig  `yaml:"observer"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for graphical mode.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds the fixed timestep used by headless runs.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// WorkersConfig controls the parallel job pool.
type WorkersConfig struct {
	Count             int `yaml:"count"`              // 0 = GOMAXPROCS
	ParallelThreshold int `yaml:"parallel_threshold"` // below this, jobs run inline
}

// BoidsConfig holds the flocking tunables. It is copied into an immutable
// flock.Settings value before any parallel work reads it.
type BoidsConfig struct {
	MinimumSpeed     float64 `yaml:"minimum_speed"`
	MaximumSpeed     float64 `yaml:"maximum_speed"`
	PerceptionRadius float64 `yaml:"perception_radius"`
	AvoidanceRadius  float64 `yaml:"avoidance_radius"`
	MaxSteerForce    float64 `yaml:"max_steer_force"`

	AlignmentWeight  float64 `yaml:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	SeparationWeight float64 `yaml:"separation_weight"`
	TargetWeight     float64 `yaml:"target_weight"`

	// Obstacle avoidance
	ObstacleLayerMask        uint32  `yaml:"obstacle_layer_mask"`
	SphereCastRadius         float64 `yaml:"sphere_cast_radius"`
	CollisionAvoidanceWeight float64 `yaml:"collision_avoidance_weight"`
	CollisionAvoidanceDist   float64 `yaml:"collision_avoidance_distance"`
}

// SpawnerConfig holds enemy wave parameters.
type SpawnerConfig struct {
	Count  int        `yaml:"count"`
	Radius float64    `yaml:"radius"`
	Origin [3]float64 `yaml:"origin"`
}

// BeltConfig holds asteroid belt placement and motion parameters.
type BeltConfig struct {
	Count         int        `yaml:"count"`
	Seed          int64      `yaml:"seed"`
	InnerRadius   float64    `yaml:"inner_radius"`
	OuterRadius   float64    `yaml:"outer_radius"`
	Height        float64    `yaml:"height"`
	OrbitSpeed    float64    `yaml:"orbit_speed"`
	Clockwise     bool       `yaml:"clockwise"`
	Center        [3]float64 `yaml:"center"`
	Tilt          float64    `yaml:"tilt"`            // degrees about X applied to the pivot
	MinBodyRadius float64    `yaml:"min_body_radius"` // obstacle sphere radius range
	MaxBodyRadius float64    `yaml:"max_body_radius"`
	ObstacleLayer uint32     `yaml:"obstacle_layer"`
}

// ShipConfig holds the scripted target (player ship) parameters.
type ShipConfig struct {
	PathRadius    float64 `yaml:"path_radius"`
	PathSpeed     float64 `yaml:"path_speed"` // radians per second
	PathHeight    float64 `yaml:"path_height"`
	ContactRadius float64 `yaml:"contact_radius"` // enemies closer than this are despawned
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // seconds of sim time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // ticks
	TraceEvery          int     `yaml:"trace_every"`           // ticks between trace frames (0 = off)
}

// ObserverConfig holds the live websocket feed settings.
type ObserverConfig struct {
	Addr        string `yaml:"addr"` // empty = disabled
	PublishEach int    `yaml:"publish_each"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32 // Physics.DT as float32
	WorkerCount int     // Workers.Count resolved against GOMAXPROCS
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations that cannot start a run.
func (c *Config) Validate() error {
	b := c.Boids
	switch {
	case c.Physics.DT <= 0:
		return fmt.Errorf("%w: physics.dt must be positive, got %v", ErrInvalid, c.Physics.DT)
	case b.MinimumSpeed < 0 || b.MaximumSpeed <= 0:
		return fmt.Errorf("%w: boids speeds must be positive (min=%v max=%v)", ErrInvalid, b.MinimumSpeed, b.MaximumSpeed)
	case b.MinimumSpeed > b.MaximumSpeed:
		return fmt.Errorf("%w: boids.minimum_speed %v exceeds maximum_speed %v", ErrInvalid, b.MinimumSpeed, b.MaximumSpeed)
	case b.PerceptionRadius <= 0:
		return fmt.Errorf("%w: boids.perception_radius must be positive", ErrInvalid)
	case b.AvoidanceRadius < 0 || b.AvoidanceRadius > b.PerceptionRadius:
		return fmt.Errorf("%w: boids.avoidance_radius must be in [0, perception_radius]", ErrInvalid)
	case b.MaxSteerForce <= 0:
		return fmt.Errorf("%w: boids.max_steer_force must be positive", ErrInvalid)
	case b.SphereCastRadius < 0 || b.CollisionAvoidanceDist < 0:
		return fmt.Errorf("%w: boids cast radius/distance must not be negative", ErrInvalid)
	case c.Spawner.Count < 0 || c.Belt.Count < 0:
		return fmt.Errorf("%w: spawner.count and belt.count must not be negative", ErrInvalid)
	case c.Belt.InnerRadius < 0 || c.Belt.OuterRadius < c.Belt.InnerRadius:
		return fmt.Errorf("%w: belt radii must satisfy 0 <= inner <= outer", ErrInvalid)
	case c.Belt.MaxBodyRadius < c.Belt.MinBodyRadius:
		return fmt.Errorf("%w: belt body radius range is inverted", ErrInvalid)
	case c.Workers.Count < 0:
		return fmt.Errorf("%w: workers.count must not be negative", ErrInvalid)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)

	c.Derived.WorkerCount = c.Workers.Count
	if c.Derived.WorkerCount == 0 {
		c.Derived.WorkerCount = runtime.GOMAXPROCS(0)
	}
}

// Clone returns a deep copy. Config holds only value fields, so a struct
// copy is sufficient.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
