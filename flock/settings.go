// Package flock implements the boid simulation: neighbour aggregation,
// obstacle probing, force blending and integration over a dense agent array,
// driven each frame by a Manager on a parallel.Pool.
package flock

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/swarm/config"
)

var (
	// ErrNilSettings is returned when a Manager is built without settings.
	ErrNilSettings = errors.New("flock: nil settings")
	// ErrEmptyPopulation is returned when a population of zero agents is spawned.
	ErrEmptyPopulation = errors.New("flock: empty population")
	// ErrInvalidSettings wraps every settings validation failure.
	ErrInvalidSettings = errors.New("flock: invalid settings")
)

// Settings is the immutable per-run copy of the flocking tunables. Build it
// with NewSettings; stages only ever read it.
type Settings struct {
	MinSpeed         float32
	MaxSpeed         float32
	PerceptionRadius float32
	AvoidanceRadius  float32
	MaxSteerForce    float32

	AlignmentWeight  float32
	CohesionWeight   float32
	SeparationWeight float32
	TargetWeight     float32

	ObstacleMask             uint32
	CastRadius               float32
	CastDistance             float32
	CollisionAvoidanceWeight float32

	perceptionSq float32
	avoidanceSq  float32
}

// NewSettings copies the boid config into a validated Settings value.
func NewSettings(c config.BoidsConfig) (*Settings, error) {
	s := Settings{
		MinSpeed:                 float32(c.MinimumSpeed),
		MaxSpeed:                 float32(c.MaximumSpeed),
		PerceptionRadius:         float32(c.PerceptionRadius),
		AvoidanceRadius:          float32(c.AvoidanceRadius),
		MaxSteerForce:            float32(c.MaxSteerForce),
		AlignmentWeight:          float32(c.AlignmentWeight),
		CohesionWeight:           float32(c.CohesionWeight),
		SeparationWeight:         float32(c.SeparationWeight),
		TargetWeight:             float32(c.TargetWeight),
		ObstacleMask:             c.ObstacleLayerMask,
		CastRadius:               float32(c.SphereCastRadius),
		CastDistance:             float32(c.CollisionAvoidanceDist),
		CollisionAvoidanceWeight: float32(c.CollisionAvoidanceWeight),
	}
	if err := s.prepare(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() *Settings {
	s, err := NewSettings(config.BoidsConfig{
		MinimumSpeed:             2,
		MaximumSpeed:             5,
		PerceptionRadius:         2.5,
		AvoidanceRadius:          1,
		MaxSteerForce:            3,
		AlignmentWeight:          1,
		CohesionWeight:           1,
		SeparationWeight:         1,
		TargetWeight:             1,
		ObstacleLayerMask:        1,
		SphereCastRadius:         0.27,
		CollisionAvoidanceWeight: 10,
		CollisionAvoidanceDist:   5,
	})
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Settings) validate() error {
	switch {
	case s.MaxSpeed <= 0 || s.MinSpeed < 0 || s.MinSpeed > s.MaxSpeed:
		return fmt.Errorf("%w: speed bounds [%v, %v]", ErrInvalidSettings, s.MinSpeed, s.MaxSpeed)
	case s.PerceptionRadius <= 0:
		return fmt.Errorf("%w: perception radius %v", ErrInvalidSettings, s.PerceptionRadius)
	case s.AvoidanceRadius < 0 || s.AvoidanceRadius > s.PerceptionRadius:
		return fmt.Errorf("%w: avoidance radius %v", ErrInvalidSettings, s.AvoidanceRadius)
	case s.MaxSteerForce <= 0:
		return fmt.Errorf("%w: max steer force %v", ErrInvalidSettings, s.MaxSteerForce)
	case s.CastRadius < 0 || s.CastDistance < 0:
		return fmt.Errorf("%w: cast radius %v distance %v", ErrInvalidSettings, s.CastRadius, s.CastDistance)
	}
	return nil
}

// prepare validates s and fills in the derived squared radii.
func (s *Settings) prepare() error {
	if err := s.validate(); err != nil {
		return err
	}
	s.perceptionSq = s.PerceptionRadius * s.PerceptionRadius
	s.avoidanceSq = s.AvoidanceRadius * s.AvoidanceRadius
	return nil
}

// PerceptionSq is the squared perception radius.
func (s *Settings) PerceptionSq() float32 { return s.perceptionSq }

// AvoidanceSq is the squared avoidance radius.
func (s *Settings) AvoidanceSq() float32 { return s.avoidanceSq }

// InitialSpeed is the speed a freshly spawned agent starts with.
func (s *Settings) InitialSpeed() float32 { return (s.MinSpeed + s.MaxSpeed) / 2 }
