package game

import (
	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/flock"
	"github.com/pthm-cable/swarm/orbit"
	"github.com/pthm-cable/swarm/scene"
	"github.com/pthm-cable/swarm/telemetry"
)

// PopulationSource enumerates the live agents for a flock reinitialisation.
type PopulationSource interface {
	Agents() []components.TransformHandle
}

// FrameScheduler orders one frame: obstacle snapshot, ship, belt rotation
// scheduled, flock pipeline, then both joins. Every transform is settled
// when Step returns.
type FrameScheduler struct {
	World     *scene.World
	Obstacles *scene.ObstacleField
	Autopilot scene.Autopilot
	Flock     *flock.Manager
	Belt      *orbit.Belt
	Timer     flock.PhaseTimer
}

func (fs *FrameScheduler) phase(name string) {
	if fs.Timer != nil {
		fs.Timer.StartPhase(name)
	}
}

// Step advances the world by dt.
func (fs *FrameScheduler) Step(dt float32) {
	// The belt was joined at the end of the previous frame, so its transforms
	// are stable while the snapshot is taken.
	fs.phase(telemetry.PhaseObstacles)
	fs.Obstacles.Rebuild(fs.World)

	fs.phase(telemetry.PhaseShip)
	fs.Autopilot.Step(fs.World, dt)

	fs.phase(telemetry.PhaseBelt)
	fs.Belt.Tick(dt)

	fs.Flock.Tick(dt)

	fs.phase(telemetry.PhaseJoin)
	fs.Flock.Join()
	fs.Belt.Join()
}

// Reinitialise rebuilds the flock from src. An empty source clears it.
func (fs *FrameScheduler) Reinitialise(src PopulationSource) error {
	handles := src.Agents()
	if len(handles) == 0 {
		fs.Flock.Cleared()
		return nil
	}
	return fs.Flock.Spawned(handles)
}
