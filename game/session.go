package game

import (
	"fmt"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/orbit"
	"github.com/pthm-cable/swarm/telemetry"
)

// StartSession places the belt and spawns the first wave. A running
// session is ended first.
func (g *Game) StartSession() error {
	if g.inSession {
		g.EndSession("restart")
	}

	if g.asteroids > 0 {
		cfg := g.cfg.Belt
		seed := cfg.Seed
		if seed == 0 {
			seed = g.rngSeed
		}
		pivot := g.world.Pivot()
		placements := orbit.Place(orbit.Annulus{
			Count:       g.asteroids,
			Seed:        seed,
			InnerRadius: float32(cfg.InnerRadius),
			OuterRadius: float32(cfg.OuterRadius),
			Height:      float32(cfg.Height),
			MinRadius:   float32(cfg.MinBodyRadius),
			MaxRadius:   float32(cfg.MaxBodyRadius),
		}, pivot.Position(), pivot.Rotation())
		g.world.SpawnBelt(placements, float32(cfg.OrbitSpeed), cfg.Clockwise, cfg.ObstacleLayer)
		if err := g.populateBelt(); err != nil {
			return err
		}
	}

	if err := g.spawnWave(); err != nil {
		return err
	}

	g.inSession = true
	g.log.Info("session started",
		"run_id", g.runID,
		"tick", g.tick,
		"enemies", g.enemies,
		"asteroids", g.asteroids,
	)
	return nil
}

// EndSession saves a snapshot when enabled, stops both pipelines and
// despawns every agent and belt body.
func (g *Game) EndSession(reason string) {
	if !g.inSession {
		return
	}
	if g.snapshotDir != "" {
		g.saveSnapshot(reason)
	}

	g.flock.Cleared()
	g.belt.Clear()
	agents := g.world.DespawnAgents()
	bodies := g.world.DespawnBelt()
	g.inSession = false

	g.log.Info("session ended",
		"reason", reason,
		"tick", g.tick,
		"agents", agents,
		"belt_bodies", bodies,
	)
}

// SetEnemies sets the wave size used from the next wave on.
func (g *Game) SetEnemies(n int) {
	g.enemies = max(n, 0)
}

// SetAsteroids sets the belt size used from the next session on.
func (g *Game) SetAsteroids(n int) {
	g.asteroids = max(n, 0)
}

// spawnWave adds a wave of agents and rebuilds the flock around the whole
// population.
func (g *Game) spawnWave() error {
	if g.enemies == 0 {
		return nil
	}
	cfg := g.cfg.Spawner
	wave := g.world.SpawnWave(g.enemies, vec3(cfg.Origin), float32(cfg.Radius), g.flock.Settings().InitialSpeed())
	g.collector.RecordWave()

	if err := g.scheduler.Reinitialise(g.world); err != nil {
		return fmt.Errorf("wave %d: %w", wave, err)
	}
	return nil
}

func (g *Game) populateBelt() error {
	handles, bodies := g.world.Belt()
	if err := g.belt.Populate(g.world.Pivot(), handles, bodies); err != nil {
		return fmt.Errorf("populating belt: %w", err)
	}
	return nil
}

// handleContacts despawns agents that reached the ship and reinitialises
// the flock with the survivors. A wiped out flock is replaced by a new wave.
func (g *Game) handleContacts() {
	if !g.inSession {
		return
	}
	hits := g.world.AgentsWithin(g.world.Ship().Position(), g.contactRadius)
	if len(hits) == 0 {
		return
	}

	removed := g.world.Despawn(hits)
	for i := 0; i < removed; i++ {
		g.collector.RecordContact()
	}

	if err := g.scheduler.Reinitialise(g.world); err != nil {
		g.log.Error("failed to reinitialise flock", "error", err)
		return
	}
	g.collector.RecordReinit()

	if g.flock.Len() == 0 {
		if err := g.spawnWave(); err != nil {
			g.log.Error("failed to spawn wave", "error", err)
		}
	}
}

// RestoreSnapshot replaces the current session with the snapshot's state.
func (g *Game) RestoreSnapshot(snap *telemetry.Snapshot) error {
	g.EndSession("restore")

	g.tick = snap.Tick
	g.world.ShipState().Angle = snap.ShipAngle
	ship := g.world.Ship()
	ship.SetPosition(snap.Ship.Vec())
	ship.SetRotation(snap.Ship.Quat())
	pivot := g.world.Pivot()
	pivot.SetPosition(snap.Pivot.Vec())
	pivot.SetRotation(snap.Pivot.Quat())

	for _, a := range snap.Agents {
		g.world.RestoreAgent(
			components.Transform{Position: a.Vec(), Rotation: a.Quat()},
			components.Agent{Velocity: a.Velocity, Wave: a.Wave},
		)
	}
	for _, b := range snap.Belt {
		g.world.RestoreBeltBody(
			components.Transform{Position: b.Vec(), Rotation: b.Quat()},
			components.BeltBody{OrbitSpeed: b.OrbitSpeed, Clockwise: b.Clockwise},
			components.Obstacle{Radius: b.Radius, Layer: g.cfg.Belt.ObstacleLayer},
		)
	}

	if len(snap.Belt) > 0 {
		if err := g.populateBelt(); err != nil {
			return err
		}
	}
	if err := g.scheduler.Reinitialise(g.world); err != nil {
		return err
	}

	g.inSession = true
	g.log.Info("session restored",
		"from_run", snap.RunID,
		"tick", snap.Tick,
		"agents", len(snap.Agents),
		"belt_bodies", len(snap.Belt),
	)
	return nil
}
