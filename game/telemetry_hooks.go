package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/telemetry"
)

// recordFrame feeds the collector and emits trace and observer frames.
func (g *Game) recordFrame() {
	st := g.flock.Stats()
	g.collector.RecordFrame(telemetry.FrameSample{
		Hits:      st.Hits,
		Steered:   st.Steered,
		Fallbacks: st.Fallbacks,
	})

	traceDue := g.trace != nil && int(g.tick)%g.traceEvery == 0
	publishDue := g.observer != nil && int(g.tick)%g.publishEach == 0
	if !traceDue && !publishDue {
		return
	}

	frame := g.frame()
	if traceDue {
		if err := g.trace.Write(frame); err != nil {
			g.log.Error("failed to write trace frame", "error", err)
			g.trace = nil
		}
	}
	if publishDue {
		if err := g.observer.Publish(frame); err != nil {
			g.log.Error("failed to publish frame", "error", err)
		}
	}
}

// frame captures the current poses of the ship, agents and belt.
func (g *Game) frame() *telemetry.Frame {
	ship := g.world.Ship()
	f := &telemetry.Frame{
		RunID:      g.runID,
		Tick:       g.tick,
		Generation: g.flock.Generation(),
		Ship:       telemetry.PoseOf(ship.Position(), ship.Rotation()),
	}
	g.world.EachAgent(func(_ ecs.Entity, t *components.Transform, _ *components.Agent) {
		f.Agents = append(f.Agents, telemetry.PoseOf(t.Position, t.Rotation))
	})
	g.world.EachBeltBody(func(t *components.Transform, _ *components.BeltBody, _ *components.Obstacle) {
		f.Belt = append(f.Belt, telemetry.PoseOf(t.Position, t.Rotation))
	})
	return f
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.samplePopulation())
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			g.log.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			g.log.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}

		// Save snapshot on bookmark
		if g.snapshotDir != "" && g.inSession {
			g.saveSnapshot(string(bm.Type))
		}
	}
}

// samplePopulation collects the end-of-window distributions.
func (g *Game) samplePopulation() telemetry.Population {
	g.speeds = g.flock.Speeds(g.speeds)
	g.neighbors = g.flock.NeighborCounts(g.neighbors)

	shipPos := g.world.Ship().Position()
	g.dists = g.dists[:0]
	g.world.EachAgent(func(_ ecs.Entity, t *components.Transform, _ *components.Agent) {
		g.dists = append(g.dists, float64(t.Position.Sub(shipPos).Len()))
	})

	return telemetry.Population{
		Agents:      g.world.AgentCount(),
		BeltBodies:  g.world.BeltCount(),
		Generation:  g.flock.Generation(),
		Speeds:      g.speeds,
		Neighbors:   g.neighbors,
		TargetDists: g.dists,
	}
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(reason string) {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(reason), g.snapshotDir)
	if err != nil {
		g.log.Error("failed to save snapshot", "error", err)
		return
	}

	g.log.Info("snapshot saved", "path", path, "tick", g.tick)
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(reason string) *telemetry.Snapshot {
	ship := g.world.Ship()
	pivot := g.world.Pivot()
	snapshot := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		RunID:      g.runID,
		RNGSeed:    g.rngSeed,
		Reason:     reason,
		Tick:       g.tick,
		Generation: g.flock.Generation(),
		Ship:       telemetry.PoseOf(ship.Position(), ship.Rotation()),
		ShipAngle:  g.world.ShipState().Angle,
		Pivot:      telemetry.PoseOf(pivot.Position(), pivot.Rotation()),
	}

	g.world.EachAgent(func(_ ecs.Entity, t *components.Transform, a *components.Agent) {
		snapshot.Agents = append(snapshot.Agents, telemetry.AgentState{
			Pose:     telemetry.PoseOf(t.Position, t.Rotation),
			Velocity: a.Velocity,
			Wave:     a.Wave,
		})
	})
	g.world.EachBeltBody(func(t *components.Transform, b *components.BeltBody, o *components.Obstacle) {
		snapshot.Belt = append(snapshot.Belt, telemetry.BeltState{
			Pose:       telemetry.PoseOf(t.Position, t.Rotation),
			Radius:     o.Radius,
			OrbitSpeed: b.OrbitSpeed,
			Clockwise:  b.Clockwise,
		})
	})

	return snapshot
}
