package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/geom"
	"github.com/pthm-cable/swarm/ui"
)

// Draw renders a full frame.
func (g *Game) Draw() {
	rl.BeginDrawing()
	g.DrawFrame()
	rl.EndDrawing()
}

// DrawFrame renders the scene and overlays into an already open frame so
// tools can draw their own widgets on top.
func (g *Game) DrawFrame() {
	g.perfCollector.RecordFrame()
	rl.ClearBackground(rl.Black)

	rl.BeginMode3D(g.camera3D())
	g.drawBelt()
	g.drawAgents()
	g.drawShip()
	g.inspector.DrawSelectionHighlight(g.world, agentDrawRadius)
	rl.EndMode3D()

	screenW := int32(rl.GetScreenWidth())
	screenH := int32(rl.GetScreenHeight())

	g.hud.Draw(ui.HUDData{
		Title:      "Swarm",
		Agents:     g.world.AgentCount(),
		BeltBodies: g.world.BeltCount(),
		Generation: g.flock.Generation(),
		WaveSize:   g.enemies,
		Tick:       g.tick,
		Speed:      g.stepsPerUpdate,
		FPS:        rl.GetFPS(),
		Paused:     g.paused,
		InSession:  g.inSession,
		FollowShip: g.followShip,
	})

	bottom := g.controls.Draw(keyBindings)
	if g.lastStats.WindowEndTick > 0 {
		g.uiRenderer.DrawPanelDescriptor(10, bottom+10, g.statsPanel, g.lastStats)
	}

	g.inspector.Draw(g.world)

	if g.showPerf {
		g.perfPanel.SetPosition(screenW-300, screenH-220)
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	g.hud.DrawControls(screenW, screenH, "[H] help  [P] phases  [Space] pause  [R] restart")
}

// drawAgents renders agents as small spheres with a heading line.
func (g *Game) drawAgents() {
	g.world.EachAgent(func(_ ecs.Entity, t *components.Transform, _ *components.Agent) {
		tip := t.Position.Add(geom.Forward(t.Rotation).Mul(0.8))
		rl.DrawSphere(rlVec(t.Position), agentDrawRadius, rl.Red)
		rl.DrawLine3D(rlVec(t.Position), rlVec(tip), rl.Orange)
	})
}

func (g *Game) drawBelt() {
	g.world.EachBeltBody(func(t *components.Transform, _ *components.BeltBody, o *components.Obstacle) {
		if !g.camera.IsVisible(t.Position, o.Radius) {
			return
		}
		rl.DrawSphereWires(rlVec(t.Position), o.Radius, 6, 6, rl.Gray)
	})
}

func (g *Game) drawShip() {
	ship := g.world.Ship()
	pos := ship.Position()
	rl.DrawSphere(rlVec(pos), g.contactRadius, rl.SkyBlue)
	rl.DrawLine3D(rlVec(pos), rlVec(pos.Add(ship.Forward().Mul(3))), rl.White)
}

// camera3D converts the orbit camera for raylib.
func (g *Game) camera3D() rl.Camera3D {
	return rl.Camera3D{
		Position:   rlVec(g.camera.Position()),
		Target:     rlVec(g.camera.Target),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       g.camera.Fovy,
		Projection: rl.CameraPerspective,
	}
}

func rlVec(v mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v.X(), Y: v.Y(), Z: v.Z()}
}
