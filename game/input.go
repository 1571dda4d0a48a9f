package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swarm/ui"
)

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeyH) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	// Session controls
	if rl.IsKeyPressed(rl.KeyR) {
		if err := g.StartSession(); err != nil {
			g.log.Error("failed to restart session", "error", err)
		}
	}
	if rl.IsKeyPressed(rl.KeyE) {
		g.EndSession("user")
	}
	if rl.IsKeyPressed(rl.KeyN) && g.inSession {
		if err := g.spawnWave(); err != nil {
			g.log.Error("failed to spawn wave", "error", err)
		}
	}

	// Wave size with +/- (= and - keys), applied to the next wave
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.SetEnemies(g.enemies + 10)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.SetEnemies(g.enemies - 10)
	}

	g.handleCameraInput()
	g.handleSelection()
}

// Agents are drawn this size; clicks within agentPickRadius select them.
const (
	agentDrawRadius = 0.25
	agentPickRadius = 0.6
)

// handleSelection picks the entity under the mouse for the inspector.
func (g *Game) handleSelection() {
	g.inspector.Resize(int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()))
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !rl.IsMouseButtonPressed(rl.MouseButtonRight) && !rl.IsKeyPressed(rl.KeyEscape) {
		return
	}
	mouse := rl.GetMousePosition()
	for _, r := range g.pickBlocked {
		if rl.CheckCollisionPointRec(mouse, r) {
			return
		}
	}
	origin, dir := g.camera.ScreenToRay(mouse.X, mouse.Y)
	g.inspector.HandleClick(mouse.X, mouse.Y, origin, dir, g.world.Pickable(agentPickRadius))
}

// BlockPicking stops clicks inside r from selecting entities. Tools that
// draw their own widgets over the scene register their panels here.
func (g *Game) BlockPicking(r rl.Rectangle) {
	g.pickBlocked = append(g.pickBlocked, r)
}

// keyBindings lists the controls shown in the help panel.
var keyBindings = []ui.KeyBinding{
	{Key: "Space", Action: "Pause", Group: "Simulation"},
	{Key: "< >", Action: "Ticks per frame", Group: "Simulation"},
	{Key: "R", Action: "Restart session", Group: "Session"},
	{Key: "E", Action: "End session", Group: "Session"},
	{Key: "N", Action: "Spawn wave", Group: "Session"},
	{Key: "+ -", Action: "Wave size", Group: "Session"},
	{Key: "Arrows", Action: "Orbit", Group: "Camera"},
	{Key: "Wheel", Action: "Zoom", Group: "Camera"},
	{Key: "F", Action: "Follow ship", Group: "Camera"},
	{Key: "C", Action: "Reset camera", Group: "Camera"},
	{Key: "Click", Action: "Inspect entity", Group: "Camera"},
	{Key: "Esc", Action: "Clear selection", Group: "Camera"},
	{Key: "H", Action: "Toggle help", Group: "Display"},
	{Key: "P", Action: "Toggle phase timings", Group: "Display"},
	{Key: "F11", Action: "Fullscreen", Group: "Display"},
}

// Radians per second of orbit while an arrow key is held.
const cameraOrbitSpeed = 1.5

// handleCameraInput orbits, zooms and follows with the camera.
func (g *Game) handleCameraInput() {
	g.camera.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))

	step := cameraOrbitSpeed * rl.GetFrameTime()
	var dYaw, dPitch float32
	if rl.IsKeyDown(rl.KeyLeft) {
		dYaw -= step
	}
	if rl.IsKeyDown(rl.KeyRight) {
		dYaw += step
	}
	if rl.IsKeyDown(rl.KeyUp) {
		dPitch += step
	}
	if rl.IsKeyDown(rl.KeyDown) {
		dPitch -= step
	}
	if dYaw != 0 || dPitch != 0 {
		g.camera.Orbit(dYaw, dPitch)
	}

	// Zoom toward the target with the mouse wheel
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyF) {
		g.followShip = !g.followShip
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.followShip = false
		g.camera.Reset()
	}
	if g.followShip {
		g.camera.Follow(g.world.Ship().Position(), 0.1)
	}
}
