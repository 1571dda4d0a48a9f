// Tuner runs the swarm with a slider panel for the flocking weights.
//
// Usage: go run ./cmd/tuner [-config path] [-seed n] [-enemies n]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swarm/config"
	"github.com/pthm-cable/swarm/game"
)

const (
	panelWidth = 300
	rowHeight  = 38
	sliderW    = panelWidth - 90
)

func main() {
	configPath := flag.String("config", "", "Path to config file (empty = embedded defaults)")
	seed := flag.Int64("seed", 1, "RNG seed")
	enemies := flag.Int("enemies", -1, "Agents per wave (-1 = config value)")
	savePath := flag.String("save", "tuned.yaml", "Where Save writes the full config")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	defaults := cfg.Boids

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Swarm Tuner")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	rl.SetExitKey(rl.KeyNull)

	opts := game.DefaultOptions()
	opts.Seed = *seed
	opts.Enemies = *enemies
	opts.Logger = logger

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		return
	}
	defer g.Unload()

	panelX := float32(10)
	panelY := float32(cfg.Screen.Height) - float32(len(tunables)*rowHeight) - 150
	panelH := float32(len(tunables)*rowHeight) + 140
	g.BlockPicking(rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth, Height: panelH})

	status := ""
	for !rl.WindowShouldClose() {
		g.Update()

		rl.BeginDrawing()
		g.DrawFrame()

		rl.DrawRectangle(int32(panelX), int32(panelY), panelWidth, int32(panelH), rl.Fade(rl.Black, 0.8))
		x := panelX + 10
		y := panelY + 8
		rl.DrawText("Flocking", int32(x), int32(y), 18, rl.RayWhite)
		y += 26

		boids := g.Config().Boids
		changed := false
		for _, t := range tunables {
			cur := *t.Field(&boids)
			rl.DrawText(t.Label, int32(x), int32(y), 12, rl.LightGray)
			v := gui.SliderBar(
				rl.Rectangle{X: x, Y: y + 14, Width: sliderW, Height: 16},
				"", "",
				float32(cur), float32(t.Min), float32(t.Max),
			)
			rl.DrawText(fmt.Sprintf("%.2f", cur), int32(x+sliderW+8), int32(y+14), 14, rl.RayWhite)
			if applySlider(&boids, t, float64(v)) {
				changed = true
			}
			y += rowHeight
		}
		if changed {
			if err := g.SetBoids(boids); err != nil {
				status = err.Error()
			} else {
				status = ""
			}
		}

		y += 6
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: 85, Height: 26}, toggleText(g.Paused(), "Resume", "Pause")) {
			g.SetPaused(!g.Paused())
		}
		if gui.Button(rl.Rectangle{X: x + 95, Y: y, Width: 85, Height: 26}, "Restart") {
			if err := g.StartSession(); err != nil {
				status = err.Error()
			}
		}
		if gui.Button(rl.Rectangle{X: x + 190, Y: y, Width: 85, Height: 26}, "Reset All") {
			if err := g.SetBoids(defaults); err != nil {
				status = err.Error()
			} else {
				status = "defaults restored"
			}
		}
		y += 34

		if gui.Button(rl.Rectangle{X: x, Y: y, Width: 135, Height: 26}, "Copy YAML") {
			text, err := boidsYAML(g.Config().Boids)
			if err != nil {
				status = err.Error()
			} else {
				rl.SetClipboardText(text)
				status = "copied boids section"
			}
		}
		if gui.Button(rl.Rectangle{X: x + 145, Y: y, Width: 130, Height: 26}, "Save") {
			if err := g.Config().WriteYAML(*savePath); err != nil {
				status = err.Error()
			} else {
				status = "saved " + *savePath
				slog.Info("config saved", "path", *savePath)
			}
		}
		y += 34

		if status != "" {
			rl.DrawText(status, int32(x), int32(y), 12, rl.Yellow)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
