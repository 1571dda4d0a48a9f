package ui

import (
	"fmt"
	"sort"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swarm/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Agents     int
	BeltBodies int
	Generation uint64
	WaveSize   int
	Tick       int32
	Speed      int
	FPS        int32
	Paused     bool
	InSession  bool
	FollowShip bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	// Title
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	// Population counts
	rl.DrawText(
		fmt.Sprintf("Enemies: %d | Asteroids: %d | Gen: %d | Wave: %d", data.Agents, data.BeltBodies, data.Generation, data.WaveSize),
		10, 35, 16, rl.LightGray,
	)

	// Simulation info
	follow := "off"
	if data.FollowShip {
		follow = "on"
	}
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d | Follow: %s", data.Tick, data.Speed, data.FPS, follow),
		10, 55, 16, rl.LightGray,
	)

	// Status
	statusText := "Running"
	switch {
	case !data.InSession:
		statusText = "NO SESSION [R to start]"
	case data.Paused:
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PhaseRow is one line of the performance panel.
type PhaseRow struct {
	Name string
	Avg  time.Duration
	Pct  float64
}

// PerfRows returns the recorded phases ordered by share of tick time,
// largest first, capped at limit rows. Ties keep frame order.
func PerfRows(stats telemetry.PerfStats, limit int) []PhaseRow {
	rows := make([]PhaseRow, 0, len(stats.PhaseAvg))
	for _, name := range telemetry.FramePhases() {
		avg, ok := stats.PhaseAvg[name]
		if !ok {
			continue
		}
		rows = append(rows, PhaseRow{Name: name, Avg: avg, Pct: stats.PhasePct[name]})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Pct > rows[j].Pct })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// PerfPanel renders the frame phase performance panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	theme := p.renderer.Theme
	x := p.x
	y := p.y

	rl.DrawText("Frame Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s  TPS: %.0f  Pair: %dns", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond, stats.PairCost.Nanoseconds()), x, y, 14, theme.SectionHeader)
	y += 16

	for _, row := range PerfRows(stats, 12) {
		color := theme.LabelColor
		if row.Pct > 20 {
			color = theme.BarFillHigh
		} else if row.Pct > 10 {
			color = theme.BarFillMedium
		}

		rl.DrawText(
			fmt.Sprintf("%-16s %6s %5.1f%%", row.Name, row.Avg.Round(time.Microsecond), row.Pct),
			x, y, 12, color,
		)
		y += 14
	}
}
