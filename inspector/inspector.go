// Package inspector shows the components of a selected entity.
package inspector

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/geom"
	"github.com/pthm-cable/swarm/scene"
)

// Panel dimensions
const (
	PanelWidth   = 300
	PanelPadding = 10
	HeaderHeight = 30
	sectionGap   = 20
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorCloseBtn    = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorSection     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 200, B: 220, A: 255}
	ColorHighlight   = rl.Color{R: 255, G: 255, B: 120, A: 255}
)

// Section is one component's fields as shown in the panel.
type Section struct {
	Title  string
	Fields []Field
}

// Inspector manages entity selection and panel rendering.
type Inspector struct {
	selected     ecs.Entity
	hasSelected  bool
	panelX       int32
	panelY       int32
	screenWidth  int32
	screenHeight int32
}

// NewInspector creates a new inspector instance.
func NewInspector(screenWidth, screenHeight int32) *Inspector {
	ins := &Inspector{panelY: 10}
	ins.Resize(screenWidth, screenHeight)
	return ins
}

// Resize re-anchors the panel to the right edge.
func (ins *Inspector) Resize(screenWidth, screenHeight int32) {
	ins.screenWidth = screenWidth
	ins.screenHeight = screenHeight
	ins.panelX = screenWidth - PanelWidth - 10
}

// Pick returns the candidate whose sphere the ray hits first. dir must be
// normalized. A ray starting inside a sphere hits it at distance zero.
func Pick(origin, dir mgl32.Vec3, candidates []scene.Pickable) (ecs.Entity, bool) {
	var closest ecs.Entity
	closestT := float32(-1)

	for _, c := range candidates {
		t, ok := raySphere(origin, dir, c.Center, c.Radius)
		if !ok {
			continue
		}
		if closestT < 0 || t < closestT {
			closest = c.Entity
			closestT = t
		}
	}
	return closest, closestT >= 0
}

// raySphere returns the distance along the ray to the first intersection.
func raySphere(origin, dir, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := origin.Sub(center)
	c := oc.Dot(oc) - radius*radius
	if c <= 0 {
		return 0, true
	}
	b := oc.Dot(dir)
	if b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	return -b - float32(math.Sqrt(float64(disc))), true
}

// HandleClick selects along a ray from a left click at (mouseX, mouseY).
// Right click or Escape deselects. Clicks on the panel are ignored.
func (ins *Inspector) HandleClick(mouseX, mouseY float32, origin, dir mgl32.Vec3, candidates []scene.Pickable) {
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) || rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}

	if ins.hasSelected {
		// Close button
		closeX := ins.panelX + PanelWidth - 25
		closeY := ins.panelY + 5
		if int32(mouseX) >= closeX && int32(mouseX) <= closeX+20 &&
			int32(mouseY) >= closeY && int32(mouseY) <= closeY+20 {
			ins.Deselect()
			return
		}

		// Inside panel
		if int32(mouseX) >= ins.panelX && int32(mouseX) <= ins.panelX+PanelWidth &&
			int32(mouseY) >= ins.panelY {
			return
		}
	}

	if e, ok := Pick(origin, dir, candidates); ok {
		ins.Select(e)
	}
}

// Select sets the inspected entity.
func (ins *Inspector) Select(e ecs.Entity) {
	ins.selected = e
	ins.hasSelected = true
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the currently selected entity.
func (ins *Inspector) Selected() (ecs.Entity, bool) {
	return ins.selected, ins.hasSelected
}

// Sections builds the panel content for e. Agents get a derived speed line.
// Returns nil if e no longer exists.
func Sections(world *scene.World, e ecs.Entity) []Section {
	comps := world.Components(e)
	if len(comps) == 0 {
		return nil
	}

	sections := make([]Section, 0, len(comps))
	for _, c := range comps {
		sec := Section{Title: TypeName(c), Fields: ExtractFields(c)}
		if a, ok := c.(*components.Agent); ok {
			sec.Fields = append(sec.Fields, Field{
				Name:    "Speed",
				Value:   a.Velocity.Len(),
				Widget:  WidgetLabel,
				Options: map[string]string{"fmt": "%.2f"},
			})
		}
		if t, ok := c.(*components.Transform); ok {
			fwd := geom.Forward(t.Rotation)
			sec.Fields = append(sec.Fields, Field{
				Name:    "Forward",
				Value:   fwd,
				Widget:  WidgetVector,
				Options: map[string]string{"fmt": "%.2f"},
			})
		}
		sections = append(sections, sec)
	}
	return sections
}

// PanelHeight computes the panel height for sections.
func PanelHeight(sections []Section) int32 {
	height := int32(HeaderHeight + PanelPadding)
	height += 22 // entity line
	for _, sec := range sections {
		height += sectionGap
		for _, f := range sec.Fields {
			height += FieldHeight(f)
		}
		height += 4
	}
	return height + PanelPadding
}

// Draw renders the inspector panel if an entity is selected. A selection
// that has been despawned is cleared.
func (ins *Inspector) Draw(world *scene.World) {
	if !ins.hasSelected {
		return
	}

	sections := Sections(world, ins.selected)
	if sections == nil {
		ins.Deselect()
		return
	}

	panelHeight := PanelHeight(sections)

	// Draw panel background
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1,
		ColorPanelBorder,
	)

	// Draw header
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText("INSPECTOR", ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	// Draw close button
	closeX := ins.panelX + PanelWidth - 25
	closeY := ins.panelY + 5
	rl.DrawRectangle(closeX, closeY, 20, 20, ColorCloseBtn)
	rl.DrawText("X", closeX+6, closeY+3, 14, rl.White)

	y := ins.panelY + HeaderHeight + PanelPadding
	x := ins.panelX + PanelPadding

	rl.DrawText(fmt.Sprintf("Entity: %d", ins.selected.ID()), x, y, 14, ColorHeaderText)
	y += 22

	for _, sec := range sections {
		ins.drawSectionHeader(x, y, sec.Title)
		y += sectionGap
		for _, f := range sec.Fields {
			y += DrawField(x, y, f)
		}
		y += 4
	}
}

// drawSectionHeader renders a section title.
func (ins *Inspector) drawSectionHeader(x, y int32, title string) {
	rl.DrawRectangle(x-2, y-2, PanelWidth-2*PanelPadding+4, 18, ColorSection)
	rl.DrawText(title, x+2, y, 14, ColorSectionText)
}

// DrawSelectionHighlight draws a wire sphere around the selected entity.
// Must be called inside 3D mode.
func (ins *Inspector) DrawSelectionHighlight(world *scene.World, agentRadius float32) {
	if !ins.hasSelected {
		return
	}
	var t *components.Transform
	radius := agentRadius
	for _, c := range world.Components(ins.selected) {
		switch v := c.(type) {
		case *components.Transform:
			t = v
		case *components.Obstacle:
			radius = v.Radius
		}
	}
	if t == nil {
		return
	}
	center := rl.Vector3{X: t.Position.X(), Y: t.Position.Y(), Z: t.Position.Z()}
	rl.DrawSphereWires(center, radius*1.3, 8, 8, ColorHighlight)
}
