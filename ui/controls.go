package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// KeyBinding describes one keyboard control.
type KeyBinding struct {
	Key    string
	Action string
	Group  string
}

// Groups returns the distinct binding groups in first-seen order.
func Groups(bindings []KeyBinding) []string {
	var groups []string
	seen := make(map[string]bool)
	for _, b := range bindings {
		if !seen[b.Group] {
			seen[b.Group] = true
			groups = append(groups, b.Group)
		}
	}
	return groups
}

// ControlsPanel renders the key binding help panel.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(bindings []KeyBinding) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	groups := Groups(bindings)
	panelHeight := int32(len(bindings)+len(groups))*lineHeight + int32(len(groups))*4 + padding*3 + lineHeight

	// Draw panel background
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding

	// Title
	rl.DrawText("Controls", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, group := range groups {
		rl.DrawText(group, c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, b := range bindings {
			if b.Group != group {
				continue
			}
			c.drawBinding(c.x+padding, y, b, c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between groups
	}

	return y
}

// drawBinding draws a single binding line with the key right aligned.
func (c *ControlsPanel) drawBinding(x, y int32, b KeyBinding, width int32) {
	r := c.renderer
	rl.DrawText(b.Action, x, y, r.Theme.FontSize, r.Theme.LabelColor)

	keyText := fmt.Sprintf("[%s]", b.Key)
	keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
	rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
}
