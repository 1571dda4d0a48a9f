package ui

import (
	"fmt"

	"github.com/pthm-cable/swarm/telemetry"
)

func windowStats(data any) telemetry.WindowStats {
	if s, ok := data.(telemetry.WindowStats); ok {
		return s
	}
	if s, ok := data.(*telemetry.WindowStats); ok && s != nil {
		return *s
	}
	return telemetry.WindowStats{}
}

func statGetter(fn func(telemetry.WindowStats) float64) func(any) float32 {
	return func(data any) float32 {
		return float32(fn(windowStats(data)))
	}
}

// FlockStatsPanel describes the panel showing the latest stats window.
// maxSpeed scales the speed bar.
func FlockStatsPanel(maxSpeed float32) PanelDescriptor {
	return PanelDescriptor{
		ID:    "flock_stats",
		Title: "Flock",
		Width: 240,
		Sections: []SectionDescriptor{
			{
				ID:    "window",
				Title: "Window",
				Fields: []FieldDescriptor{
					{ID: "sim_time", Label: "Sim time", Widget: WidgetText, Format: "%.1fs",
						Getter: statGetter(func(s telemetry.WindowStats) float64 { return s.SimTimeSec })},
					{ID: "contacts", Label: "Contacts", Widget: WidgetText,
						TextGetter: func(data any) string {
							s := windowStats(data)
							return fmt.Sprintf("%d (%d reinits)", s.Contacts, s.Reinits)
						}},
				},
			},
			{
				ID:    "motion",
				Title: "Motion",
				Fields: []FieldDescriptor{
					{ID: "speed", Label: "Speed", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: maxSpeed},
						Getter: statGetter(func(s telemetry.WindowStats) float64 { return s.SpeedMean })},
					{ID: "speed_spread", Label: "P10-P90", Widget: WidgetText,
						TextGetter: func(data any) string {
							s := windowStats(data)
							return fmt.Sprintf("%.2f - %.2f", s.SpeedP10, s.SpeedP90)
						}},
					{ID: "neighbors", Label: "Neighbours", Widget: WidgetText, Format: "%.1f",
						Getter: statGetter(func(s telemetry.WindowStats) float64 { return s.NeighborsMean })},
					{ID: "target_dist", Label: "To ship", Widget: WidgetText, Format: "%.1f",
						Getter: statGetter(func(s telemetry.WindowStats) float64 { return s.TargetDistMean })},
				},
			},
			{
				ID:    "avoidance",
				Title: "Avoidance",
				Visible: func(data any) bool {
					return windowStats(data).ProbeHits > 0
				},
				Fields: []FieldDescriptor{
					{ID: "probe_hits", Label: "Probe hits", Widget: WidgetText, Format: "%.0f",
						Getter: statGetter(func(s telemetry.WindowStats) float64 { return float64(s.ProbeHits) })},
					{ID: "fallback_rate", Label: "Blocked", Widget: WidgetBar, Range: DefaultRange(),
						Getter: statGetter(func(s telemetry.WindowStats) float64 { return s.FallbackRate })},
				},
			},
		},
	}
}
