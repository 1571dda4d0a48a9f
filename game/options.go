package game

import (
	"log/slog"

	"github.com/pthm-cable/swarm/telemetry"
)

// FramePublisher receives frames for live viewers. observer.Server
// satisfies it.
type FramePublisher interface {
	Publish(frame *telemetry.Frame) error
}

// Options holds configuration for game initialization.
type Options struct {
	Seed           int64
	LogStats       bool    // output stats via slog
	StatsWindowSec float64 // stats window duration in seconds
	SnapshotDir    string  // directory for session and bookmark snapshots
	OutputDir      string  // directory for CSV, config and trace output
	Headless       bool
	StepsPerUpdate int // simulation ticks per Update call

	// Population overrides; negative means use the config value.
	Enemies   int
	Asteroids int

	// ResumePath restores the first session from a snapshot file.
	ResumePath string

	Observer FramePublisher
	Logger   *slog.Logger
}

// DefaultOptions returns options that defer every choice to the config.
func DefaultOptions() Options {
	return Options{
		Seed:           1,
		StepsPerUpdate: 1,
		Enemies:        -1,
		Asteroids:      -1,
	}
}
