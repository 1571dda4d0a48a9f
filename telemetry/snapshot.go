package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the session state needed to resume a run.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	RNGSeed int64  `json:"rng_seed"`
	Reason  string `json:"reason,omitempty"`

	Tick       int32  `json:"tick"`
	Generation uint64 `json:"generation"`

	Ship      Pose         `json:"ship"`
	ShipAngle float32      `json:"ship_angle"`
	Pivot     Pose         `json:"pivot"`
	Agents    []AgentState `json:"agents"`
	Belt      []BeltState  `json:"belt"`
}

// AgentState holds one agent's complete state.
type AgentState struct {
	Pose
	Velocity [3]float32 `json:"v"`
	Wave     uint32     `json:"wave"`
}

// BeltState holds one belt body's complete state.
type BeltState struct {
	Pose
	Radius     float32 `json:"radius"`
	OrbitSpeed float32 `json:"orbit_speed"`
	Clockwise  bool    `json:"clockwise"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Reason != "" {
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, snapshot.Reason)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
