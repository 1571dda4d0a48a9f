package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSnapshotSaveLoad(t *testing.T) {
	// Create a temporary directory
	tmpDir := t.TempDir()

	// Create a test snapshot
	snapshot := &Snapshot{
		Version:    SnapshotVersion,
		RunID:      "run-1",
		RNGSeed:    42,
		Tick:       1000,
		Generation: 3,
		Ship:       PoseOf(mgl32.Vec3{35, 0, 0}, mgl32.QuatIdent()),
		ShipAngle:  1.25,
		Pivot:      PoseOf(mgl32.Vec3{}, mgl32.QuatIdent()),
		Agents: []AgentState{
			{
				Pose:     PoseOf(mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})),
				Velocity: [3]float32{0, 0, 3.5},
				Wave:     2,
			},
		},
		Belt: []BeltState{
			{Pose: PoseOf(mgl32.Vec3{30, 1, 0}, mgl32.QuatIdent()), Radius: 1.5, OrbitSpeed: 20, Clockwise: true},
			{Pose: PoseOf(mgl32.Vec3{-40, 0, 2}, mgl32.QuatIdent()), Radius: 0.7, OrbitSpeed: 20, Clockwise: true},
		},
	}

	// Save the snapshot
	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	// Load the snapshot
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	// Verify loaded data matches original
	if loaded.RunID != snapshot.RunID {
		t.Errorf("RunID mismatch: got %s, want %s", loaded.RunID, snapshot.RunID)
	}
	if loaded.RNGSeed != snapshot.RNGSeed {
		t.Errorf("RNGSeed mismatch: got %d, want %d", loaded.RNGSeed, snapshot.RNGSeed)
	}
	if loaded.Tick != snapshot.Tick {
		t.Errorf("Tick mismatch: got %d, want %d", loaded.Tick, snapshot.Tick)
	}
	if len(loaded.Agents) != 1 || len(loaded.Belt) != 2 {
		t.Fatalf("counts mismatch: agents=%d belt=%d", len(loaded.Agents), len(loaded.Belt))
	}
	if loaded.Agents[0].Pose != snapshot.Agents[0].Pose {
		t.Errorf("agent pose mismatch: got %+v, want %+v", loaded.Agents[0].Pose, snapshot.Agents[0].Pose)
	}
	if loaded.Agents[0].Velocity != snapshot.Agents[0].Velocity || loaded.Agents[0].Wave != 2 {
		t.Errorf("agent state mismatch: got %+v", loaded.Agents[0])
	}
	if loaded.Belt[1] != snapshot.Belt[1] {
		t.Errorf("belt body mismatch: got %+v, want %+v", loaded.Belt[1], snapshot.Belt[1])
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	// Test with reason
	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Reason:  "session_end",
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_session_end.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	// Test without reason
	plain := &Snapshot{
		Version: SnapshotVersion,
		Tick:    3000,
	}

	path, err = SaveSnapshot(plain, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotRejectsOtherVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version error")
	}
}

func TestPoseConversion(t *testing.T) {
	pos := mgl32.Vec3{1, -2, 3}
	rot := mgl32.QuatRotate(1.1, mgl32.Vec3{1, 1, 0}.Normalize())

	p := PoseOf(pos, rot)
	if p.Vec() != pos {
		t.Errorf("Vec() = %v, want %v", p.Vec(), pos)
	}
	if p.Quat() != rot {
		t.Errorf("Quat() = %v, want %v", p.Quat(), rot)
	}
}
