package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
)

// Pose is a compact serialisable transform. Rotation is stored W, X, Y, Z.
type Pose struct {
	Position [3]float32 `json:"p"`
	Rotation [4]float32 `json:"r"`
}

// PoseOf converts an mgl32 transform into a Pose.
func PoseOf(pos mgl32.Vec3, rot mgl32.Quat) Pose {
	return Pose{
		Position: [3]float32(pos),
		Rotation: [4]float32{rot.W, rot.V[0], rot.V[1], rot.V[2]},
	}
}

// Vec returns the position as an mgl32 vector.
func (p Pose) Vec() mgl32.Vec3 {
	return mgl32.Vec3(p.Position)
}

// Quat returns the rotation as an mgl32 quaternion.
func (p Pose) Quat() mgl32.Quat {
	return mgl32.Quat{W: p.Rotation[0], V: mgl32.Vec3{p.Rotation[1], p.Rotation[2], p.Rotation[3]}}
}

// Frame is one simulation frame as published to traces and observers.
type Frame struct {
	RunID      string `json:"run_id"`
	Tick       int32  `json:"tick"`
	Generation uint64 `json:"generation"`
	Ship       Pose   `json:"ship"`
	Agents     []Pose `json:"agents"`
	Belt       []Pose `json:"belt,omitempty"`
}

// TraceFile is the name of the compressed frame trace in the output directory.
const TraceFile = "trace.jsonl.zst"

// TraceWriter appends frames as zstd-compressed JSON lines.
type TraceWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewTraceWriter creates dir/trace.jsonl.zst. Returns nil if dir is empty
// (tracing disabled).
func NewTraceWriter(dir string) (*TraceWriter, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, TraceFile))
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	return &TraceWriter{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

// Write appends one frame.
func (t *TraceWriter) Write(frame *Frame) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	b, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	if _, err := t.w.Write(b); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return t.w.WriteByte('\n')
}

// Close flushes the buffer and finishes the zstd stream.
func (t *TraceWriter) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	if t.w != nil {
		if err := t.w.Flush(); err != nil {
			firstErr = err
		}
		t.w = nil
	}
	if t.enc != nil {
		if err := t.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.enc = nil
	}
	if t.f != nil {
		if err := t.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.f = nil
	}
	return firstErr
}

// ReadTrace decodes every frame of a trace file.
func ReadTrace(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	var frames []Frame
	jd := json.NewDecoder(dec)
	for {
		var fr Frame
		if err := jd.Decode(&fr); err != nil {
			if err == io.EOF {
				break
			}
			return frames, fmt.Errorf("decoding frame %d: %w", len(frames), err)
		}
		frames = append(frames, fr)
	}
	return frames, nil
}
