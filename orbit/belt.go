package orbit

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/parallel"
)

var (
	// ErrEmptyBelt is returned when a belt is populated with no bodies.
	ErrEmptyBelt = errors.New("orbit: empty belt")
	// ErrNilPivot is returned when a belt is populated without a pivot.
	ErrNilPivot = errors.New("orbit: nil pivot")
)

// Belt owns the orbit records of one populated belt and runs the
// Snapshot -> Rotate -> Join cycle.
type Belt struct {
	pool   *parallel.Pool
	logger *slog.Logger

	pivot      components.TransformHandle
	handles    []components.TransformHandle
	bodies     []Body
	pending    *parallel.Job
	generation uint64
}

// NewBelt creates an empty belt.
func NewBelt(pool *parallel.Pool, logger *slog.Logger) *Belt {
	if pool == nil {
		pool = parallel.NewPool(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Belt{pool: pool, logger: logger}
}

// Populate replaces the belt's bodies. handles and bodies are parallel
// slices. A rejected call leaves the current belt untouched.
func (b *Belt) Populate(pivot components.TransformHandle, handles []components.TransformHandle, bodies []Body) error {
	if pivot == nil {
		return ErrNilPivot
	}
	if len(handles) == 0 {
		return ErrEmptyBelt
	}
	if len(handles) != len(bodies) {
		return fmt.Errorf("orbit: %d handles for %d bodies", len(handles), len(bodies))
	}

	b.release()

	b.pivot = pivot
	b.handles = make([]components.TransformHandle, len(handles))
	copy(b.handles, handles)
	b.bodies = make([]Body, len(bodies))
	copy(b.bodies, bodies)
	b.generation++

	b.logger.Info("belt populated", "bodies", len(bodies), "generation", b.generation)
	return nil
}

// Clear joins any in-flight rotation and releases the belt.
func (b *Belt) Clear() {
	if b.handles == nil {
		return
	}
	n := len(b.handles)
	b.release()
	b.logger.Info("belt cleared", "bodies", n)
}

func (b *Belt) release() {
	b.Join()
	b.pivot = nil
	b.handles = nil
	b.bodies = nil
}

// Active reports whether the belt has bodies.
func (b *Belt) Active() bool {
	return b.handles != nil
}

// Len returns the number of bodies.
func (b *Belt) Len() int {
	return len(b.handles)
}

// Generation is incremented on every Populate.
func (b *Belt) Generation() uint64 {
	return b.generation
}

// Join blocks until the last rotation has written every transform.
func (b *Belt) Join() {
	if b.pending != nil {
		b.pending.Wait()
		b.pending = nil
	}
}

// Tick snapshots the pivot and schedules the rotation of every body. Call
// Join before reading any body transform.
func (b *Belt) Tick(dt float32) {
	b.Join()
	if b.handles == nil {
		return
	}

	pivot := Pivot{
		Position: b.pivot.Position(),
		Up:       b.pivot.Up(),
	}
	handles, bodies := b.handles, b.bodies

	b.pending = b.pool.Schedule(len(handles), func(start, end int) {
		for i := start; i < end; i++ {
			h := handles[i]
			h.SetPosition(Step(h.Position(), bodies[i], pivot, dt))
		}
	})
}
