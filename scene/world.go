// Package scene owns the entities the simulation moves: agents, belt bodies,
// the ship and the belt pivot. It hands the flock and belt transform handles
// into its ECS storage.
package scene

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/geom"
	"github.com/pthm-cable/swarm/orbit"
)

// World is the entity store for one run.
type World struct {
	world *ecs.World
	rng   *rand.Rand

	// Entity mappers
	agentMapper *ecs.Map2[components.Transform, components.Agent]
	beltMapper  *ecs.Map3[components.Transform, components.BeltBody, components.Obstacle]
	shipMapper  *ecs.Map3[components.Transform, components.Ship, components.Obstacle]
	pivotMapper *ecs.Map2[components.Transform, components.Pivot]

	// Filters
	agentFilter    *ecs.Filter2[components.Transform, components.Agent]
	beltFilter     *ecs.Filter3[components.Transform, components.BeltBody, components.Obstacle]
	obstacleFilter *ecs.Filter2[components.Transform, components.Obstacle]

	// Individual component mappers for lookups
	transformMap *ecs.Map1[components.Transform]
	agentMap     *ecs.Map1[components.Agent]
	shipMap      *ecs.Map1[components.Ship]
	beltMap      *ecs.Map1[components.BeltBody]
	obstacleMap  *ecs.Map1[components.Obstacle]

	ship  ecs.Entity
	pivot ecs.Entity
	wave  uint32
}

// NewWorld creates a world holding the ship at shipPos and the belt pivot at
// pivotPos. rng drives spawn placement.
func NewWorld(rng *rand.Rand, shipPos mgl32.Vec3, shipRadius float32, pivotPos mgl32.Vec3, pivotRot mgl32.Quat) *World {
	world := ecs.NewWorld()

	w := &World{
		world: world,
		rng:   rng,

		agentMapper: ecs.NewMap2[components.Transform, components.Agent](world),
		beltMapper:  ecs.NewMap3[components.Transform, components.BeltBody, components.Obstacle](world),
		shipMapper:  ecs.NewMap3[components.Transform, components.Ship, components.Obstacle](world),
		pivotMapper: ecs.NewMap2[components.Transform, components.Pivot](world),

		agentFilter:    ecs.NewFilter2[components.Transform, components.Agent](world),
		beltFilter:     ecs.NewFilter3[components.Transform, components.BeltBody, components.Obstacle](world),
		obstacleFilter: ecs.NewFilter2[components.Transform, components.Obstacle](world),

		transformMap: ecs.NewMap1[components.Transform](world),
		agentMap:     ecs.NewMap1[components.Agent](world),
		shipMap:      ecs.NewMap1[components.Ship](world),
		beltMap:      ecs.NewMap1[components.BeltBody](world),
		obstacleMap:  ecs.NewMap1[components.Obstacle](world),
	}

	w.ship = w.shipMapper.NewEntity(
		&components.Transform{Position: shipPos, Rotation: mgl32.QuatIdent()},
		&components.Ship{},
		&components.Obstacle{Radius: shipRadius, Layer: components.LayerShip},
	)
	w.pivot = w.pivotMapper.NewEntity(
		&components.Transform{Position: pivotPos, Rotation: pivotRot},
		&components.Pivot{},
	)
	return w
}

// Ship returns the handle of the player ship.
func (w *World) Ship() *Handle {
	return &Handle{entity: w.ship, transforms: w.transformMap}
}

// ShipState returns the ship's autopilot state for mutation.
func (w *World) ShipState() *components.Ship {
	return w.shipMap.Get(w.ship)
}

// Pivot returns the handle of the belt pivot.
func (w *World) Pivot() *Handle {
	return &Handle{entity: w.pivot, transforms: w.transformMap}
}

// SpawnWave creates count agents scattered inside a sphere of the given
// radius around origin, each with a random heading and initial velocity
// forward*speed. It returns the wave number.
func (w *World) SpawnWave(count int, origin mgl32.Vec3, radius, speed float32) uint32 {
	w.wave++
	for i := 0; i < count; i++ {
		pos := origin.Add(geom.InsideUnitSphere(w.rng).Mul(radius))
		rot := geom.RandomRotation(w.rng)
		w.agentMapper.NewEntity(
			&components.Transform{Position: pos, Rotation: rot},
			&components.Agent{Velocity: geom.Forward(rot).Mul(speed), Wave: w.wave},
		)
	}
	return w.wave
}

// RestoreAgent recreates one agent with an exact state.
func (w *World) RestoreAgent(t components.Transform, a components.Agent) ecs.Entity {
	if a.Wave > w.wave {
		w.wave = a.Wave
	}
	return w.agentMapper.NewEntity(&t, &a)
}

// Agents returns a handle per live agent in storage order.
func (w *World) Agents() []components.TransformHandle {
	var out []components.TransformHandle
	query := w.agentFilter.Query()
	for query.Next() {
		out = append(out, &AgentHandle{
			Handle: Handle{entity: query.Entity(), transforms: w.transformMap},
			agents: w.agentMap,
		})
	}
	return out
}

// AgentCount returns the number of live agents.
func (w *World) AgentCount() int {
	query := w.agentFilter.Query()
	n := query.Count()
	query.Close()
	return n
}

// EachAgent calls fn for every agent.
func (w *World) EachAgent(fn func(e ecs.Entity, t *components.Transform, a *components.Agent)) {
	query := w.agentFilter.Query()
	for query.Next() {
		t, a := query.Get()
		fn(query.Entity(), t, a)
	}
}

// AgentsWithin returns the agents closer than radius to point.
func (w *World) AgentsWithin(point mgl32.Vec3, radius float32) []ecs.Entity {
	var hits []ecs.Entity
	rSq := radius * radius
	query := w.agentFilter.Query()
	for query.Next() {
		t, _ := query.Get()
		if t.Position.Sub(point).LenSqr() < rSq {
			hits = append(hits, query.Entity())
		}
	}
	return hits
}

// Despawn removes entities. Dead or already removed entities are skipped.
func (w *World) Despawn(entities []ecs.Entity) int {
	removed := 0
	for _, e := range entities {
		if !w.world.Alive(e) {
			continue
		}
		w.world.RemoveEntity(e)
		removed++
	}
	return removed
}

// DespawnAgents removes every agent and returns how many there were.
func (w *World) DespawnAgents() int {
	var toRemove []ecs.Entity
	query := w.agentFilter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	return w.Despawn(toRemove)
}

// SpawnBelt creates one belt body per placement. All bodies share the
// orbit speed and direction and block casts on layer.
func (w *World) SpawnBelt(placements []orbit.Placement, orbitSpeed float32, clockwise bool, layer uint32) {
	for _, p := range placements {
		w.beltMapper.NewEntity(
			&components.Transform{Position: p.Position, Rotation: p.Rotation},
			&components.BeltBody{OrbitSpeed: orbitSpeed, Clockwise: clockwise},
			&components.Obstacle{Radius: p.Radius, Layer: layer},
		)
	}
}

// RestoreBeltBody recreates one belt body with an exact state.
func (w *World) RestoreBeltBody(t components.Transform, b components.BeltBody, o components.Obstacle) ecs.Entity {
	return w.beltMapper.NewEntity(&t, &b, &o)
}

// Belt returns a handle and orbit parameters per belt body, index aligned.
func (w *World) Belt() ([]components.TransformHandle, []orbit.Body) {
	var handles []components.TransformHandle
	var bodies []orbit.Body
	query := w.beltFilter.Query()
	for query.Next() {
		_, b, _ := query.Get()
		handles = append(handles, &Handle{entity: query.Entity(), transforms: w.transformMap})
		bodies = append(bodies, orbit.Body{OrbitSpeed: b.OrbitSpeed, Clockwise: b.Clockwise})
	}
	return handles, bodies
}

// EachBeltBody calls fn for every belt body.
func (w *World) EachBeltBody(fn func(t *components.Transform, b *components.BeltBody, o *components.Obstacle)) {
	query := w.beltFilter.Query()
	for query.Next() {
		fn(query.Get())
	}
}

// BeltCount returns the number of belt bodies.
func (w *World) BeltCount() int {
	query := w.beltFilter.Query()
	n := query.Count()
	query.Close()
	return n
}

// DespawnBelt removes every belt body and returns how many there were.
func (w *World) DespawnBelt() int {
	var toRemove []ecs.Entity
	query := w.beltFilter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	return w.Despawn(toRemove)
}

// Alive reports whether e still exists.
func (w *World) Alive(e ecs.Entity) bool {
	return w.world.Alive(e)
}

// ShipEntity returns the ship's entity.
func (w *World) ShipEntity() ecs.Entity {
	return w.ship
}

// Components returns pointers to the components e carries, in the order
// Transform, Agent, BeltBody, Obstacle, Ship. A dead entity has none.
func (w *World) Components(e ecs.Entity) []any {
	if !w.world.Alive(e) {
		return nil
	}
	var out []any
	if w.transformMap.HasAll(e) {
		out = append(out, w.transformMap.Get(e))
	}
	if w.agentMap.HasAll(e) {
		out = append(out, w.agentMap.Get(e))
	}
	if w.beltMap.HasAll(e) {
		out = append(out, w.beltMap.Get(e))
	}
	if w.obstacleMap.HasAll(e) {
		out = append(out, w.obstacleMap.Get(e))
	}
	if w.shipMap.HasAll(e) {
		out = append(out, w.shipMap.Get(e))
	}
	return out
}

// Pickable returns every agent, belt body and the ship as spheres for
// selection. Agents use agentRadius.
func (w *World) Pickable(agentRadius float32) []Pickable {
	out := make([]Pickable, 0, w.AgentCount()+w.BeltCount()+1)

	aq := w.agentFilter.Query()
	for aq.Next() {
		t, _ := aq.Get()
		out = append(out, Pickable{Entity: aq.Entity(), Center: t.Position, Radius: agentRadius})
	}

	oq := w.obstacleFilter.Query()
	for oq.Next() {
		t, o := oq.Get()
		out = append(out, Pickable{Entity: oq.Entity(), Center: t.Position, Radius: o.Radius})
	}
	return out
}

// Pickable is a selectable sphere.
type Pickable struct {
	Entity ecs.Entity
	Center mgl32.Vec3
	Radius float32
}
