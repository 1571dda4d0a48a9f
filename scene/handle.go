package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/swarm/components"
	"github.com/pthm-cable/swarm/geom"
)

// Handle reads and writes one entity's Transform. Handles of distinct
// entities may be used from different goroutines as long as no entity is
// created or removed meanwhile.
type Handle struct {
	entity     ecs.Entity
	transforms *ecs.Map1[components.Transform]
}

// Entity returns the entity behind the handle.
func (h *Handle) Entity() ecs.Entity { return h.entity }

func (h *Handle) Position() mgl32.Vec3 { return h.transforms.Get(h.entity).Position }

func (h *Handle) SetPosition(p mgl32.Vec3) { h.transforms.Get(h.entity).Position = p }

func (h *Handle) Rotation() mgl32.Quat { return h.transforms.Get(h.entity).Rotation }

func (h *Handle) SetRotation(q mgl32.Quat) { h.transforms.Get(h.entity).Rotation = q }

func (h *Handle) Forward() mgl32.Vec3 { return geom.Forward(h.Rotation()) }

func (h *Handle) Up() mgl32.Vec3 { return geom.Up(h.Rotation()) }

// AgentHandle is a Handle that also carries the agent's velocity, so the
// flock keeps velocities across reinitialisation.
type AgentHandle struct {
	Handle
	agents *ecs.Map1[components.Agent]
}

func (h *AgentHandle) Velocity() mgl32.Vec3 { return h.agents.Get(h.entity).Velocity }

func (h *AgentHandle) SetVelocity(v mgl32.Vec3) { h.agents.Get(h.entity).Velocity = v }

var (
	_ components.TransformHandle = (*Handle)(nil)
	_ components.VelocityHolder  = (*AgentHandle)(nil)
)
