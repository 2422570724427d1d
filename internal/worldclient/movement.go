package worldclient

import (
	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/protocol"
)

type moveGoal struct {
	// taskID is empty when the goal was already satisfied when set and no
	// MOVE_TO was sent.
	taskID    string
	target    [3]int
	tolerance float64
	issued    uint64
}

type movementView struct{ c *Client }

func (g *moveGoal) same(target [3]int, tolerance float64) bool {
	return g != nil && g.target == target && g.tolerance == tolerance
}

func (v movementView) SetGoal(near collab.Vec3, radius float64) {
	c := v.c
	target := toBlock(near)
	if c.move.same(target, radius) {
		return
	}
	v.ClearGoal()

	// Back to the goal that was running before this turn: keep its task.
	if r := c.replaced; r.same(target, radius) && c.withdrawCancel(r.taskID) {
		c.move = r
		c.replaced = nil
		return
	}

	if c.haveObs && toVec(c.obs.Self.Pos).DistanceTo(toVec(target)) <= radius {
		c.move = &moveGoal{target: target, tolerance: radius, issued: c.obs.Tick}
		return
	}
	id := c.task(protocol.TaskReq{Type: protocol.TaskMoveTo, Target: target, Tolerance: radius})
	c.move = &moveGoal{taskID: id, target: target, tolerance: radius, issued: c.obs.Tick}
}

func (v movementView) ClearGoal() {
	c := v.c
	if c.move == nil {
		return
	}
	if c.cancelTask(c.move.taskID) {
		c.replaced = c.move
	}
	c.move = nil
}

// observeMovement forgets goals that are finished so the same goal can be
// requested again once the agent drifts away.
func (c *Client) observeMovement(obs protocol.ObsMsg) {
	m := c.move
	if m == nil {
		return
	}
	if m.taskID == "" {
		if toVec(obs.Self.Pos).DistanceTo(toVec(m.target)) > m.tolerance {
			c.move = nil
		}
		return
	}
	if c.taskRunning(m.taskID) {
		return
	}
	// The server needs one tick to pick the task up.
	if obs.Tick > m.issued+1 {
		c.move = nil
	}
}
