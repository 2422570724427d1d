package worldclient

import (
	"errors"

	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/protocol"
)

// ErrCancelled resolves an attack that was stopped or replaced.
var ErrCancelled = errors.New("worldclient: cancelled")

type attackState struct {
	taskID string
	target collab.Entity
	issued uint64
	done   *collab.Completion
}

type stopRequest struct {
	taskID string
	issued uint64
	done   *collab.Completion
}

type combatView struct{ c *Client }

// Attack replaces any current attack. The completion resolves with nil once
// the target is gone, with an *ActionError when the server rejects the task,
// and with ErrCancelled when the attack is stopped or replaced.
func (v combatView) Attack(target collab.Entity) *collab.Completion {
	c := v.c
	if a := c.attack; a != nil {
		c.cancelTask(a.taskID)
		c.endAttack(ErrCancelled)
	}
	id := c.task(protocol.TaskReq{Type: protocol.TaskAttack, TargetID: target.ID})
	done := collab.NewCompletion(c.post)
	c.attack = &attackState{taskID: id, target: target, issued: c.obs.Tick, done: done}
	return done
}

// Stop cancels the current attack. The completion resolves on the next
// observation; the attack survives if the server still runs the task then.
func (v combatView) Stop() *collab.Completion {
	c := v.c
	done := collab.NewCompletion(c.post)
	a := c.attack
	if a == nil {
		done.Resolve(nil)
		return done
	}
	c.cancelTask(a.taskID)
	c.stops = append(c.stops, &stopRequest{taskID: a.taskID, issued: c.obs.Tick, done: done})
	return done
}

func (v combatView) Target() (collab.Entity, bool) {
	if v.c.attack == nil {
		return collab.Entity{}, false
	}
	return v.c.attack.target, true
}

func (c *Client) endAttack(err error) {
	a := c.attack
	if a == nil {
		return
	}
	c.attack = nil
	a.done.Resolve(err)
}

func (c *Client) observeCombat(obs protocol.ObsMsg) {
	var waiting []*stopRequest
	for _, s := range c.stops {
		if obs.Tick <= s.issued {
			waiting = append(waiting, s)
			continue
		}
		if a := c.attack; a != nil && a.taskID == s.taskID {
			if c.taskRunning(s.taskID) {
				c.log.Debug("attack still running after cancel", zap.String("task_id", s.taskID))
			} else {
				c.endAttack(ErrCancelled)
			}
		}
		s.done.Resolve(nil)
	}
	c.stops = waiting

	a := c.attack
	if a == nil {
		return
	}
	found := false
	for _, e := range obs.Entities {
		if e.ID == a.target.ID {
			a.target = c.entity(e)
			found = true
			break
		}
	}
	if !found {
		c.endAttack(nil)
		return
	}
	if !c.taskRunning(a.taskID) && obs.Tick > a.issued+1 {
		c.endAttack(nil)
	}
}
