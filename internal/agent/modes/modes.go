// Package modes owns the agent's persistent behaviours. Guard and follow are
// re-evaluated on every world tick until cancelled.
//
// Both behaviours may ask for movement in the same tick. Guard is evaluated
// first and follow second, and the movement collaborator keeps only the last
// goal, so an active follow wins over an idle guard.
package modes

import (
	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/agent/worldview"
)

type Config struct {
	GuardRadius   float64
	HostileRadius float64
	FollowRadius  float64
}

func DefaultConfig() Config {
	return Config{GuardRadius: 1, HostileRadius: 16, FollowRadius: 1}
}

type GuardState int

const (
	GuardInactive GuardState = iota
	GuardIdle
	GuardEngaged
)

func (s GuardState) String() string {
	switch s {
	case GuardIdle:
		return "idle"
	case GuardEngaged:
		return "engaged"
	default:
		return "inactive"
	}
}

type guardMode struct {
	active bool
	anchor *collab.Vec3
}

type followMode struct {
	active bool
	target string
}

// Coordinator must only be used from the event loop goroutine.
type Coordinator struct {
	cfg      Config
	movement collab.Movement
	combat   collab.Combat
	query    *worldview.Query
	log      *zap.Logger

	guard  guardMode
	follow followMode
}

func New(set collab.Set, q *worldview.Query, cfg Config, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:      cfg,
		movement: set.Movement,
		combat:   set.Combat,
		query:    q,
		log:      logger.Named("modes"),
	}
}

func (c *Coordinator) SetGuard(anchor collab.Vec3) {
	c.guard = guardMode{active: true, anchor: &anchor}
	c.log.Debug("guard set", zap.Float64("x", anchor.X), zap.Float64("y", anchor.Y), zap.Float64("z", anchor.Z))
	if _, engaged := c.combat.Target(); !engaged {
		c.movement.SetGoal(anchor, c.cfg.GuardRadius)
	}
}

// ClearGuard cancels combat and movement whether or not guarding caused them.
func (c *Coordinator) ClearGuard() {
	c.guard = guardMode{}
	c.combat.Stop()
	c.movement.ClearGoal()
	c.log.Debug("guard cleared")
}

// GuardAnchor returns the guarded point while guard mode is active.
func (c *Coordinator) GuardAnchor() (collab.Vec3, bool) {
	if !c.guard.active || c.guard.anchor == nil {
		return collab.Vec3{}, false
	}
	return *c.guard.anchor, true
}

func (c *Coordinator) GuardState() GuardState {
	if !c.guard.active {
		return GuardInactive
	}
	if _, engaged := c.combat.Target(); engaged {
		return GuardEngaged
	}
	return GuardIdle
}

func (c *Coordinator) SetFollow(username string) {
	c.follow = followMode{active: true, target: username}
	c.log.Debug("follow set", zap.String("target", username))
}

func (c *Coordinator) ClearFollow() {
	c.follow = followMode{}
	c.log.Debug("follow cleared")
}

// FollowTarget returns the followed player's name. The mode stays set while
// the player is out of view.
func (c *Coordinator) FollowTarget() (string, bool) {
	return c.follow.target, c.follow.active
}

// OnTick re-derives guard and follow actions from the current world state.
func (c *Coordinator) OnTick(tick uint64) {
	if c.guard.active {
		c.tickGuard(tick)
	}
	if c.follow.active {
		c.tickFollow(tick)
	}
}

func (c *Coordinator) tickGuard(tick uint64) {
	self := c.query.Self()
	hostile, found := c.query.NearestHostileWithin(c.cfg.HostileRadius, self.Position)
	_, engaged := c.query.CurrentTarget()
	if engaged {
		return
	}
	if found {
		c.log.Info("guard attacking", zap.Uint64("tick", tick), zap.String("entity", hostile.ID))
		id := hostile.ID
		c.combat.Attack(hostile).Then(func(err error) {
			if err != nil {
				c.log.Debug("guard attack ended", zap.String("entity", id), zap.Error(err))
			}
		})
		return
	}
	c.movement.SetGoal(*c.guard.anchor, c.cfg.GuardRadius)
}

func (c *Coordinator) tickFollow(tick uint64) {
	target, ok := c.query.ResolveVisiblePlayer(c.follow.target)
	if !ok {
		c.log.Debug("follow target out of view", zap.Uint64("tick", tick), zap.String("target", c.follow.target))
		return
	}
	c.movement.SetGoal(target.Position, c.cfg.FollowRadius)
}
