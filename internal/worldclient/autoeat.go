package worldclient

import (
	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/protocol"
)

// EatListener receives the autoeat plugin's notifications.
type EatListener interface {
	EatStarted(item string)
	EatFinished(item string)
	EatError(item string, err error)
}

// autoEater eats the first configured food it carries whenever hunger drops
// to the threshold. At most one EAT is in flight.
type autoEater struct {
	c        *Client
	enabled  bool
	eating   bool
	starved  bool
	listener EatListener
}

func (a *autoEater) Enable()       { a.enabled = true }
func (a *autoEater) Disable()      { a.enabled = false }
func (a *autoEater) Enabled() bool { return a.enabled }

// OnEat registers the listener for autoeat notifications.
func (c *Client) OnEat(l EatListener) { c.eat.listener = l }

func (a *autoEater) observe(obs protocol.ObsMsg) {
	if !a.enabled || a.eating || obs.Self.Hunger > a.c.cfg.AutoEat.HungerThreshold {
		return
	}
	food, ok := a.pickFood(obs.Inventory)
	if !ok {
		if !a.starved {
			a.c.log.Debug("hungry but no food", zap.Int("hunger", obs.Self.Hunger))
			a.starved = true
		}
		return
	}
	a.starved = false
	a.eating = true
	if a.listener != nil {
		a.listener.EatStarted(food)
	}
	a.c.instant(protocol.InstantReq{Type: protocol.InstantEat, ItemID: food, Count: 1}).Then(func(err error) {
		a.eating = false
		if a.listener == nil {
			return
		}
		if err != nil {
			a.listener.EatError(food, err)
			return
		}
		a.listener.EatFinished(food)
	})
}

func (a *autoEater) pickFood(inv []protocol.ItemStack) (string, bool) {
	for _, f := range a.c.cfg.AutoEat.Foods {
		for _, s := range inv {
			if s.Item == f && s.Count > 0 {
				return f, true
			}
		}
	}
	return "", false
}
