package dispatch

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/agent/command"
)

func (d *Dispatcher) come(cmd command.Command) {
	player, ok := d.query.ResolveVisiblePlayer(cmd.Issuer)
	if !ok {
		d.reply("I can't see you.")
		return
	}
	d.say("Coming to @%s!", player.Username)
	d.set.Movement.SetGoal(player.Position, d.cfg.GoalRadius)
}

func (d *Dispatcher) inventory(command.Command) {
	items := d.query.CurrentInventory()
	if len(items) == 0 {
		d.reply("I have nothing.")
		return
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s (%d)", it.Name, it.Count))
	}
	d.say("I have \n\n%s", strings.Join(lines, "\n"))
}

func (d *Dispatcher) equip(cmd command.Command) {
	if len(cmd.Args) < 2 {
		d.reply(command.Usage(command.Equip))
		return
	}
	itemName := cmd.Arg(0)
	dest, err := command.ParseDestination(cmd.Arg(1))
	if err != nil {
		d.reject(err)
		return
	}
	item, ok := d.query.FindItem(itemName)
	if !ok {
		d.say("I don't have %s on me.", itemName)
		return
	}

	inv := d.set.Inventory
	d.after(inv.Equip(item, dest), command.Equip, func(err error) {
		if err != nil {
			d.log.Debug("equip completed with error", zap.String("item", itemName), zap.Error(err))
		}
		// The server does not reliably report failure; trust the slot instead.
		if held, ok := inv.Equipped(dest); ok && held.Name == item.Name {
			d.say("Succesfully equipped %s to %s.", itemName, dest)
			return
		}
		d.say("Failed to equip %s to %s.", itemName, dest)
	})
}

func (d *Dispatcher) unequip(cmd command.Command) {
	if len(cmd.Args) < 1 {
		d.reply(command.Usage(command.Unequip))
		return
	}
	dest, err := command.ParseDestination(cmd.Arg(0))
	if err != nil {
		d.reject(err)
		return
	}
	inv := d.set.Inventory
	held, ok := inv.Equipped(dest)
	if !ok {
		d.say("I don't have anything equipped on %s.", dest)
		return
	}

	d.after(inv.Unequip(dest), command.Unequip, func(err error) {
		if err != nil {
			d.log.Debug("unequip completed with error", zap.String("item", held.Name), zap.Error(err))
		}
		if _, still := inv.Equipped(dest); !still {
			d.say("Succesfully unequipped %s from %s.", held.Name, dest)
			return
		}
		d.say("Failed to unequip %s from %s.", held.Name, dest)
	})
}

func (d *Dispatcher) guard(cmd command.Command) {
	player, ok := d.query.ResolveVisiblePlayer(cmd.Issuer)
	if !ok {
		d.reply("I can't see you.")
		return
	}
	d.say("I will be guarding @%s", player.Username)
	d.modes.SetGuard(player.Position)
}

func (d *Dispatcher) stopGuarding(command.Command) {
	d.reply("I will no longer guard this area.")
	d.modes.ClearGuard()
}

func (d *Dispatcher) attack(cmd command.Command) {
	if len(cmd.Args) < 1 {
		d.reply(command.Usage(command.Attack))
		return
	}
	name := cmd.Arg(0)
	target, ok := d.query.ResolveVisiblePlayer(name)
	if !ok {
		d.say("could not find %s", name)
		return
	}
	d.say("Attacking @%s!", target.Username)
	d.after(d.set.Combat.Attack(target), command.Attack, func(err error) {
		if err != nil {
			d.log.Info("attack ended", zap.String("target", name), zap.Error(err))
			return
		}
		d.log.Info("attack finished", zap.String("target", name))
	})
}

func (d *Dispatcher) stopAttack(command.Command) {
	if _, ok := d.query.CurrentTarget(); !ok {
		d.reply("I'm not attacking anyone.")
		return
	}
	d.after(d.set.Combat.Stop(), command.StopAttack, func(err error) {
		if err != nil {
			d.log.Debug("stop attack completed with error", zap.Error(err))
		}
		if _, still := d.query.CurrentTarget(); !still {
			d.reply("Stopped attacking.")
			return
		}
		d.reply("Failed to stop attacking.")
	})
}

func (d *Dispatcher) toss(cmd command.Command) {
	if len(cmd.Args) < 2 {
		d.reply(command.Usage(command.Toss))
		return
	}
	itemName := cmd.Arg(0)
	count, err := command.ParseCount(cmd.Arg(1))
	if err != nil {
		d.reject(err)
		return
	}
	if _, ok := d.query.FindItem(itemName); !ok {
		d.say("I don't have %s on me.", itemName)
		return
	}
	if held := d.query.HeldCount(itemName); count > held {
		d.say("I only have %d %s, not %d.", held, itemName, count)
		return
	}

	d.after(d.set.Inventory.Toss(itemName, count), command.Toss, func(err error) {
		if err != nil {
			d.log.Info("toss failed", zap.String("item", itemName), zap.Int("count", count), zap.Error(err))
			d.say("Failed to toss %d %s.", count, itemName)
			return
		}
		d.say("Tossed %d %s.", count, itemName)
	})
}

func (d *Dispatcher) follow(cmd command.Command) {
	name := cmd.Arg(0)
	if name == "" {
		name = cmd.Issuer
	}
	if _, ok := d.query.ResolveVisiblePlayer(name); !ok {
		d.say("could not find %s", name)
		return
	}
	d.modes.SetFollow(name)
	d.say("Following @%s.", name)
}

func (d *Dispatcher) stopFollow(command.Command) {
	d.modes.ClearFollow()
	d.reply("I will stop following.")
}

func (d *Dispatcher) plugin(cmd command.Command) {
	if len(cmd.Args) < 2 {
		d.reply(command.Usage(command.Plugin))
		return
	}
	name, err := command.ParsePlugin(cmd.Arg(0))
	if err != nil {
		d.reject(err)
		return
	}
	action, err := command.ParsePluginAction(cmd.Arg(1))
	if err != nil {
		d.reject(err)
		return
	}

	// autoeat is the only toggleable plugin.
	switch action {
	case "start":
		d.set.Consumption.Enable()
	case "stop":
		d.set.Consumption.Disable()
	}
	d.say("Successfully applied %s to %s.", action, name)
}
