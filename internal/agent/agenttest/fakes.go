// Package agenttest provides in-memory collaborators for agent tests.
package agenttest

import (
	"voxelcraft.ai/guardbot/internal/agent/collab"
)

type Goal struct {
	Near   collab.Vec3
	Radius float64
}

type Movement struct {
	Goal       *Goal
	SetCalls   int
	ClearCalls int
	History    []Goal
}

func (m *Movement) SetGoal(near collab.Vec3, radius float64) {
	m.SetCalls++
	g := Goal{Near: near, Radius: radius}
	m.Goal = &g
	m.History = append(m.History, g)
}

func (m *Movement) ClearGoal() {
	m.ClearCalls++
	m.Goal = nil
}

type Combat struct {
	Post collab.Poster

	target    *collab.Entity
	Attacks   []collab.Entity
	StopCalls int

	// Pending holds completions the test resolves by hand.
	Pending []*collab.Completion
	// StopKeepsTarget simulates a stop request the server ignored.
	StopKeepsTarget bool
}

func (c *Combat) Engage(e collab.Entity) { c.target = &e }

func (c *Combat) Attack(target collab.Entity) *collab.Completion {
	c.Attacks = append(c.Attacks, target)
	c.target = &target
	done := collab.NewCompletion(c.Post)
	c.Pending = append(c.Pending, done)
	return done
}

func (c *Combat) Stop() *collab.Completion {
	c.StopCalls++
	if !c.StopKeepsTarget {
		c.target = nil
	}
	done := collab.NewCompletion(c.Post)
	c.Pending = append(c.Pending, done)
	return done
}

func (c *Combat) Target() (collab.Entity, bool) {
	if c.target == nil {
		return collab.Entity{}, false
	}
	return *c.target, true
}

type EquipCall struct {
	Item collab.Item
	Dest collab.Destination
}

type TossCall struct {
	Item  string
	Count int
}

// Inventory applies equip/unequip/toss when the test resolves the returned
// completion through Finish.
type Inventory struct {
	Post collab.Poster

	Stacks []collab.Item
	Slots  map[collab.Destination]collab.Item

	EquipCalls   []EquipCall
	UnequipCalls []collab.Destination
	TossCalls    []TossCall

	// FailEquip makes equip complete without changing the slot.
	FailEquip bool

	pending []func()
	results []*collab.Completion
}

func (inv *Inventory) Items() []collab.Item {
	out := make([]collab.Item, len(inv.Stacks))
	copy(out, inv.Stacks)
	return out
}

func (inv *Inventory) FindItem(name string) (collab.Item, bool) {
	for _, it := range inv.Stacks {
		if it.Name == name {
			return it, true
		}
	}
	return collab.Item{}, false
}

func (inv *Inventory) Equipped(dest collab.Destination) (collab.Item, bool) {
	it, ok := inv.Slots[dest]
	return it, ok
}

func (inv *Inventory) Equip(item collab.Item, dest collab.Destination) *collab.Completion {
	inv.EquipCalls = append(inv.EquipCalls, EquipCall{Item: item, Dest: dest})
	return inv.track(func() {
		if inv.FailEquip {
			return
		}
		if inv.Slots == nil {
			inv.Slots = map[collab.Destination]collab.Item{}
		}
		inv.Slots[dest] = item
	})
}

func (inv *Inventory) Unequip(dest collab.Destination) *collab.Completion {
	inv.UnequipCalls = append(inv.UnequipCalls, dest)
	return inv.track(func() { delete(inv.Slots, dest) })
}

func (inv *Inventory) Toss(itemType string, count int) *collab.Completion {
	inv.TossCalls = append(inv.TossCalls, TossCall{Item: itemType, Count: count})
	return inv.track(func() {
		left := count
		for i := range inv.Stacks {
			if inv.Stacks[i].Name != itemType || left == 0 {
				continue
			}
			n := inv.Stacks[i].Count
			if n > left {
				n = left
			}
			inv.Stacks[i].Count -= n
			left -= n
		}
	})
}

func (inv *Inventory) track(apply func()) *collab.Completion {
	c := collab.NewCompletion(inv.Post)
	inv.pending = append(inv.pending, apply)
	inv.results = append(inv.results, c)
	return c
}

// Finish applies every outstanding operation and resolves its completion.
func (inv *Inventory) Finish(err error) {
	pending, results := inv.pending, inv.results
	inv.pending, inv.results = nil, nil
	for i, apply := range pending {
		if err == nil {
			apply()
		}
		results[i].Resolve(err)
	}
}

type Consumption struct {
	On           bool
	EnableCalls  int
	DisableCalls int
}

func (c *Consumption) Enable()       { c.EnableCalls++; c.On = true }
func (c *Consumption) Disable()      { c.DisableCalls++; c.On = false }
func (c *Consumption) Enabled() bool { return c.On }

type Perception struct {
	Me     collab.Entity
	Others []collab.Entity
}

func (p *Perception) Self() collab.Entity { return p.Me }

func (p *Perception) Players() []collab.Entity {
	var out []collab.Entity
	for _, e := range p.Others {
		if e.Kind == collab.KindPlayer {
			out = append(out, e)
		}
	}
	return out
}

func (p *Perception) Entities() []collab.Entity { return p.Others }

// Remove drops the entity with id from view.
func (p *Perception) Remove(id string) {
	kept := p.Others[:0]
	for _, e := range p.Others {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	p.Others = kept
}

type Chat struct {
	Lines []string
}

func (c *Chat) Say(text string) { c.Lines = append(c.Lines, text) }

// World bundles one fake of each collaborator.
type World struct {
	Movement    *Movement
	Combat      *Combat
	Inventory   *Inventory
	Consumption *Consumption
	Perception  *Perception
	Chat        *Chat
}

func NewWorld() *World {
	return &World{
		Movement:    &Movement{},
		Combat:      &Combat{Post: collab.Immediate},
		Inventory:   &Inventory{Post: collab.Immediate, Slots: map[collab.Destination]collab.Item{}},
		Consumption: &Consumption{},
		Perception:  &Perception{Me: collab.Entity{ID: "self", Kind: collab.KindPlayer, Username: "gps"}},
		Chat:        &Chat{},
	}
}

func (w *World) Set() collab.Set {
	return collab.Set{
		Movement:    w.Movement,
		Combat:      w.Combat,
		Inventory:   w.Inventory,
		Consumption: w.Consumption,
		Perception:  w.Perception,
		Chat:        w.Chat,
	}
}

func Player(id, name string, x, y, z float64) collab.Entity {
	return collab.Entity{ID: id, Kind: collab.KindPlayer, Username: name, Position: collab.Vec3{X: x, Y: y, Z: z}}
}

func Hostile(id string, x, y, z float64) collab.Entity {
	return collab.Entity{ID: id, Kind: collab.KindHostile, Position: collab.Vec3{X: x, Y: y, Z: z}}
}
