// Package worldview answers the agent's questions about the world. Every call
// reads the collaborators afresh; results must not be kept across ticks.
package worldview

import "voxelcraft.ai/guardbot/internal/agent/collab"

type Query struct {
	perception collab.Perception
	inventory  collab.Inventory
	combat     collab.Combat
}

func New(set collab.Set) *Query {
	return &Query{
		perception: set.Perception,
		inventory:  set.Inventory,
		combat:     set.Combat,
	}
}

func (q *Query) Self() collab.Entity { return q.perception.Self() }

// ResolveVisiblePlayer returns the entity of the named player if it is
// currently in view.
func (q *Query) ResolveVisiblePlayer(username string) (collab.Entity, bool) {
	if username == "" {
		return collab.Entity{}, false
	}
	for _, p := range q.perception.Players() {
		if p.Username == username {
			return p, true
		}
	}
	return collab.Entity{}, false
}

// CurrentInventory sums stacks per item name, in first-seen order.
func (q *Query) CurrentInventory() []collab.ItemCount {
	items := q.inventory.Items()
	out := make([]collab.ItemCount, 0, len(items))
	idx := make(map[string]int, len(items))
	for _, it := range items {
		if i, ok := idx[it.Name]; ok {
			out[i].Count += it.Count
			continue
		}
		idx[it.Name] = len(out)
		out = append(out, collab.ItemCount{Name: it.Name, Count: it.Count})
	}
	return out
}

// FindItem returns the first stack whose name matches exactly.
func (q *Query) FindItem(name string) (collab.Item, bool) {
	return q.inventory.FindItem(name)
}

func (q *Query) HeldCount(name string) int {
	n := 0
	for _, it := range q.inventory.Items() {
		if it.Name == name {
			n += it.Count
		}
	}
	return n
}

// NearestHostileWithin returns the closest hostile strictly closer than radius.
func (q *Query) NearestHostileWithin(radius float64, from collab.Vec3) (collab.Entity, bool) {
	var (
		best  collab.Entity
		bestD = radius
		found bool
	)
	for _, e := range q.perception.Entities() {
		if e.Kind != collab.KindHostile {
			continue
		}
		if d := e.Position.DistanceTo(from); d < bestD {
			best, bestD, found = e, d, true
		}
	}
	return best, found
}

func (q *Query) CurrentTarget() (collab.Entity, bool) {
	return q.combat.Target()
}
