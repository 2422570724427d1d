// Package collab defines the contracts of the subsystems the agent drives but
// does not implement: movement, combat, inventory, consumption, perception and
// chat. Implementations live outside the agent packages (see worldclient).
package collab

import "math"

type Vec3 struct{ X, Y, Z float64 }

func (v Vec3) DistanceTo(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

type EntityKind string

const (
	KindPlayer  EntityKind = "player"
	KindHostile EntityKind = "hostile"
	KindOther   EntityKind = "other"
)

// Entity is a snapshot of a visible entity. It is only valid for the event
// loop turn it was read in.
type Entity struct {
	ID       string
	Kind     EntityKind
	Username string
	Position Vec3
}

type Item struct {
	Name  string
	Count int
}

type ItemCount struct {
	Name  string
	Count int
}

type Destination string

const (
	DestHand    Destination = "hand"
	DestHead    Destination = "head"
	DestTorso   Destination = "torso"
	DestLegs    Destination = "legs"
	DestFeet    Destination = "feet"
	DestOffHand Destination = "off-hand"
)

// Destinations lists the valid equipment destinations in display order.
var Destinations = []Destination{DestHand, DestHead, DestTorso, DestLegs, DestFeet, DestOffHand}

// Movement holds at most one goal; a new goal replaces the previous one.
// Setting a goal identical to the active one is a no-op.
type Movement interface {
	SetGoal(near Vec3, radius float64)
	ClearGoal()
}

type Combat interface {
	Attack(target Entity) *Completion
	Stop() *Completion
	// Target returns the entity currently engaged, if any.
	Target() (Entity, bool)
}

type Inventory interface {
	Items() []Item
	FindItem(name string) (Item, bool)
	Equipped(dest Destination) (Item, bool)
	Equip(item Item, dest Destination) *Completion
	Unequip(dest Destination) *Completion
	Toss(itemType string, count int) *Completion
}

type Consumption interface {
	Enable()
	Disable()
	Enabled() bool
}

type Perception interface {
	Self() Entity
	Players() []Entity
	Entities() []Entity
}

type Chat interface {
	Say(text string)
}

// Set bundles the collaborators one session drives.
type Set struct {
	Movement    Movement
	Combat      Combat
	Inventory   Inventory
	Consumption Consumption
	Perception  Perception
	Chat        Chat
}
