package worldclient

import (
	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/protocol"
)

// Wire names of the equipment slots.
var wireSlots = map[collab.Destination]string{
	collab.DestHand:    "MAIN_HAND",
	collab.DestOffHand: "OFF_HAND",
	collab.DestHead:    "HEAD",
	collab.DestTorso:   "TORSO",
	collab.DestLegs:    "LEGS",
	collab.DestFeet:    "FEET",
}

var armorIndex = map[collab.Destination]int{
	collab.DestHead:  protocol.ArmorHead,
	collab.DestTorso: protocol.ArmorTorso,
	collab.DestLegs:  protocol.ArmorLegs,
	collab.DestFeet:  protocol.ArmorFeet,
}

type inventoryView struct{ c *Client }

func (v inventoryView) Items() []collab.Item {
	out := make([]collab.Item, 0, len(v.c.obs.Inventory))
	for _, s := range v.c.obs.Inventory {
		if s.Item == "" || s.Count <= 0 {
			continue
		}
		out = append(out, collab.Item{Name: s.Item, Count: s.Count})
	}
	return out
}

func (v inventoryView) FindItem(name string) (collab.Item, bool) {
	for _, it := range v.Items() {
		if it.Name == name {
			return it, true
		}
	}
	return collab.Item{}, false
}

func (v inventoryView) Equipped(dest collab.Destination) (collab.Item, bool) {
	eq := v.c.obs.Equipment
	var name string
	switch dest {
	case collab.DestHand:
		name = eq.MainHand
	case collab.DestOffHand:
		name = eq.OffHand
	default:
		i, ok := armorIndex[dest]
		if !ok || i >= len(eq.Armor) {
			return collab.Item{}, false
		}
		name = eq.Armor[i]
	}
	if name == "" || name == protocol.EmptySlot {
		return collab.Item{}, false
	}
	return collab.Item{Name: name, Count: 1}, true
}

func (v inventoryView) Equip(item collab.Item, dest collab.Destination) *collab.Completion {
	return v.c.instant(protocol.InstantReq{Type: protocol.InstantEquip, ItemID: item.Name, Slot: wireSlots[dest]})
}

func (v inventoryView) Unequip(dest collab.Destination) *collab.Completion {
	return v.c.instant(protocol.InstantReq{Type: protocol.InstantUnequip, Slot: wireSlots[dest]})
}

func (v inventoryView) Toss(itemType string, count int) *collab.Completion {
	return v.c.instant(protocol.InstantReq{Type: protocol.InstantDrop, ItemID: itemType, Count: count})
}
