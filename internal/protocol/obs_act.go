package protocol

type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AgentID         string `json:"agent_id"`
	WorldID         string `json:"world_id,omitempty"`

	Self      SelfObs      `json:"self"`
	Inventory []ItemStack  `json:"inventory"`
	Equipment EquipmentObs `json:"equipment"`

	Entities []EntityObs `json:"entities"`
	Events   []Event     `json:"events"`
	Tasks    []TaskObs   `json:"tasks"`
}

type SelfObs struct {
	Pos     [3]int   `json:"pos"`
	Yaw     int      `json:"yaw"`
	HP      int      `json:"hp"`
	Hunger  int      `json:"hunger"`
	Stamina float64  `json:"stamina"`
	Status  []string `json:"status"`
}

type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// EmptySlot is what the server reports for an unoccupied equipment slot.
const EmptySlot = "NONE"

// Armor slots, in the order they appear in EquipmentObs.Armor.
const (
	ArmorHead = iota
	ArmorTorso
	ArmorLegs
	ArmorFeet
)

type EquipmentObs struct {
	MainHand string   `json:"main_hand"`
	OffHand  string   `json:"off_hand,omitempty"`
	Armor    []string `json:"armor"`
}

type EntityObs struct {
	ID   string   `json:"id"`
	Type string   `json:"type"` // "AGENT", "MOB", "CHEST", ...
	Name string   `json:"name,omitempty"`
	Pos  [3]int   `json:"pos"`
	Tags []string `json:"tags,omitempty"`

	// Optional payload for specialized entity types (e.g. "ITEM").
	Item  string `json:"item,omitempty"`
	Count int    `json:"count,omitempty"`
}

type Event map[string]interface{}

type TaskObs struct {
	TaskID   string  `json:"task_id"`
	Kind     string  `json:"kind"`
	Progress float64 `json:"progress"`
	Target   [3]int  `json:"target,omitempty"`
	TargetID string  `json:"target_id,omitempty"`
	EtaTicks int     `json:"eta_ticks,omitempty"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	AgentID         string       `json:"agent_id"`
	Instants        []InstantReq `json:"instants,omitempty"`
	Tasks           []TaskReq    `json:"tasks,omitempty"`
	Cancel          []string     `json:"cancel,omitempty"`
}

// Instant types sent by the bot.
const (
	InstantSay     = "SAY"
	InstantEat     = "EAT"
	InstantEquip   = "EQUIP"
	InstantUnequip = "UNEQUIP"
	InstantDrop    = "DROP"
)

// Task types sent by the bot.
const (
	TaskMoveTo = "MOVE_TO"
	TaskAttack = "ATTACK"
)

type InstantReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	Channel string `json:"channel,omitempty"`
	Text    string `json:"text,omitempty"`

	ItemID string `json:"item_id,omitempty"`
	Count  int    `json:"count,omitempty"`
	Slot   string `json:"slot,omitempty"`
}

type TaskReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	Target    [3]int  `json:"target,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`

	TargetID string `json:"target_id,omitempty"`
}
