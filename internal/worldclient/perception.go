package worldclient

import (
	"strings"

	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/protocol"
)

const entityTypeAgent = "AGENT"

type perceptionView struct{ c *Client }

func (v perceptionView) Self() collab.Entity {
	return collab.Entity{
		ID:       v.c.agentID,
		Kind:     collab.KindPlayer,
		Username: v.c.name,
		Position: toVec(v.c.obs.Self.Pos),
	}
}

func (v perceptionView) Players() []collab.Entity {
	var out []collab.Entity
	for _, e := range v.c.obs.Entities {
		if e.Type != entityTypeAgent || e.ID == v.c.agentID {
			continue
		}
		out = append(out, v.c.entity(e))
	}
	return out
}

func (v perceptionView) Entities() []collab.Entity {
	out := make([]collab.Entity, 0, len(v.c.obs.Entities))
	for _, e := range v.c.obs.Entities {
		if e.ID == v.c.agentID {
			continue
		}
		out = append(out, v.c.entity(e))
	}
	return out
}

func (c *Client) entity(e protocol.EntityObs) collab.Entity {
	ent := collab.Entity{ID: e.ID, Kind: c.kindOf(e), Position: toVec(e.Pos)}
	if ent.Kind == collab.KindPlayer {
		ent.Username = e.Name
		if ent.Username == "" {
			ent.Username = e.ID
		}
	}
	return ent
}

func (c *Client) kindOf(e protocol.EntityObs) collab.EntityKind {
	if e.Type == entityTypeAgent {
		return collab.KindPlayer
	}
	if hasTag(e.Tags, "hostile") {
		return collab.KindHostile
	}
	for _, t := range c.cfg.HostileTypes {
		if strings.EqualFold(t, e.Type) {
			return collab.KindHostile
		}
	}
	return collab.KindOther
}

type chatView struct{ c *Client }

// Say queues a LOCAL chat line. Chat is fire-and-forget.
func (v chatView) Say(text string) {
	v.c.instants = append(v.c.instants, protocol.InstantReq{
		ID:      v.c.newID("I"),
		Type:    protocol.InstantSay,
		Channel: "LOCAL",
		Text:    text,
	})
}
