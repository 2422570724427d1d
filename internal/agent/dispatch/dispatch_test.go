package dispatch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelcraft.ai/guardbot/internal/agent/agenttest"
	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/agent/command"
	"voxelcraft.ai/guardbot/internal/agent/modes"
	"voxelcraft.ai/guardbot/internal/agent/worldview"
)

type harness struct {
	world *agenttest.World
	modes *modes.Coordinator
	d     *Dispatcher
}

func newHarness() *harness {
	w := agenttest.NewWorld()
	set := w.Set()
	q := worldview.New(set)
	coord := modes.New(set, q, modes.DefaultConfig(), nil)
	return &harness{world: w, modes: coord, d: New(set, q, coord, DefaultConfig(), nil)}
}

func (h *harness) run(t *testing.T, issuer, line string) {
	t.Helper()
	cmd, ok := command.Parse(issuer, line)
	require.True(t, ok, "not a command: %q", line)
	h.d.Dispatch(cmd)
}

func (h *harness) expectChat(t *testing.T, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, h.world.Chat.Lines); diff != "" {
		t.Fatalf("chat mismatch (-want +got):\n%s", diff)
	}
	h.world.Chat.Lines = nil
}

func TestHandlersCoverEveryCommand(t *testing.T) {
	require.NoError(t, validateHandlers())
}

func TestCome(t *testing.T) {
	h := newHarness()
	h.run(t, "alice", "come")
	h.expectChat(t, "I can't see you.")
	assert.Nil(t, h.world.Movement.Goal)

	h.world.Perception.Others = []collab.Entity{agenttest.Player("A2", "alice", 4, 0, 2)}
	h.run(t, "alice", "come")
	h.expectChat(t, "Coming to @alice!")
	require.NotNil(t, h.world.Movement.Goal)
	assert.Equal(t, agenttest.Goal{Near: collab.Vec3{X: 4, Z: 2}, Radius: 1}, *h.world.Movement.Goal)
}

func TestInventory(t *testing.T) {
	h := newHarness()
	h.run(t, "alice", "inventory")
	h.expectChat(t, "I have nothing.")

	h.world.Inventory.Stacks = []collab.Item{{Name: "DIRT", Count: 3}, {Name: "PLANK", Count: 1}}
	h.run(t, "alice", "inventory")
	h.expectChat(t, "I have \n\nDIRT (3)\nPLANK (1)")
}

func TestEquip_InvalidDestinationNeverCallsCollaborator(t *testing.T) {
	for _, dest := range []string{"pocket", "HAND", "offhand", "chest"} {
		h := newHarness()
		h.world.Inventory.Stacks = []collab.Item{{Name: "diamond_sword", Count: 1}}

		h.run(t, "alice", "equip diamond_sword "+dest)
		h.expectChat(t, dest+" is not a valid destination. (hand, head, torso, legs, feet, off-hand)")
		h.run(t, "alice", "unequip "+dest)
		h.expectChat(t, dest+" is not a valid destination. (hand, head, torso, legs, feet, off-hand)")

		assert.Empty(t, h.world.Inventory.EquipCalls)
		assert.Empty(t, h.world.Inventory.UnequipCalls)
	}
}

func TestEquip_Scenario(t *testing.T) {
	h := newHarness()
	h.world.Inventory.Stacks = []collab.Item{{Name: "diamond_sword", Count: 1}}

	h.run(t, "alice", "equip diamond_sword hand")
	require.Len(t, h.world.Inventory.EquipCalls, 1)
	assert.Equal(t, "diamond_sword", h.world.Inventory.EquipCalls[0].Item.Name)
	assert.Equal(t, collab.DestHand, h.world.Inventory.EquipCalls[0].Dest)
	h.expectChat(t)

	h.world.Inventory.Finish(nil)
	h.expectChat(t, "Succesfully equipped diamond_sword to hand.")
}

func TestEquip_SoftFailureDetectedFromSlot(t *testing.T) {
	h := newHarness()
	h.world.Inventory.Stacks = []collab.Item{{Name: "diamond_sword", Count: 1}}
	h.world.Inventory.FailEquip = true

	h.run(t, "alice", "equip diamond_sword")
	h.world.Inventory.Finish(nil)
	h.expectChat(t, "Failed to equip diamond_sword to hand.")
}

func TestEquip_MissingItemAndUsage(t *testing.T) {
	h := newHarness()
	h.run(t, "alice", "equip diamond_sword")
	h.expectChat(t, "I don't have diamond_sword on me.")
	h.run(t, "alice", "equip")
	h.expectChat(t, "Usage: equip <item> [<destination>]")
	assert.Empty(t, h.world.Inventory.EquipCalls)
}

func TestUnequip(t *testing.T) {
	h := newHarness()
	h.run(t, "alice", "unequip")
	h.expectChat(t, "I don't have anything equipped on hand.")
	assert.Empty(t, h.world.Inventory.UnequipCalls)

	h.world.Inventory.Slots[collab.DestHead] = collab.Item{Name: "IRON_HELMET", Count: 1}
	h.run(t, "alice", "unequip head")
	require.Equal(t, []collab.Destination{collab.DestHead}, h.world.Inventory.UnequipCalls)
	h.world.Inventory.Finish(nil)
	h.expectChat(t, "Succesfully unequipped IRON_HELMET from head.")

	// Completion with an error leaves the slot as it was.
	h.world.Inventory.Slots[collab.DestFeet] = collab.Item{Name: "BOOTS", Count: 1}
	h.run(t, "alice", "unequip feet")
	h.world.Inventory.Finish(errors.New("E_BLOCKED"))
	h.expectChat(t, "Failed to unequip BOOTS from feet.")
}

func TestToss(t *testing.T) {
	h := newHarness()
	h.world.Inventory.Stacks = []collab.Item{{Name: "DIRT", Count: 2}, {Name: "DIRT", Count: 1}}

	h.run(t, "alice", "toss DIRT 5")
	h.expectChat(t, "I only have 3 DIRT, not 5.")
	h.run(t, "alice", "toss DIRT lots")
	h.expectChat(t, "lots is not a valid count.")
	h.run(t, "alice", "toss DIRT 0")
	h.expectChat(t, "Count must be at least 1.")
	h.run(t, "alice", "toss STONE")
	h.expectChat(t, "I don't have STONE on me.")
	h.run(t, "alice", "toss")
	h.expectChat(t, "Usage: toss <item> [<count>]")
	assert.Empty(t, h.world.Inventory.TossCalls)

	h.run(t, "alice", "toss DIRT 3")
	require.Equal(t, []agenttest.TossCall{{Item: "DIRT", Count: 3}}, h.world.Inventory.TossCalls)
	h.world.Inventory.Finish(nil)
	h.expectChat(t, "Tossed 3 DIRT.")

	h.world.Inventory.Stacks = []collab.Item{{Name: "DIRT", Count: 1}}
	h.run(t, "alice", "toss DIRT")
	h.world.Inventory.Finish(errors.New("E_BLOCKED"))
	h.expectChat(t, "Failed to toss 1 DIRT.")
}

func TestGuardAndStopGuarding(t *testing.T) {
	h := newHarness()
	h.run(t, "alice", "guard")
	h.expectChat(t, "I can't see you.")
	assert.Equal(t, modes.GuardInactive, h.modes.GuardState())

	h.world.Perception.Others = []collab.Entity{agenttest.Player("A2", "alice", 5, 64, 5)}
	h.run(t, "alice", "guard")
	h.expectChat(t, "I will be guarding @alice")
	anchor, ok := h.modes.GuardAnchor()
	require.True(t, ok)
	assert.Equal(t, collab.Vec3{X: 5, Y: 64, Z: 5}, anchor)
	require.NotNil(t, h.world.Movement.Goal)

	h.run(t, "alice", "stop guarding")
	h.expectChat(t, "I will no longer guard this area.")
	assert.Equal(t, modes.GuardInactive, h.modes.GuardState())
	assert.Equal(t, 1, h.world.Combat.StopCalls)
	assert.Equal(t, 1, h.world.Movement.ClearCalls)
	assert.Nil(t, h.world.Movement.Goal)
}

func TestAttackAndStopAttack(t *testing.T) {
	h := newHarness()
	h.run(t, "alice", "attack bob")
	h.expectChat(t, "could not find bob")
	h.run(t, "alice", "attack")
	h.expectChat(t, "Usage: attack <username>")
	h.run(t, "alice", "stop attack")
	h.expectChat(t, "I'm not attacking anyone.")
	assert.Empty(t, h.world.Combat.Attacks)
	assert.Equal(t, 0, h.world.Combat.StopCalls)

	h.world.Perception.Others = []collab.Entity{agenttest.Player("B1", "bob", 2, 0, 0)}
	h.run(t, "alice", "attack bob")
	h.expectChat(t, "Attacking @bob!")
	require.Len(t, h.world.Combat.Attacks, 1)
	assert.Equal(t, "B1", h.world.Combat.Attacks[0].ID)

	h.run(t, "alice", "stop attack")
	h.expectChat(t)
	stop := h.world.Combat.Pending[len(h.world.Combat.Pending)-1]
	stop.Resolve(nil)
	h.expectChat(t, "Stopped attacking.")
}

func TestStopAttack_SoftFailure(t *testing.T) {
	h := newHarness()
	h.world.Combat.Engage(agenttest.Hostile("M1", 1, 0, 0))
	h.world.Combat.StopKeepsTarget = true

	h.run(t, "alice", "stop attack")
	h.world.Combat.Pending[0].Resolve(nil)
	h.expectChat(t, "Failed to stop attacking.")
}

func TestFollow(t *testing.T) {
	h := newHarness()
	h.run(t, "alice", "follow carol")
	h.expectChat(t, "could not find carol")
	_, active := h.modes.FollowTarget()
	assert.False(t, active, "unresolvable target must not change state")

	h.world.Perception.Others = []collab.Entity{agenttest.Player("A2", "alice", 1, 0, 1)}
	h.run(t, "alice", "follow")
	h.expectChat(t, "Following @alice.")
	name, active := h.modes.FollowTarget()
	assert.True(t, active)
	assert.Equal(t, "alice", name)

	h.run(t, "alice", "stop follow")
	h.expectChat(t, "I will stop following.")
	_, active = h.modes.FollowTarget()
	assert.False(t, active)
}

func TestPlugin(t *testing.T) {
	h := newHarness()
	h.run(t, "alice", "plugin autoeat start")
	h.expectChat(t, "Successfully applied start to autoeat.")
	assert.Equal(t, 1, h.world.Consumption.EnableCalls)
	assert.True(t, h.world.Consumption.On)

	h.run(t, "alice", "plugin foo start")
	h.expectChat(t, "foo is not a valid plugin. (autoeat)")
	h.run(t, "alice", "plugin autoeat pause")
	h.expectChat(t, "pause is not a valid action. (start, stop)")
	h.run(t, "alice", "plugin autoeat")
	h.expectChat(t, "Usage: plugin <name> <start|stop>")
	assert.Equal(t, 1, h.world.Consumption.EnableCalls)
	assert.Equal(t, 0, h.world.Consumption.DisableCalls)

	h.run(t, "alice", "plugin autoeat stop")
	h.expectChat(t, "Successfully applied stop to autoeat.")
	assert.False(t, h.world.Consumption.On)
}

type panickyChat struct{}

func (panickyChat) Say(string) { panic("chat down") }

func TestDispatch_RecoversHandlerPanic(t *testing.T) {
	w := agenttest.NewWorld()
	set := w.Set()
	set.Chat = panickyChat{}
	q := worldview.New(set)
	d := New(set, q, modes.New(set, q, modes.DefaultConfig(), nil), DefaultConfig(), nil)

	assert.NotPanics(t, func() { d.Dispatch(command.Command{Name: command.Inventory, Issuer: "alice"}) })
	assert.NotPanics(t, func() { d.Dispatch(command.Command{Name: "dance"}) })
}

func TestDispatch_RecoversContinuationPanic(t *testing.T) {
	w := agenttest.NewWorld()
	w.Inventory.Stacks = []collab.Item{{Name: "diamond_sword", Count: 1}, {Name: "DIRT", Count: 2}}
	set := w.Set()
	set.Chat = panickyChat{}
	q := worldview.New(set)
	d := New(set, q, modes.New(set, q, modes.DefaultConfig(), nil), DefaultConfig(), nil)

	// Both commands reply only once their completion resolves.
	d.Dispatch(command.Command{Name: command.Equip, Args: []string{"diamond_sword", "hand"}, Issuer: "alice"})
	d.Dispatch(command.Command{Name: command.Toss, Args: []string{"DIRT", "1"}, Issuer: "alice"})
	require.Len(t, w.Inventory.EquipCalls, 1)
	require.Len(t, w.Inventory.TossCalls, 1)

	assert.NotPanics(t, func() { w.Inventory.Finish(nil) })
}
