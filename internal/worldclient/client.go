// Package worldclient implements the agent's collaborators on top of the
// voxelcraft agent protocol. World state comes from the latest OBS frame;
// requests are batched and leave as one ACT per event loop turn.
//
// A Client is not safe for concurrent use. Every method, including the ones
// on the collaborator views, must run on the session's event loop.
package worldclient

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/protocol"
)

// ErrClosed resolves operations still pending when the session ends.
var ErrClosed = errors.New("worldclient: session closed")

// ActionError is a rejected or timed out request.
type ActionError struct {
	Code    string
	Message string
}

func (e *ActionError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Config struct {
	// HostileTypes are entity types treated as hostile in addition to
	// entities tagged "hostile".
	HostileTypes []string
	// ActionTimeoutTicks bounds how long an instant waits for its ACTION_RESULT.
	ActionTimeoutTicks uint64
	AutoEat            AutoEatConfig
}

type AutoEatConfig struct {
	HungerThreshold int
	Foods           []string
}

func DefaultConfig() Config {
	return Config{
		HostileTypes:       []string{"MOB"},
		ActionTimeoutTicks: 20,
		AutoEat: AutoEatConfig{
			HungerThreshold: 14,
			Foods:           []string{"BREAD", "COOKED_MEAT", "BERRIES"},
		},
	}
}

// Sender delivers one ACT frame.
type Sender interface {
	SendAct(act protocol.ActMsg) error
}

// IncomingChat is a chat line from another agent.
type IncomingChat struct {
	Tick     uint64
	Username string
	Text     string
}

type pendingAction struct {
	done   *collab.Completion
	issued uint64
	kind   string
}

type Client struct {
	cfg    Config
	sender Sender
	post   collab.Poster
	log    *zap.Logger
	newID  func(prefix string) string

	agentID string
	name    string
	obs     protocol.ObsMsg
	haveObs bool

	instants []protocol.InstantReq
	tasks    []protocol.TaskReq
	cancel   []string

	pending map[string]*pendingAction

	move   *moveGoal
	attack *attackState
	stops  []*stopRequest

	// replaced is the goal whose MOVE_TO got a cancel queued this turn.
	replaced *moveGoal

	eat *autoEater
}

func New(cfg Config, sender Sender, post collab.Poster, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if post == nil {
		post = collab.Immediate
	}
	if cfg.ActionTimeoutTicks == 0 {
		cfg.ActionTimeoutTicks = DefaultConfig().ActionTimeoutTicks
	}
	c := &Client{
		cfg:     cfg,
		sender:  sender,
		post:    post,
		log:     logger.Named("worldclient"),
		pending: map[string]*pendingAction{},
		newID: func(prefix string) string {
			return prefix + "_" + uuid.NewString()
		},
	}
	c.eat = &autoEater{c: c}
	return c
}

// SetWelcome records the identity the server assigned to this connection.
func (c *Client) SetWelcome(w protocol.WelcomeMsg, name string) {
	c.agentID = w.AgentID
	c.name = name
}

func (c *Client) AgentID() string { return c.agentID }

// Tick is the tick of the latest observation.
func (c *Client) Tick() uint64 { return c.obs.Tick }

// Observe folds one OBS frame into the client: the snapshot is replaced,
// action results resolve their completions, movement and combat bookkeeping
// is updated, and the autoeat plugin runs. It returns the chat lines other
// agents sent this tick, in order.
func (c *Client) Observe(obs protocol.ObsMsg) []IncomingChat {
	c.obs = obs
	c.haveObs = true
	if obs.AgentID != "" {
		c.agentID = obs.AgentID
	}

	var chats []IncomingChat
	for _, ev := range obs.Events {
		if r, ok := ev.AsActionResult(); ok {
			c.onActionResult(r)
			continue
		}
		if ch, ok := ev.AsChat(); ok {
			if ch.From == c.agentID {
				continue
			}
			chats = append(chats, IncomingChat{Tick: obs.Tick, Username: c.displayName(ch), Text: ch.Text})
		}
	}

	c.expirePending(obs.Tick)
	c.observeMovement(obs)
	c.observeCombat(obs)
	c.eat.observe(obs)
	return chats
}

func (c *Client) displayName(ch protocol.ChatEvent) string {
	if ch.FromName != "" {
		return ch.FromName
	}
	for _, e := range c.obs.Entities {
		if e.ID == ch.From && e.Name != "" {
			return e.Name
		}
	}
	return ch.From
}

func (c *Client) onActionResult(r protocol.ActionResultEvent) {
	if c.attack != nil && c.attack.taskID == r.Ref && !r.OK {
		c.log.Debug("attack rejected", zap.String("code", r.Code), zap.String("message", r.Message))
		c.endAttack(actionError(r))
		return
	}
	if c.move != nil && c.move.taskID == r.Ref && !r.OK {
		c.log.Debug("move rejected", zap.String("code", r.Code), zap.String("message", r.Message))
		c.move = nil
		return
	}
	p, ok := c.pending[r.Ref]
	if !ok {
		return
	}
	delete(c.pending, r.Ref)
	if r.OK {
		p.done.Resolve(nil)
		return
	}
	c.log.Debug("action failed", zap.String("kind", p.kind), zap.String("code", r.Code), zap.String("message", r.Message))
	p.done.Resolve(actionError(r))
}

func actionError(r protocol.ActionResultEvent) *ActionError {
	code := r.Code
	if code == "" || !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
	}
	return &ActionError{Code: code, Message: r.Message}
}

func (c *Client) expirePending(tick uint64) {
	for ref, p := range c.pending {
		if tick < p.issued+c.cfg.ActionTimeoutTicks {
			continue
		}
		delete(c.pending, ref)
		c.log.Debug("action timed out", zap.String("kind", p.kind), zap.String("ref", ref))
		p.done.Resolve(&ActionError{Code: protocol.ErrTimeout, Message: p.kind + " got no result"})
	}
}

// instant queues req and returns a completion resolved by its ACTION_RESULT.
func (c *Client) instant(req protocol.InstantReq) *collab.Completion {
	req.ID = c.newID("I")
	c.instants = append(c.instants, req)
	done := collab.NewCompletion(c.post)
	c.pending[req.ID] = &pendingAction{done: done, issued: c.obs.Tick, kind: req.Type}
	return done
}

func (c *Client) task(req protocol.TaskReq) string {
	req.ID = c.newID("K")
	c.tasks = append(c.tasks, req)
	return req.ID
}

// cancelTask reports whether a cancel was queued. A task still in this
// turn's batch is dropped instead and never reaches the server.
func (c *Client) cancelTask(id string) bool {
	if id == "" {
		return false
	}
	for i, t := range c.tasks {
		if t.ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return false
		}
	}
	c.cancel = append(c.cancel, id)
	return true
}

// withdrawCancel removes a cancel queued this turn.
func (c *Client) withdrawCancel(id string) bool {
	for i, x := range c.cancel {
		if x == id {
			c.cancel = append(c.cancel[:i], c.cancel[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Client) taskRunning(id string) bool {
	for _, t := range c.obs.Tasks {
		if t.TaskID == id {
			return true
		}
	}
	return false
}

// Flush sends everything queued since the last flush as one ACT. Nothing is
// sent before the first observation or when the batch is empty.
func (c *Client) Flush() error {
	c.replaced = nil
	if !c.haveObs || (len(c.instants) == 0 && len(c.tasks) == 0 && len(c.cancel) == 0) {
		return nil
	}
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            c.obs.Tick,
		AgentID:         c.agentID,
		Instants:        c.instants,
		Tasks:           c.tasks,
		Cancel:          c.cancel,
	}
	c.instants, c.tasks, c.cancel = nil, nil, nil
	if err := c.sender.SendAct(act); err != nil {
		return fmt.Errorf("send act: %w", err)
	}
	return nil
}

// Close resolves every outstanding completion with ErrClosed.
func (c *Client) Close() {
	for ref, p := range c.pending {
		delete(c.pending, ref)
		p.done.Resolve(ErrClosed)
	}
	if c.attack != nil {
		c.endAttack(ErrClosed)
	}
	for _, s := range c.stops {
		s.done.Resolve(ErrClosed)
	}
	c.stops = nil
}

// Views over the client, one per collaborator contract.

func (c *Client) Movement() collab.Movement       { return movementView{c} }
func (c *Client) Combat() collab.Combat           { return combatView{c} }
func (c *Client) Inventory() collab.Inventory     { return inventoryView{c} }
func (c *Client) Perception() collab.Perception   { return perceptionView{c} }
func (c *Client) Chat() collab.Chat               { return chatView{c} }
func (c *Client) Consumption() collab.Consumption { return c.eat }

func toVec(p [3]int) collab.Vec3 {
	return collab.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

func toBlock(v collab.Vec3) [3]int {
	return [3]int{int(math.Round(v.X)), int(math.Round(v.Y)), int(math.Round(v.Z))}
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
