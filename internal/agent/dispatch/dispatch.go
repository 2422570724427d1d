// Package dispatch executes parsed chat commands against the collaborators and
// answers in chat. Handlers never fail outward: every outcome, including bad
// arguments and collaborator failures, ends as a chat reply.
package dispatch

import (
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/agent/command"
	"voxelcraft.ai/guardbot/internal/agent/modes"
	"voxelcraft.ai/guardbot/internal/agent/worldview"
)

type Config struct {
	// GoalRadius is how close "come" gets to the issuing player.
	GoalRadius float64
}

func DefaultConfig() Config { return Config{GoalRadius: 1} }

type handlerFn func(d *Dispatcher, cmd command.Command)

var handlers = map[string]handlerFn{
	command.Come:         (*Dispatcher).come,
	command.Inventory:    (*Dispatcher).inventory,
	command.Equip:        (*Dispatcher).equip,
	command.Unequip:      (*Dispatcher).unequip,
	command.Guard:        (*Dispatcher).guard,
	command.StopGuarding: (*Dispatcher).stopGuarding,
	command.Attack:       (*Dispatcher).attack,
	command.StopAttack:   (*Dispatcher).stopAttack,
	command.Toss:         (*Dispatcher).toss,
	command.Follow:       (*Dispatcher).follow,
	command.StopFollow:   (*Dispatcher).stopFollow,
	command.Plugin:       (*Dispatcher).plugin,
}

var supportedCommands = []string{
	command.Come,
	command.Inventory,
	command.Equip,
	command.Unequip,
	command.Guard,
	command.StopGuarding,
	command.Attack,
	command.StopAttack,
	command.Toss,
	command.Follow,
	command.StopFollow,
	command.Plugin,
}

func init() {
	if err := validateHandlers(); err != nil {
		panic(err)
	}
}

type Dispatcher struct {
	cfg   Config
	set   collab.Set
	query *worldview.Query
	modes *modes.Coordinator
	log   *zap.Logger
}

func New(set collab.Set, q *worldview.Query, coord *modes.Coordinator, cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		cfg:   cfg,
		set:   set,
		query: q,
		modes: coord,
		log:   logger.Named("dispatch"),
	}
}

// Dispatch runs the handler for cmd. Unknown command names are ignored.
func (d *Dispatcher) Dispatch(cmd command.Command) {
	h, ok := handlers[cmd.Name]
	if !ok {
		d.log.Debug("no handler", zap.String("command", cmd.Name))
		return
	}
	defer d.recoverHandler(cmd.Name)
	d.log.Info("command", zap.String("issuer", cmd.Issuer), zap.String("command", cmd.Name), zap.Strings("args", cmd.Args))
	h(d, cmd)
}

// after runs fn once done resolves, under the same panic guard as Dispatch.
func (d *Dispatcher) after(done *collab.Completion, name string, fn func(err error)) {
	done.Then(func(err error) {
		defer d.recoverHandler(name)
		fn(err)
	})
}

func (d *Dispatcher) recoverHandler(name string) {
	if r := recover(); r != nil {
		d.log.Error("command handler panicked",
			zap.String("command", name),
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()))
	}
}

func (d *Dispatcher) reply(text string) { d.set.Chat.Say(text) }

func (d *Dispatcher) say(format string, args ...any) {
	d.reply(fmt.Sprintf(format, args...))
}

// reject answers with the message of a validation error.
func (d *Dispatcher) reject(err error) {
	var verr *command.ValidationError
	if errors.As(err, &verr) {
		d.reply(verr.Msg)
		return
	}
	d.reply(err.Error())
}

func validateHandlers() error {
	allowed := make(map[string]struct{}, len(supportedCommands))
	for _, k := range supportedCommands {
		if _, ok := allowed[k]; ok {
			return fmt.Errorf("duplicate supported command %q", k)
		}
		allowed[k] = struct{}{}
	}
	if len(handlers) != len(allowed) {
		return fmt.Errorf("handler count mismatch: got=%d want=%d", len(handlers), len(allowed))
	}
	for k := range allowed {
		if _, ok := handlers[k]; !ok {
			return fmt.Errorf("missing handler for %q", k)
		}
	}
	return nil
}
