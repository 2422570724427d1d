package session

import (
	"time"

	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/agent/command"
	"voxelcraft.ai/guardbot/internal/journal"
)

// recorder writes a session's commands and replies to the journal. Journal
// failures are logged and never reach the agent.
type recorder struct {
	sink      journal.Sink
	sessionID string
	tick      func() uint64
	log       *zap.Logger
}

func (r *recorder) command(tick uint64, cmd command.Command) {
	r.write(journal.Entry{
		Tick:   tick,
		Kind:   journal.KindCommand,
		Issuer: cmd.Issuer,
		Name:   cmd.Name,
		Args:   cmd.Args,
	})
}

func (r *recorder) write(e journal.Entry) {
	e.Time = time.Now().UTC()
	e.SessionID = r.sessionID
	if err := r.sink.Write(e); err != nil {
		r.log.Warn("journal write failed", zap.Error(err))
	}
}

type recordingChat struct {
	inner collab.Chat
	r     *recorder
}

func (c recordingChat) Say(text string) {
	c.r.write(journal.Entry{Tick: c.r.tick(), Kind: journal.KindReply, Text: text})
	c.inner.Say(text)
}
