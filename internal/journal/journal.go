// Package journal defines the session history records the bot persists: every
// parsed chat command and every chat reply.
package journal

import (
	"errors"
	"time"
)

type Kind string

const (
	KindCommand Kind = "command"
	KindReply   Kind = "reply"
)

type Entry struct {
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id"`
	Tick      uint64    `json:"tick"`
	Kind      Kind      `json:"kind"`

	// Command entries.
	Issuer string   `json:"issuer,omitempty"`
	Name   string   `json:"name,omitempty"`
	Args   []string `json:"args,omitempty"`

	// Reply entries.
	Text string `json:"text,omitempty"`
}

type Sink interface {
	Write(e Entry) error
	Close() error
}

// Multi fans entries out to every sink. A failing sink does not stop the
// others; the errors are joined.
type Multi []Sink

func (m Multi) Write(e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything. Used when journaling is disabled.
type Discard struct{}

func (Discard) Write(Entry) error { return nil }
func (Discard) Close() error      { return nil }
