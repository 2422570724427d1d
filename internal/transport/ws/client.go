// Package ws is the agent side of the voxelcraft websocket protocol.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxelcraft.ai/guardbot/internal/protocol"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	readTimeout      = 60 * time.Second
)

// Conn is one authenticated connection to a world server. ReadMessage must be
// called from a single goroutine; SendAct and Close are safe for concurrent use.
type Conn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error

	Welcome protocol.WelcomeMsg
}

// Dial opens url, sends hello and waits for the server's WELCOME.
func Dial(ctx context.Context, url string, hello protocol.HelloMsg) (*Conn, error) {
	d := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := d.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	c := &Conn{conn: conn}

	if hello.Type == "" {
		hello.Type = protocol.TypeHello
	}
	if hello.ProtocolVersion == "" {
		hello.ProtocolVersion = protocol.Version
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(hello); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	// Unblock the handshake read if ctx ends first.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("await welcome: %w", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil || base.Type != protocol.TypeWelcome {
			continue
		}
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("decode welcome: %w", err)
		}
		if !protocol.IsSupportedVersion(w.ProtocolVersion) {
			_ = c.Close()
			return nil, fmt.Errorf("unsupported protocol version %q", w.ProtocolVersion)
		}
		c.Welcome = w
		return c, nil
	}
}

// ReadMessage returns the next frame together with its decoded type.
func (c *Conn) ReadMessage() (protocol.BaseMessage, []byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.BaseMessage{}, nil, err
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.BaseMessage{}, msg, fmt.Errorf("decode frame: %w", err)
	}
	return base, msg, nil
}

// ReadObs skips frames until the next OBS and decodes it.
func (c *Conn) ReadObs() (protocol.ObsMsg, error) {
	for {
		base, msg, err := c.ReadMessage()
		if err != nil {
			if msg != nil {
				continue
			}
			return protocol.ObsMsg{}, err
		}
		if base.Type != protocol.TypeObs {
			continue
		}
		var obs protocol.ObsMsg
		if err := json.Unmarshal(msg, &obs); err != nil {
			continue
		}
		return obs, nil
	}
}

func (c *Conn) SendAct(act protocol.ActMsg) error {
	if act.Type == "" {
		act.Type = protocol.TypeAct
	}
	if act.ProtocolVersion == "" {
		act.ProtocolVersion = protocol.Version
	}
	b, err := json.Marshal(act)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
