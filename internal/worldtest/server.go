// Package worldtest runs an in-process world server speaking just enough of
// the agent protocol to drive the bot in tests.
package worldtest

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxelcraft.ai/guardbot/internal/protocol"
)

const waitTimeout = 5 * time.Second

type Server struct {
	AgentID string

	srv      *httptest.Server
	upgrader websocket.Upgrader
	accepted chan *Peer

	mu    sync.Mutex
	peers []*Peer
}

// Peer is the server end of one bot connection.
type Peer struct {
	Hello protocol.HelloMsg

	conn    *websocket.Conn
	writeMu sync.Mutex
	acts    chan protocol.ActMsg
	done    chan struct{}
}

// NewServer starts a server on a loopback port and registers its shutdown
// with t.Cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		AgentID:  "A1",
		accepted: make(chan *Peer, 16),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) URL() string { return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/v1/ws" }

// HostPort returns the listener address split for the bot's CLI arguments.
func (s *Server) HostPort() (string, string) {
	host, port, _ := net.SplitHostPort(s.srv.Listener.Addr().String())
	return host, port
}

func (s *Server) handle(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	p := &Peer{conn: conn, acts: make(chan protocol.ActMsg, 256), done: make(chan struct{})}
	defer close(p.done)
	defer conn.Close()

	if err := conn.ReadJSON(&p.Hello); err != nil {
		return
	}
	// A catalog before the welcome must be skipped by the client.
	_ = p.write(protocol.CatalogMsg{Type: protocol.TypeCatalog, ProtocolVersion: protocol.Version, Name: "recipes"})
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         s.AgentID,
		WorldParams:     protocol.WorldParams{TickRateHz: 5},
	}
	if err := p.write(welcome); err != nil {
		return
	}

	s.mu.Lock()
	s.peers = append(s.peers, p)
	s.mu.Unlock()
	s.accepted <- p

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var act protocol.ActMsg
		if err := json.Unmarshal(msg, &act); err != nil || act.Type != protocol.TypeAct {
			continue
		}
		select {
		case p.acts <- act:
		default:
		}
	}
}

// Accept waits for the next bot to finish its handshake.
func (s *Server) Accept(t testing.TB) *Peer {
	t.Helper()
	select {
	case p := <-s.accepted:
		return p
	case <-time.After(waitTimeout):
		t.Fatalf("no bot connected within %s", waitTimeout)
		return nil
	}
}

func (s *Server) Close() {
	s.mu.Lock()
	peers := s.peers
	s.peers = nil
	s.mu.Unlock()
	for _, p := range peers {
		p.Close()
	}
	s.srv.Close()
}

func (p *Peer) write(v any) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(waitTimeout))
	return p.conn.WriteJSON(v)
}

func (p *Peer) SendObs(t testing.TB, obs protocol.ObsMsg) {
	t.Helper()
	obs.Type = protocol.TypeObs
	obs.ProtocolVersion = protocol.Version
	if err := p.write(obs); err != nil {
		t.Fatalf("send obs: %v", err)
	}
}

// NextAct waits for the next ACT the bot sends.
func (p *Peer) NextAct(t testing.TB) protocol.ActMsg {
	t.Helper()
	select {
	case a := <-p.acts:
		return a
	case <-time.After(waitTimeout):
		t.Fatalf("no ACT within %s", waitTimeout)
		return protocol.ActMsg{}
	}
}

// NextSay waits for the next SAY instant and returns its text.
func (p *Peer) NextSay(t testing.TB) string {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case a := <-p.acts:
			for _, in := range a.Instants {
				if in.Type == protocol.InstantSay {
					return in.Text
				}
			}
		case <-deadline:
			t.Fatalf("no SAY within %s", waitTimeout)
			return ""
		}
	}
}

// Close drops the connection and waits for the handler to exit.
func (p *Peer) Close() {
	_ = p.conn.Close()
	<-p.done
}

// Chat builds a CHAT event as the server would emit it.
func Chat(tick uint64, fromID, fromName, text string) protocol.Event {
	return protocol.Event{
		"t":         float64(tick),
		"type":      protocol.EventChat,
		"from":      fromID,
		"from_name": fromName,
		"channel":   "LOCAL",
		"text":      text,
	}
}

// ActionResult builds an ACTION_RESULT event for ref.
func ActionResult(tick uint64, ref string, ok bool, code string) protocol.Event {
	ev := protocol.Event{
		"t":    float64(tick),
		"type": protocol.EventActionResult,
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		ev["code"] = code
	}
	return ev
}
