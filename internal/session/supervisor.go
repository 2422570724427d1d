// Package session keeps the bot connected. Each connection gets its own
// event loop, collaborators, mode coordinator and dispatcher; nothing survives
// a disconnect.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/agent/command"
	"voxelcraft.ai/guardbot/internal/agent/dispatch"
	"voxelcraft.ai/guardbot/internal/agent/modes"
	"voxelcraft.ai/guardbot/internal/agent/worldview"
	"voxelcraft.ai/guardbot/internal/journal"
	"voxelcraft.ai/guardbot/internal/protocol"
	"voxelcraft.ai/guardbot/internal/transport/ws"
	"voxelcraft.ai/guardbot/internal/worldclient"
)

// ErrResolve means the world host has no usable address. It is fatal.
var ErrResolve = errors.New("cannot resolve host")

type Config struct {
	Host     string
	Port     string
	WSPath   string
	Name     string
	Password string

	// ReconnectDelay is the pause between a disconnect and the next dial.
	ReconnectDelay time.Duration
	AutoEat        bool

	Client   worldclient.Config
	Modes    modes.Config
	Dispatch dispatch.Config
}

// Resolver is satisfied by *net.Resolver.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

type Supervisor struct {
	cfg      Config
	sink     journal.Sink
	log      *zap.Logger
	resolver Resolver
	plugins  *Registry

	sessions atomic.Int64
}

func NewSupervisor(cfg Config, sink journal.Sink, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = journal.Discard{}
	}
	logger = logger.Named("session")
	return &Supervisor{
		cfg:      cfg,
		sink:     sink,
		log:      logger,
		resolver: net.DefaultResolver,
		plugins:  NewRegistry(defaultPlugins(cfg.AutoEat, logger)...),
	}
}

// Sessions counts the connections that completed the handshake.
func (s *Supervisor) Sessions() int64 { return s.sessions.Load() }

// Resolve looks the host up once. IPv4 addresses are preferred.
func Resolve(ctx context.Context, r Resolver, host string) (net.IP, error) {
	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrResolve, host, err)
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			return a.IP, nil
		}
	}
	if len(addrs) > 0 {
		return addrs[0].IP, nil
	}
	return nil, fmt.Errorf("%w %q: no addresses", ErrResolve, host)
}

// Run resolves the host, then connects and reconnects until ctx ends. It
// only returns an error when resolution fails.
func (s *Supervisor) Run(ctx context.Context) error {
	ip, err := Resolve(ctx, s.resolver, s.cfg.Host)
	if err != nil {
		return err
	}
	url := "ws://" + net.JoinHostPort(ip.String(), s.cfg.Port) + s.cfg.WSPath
	s.log.Info("resolved world address", zap.String("host", s.cfg.Host), zap.String("url", url))

	for {
		err := s.runSession(ctx, url)
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("disconnected; reconnecting", zap.Error(err), zap.Duration("delay", s.cfg.ReconnectDelay))
		if s.cfg.ReconnectDelay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

func (s *Supervisor) runSession(ctx context.Context, url string) error {
	hello := protocol.HelloMsg{
		Type:              protocol.TypeHello,
		ProtocolVersion:   protocol.Version,
		SupportedVersions: []string{protocol.Version},
		AgentName:         s.cfg.Name,
		Capabilities:      protocol.HelloCapabilities{MaxQueue: 64},
	}
	if s.cfg.Password != "" {
		hello.Auth = &protocol.HelloAuth{Token: s.cfg.Password}
	}
	conn, err := ws.Dial(ctx, url, hello)
	if err != nil {
		return err
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	log := s.log.With(zap.String("session_id", sessionID))
	log.Info("connected",
		zap.String("agent_id", conn.Welcome.AgentID),
		zap.String("world_id", conn.Welcome.CurrentWorldID),
		zap.Int("tick_rate_hz", conn.Welcome.WorldParams.TickRateHz))
	s.sessions.Add(1)

	loop := NewLoop()
	client := worldclient.New(s.cfg.Client, conn, loop.Post, log)
	client.SetWelcome(conn.Welcome, s.cfg.Name)
	defer client.Close()

	var set collab.Set
	if err := s.plugins.LoadAll(client, &set, log); err != nil {
		return err
	}
	rec := &recorder{sink: s.sink, sessionID: sessionID, tick: client.Tick, log: log}
	set.Perception = client.Perception()
	set.Inventory = client.Inventory()
	set.Chat = recordingChat{inner: client.Chat(), r: rec}
	if err := checkSet(set); err != nil {
		return err
	}

	query := worldview.New(set)
	coord := modes.New(set, query, s.cfg.Modes, log)
	disp := dispatch.New(set, query, coord, s.cfg.Dispatch, log)

	onObs := func(obs protocol.ObsMsg) {
		for _, ch := range client.Observe(obs) {
			cmd, ok := command.Parse(ch.Username, ch.Text)
			if !ok {
				continue
			}
			rec.command(ch.Tick, cmd)
			disp.Dispatch(cmd)
		}
		coord.OnTick(obs.Tick)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			obs, err := conn.ReadObs()
			if err != nil {
				return fmt.Errorf("read obs: %w", err)
			}
			loop.Post(func() { onObs(obs) })
		}
	})
	g.Go(func() error {
		return loop.Run(gctx, client.Flush)
	})
	g.Go(func() error {
		<-gctx.Done()
		_ = conn.Close()
		return nil
	})
	return g.Wait()
}
