package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/agent/dispatch"
	"voxelcraft.ai/guardbot/internal/agent/modes"
	"voxelcraft.ai/guardbot/internal/config"
	"voxelcraft.ai/guardbot/internal/journal"
	"voxelcraft.ai/guardbot/internal/logging"
	"voxelcraft.ai/guardbot/internal/persistence/indexdb"
	journallog "voxelcraft.ai/guardbot/internal/persistence/log"
	"voxelcraft.ai/guardbot/internal/session"
	"voxelcraft.ai/guardbot/internal/worldclient"
)

const (
	defaultName     = "gps"
	defaultPassword = ""
)

type options struct {
	configPath string
	dataDir    string
	disableDB  bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "bot <host> <port> [<name>] [<password>]",
		Short: "Chat-commanded guard bot for voxelcraft worlds",
		Long: `bot connects to a voxelcraft world server as an agent and obeys chat
commands such as "come", "guard", "follow alice", "equip IRON_SWORD hand",
"attack bob" and "stop guarding". It reconnects whenever the connection drops.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(2, 4)(cmd, args); err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return err
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "bot.yaml", "path to bot.yaml")
	f.StringVar(&opts.dataDir, "data", "data", "directory for the command journal and index")
	f.BoolVar(&opts.disableDB, "disable_db", false, "disable the sqlite command index")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "bot:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, args []string, opts options) error {
	logger, err := logging.New(opts.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		logger.Info("config not found; using defaults", zap.String("path", opts.configPath))
	}

	scfg := sessionConfig(args, cfg)
	printConnection(out, scfg)

	sink, closeSink, err := openJournal(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	return session.NewSupervisor(scfg, sink, logger).Run(ctx)
}

func sessionConfig(args []string, cfg config.Config) session.Config {
	name, password := defaultName, defaultPassword
	if len(args) > 2 {
		name = args[2]
	}
	if len(args) > 3 {
		password = args[3]
	}
	return session.Config{
		Host:           args[0],
		Port:           args[1],
		WSPath:         cfg.WSPath,
		Name:           name,
		Password:       password,
		ReconnectDelay: cfg.ReconnectDelay(),
		AutoEat:        cfg.AutoEat.Enabled,
		Client: worldclient.Config{
			HostileTypes:       cfg.HostileTypes,
			ActionTimeoutTicks: uint64(cfg.ActionTimeoutTicks),
			AutoEat: worldclient.AutoEatConfig{
				HungerThreshold: cfg.AutoEat.HungerThreshold,
				Foods:           cfg.AutoEat.Foods,
			},
		},
		Modes: modes.Config{
			GuardRadius:   cfg.Guard.Radius,
			HostileRadius: cfg.Guard.HostileRadius,
			FollowRadius:  cfg.Follow.Radius,
		},
		Dispatch: dispatch.Config{GoalRadius: cfg.ComeRadius},
	}
}

func printConnection(out io.Writer, c session.Config) {
	pw := "(none)"
	if c.Password != "" {
		pw = "(set)"
	}
	fmt.Fprintf(out, "host:     %s\n", c.Host)
	fmt.Fprintf(out, "port:     %s\n", c.Port)
	fmt.Fprintf(out, "ws_path:  %s\n", c.WSPath)
	fmt.Fprintf(out, "username: %s\n", c.Name)
	fmt.Fprintf(out, "password: %s\n", pw)
}

func openJournal(ctx context.Context, cfg config.Config, opts options, logger *zap.Logger) (journal.Sink, func(), error) {
	var sinks journal.Multi
	if cfg.Journal.Enabled {
		sinks = append(sinks, journallog.NewCommandJournal(opts.dataDir))
	}
	var idx *indexdb.SQLiteIndex
	if !opts.disableDB {
		var err error
		idx, err = indexdb.OpenSQLite(filepath.Join(opts.dataDir, "index", "bot.sqlite"))
		if err != nil {
			return nil, nil, fmt.Errorf("open index: %w", err)
		}
		sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if st, err := idx.Stats(sctx); err == nil {
			logger.Info("command index opened",
				zap.Int("sessions", st.Sessions),
				zap.Int("commands", st.Commands),
				zap.Int("replies", st.Replies))
		}
		cancel()
		sinks = append(sinks, idx)
	}
	if len(sinks) == 0 {
		return journal.Discard{}, func() {}, nil
	}
	return sinks, func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("close journal", zap.Error(err))
		}
		if idx != nil {
			if n := idx.Dropped(); n > 0 {
				logger.Warn("command index fell behind", zap.Uint64("dropped", n))
			}
		}
	}, nil
}
