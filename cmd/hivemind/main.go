// Package main is the entry point for hivemind, the process that owns six
// long-lived conversational agent panes and exposes them to a host desktop
// shell over a newline-delimited JSON control protocol on stdin/stdout (or,
// without --ipc, a bare interactive REPL for local debugging).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/kandev/hivemind/internal/agent"
	"github.com/kandev/hivemind/internal/common/config"
	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/dispatcher"
	"github.com/kandev/hivemind/internal/events"
	"github.com/kandev/hivemind/internal/manager"
	"github.com/kandev/hivemind/internal/session"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse flags: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("starting hivemind",
		zap.String("workspace", cfg.WorkspaceDir),
		zap.Bool("ipc", cfg.IPCMode),
	)

	store := session.New(cfg.SessionsPath, log)
	writer := events.NewWriter(os.Stdout)
	factory := agent.NewFactory(cfg.WorkspaceDir, cfg.ClaudeModel, log)

	roles := resolveRoles(cfg)
	mgr := manager.New(factory, store, writer, roles, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
	}()

	if cfg.IPCMode {
		d := dispatcher.New(mgr, writer, log)
		d.Run(ctx, os.Stdin)
		log.Info("hivemind stopped")
		return
	}

	runREPL(ctx, mgr)
	log.Info("hivemind stopped")
}

// resolveRoles layers ui/settings.json's paneCommands overrides on top of
// the six default roles' model_kind.
func resolveRoles(cfg *config.Config) []agent.Role {
	overrides := config.ReadPaneCommands(cfg.SettingsPath)
	roles := agent.DefaultRoles()
	for i, r := range roles {
		if cmd, ok := overrides[r.PaneID]; ok {
			roles[i].ModelKind = agent.ResolveModelKind(r.ModelKind, cmd)
		}
	}
	return roles
}

// runREPL is a bare local debugging surface: "send <pane> <msg>",
// "broadcast <msg>", "sessions", "quit". It does not implement the
// protocol's command set verbatim; it exists for developer use without a
// host shell attached.
func runREPL(ctx context.Context, mgr *manager.Manager) {
	mgr.Start(ctx)
	mgr.Ready()
	fmt.Fprintln(os.Stderr, "hivemind REPL: send <pane> <msg> | broadcast <msg> | sessions | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		switch fields[0] {
		case "quit", "exit":
			mgr.StopAll(ctx)
			return
		case "sessions":
			mgr.GetSessions()
		case "broadcast":
			if len(fields) < 2 {
				continue
			}
			mgr.Broadcast(ctx, strings.Join(fields[1:], " "), nil)
		case "send":
			if len(fields) < 3 {
				continue
			}
			mgr.SendMessage(ctx, fields[1], fields[2])
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", fields[0])
		}
	}
	mgr.StopAll(ctx)
}
