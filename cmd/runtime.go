// File: cmd/runtime.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/otto-cli/internal/action"
	"github.com/xkilldash9x/otto-cli/internal/agent"
	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/desktop/robot"
	"github.com/xkilldash9x/otto-cli/internal/mcp"
	"github.com/xkilldash9x/otto-cli/internal/recovery"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"github.com/xkilldash9x/otto-cli/internal/store"
	"github.com/xkilldash9x/otto-cli/internal/tools"
	"github.com/xkilldash9x/otto-cli/internal/windows"
)

// backend is the set of OS-facing adapters the runtime drives.
type backend struct {
	Input   desktop.Input
	Screen  desktop.Screen
	Windows desktop.WindowSystem
	Sleeper desktop.Sleeper
}

// Package-level hooks, replaced in tests.
var (
	newBackend = func(logger *zap.Logger) backend {
		return backend{
			Input:   robot.Input{},
			Screen:  robot.Screen{},
			Windows: robot.NewWindowSystem(logger),
			Sleeper: desktop.RealSleeper{},
		}
	}
	newModel = func(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (agent.Model, error) {
		return agent.NewGeminiModel(ctx, cfg, logger)
	}
)

// runtime holds the wired components for one command run.
type runtime struct {
	cfg      config.Interface
	logger   *zap.Logger
	screen   desktop.Screen
	windows  desktop.WindowSystem
	lock     *desktop.Interlock
	journal  store.Journal
	registry *tools.Registry
}

// newRuntime wires the desktop stack, the journal and the tool registry.
// The caller must Close the result.
func newRuntime(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*runtime, error) {
	be := newBackend(logger)
	dcfg := cfg.Desktop()

	lock := desktop.NewInterlock(dcfg.FailSafe, be.Input, be.Screen, logger)
	input := desktop.Guard(be.Input, lock)

	journal, err := store.Open(ctx, cfg.Journal().Enabled, cfg.Journal().Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	observer := screen.NewObserver(be.Screen, be.Sleeper, logger)
	exec := action.NewExecutor(input, observer, be.Sleeper, dcfg, logger)
	registry := tools.New(tools.Deps{
		Executor:            exec,
		Recovery:            recovery.NewCoordinator(exec, logger),
		Windows:             windows.NewDirectory(be.Windows, observer, be.Sleeper, dcfg.Timing, logger),
		Input:               input,
		SimilarityThreshold: dcfg.SimilarityThreshold,
	}, journal, logger)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		screen:   be.Screen,
		windows:  be.Windows,
		lock:     lock,
		journal:  journal,
		registry: registry,
	}, nil
}

// conversations returns a factory of agent sessions sharing one model
// client, or nil when no API key is configured.
func (rt *runtime) conversations(ctx context.Context) (mcp.ConversationFactory, error) {
	acfg := rt.cfg.Agent()
	if acfg.APIKey == "" {
		rt.logger.Warn("No agent API key configured; chat is disabled.")
		return nil, nil
	}
	model, err := newModel(ctx, acfg, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return func() (mcp.Conversation, error) {
		return agent.NewSession(model, rt.registry, acfg, rt.logger), nil
	}, nil
}

// Close releases the journal and any connection the window backend holds.
func (rt *runtime) Close() error {
	err := rt.journal.Close()
	if d, ok := rt.windows.(interface{ Disconnect() error }); ok {
		err = errors.Join(err, d.Disconnect())
	}
	return err
}
