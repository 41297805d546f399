package action

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"go.uber.org/zap"
)

// OutcomeKind is the verdict on one executed action.
type OutcomeKind string

const (
	Succeeded OutcomeKind = "succeeded"
	Failed    OutcomeKind = "failed"
)

// Outcome is the result of executing a Descriptor. Before is always captured
// strictly before the action was issued and After strictly after its settle
// wait. After is empty when the action failed.
type Outcome struct {
	Kind    OutcomeKind
	Reason  string
	Err     error
	Before  screen.Snapshot
	After   screen.Snapshot
	Elapsed time.Duration
}

// Succeeded reports whether the action ran and both snapshots were taken.
func (o Outcome) Succeeded() bool { return o.Kind == Succeeded }

// NewOutcome converts an observation and the error that ended it into an Outcome.
func NewOutcome(obs screen.Observation, err error) Outcome {
	out := Outcome{
		Kind:    Succeeded,
		Before:  obs.Before,
		After:   obs.After,
		Elapsed: obs.Elapsed,
	}
	if err != nil {
		out.Kind = Failed
		out.Reason = err.Error()
		out.Err = err
	}
	return out
}

// Executor dispatches primitive actions and observes the screen around them.
type Executor struct {
	input    desktop.Input
	observer *screen.Observer
	sleeper  desktop.Sleeper
	cfg      config.DesktopConfig
	logger   *zap.Logger
}

// NewExecutor wires an executor. input should already be guarded by the
// fail-safe interlock.
func NewExecutor(input desktop.Input, observer *screen.Observer, sleeper desktop.Sleeper, cfg config.DesktopConfig, logger *zap.Logger) *Executor {
	return &Executor{
		input:    input,
		observer: observer,
		sleeper:  sleeper,
		cfg:      cfg,
		logger:   logger.Named("action_executor"),
	}
}

// Observer exposes the screen observer the executor captures with.
func (e *Executor) Observer() *screen.Observer { return e.observer }

// Sleeper exposes the executor's delay source.
func (e *Executor) Sleeper() desktop.Sleeper { return e.sleeper }

// Config returns the desktop configuration the executor was built with.
func (e *Executor) Config() config.DesktopConfig { return e.cfg }

// SettleFor is the post-action wait before the after-snapshot.
func (e *Executor) SettleFor(d Descriptor) time.Duration {
	t := e.cfg.Timing
	switch d.(type) {
	case Type:
		return t.TypeSettle
	case LaunchApp:
		return t.AppSettle
	default:
		return t.ActionSettle
	}
}

// Execute captures the screen, performs d, waits the settle delay for d and
// captures again. It never returns an error: failures are carried in the
// Outcome.
func (e *Executor) Execute(ctx context.Context, d Descriptor) Outcome {
	e.logger.Info("Executing action.", zap.String("action", d.String()))
	obs, err := e.observer.Bracket(ctx, func(ctx context.Context) error {
		return e.Dispatch(ctx, d)
	}, e.SettleFor(d))

	out := NewOutcome(obs, err)
	if !out.Succeeded() {
		e.logger.Error("Action failed.",
			zap.String("action", d.String()),
			zap.String("error_code", string(ClassifyError(err))),
			zap.Error(err))
	}
	return out
}

// Dispatch performs d without any observation. It is the raw primitive the
// recovery strategies replay.
func (e *Executor) Dispatch(ctx context.Context, d Descriptor) error {
	switch a := d.(type) {
	case Click:
		return e.input.Click(ctx, a.X, a.Y, desktop.ButtonLeft)
	case Type:
		return e.input.TypeText(ctx, a.Text)
	case KeyPress:
		return e.pressCombo(ctx, a.Combo)
	case LaunchApp:
		return e.launch(ctx, a.Name)
	case nil:
		return fmt.Errorf("%w: no action", ErrInvalidParameters)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownActionType, d)
	}
}

func (e *Executor) pressCombo(ctx context.Context, combo string) error {
	key, mods, err := desktop.ParseCombo(combo)
	if err != nil {
		return err
	}
	if len(mods) > 0 {
		e.logger.Debug("Pressing chord.", zap.String("key", key), zap.Strings("modifiers", mods))
	}
	return e.input.KeyTap(ctx, key, mods...)
}

// launch opens the launcher, types the name and confirms it.
func (e *Executor) launch(ctx context.Context, name string) error {
	wait := e.cfg.Timing.LauncherWait
	if err := e.pressCombo(ctx, e.cfg.LauncherKey); err != nil {
		return fmt.Errorf("open launcher: %w", err)
	}
	if err := e.sleeper.Sleep(ctx, wait); err != nil {
		return err
	}
	if err := e.input.TypeText(ctx, name); err != nil {
		return fmt.Errorf("type application name: %w", err)
	}
	if err := e.sleeper.Sleep(ctx, wait); err != nil {
		return err
	}
	if err := e.input.KeyTap(ctx, "enter"); err != nil {
		return fmt.Errorf("confirm launch: %w", err)
	}
	return nil
}
