package desktop

import (
	"context"
	"sync/atomic"

	"github.com/xkilldash9x/otto-cli/internal/config"
	"go.uber.org/zap"
)

// PointerLocator reports the pointer position.
type PointerLocator interface {
	PointerPosition(ctx context.Context) (int, int, error)
}

// ScreenSizer reports the primary screen dimensions.
type ScreenSizer interface {
	Size(ctx context.Context) (int, int, error)
}

// Interlock is the process-wide corner-abort safety switch. Once the pointer
// is seen in any screen corner the interlock latches and every guarded
// injection fails until the process restarts. It is safe for concurrent use,
// the pointer watcher trips it from its own goroutine.
type Interlock struct {
	enabled bool
	margin  int
	pointer PointerLocator
	screen  ScreenSizer
	tripped atomic.Bool
	logger  *zap.Logger
}

// NewInterlock builds the interlock from configuration. A disabled interlock
// never trips.
func NewInterlock(cfg config.FailSafeConfig, pointer PointerLocator, screen ScreenSizer, logger *zap.Logger) *Interlock {
	return &Interlock{
		enabled: cfg.Enabled,
		margin:  cfg.CornerMargin,
		pointer: pointer,
		screen:  screen,
		logger:  logger.Named("failsafe"),
	}
}

// Enabled reports whether the interlock is armed.
func (i *Interlock) Enabled() bool { return i != nil && i.enabled }

// Tripped reports whether the interlock has latched.
func (i *Interlock) Tripped() bool { return i != nil && i.tripped.Load() }

// Check samples the pointer and fails with ErrFailSafeTriggered if it sits in
// a corner or the interlock already latched. A pointer or screen query that
// errors does not trip the interlock.
func (i *Interlock) Check(ctx context.Context) error {
	if !i.Enabled() {
		return nil
	}
	if i.tripped.Load() {
		return ErrFailSafeTriggered
	}

	x, y, err := i.pointer.PointerPosition(ctx)
	if err != nil {
		i.logger.Warn("Could not sample pointer for fail-safe check.", zap.Error(err))
		return nil
	}
	w, h, err := i.screen.Size(ctx)
	if err != nil {
		i.logger.Warn("Could not read screen size for fail-safe check.", zap.Error(err))
		return nil
	}
	if i.Observe(x, y, w, h) {
		return ErrFailSafeTriggered
	}
	return nil
}

// Observe feeds one pointer sample into the interlock and reports whether it
// is (now) tripped.
func (i *Interlock) Observe(x, y, width, height int) bool {
	if !i.Enabled() {
		return false
	}
	if i.tripped.Load() {
		return true
	}
	if !inCorner(x, y, width, height, i.margin) {
		return false
	}
	if i.tripped.CompareAndSwap(false, true) {
		i.logger.Error("Fail-safe tripped, all further input injection is blocked.",
			zap.Int("x", x), zap.Int("y", y))
	}
	return true
}

func inCorner(x, y, width, height, margin int) bool {
	nearLeft := x <= margin
	nearRight := x >= width-1-margin
	nearTop := y <= margin
	nearBottom := y >= height-1-margin
	return (nearLeft || nearRight) && (nearTop || nearBottom)
}

// GuardedInput checks the interlock before every injected event.
type GuardedInput struct {
	inner Input
	lock  *Interlock
}

var _ Input = (*GuardedInput)(nil)

// Guard wraps inner so every injection first consults lock.
func Guard(inner Input, lock *Interlock) *GuardedInput {
	return &GuardedInput{inner: inner, lock: lock}
}

func (g *GuardedInput) Click(ctx context.Context, x, y int, button MouseButton) error {
	if err := g.lock.Check(ctx); err != nil {
		return err
	}
	return g.inner.Click(ctx, x, y, button)
}

func (g *GuardedInput) TypeText(ctx context.Context, text string) error {
	if err := g.lock.Check(ctx); err != nil {
		return err
	}
	return g.inner.TypeText(ctx, text)
}

func (g *GuardedInput) KeyTap(ctx context.Context, key string, modifiers ...string) error {
	if err := g.lock.Check(ctx); err != nil {
		return err
	}
	return g.inner.KeyTap(ctx, key, modifiers...)
}

// PointerPosition is read-only and never blocked by the interlock.
func (g *GuardedInput) PointerPosition(ctx context.Context) (int, int, error) {
	return g.inner.PointerPosition(ctx)
}
