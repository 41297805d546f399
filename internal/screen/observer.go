package screen

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"go.uber.org/zap"
)

// Observer is the only way the rest of the program looks at the screen.
type Observer struct {
	screen  desktop.Screen
	sleeper desktop.Sleeper
	logger  *zap.Logger
	now     func() time.Time
}

// NewObserver creates an observer over screen. sleeper provides the settle
// waits used by Bracket.
func NewObserver(screen desktop.Screen, sleeper desktop.Sleeper, logger *zap.Logger) *Observer {
	return &Observer{
		screen:  screen,
		sleeper: sleeper,
		logger:  logger.Named("screen_observer"),
		now:     time.Now,
	}
}

// Capture grabs the full screen when region is nil.
func (o *Observer) Capture(ctx context.Context, region *desktop.Rect) (Snapshot, error) {
	img, err := o.screen.Capture(ctx, region)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(img, region, o.now()), nil
}

// Capture is the result of CaptureSpec.
type Capture struct {
	Snapshot Snapshot
	// Fallback is set when a region was requested but could not be parsed,
	// and the full screen was captured instead.
	Fallback error
}

// FellBack reports whether the requested region was discarded.
func (c Capture) FellBack() bool { return c.Fallback != nil }

// CaptureSpec captures the region described by spec ("left,top,width,height").
// An empty spec captures the full screen. A malformed spec is not an error:
// the full screen is captured and the problem is recorded in Fallback.
func (o *Observer) CaptureSpec(ctx context.Context, spec string) (Capture, error) {
	var (
		region   *desktop.Rect
		fallback error
	)
	if spec != "" {
		r, err := ParseRegion(spec)
		if err != nil {
			o.logger.Warn("Region rejected, capturing full screen.", zap.String("region", spec), zap.Error(err))
			fallback = err
		} else {
			region = &r
		}
	}

	snap, err := o.Capture(ctx, region)
	if err != nil {
		return Capture{}, err
	}
	return Capture{Snapshot: snap, Fallback: fallback}, nil
}

// Size reports the screen dimensions.
func (o *Observer) Size(ctx context.Context) (int, int, error) {
	return o.screen.Size(ctx)
}

// Observation is the before/after pair around one state change.
type Observation struct {
	Before  Snapshot
	After   Snapshot
	Elapsed time.Duration
}

// Bracket captures a before-snapshot, runs act, waits settle and captures an
// after-snapshot. act is never run unless the before-snapshot succeeded. On
// error the returned Observation holds whatever was captured so far.
func (o *Observer) Bracket(ctx context.Context, act func(context.Context) error, settle time.Duration) (Observation, error) {
	var obs Observation

	before, err := o.Capture(ctx, nil)
	if err != nil {
		return obs, fmt.Errorf("capture before: %w", err)
	}
	obs.Before = before

	if err := act(ctx); err != nil {
		obs.Elapsed = o.now().Sub(before.TakenAt())
		return obs, err
	}

	if err := o.sleeper.Sleep(ctx, settle); err != nil {
		obs.Elapsed = o.now().Sub(before.TakenAt())
		return obs, fmt.Errorf("settle wait: %w", err)
	}

	after, err := o.Capture(ctx, nil)
	if err != nil {
		obs.Elapsed = o.now().Sub(before.TakenAt())
		return obs, fmt.Errorf("capture after: %w", err)
	}
	obs.After = after
	obs.Elapsed = after.TakenAt().Sub(before.TakenAt())
	return obs, nil
}
