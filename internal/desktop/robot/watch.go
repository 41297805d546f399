package robot

import (
	"context"

	hook "github.com/robotn/gohook"
	"go.uber.org/zap"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
)

// WatchCorners streams global pointer events into lock until ctx ends, so
// the interlock trips even while no tool is running. It blocks; run it in
// its own goroutine.
func WatchCorners(ctx context.Context, lock *desktop.Interlock, screen desktop.ScreenSizer, logger *zap.Logger) error {
	if !lock.Enabled() {
		return nil
	}
	width, height, err := screen.Size(ctx)
	if err != nil {
		return err
	}

	logger = logger.Named("corner_watch")
	logger.Info("Watching pointer for fail-safe corners.", zap.Int("width", width), zap.Int("height", height))

	evChan := hook.Start()
	defer hook.End()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-evChan:
			if !ok {
				return nil
			}
			if ev.Kind != hook.MouseMove && ev.Kind != hook.MouseDrag {
				continue
			}
			if lock.Observe(int(ev.X), int(ev.Y), width, height) {
				logger.Info("Corner reached, stopping watcher.")
				return nil
			}
		}
	}
}
