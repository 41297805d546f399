package robot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
)

// Windows addresses windows by their owning process through robotgo. It is
// the portable fallback: robotgo cannot read minimized or maximized state,
// so every window it lists carries StateUnknown, and geometry changes,
// hiding and always-on-top report desktop.ErrUnsupported.
type Windows struct {
	logger *zap.Logger
}

var _ desktop.WindowSystem = (*Windows)(nil)

func NewWindows(logger *zap.Logger) *Windows {
	return &Windows{logger: logger.Named("robot_windows")}
}

func (r *Windows) Windows(ctx context.Context) ([]desktop.Window, error) {
	procs, err := robotgo.Process()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}
	activePid := robotgo.GetPid()

	var out []desktop.Window
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		title := strings.TrimSpace(robotgo.GetTitle(p.Pid))
		if title == "" {
			continue
		}
		x, y, w, h := robotgo.GetBounds(p.Pid)
		out = append(out, desktop.Window{
			ID:           p.Pid,
			PID:          p.Pid,
			Title:        title,
			App:          p.Name,
			Box:          desktop.Rect{Left: x, Top: y, Width: w, Height: h},
			Visible:      w > 0 && h > 0,
			Active:       p.Pid == activePid,
			StateUnknown: true,
		})
	}
	// Front-most first, matching what a user sees.
	for i, w := range out {
		if w.Active && i > 0 {
			copy(out[1:i+1], out[0:i])
			out[0] = w
			break
		}
	}
	return out, nil
}

func (r *Windows) Activate(ctx context.Context, w desktop.Window) error {
	if err := robotgo.ActivePid(w.PID); err != nil {
		return fmt.Errorf("activate pid %d: %w", w.PID, err)
	}
	return nil
}

func (r *Windows) Minimize(ctx context.Context, w desktop.Window) error {
	robotgo.MinWindow(w.PID)
	return nil
}

func (r *Windows) Maximize(ctx context.Context, w desktop.Window) error {
	robotgo.MaxWindow(w.PID)
	return nil
}

func (r *Windows) Restore(ctx context.Context, w desktop.Window) error {
	robotgo.MinWindow(w.PID, false)
	robotgo.MaxWindow(w.PID, false)
	return nil
}

func (r *Windows) Close(ctx context.Context, w desktop.Window) error {
	robotgo.CloseWindow(w.PID)
	return nil
}

func (r *Windows) Resize(ctx context.Context, w desktop.Window, width, height int) error {
	return fmt.Errorf("resize: %w", desktop.ErrUnsupported)
}

func (r *Windows) Move(ctx context.Context, w desktop.Window, x, y int) error {
	return fmt.Errorf("move: %w", desktop.ErrUnsupported)
}

func (r *Windows) Hide(ctx context.Context, w desktop.Window) error {
	return fmt.Errorf("hide: %w", desktop.ErrUnsupported)
}

func (r *Windows) Show(ctx context.Context, w desktop.Window) error {
	return fmt.Errorf("show: %w", desktop.ErrUnsupported)
}

func (r *Windows) SetAlwaysOnTop(ctx context.Context, w desktop.Window, onTop bool) error {
	return fmt.Errorf("always on top: %w", desktop.ErrUnsupported)
}

func (r *Windows) ProcessID(ctx context.Context, w desktop.Window) (int, error) {
	if w.PID <= 0 {
		return 0, fmt.Errorf("no process id recorded for %q", w.Title)
	}
	return w.PID, nil
}

func (r *Windows) NativeHandle(ctx context.Context, w desktop.Window) (int, error) {
	return 0, fmt.Errorf("native handle: %w", desktop.ErrUnsupported)
}

func (r *Windows) IsAlive(ctx context.Context, w desktop.Window) (bool, error) {
	return robotgo.PidExists(w.PID)
}
