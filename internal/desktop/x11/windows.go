package x11

import (
	"context"
	"fmt"
	"slices"

	"github.com/robotn/xgb/xproto"
	"github.com/robotn/xgbutil/ewmh"
	gops "github.com/vcaesar/gops"
	"go.uber.org/zap"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
)

const (
	stateHidden  = "_NET_WM_STATE_HIDDEN"
	stateMaxVert = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaxHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateAbove   = "_NET_WM_STATE_ABOVE"
)

// Windows is the EWMH window system. Window IDs are X window ids.
type Windows struct {
	dpy      Display
	procName func(pid int) (string, error)
	logger   *zap.Logger
}

var _ desktop.WindowSystem = (*Windows)(nil)

// New builds the backend over dpy. Process names come from gops.
func New(dpy Display, logger *zap.Logger) *Windows {
	return &Windows{
		dpy:      dpy,
		procName: gops.FindName,
		logger:   logger.Named("x11_windows"),
	}
}

// Dial connects to the X server named by $DISPLAY.
func Dial(logger *zap.Logger) (*Windows, error) {
	dpy, err := Connect()
	if err != nil {
		return nil, err
	}
	if _, err := dpy.Clients(); err != nil {
		dpy.Close()
		return nil, fmt.Errorf("window manager does not publish _NET_CLIENT_LIST: %w", err)
	}
	return New(dpy, logger), nil
}

// Disconnect releases the X connection.
func (x *Windows) Disconnect() error {
	x.dpy.Close()
	return nil
}

func (x *Windows) Windows(ctx context.Context) ([]desktop.Window, error) {
	clients, err := x.dpy.Clients()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	active, err := x.dpy.ActiveWindow()
	if err != nil {
		x.logger.Debug("Active window lookup failed.", zap.Error(err))
		active = 0
	}
	apps := map[int]string{}

	out := make([]desktop.Window, 0, len(clients))
	for _, id := range clients {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		viewable, err := x.dpy.Viewable(id)
		if err != nil {
			// Closed between the listing and this query.
			continue
		}
		box, err := x.dpy.Geometry(id)
		if err != nil {
			continue
		}
		title, _ := x.dpy.Title(id)
		pid, _ := x.dpy.PID(id)
		states, err := x.dpy.States(id)
		if err != nil {
			x.logger.Debug("Window state lookup failed.", zap.Uint32("window", uint32(id)), zap.Error(err))
		}

		w := desktop.Window{
			ID:        int(id),
			PID:       pid,
			Title:     title,
			Box:       box,
			Active:    id == active,
			Minimized: slices.Contains(states, stateHidden),
			Maximized: slices.Contains(states, stateMaxVert) && slices.Contains(states, stateMaxHorz),
		}
		w.Visible = viewable && !w.Minimized && box.Valid()
		if pid > 0 {
			name, ok := apps[pid]
			if !ok {
				name, _ = x.procName(pid)
				apps[pid] = name
			}
			w.App = name
		}
		out = append(out, w)
	}
	return out, nil
}

func win(w desktop.Window) xproto.Window { return xproto.Window(w.ID) }

// do runs one request unless ctx has already ended.
func (x *Windows) do(ctx context.Context, op string, w desktop.Window, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return fmt.Errorf("%s window 0x%08x: %w", op, w.ID, err)
	}
	return nil
}

func (x *Windows) Activate(ctx context.Context, w desktop.Window) error {
	return x.do(ctx, "activate", w, func() error { return x.dpy.RequestActive(win(w)) })
}

func (x *Windows) Minimize(ctx context.Context, w desktop.Window) error {
	return x.do(ctx, "minimize", w, func() error { return x.dpy.Iconify(win(w)) })
}

func (x *Windows) Maximize(ctx context.Context, w desktop.Window) error {
	return x.do(ctx, "maximize", w, func() error {
		return x.dpy.ChangeState(win(w), ewmh.StateAdd, stateMaxVert, stateMaxHorz)
	})
}

// Restore returns the window to its normal size, mapping it back first if
// it is minimized.
func (x *Windows) Restore(ctx context.Context, w desktop.Window) error {
	return x.do(ctx, "restore", w, func() error {
		if err := x.dpy.ChangeState(win(w), ewmh.StateRemove, stateMaxVert, stateMaxHorz); err != nil {
			return err
		}
		if w.Minimized {
			return x.dpy.RequestActive(win(w))
		}
		return nil
	})
}

func (x *Windows) Close(ctx context.Context, w desktop.Window) error {
	return x.do(ctx, "close", w, func() error { return x.dpy.RequestClose(win(w)) })
}

func (x *Windows) Resize(ctx context.Context, w desktop.Window, width, height int) error {
	return x.do(ctx, "resize", w, func() error { return x.dpy.Resize(win(w), width, height) })
}

func (x *Windows) Move(ctx context.Context, w desktop.Window, left, top int) error {
	return x.do(ctx, "move", w, func() error { return x.dpy.Move(win(w), left, top) })
}

func (x *Windows) Hide(ctx context.Context, w desktop.Window) error {
	return x.do(ctx, "hide", w, func() error { return x.dpy.Unmap(win(w)) })
}

func (x *Windows) Show(ctx context.Context, w desktop.Window) error {
	return x.do(ctx, "show", w, func() error { return x.dpy.Map(win(w)) })
}

func (x *Windows) SetAlwaysOnTop(ctx context.Context, w desktop.Window, onTop bool) error {
	action := ewmh.StateRemove
	if onTop {
		action = ewmh.StateAdd
	}
	return x.do(ctx, "set always on top", w, func() error {
		return x.dpy.ChangeState(win(w), action, stateAbove, "")
	})
}

func (x *Windows) ProcessID(ctx context.Context, w desktop.Window) (int, error) {
	if w.PID <= 0 {
		return 0, fmt.Errorf("window 0x%08x does not advertise _NET_WM_PID", w.ID)
	}
	return w.PID, nil
}

func (x *Windows) NativeHandle(ctx context.Context, w desktop.Window) (int, error) {
	return w.ID, nil
}

// IsAlive asks the X server whether the window id still resolves.
func (x *Windows) IsAlive(ctx context.Context, w desktop.Window) (bool, error) {
	if _, err := x.dpy.Viewable(win(w)); err != nil {
		return false, nil
	}
	return true, nil
}
