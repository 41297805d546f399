// Package windows resolves live top-level windows by title and changes their
// state, observing the screen around every change.
package windows

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"go.uber.org/zap"
)

// ErrNoMatch is returned when a title pattern matches no live window.
var ErrNoMatch = fmt.Errorf("%w: no windows match the title pattern", desktop.ErrWindowNotFound)

// Directory is a stateless view over the window system. Every call lists
// windows afresh; nothing resolved by one call is reused by the next.
type Directory struct {
	sys      desktop.WindowSystem
	observer *screen.Observer
	sleeper  desktop.Sleeper
	timing   config.TimingConfig
	logger   *zap.Logger
}

// NewDirectory creates a directory over sys.
func NewDirectory(sys desktop.WindowSystem, observer *screen.Observer, sleeper desktop.Sleeper, timing config.TimingConfig, logger *zap.Logger) *Directory {
	return &Directory{
		sys:      sys,
		observer: observer,
		sleeper:  sleeper,
		timing:   timing,
		logger:   logger.Named("window_directory"),
	}
}

// List returns every window in enumeration order.
func (d *Directory) List(ctx context.Context) ([]desktop.Window, error) {
	ws, err := d.sys.Windows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return ws, nil
}

// Active returns the focused window. ok is false when no window has focus.
func (d *Directory) Active(ctx context.Context) (w desktop.Window, ok bool, err error) {
	ws, err := d.List(ctx)
	if err != nil {
		return desktop.Window{}, false, err
	}
	for _, w := range ws {
		if w.Active {
			return w, true, nil
		}
	}
	return desktop.Window{}, false, nil
}

// Matches reports whether title contains pattern, ignoring case.
func Matches(title, pattern string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(pattern))
}

// Find returns every window whose title contains pattern, in enumeration order.
func (d *Directory) Find(ctx context.Context, pattern string) ([]desktop.Window, error) {
	ws, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []desktop.Window
	for _, w := range ws {
		if Matches(w.Title, pattern) {
			out = append(out, w)
		}
	}
	return out, nil
}

// Resolve returns the first window matching pattern.
func (d *Directory) Resolve(ctx context.Context, pattern string) (desktop.Window, error) {
	ws, err := d.Find(ctx, pattern)
	if err != nil {
		return desktop.Window{}, err
	}
	if len(ws) == 0 {
		return desktop.Window{}, fmt.Errorf("%w: %q", ErrNoMatch, pattern)
	}
	if len(ws) > 1 {
		d.logger.Debug("Several windows match, using the first.",
			zap.String("pattern", pattern),
			zap.Int("matches", len(ws)),
			zap.String("title", ws[0].Title))
	}
	return ws[0], nil
}

// AppNames returns the distinct, sorted names of processes owning a window.
func (d *Directory) AppNames(ctx context.Context) ([]string, error) {
	ws, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(ws))
	var names []string
	for _, w := range ws {
		if w.App == "" {
			continue
		}
		if _, dup := seen[w.App]; dup {
			continue
		}
		seen[w.App] = struct{}{}
		names = append(names, w.App)
	}
	sort.Strings(names)
	return names, nil
}

// AppWindows returns the windows owned by the named process.
func (d *Directory) AppWindows(ctx context.Context, app string) ([]desktop.Window, error) {
	ws, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []desktop.Window
	for _, w := range ws {
		if strings.EqualFold(w.App, app) {
			out = append(out, w)
		}
	}
	return out, nil
}

// At returns the windows whose box contains (x, y).
func (d *Directory) At(ctx context.Context, x, y int) ([]desktop.Window, error) {
	ws, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []desktop.Window
	for _, w := range ws {
		if w.Box.Contains(x, y) {
			out = append(out, w)
		}
	}
	return out, nil
}

// Details is everything known about one window. The optional lookups carry
// their own error so one failing probe does not hide the rest.
type Details struct {
	Window    desktop.Window
	Alive     bool
	AliveErr  error
	PID       int
	PIDErr    error
	Handle    int
	HandleErr error
}

// Details resolves pattern and probes the resolved window.
func (d *Directory) Details(ctx context.Context, pattern string) (Details, error) {
	w, err := d.Resolve(ctx, pattern)
	if err != nil {
		return Details{}, err
	}
	det := Details{Window: w}
	det.Alive, det.AliveErr = d.sys.IsAlive(ctx, w)
	det.PID, det.PIDErr = d.sys.ProcessID(ctx, w)
	det.Handle, det.HandleErr = d.sys.NativeHandle(ctx, w)
	for _, probe := range []error{det.AliveErr, det.PIDErr, det.HandleErr} {
		if probe != nil {
			d.logger.Debug("Window probe unavailable.", zap.String("title", w.Title), zap.Error(probe))
		}
	}
	return det, nil
}

// Change is the resolved window and the screen on either side of a mutation.
type Change struct {
	Window      desktop.Window
	Observation screen.Observation
}

func (d *Directory) mutate(ctx context.Context, pattern, op string, fn func(context.Context, desktop.Window) error) (Change, error) {
	w, err := d.Resolve(ctx, pattern)
	if err != nil {
		return Change{}, err
	}
	d.logger.Info("Changing window.", zap.String("op", op), zap.String("title", w.Title))
	obs, err := d.observer.Bracket(ctx, func(ctx context.Context) error {
		return fn(ctx, w)
	}, d.timing.WindowSettle)
	change := Change{Window: w, Observation: obs}
	if err != nil {
		d.logger.Error("Window change failed.", zap.String("op", op), zap.String("title", w.Title), zap.Error(err))
		return change, err
	}
	return change, nil
}

// Activate brings the first matching window to the front, restoring it
// first when it is minimized or its state cannot be read.
func (d *Directory) Activate(ctx context.Context, pattern string) (Change, error) {
	return d.mutate(ctx, pattern, "activate", func(ctx context.Context, w desktop.Window) error {
		if w.Minimized || w.StateUnknown {
			if err := d.sys.Restore(ctx, w); err != nil {
				return fmt.Errorf("restore minimized window: %w", err)
			}
			if err := d.sleeper.Sleep(ctx, d.timing.RestoreWait); err != nil {
				return err
			}
		}
		return d.sys.Activate(ctx, w)
	})
}

func (d *Directory) Minimize(ctx context.Context, pattern string) (Change, error) {
	return d.mutate(ctx, pattern, "minimize", d.sys.Minimize)
}

func (d *Directory) Maximize(ctx context.Context, pattern string) (Change, error) {
	return d.mutate(ctx, pattern, "maximize", d.sys.Maximize)
}

func (d *Directory) Restore(ctx context.Context, pattern string) (Change, error) {
	return d.mutate(ctx, pattern, "restore", d.sys.Restore)
}

func (d *Directory) Close(ctx context.Context, pattern string) (Change, error) {
	return d.mutate(ctx, pattern, "close", d.sys.Close)
}

func (d *Directory) Hide(ctx context.Context, pattern string) (Change, error) {
	return d.mutate(ctx, pattern, "hide", d.sys.Hide)
}

func (d *Directory) Show(ctx context.Context, pattern string) (Change, error) {
	return d.mutate(ctx, pattern, "show", d.sys.Show)
}

// Resize sets the outer size of the first matching window.
func (d *Directory) Resize(ctx context.Context, pattern string, width, height int) (Change, error) {
	return d.mutate(ctx, pattern, "resize", func(ctx context.Context, w desktop.Window) error {
		return d.sys.Resize(ctx, w, width, height)
	})
}

// Move places the top-left corner of the first matching window at (x, y).
func (d *Directory) Move(ctx context.Context, pattern string, x, y int) (Change, error) {
	return d.mutate(ctx, pattern, "move", func(ctx context.Context, w desktop.Window) error {
		return d.sys.Move(ctx, w, x, y)
	})
}

func (d *Directory) SetAlwaysOnTop(ctx context.Context, pattern string, onTop bool) (Change, error) {
	return d.mutate(ctx, pattern, "always_on_top", func(ctx context.Context, w desktop.Window) error {
		return d.sys.SetAlwaysOnTop(ctx, w, onTop)
	})
}
