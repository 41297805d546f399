package tools

import (
	"context"
	"errors"

	"github.com/xkilldash9x/otto-cli/internal/report"
	"github.com/xkilldash9x/otto-cli/internal/windows"
)

func (ts *toolset) registerWindows(r *Registry) {
	r.Register(Tool{Name: "list_windows", Description: "List all open windows with their status, position and size."},
		ts.listWindows)
	r.Register(Tool{Name: "get_active_window", Description: "Get information about the currently focused window."},
		ts.activeWindow)
	r.Register(Tool{
		Name:        "find_windows_by_title",
		Description: "Find windows whose title contains a pattern (case-insensitive).",
		Params:      []Param{str("title_pattern", "Pattern to search for in window titles.", true)},
	}, ts.findWindows)
	r.Register(Tool{Name: "get_all_app_names", Description: "List the names of all applications that own a window."},
		ts.appNames)
	r.Register(Tool{
		Name:        "get_apps_with_name",
		Description: "List all windows belonging to an application.",
		Params:      []Param{str("app_name", "Name of the application.", true)},
	}, ts.appWindows)
	r.Register(Tool{
		Name:        "get_windows_at_position",
		Description: "List the windows covering a screen position.",
		Params:      []Param{integer("x", "X coordinate.", true), integer("y", "Y coordinate.", true)},
	}, ts.windowsAt)
	r.Register(Tool{
		Name:        "get_window_details",
		Description: "Get comprehensive details about a window.",
		Params:      []Param{titlePattern},
	}, ts.windowDetails)

	simple := []struct {
		name, desc, verb string
		op               func(*windows.Directory, context.Context, string) (windows.Change, error)
		narrate          func(string) windows.Narration
	}{
		{"activate_window", "Bring a window to the front and focus it, restoring it first if minimized.", "activate window",
			(*windows.Directory).Activate, windows.ActivateNarration},
		{"minimize_window", "Minimize a window.", "minimize window", (*windows.Directory).Minimize, windows.MinimizeNarration},
		{"maximize_window", "Maximize a window.", "maximize window", (*windows.Directory).Maximize, windows.MaximizeNarration},
		{"close_window", "Close a window.", "close window", (*windows.Directory).Close, windows.CloseNarration},
		{"hide_window", "Hide a window.", "hide window", (*windows.Directory).Hide, windows.HideNarration},
		{"show_window", "Show a hidden window.", "show window", (*windows.Directory).Show, windows.ShowNarration},
		{"restore_window", "Restore a minimized or maximized window to its normal size.", "restore window",
			(*windows.Directory).Restore, windows.RestoreNarration},
	}
	for _, s := range simple {
		r.Register(Tool{Name: s.name, Description: s.desc, Params: []Param{titlePattern}},
			func(ctx context.Context, args Args) Result {
				pattern := args.String("title_pattern")
				c, err := s.op(ts.Windows, ctx, pattern)
				return ts.changed(s.verb, pattern, c, err, s.narrate)
			})
	}

	r.Register(Tool{
		Name:        "resize_window",
		Description: "Resize a window.",
		Params:      []Param{titlePattern, integer("width", "New width.", true), integer("height", "New height.", true)},
	}, func(ctx context.Context, args Args) Result {
		pattern, w, h := args.String("title_pattern"), args.Int("width"), args.Int("height")
		c, err := ts.Windows.Resize(ctx, pattern, w, h)
		return ts.changed("resize window", pattern, c, err, func(title string) windows.Narration {
			return windows.ResizeNarration(title, w, h)
		})
	})

	r.Register(Tool{
		Name:        "move_window",
		Description: "Move a window so its top-left corner is at a screen position.",
		Params:      []Param{titlePattern, integer("x", "New X position.", true), integer("y", "New Y position.", true)},
	}, func(ctx context.Context, args Args) Result {
		pattern, x, y := args.String("title_pattern"), args.Int("x"), args.Int("y")
		c, err := ts.Windows.Move(ctx, pattern, x, y)
		return ts.changed("move window", pattern, c, err, func(title string) windows.Narration {
			return windows.MoveNarration(title, x, y)
		})
	})

	r.Register(Tool{
		Name:        "set_window_always_on_top",
		Description: "Keep a window above all others, or return it to normal stacking.",
		Params: []Param{
			titlePattern,
			{Name: "always_on_top", Type: TypeBoolean, Description: "True to keep on top, false to remove.", Default: true},
		},
	}, func(ctx context.Context, args Args) Result {
		pattern, onTop := args.String("title_pattern"), args.Bool("always_on_top")
		c, err := ts.Windows.SetAlwaysOnTop(ctx, pattern, onTop)
		return ts.changed("set window always on top", pattern, c, err, func(title string) windows.Narration {
			return windows.AlwaysOnTopNarration(title, onTop)
		})
	})
}

func (ts *toolset) changed(verb, pattern string, c windows.Change, err error, narrate func(string) windows.Narration) Result {
	if errors.Is(err, windows.ErrNoMatch) {
		return failed(windows.NoMatch(pattern), err)
	}
	if err != nil {
		return failed(report.Failure(verb, err), err)
	}
	out, err := c.Render(narrate(windows.DisplayTitle(c.Window)))
	if err != nil {
		return failed(report.Failure(verb, err), err)
	}
	return ok(out)
}

func (ts *toolset) listWindows(ctx context.Context, _ Args) Result {
	ws, err := ts.Windows.List(ctx)
	if err != nil {
		return failed(report.Failure("list windows", err), err)
	}
	return ok(windows.RenderList(ws))
}

func (ts *toolset) activeWindow(ctx context.Context, _ Args) Result {
	w, found, err := ts.Windows.Active(ctx)
	if err != nil {
		return failed(report.Failure("get active window", err), err)
	}
	return ok(windows.RenderActive(w, found))
}

func (ts *toolset) findWindows(ctx context.Context, args Args) Result {
	pattern := args.String("title_pattern")
	ws, err := ts.Windows.Find(ctx, pattern)
	if err != nil {
		return failed(report.Failure("find windows", err), err)
	}
	return ok(windows.RenderMatches(pattern, ws))
}

func (ts *toolset) appNames(ctx context.Context, _ Args) Result {
	names, err := ts.Windows.AppNames(ctx)
	if err != nil {
		return failed(report.Failure("get app names", err), err)
	}
	return ok(windows.RenderAppNames(names))
}

func (ts *toolset) appWindows(ctx context.Context, args Args) Result {
	app := args.String("app_name")
	ws, err := ts.Windows.AppWindows(ctx, app)
	if err != nil {
		return failed(report.Failure("get apps with name", err), err)
	}
	return ok(windows.RenderAppWindows(app, ws))
}

func (ts *toolset) windowsAt(ctx context.Context, args Args) Result {
	x, y := args.Int("x"), args.Int("y")
	ws, err := ts.Windows.At(ctx, x, y)
	if err != nil {
		return failed(report.Failure("get windows at position", err), err)
	}
	return ok(windows.RenderAt(x, y, ws))
}

func (ts *toolset) windowDetails(ctx context.Context, args Args) Result {
	pattern := args.String("title_pattern")
	det, err := ts.Windows.Details(ctx, pattern)
	if errors.Is(err, windows.ErrNoMatch) {
		return failed(windows.NoMatch(pattern), err)
	}
	if err != nil {
		return failed(report.Failure("get window details", err), err)
	}
	return ok(windows.RenderDetails(det))
}
