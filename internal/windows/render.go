package windows

import (
	"fmt"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/report"
)

const notAvailable = "Not available"

// DisplayTitle is the title as shown in reports.
func DisplayTitle(w desktop.Window) string {
	if w.Title == "" {
		return "No Title"
	}
	return w.Title
}

func displayApp(w desktop.Window) string {
	if w.App == "" {
		return "Unknown"
	}
	return w.App
}

func geometry(w desktop.Window) string {
	return fmt.Sprintf("Position: (%d, %d), Size: %dx%d", w.Box.Left, w.Box.Top, w.Box.Width, w.Box.Height)
}

func status(w desktop.Window) string {
	state := report.YesNo(w.Minimized, "Minimized", "Normal")
	if w.StateUnknown {
		state = "State unknown"
	}
	return report.YesNo(w.Visible, "Visible", "Hidden") + ", " + state
}

// stateFlag renders a minimized or maximized flag, or "Not available" when
// the backend cannot read it.
func stateFlag(w desktop.Window, v bool) string {
	if w.StateUnknown {
		return notAvailable
	}
	return truth(v)
}

// NoMatch is the report for a title pattern that resolved to nothing.
func NoMatch(pattern string) string {
	return fmt.Sprintf("No windows found matching title pattern: '%s'", pattern)
}

func entries(ws []desktop.Window, line func(i int, w desktop.Window) string) []string {
	out := make([]string, 0, len(ws))
	for i, w := range ws {
		out = append(out, line(i+1, w))
	}
	return out
}

// RenderList renders the open-window listing.
func RenderList(ws []desktop.Window) string {
	if len(ws) == 0 {
		return "No open windows found."
	}
	return report.Listing("Open Windows:", 50, entries(ws, func(i int, w desktop.Window) string {
		return fmt.Sprintf("%d. %s\n   Status: %s\n   %s\n   Process: %s\n\n", i, DisplayTitle(w), status(w), geometry(w), displayApp(w))
	}))
}

// RenderActive renders the focused window, if any.
func RenderActive(w desktop.Window, ok bool) string {
	if !ok {
		return "No active window found."
	}
	return report.Listing("Active Window Information:", 30, []string{fmt.Sprintf(
		"Title: %s\nStatus: %s\n%s\nProcess: %s\n", DisplayTitle(w), status(w), geometry(w), displayApp(w))})
}

// RenderMatches renders the windows found for a title pattern.
func RenderMatches(pattern string, ws []desktop.Window) string {
	if len(ws) == 0 {
		return NoMatch(pattern)
	}
	return report.Listing(fmt.Sprintf("Windows matching '%s':", pattern), 50, entries(ws, func(i int, w desktop.Window) string {
		return fmt.Sprintf("%d. %s\n   Status: %s\n   %s\n   Process: %s\n\n", i, DisplayTitle(w), status(w), geometry(w), displayApp(w))
	}))
}

// RenderAppNames renders the running application names.
func RenderAppNames(names []string) string {
	if len(names) == 0 {
		return "No running applications found."
	}
	lines := make([]string, 0, len(names))
	for i, n := range names {
		lines = append(lines, fmt.Sprintf("%d. %s\n", i+1, n))
	}
	return report.Listing("Running Applications:", 30, lines)
}

// RenderAppWindows renders the windows owned by one application.
func RenderAppWindows(app string, ws []desktop.Window) string {
	if len(ws) == 0 {
		return fmt.Sprintf("No windows found for application: '%s'", app)
	}
	return report.Listing(fmt.Sprintf("Windows for '%s':", app), 40, entries(ws, func(i int, w desktop.Window) string {
		return fmt.Sprintf("%d. %s\n   Status: %s, %s\n   %s\n\n", i, DisplayTitle(w), status(w), report.YesNo(w.Active, "Active", "Inactive"), geometry(w))
	}))
}

// RenderAt renders the windows under a screen position.
func RenderAt(x, y int, ws []desktop.Window) string {
	if len(ws) == 0 {
		return fmt.Sprintf("No windows found at position (%d, %d)", x, y)
	}
	return report.Listing(fmt.Sprintf("Windows at position (%d, %d):", x, y), 40, entries(ws, func(i int, w desktop.Window) string {
		return fmt.Sprintf("%d. %s\n   Status: %s, %s\n   %s\n   App: %s\n\n", i, DisplayTitle(w),
			report.YesNo(w.Visible, "Visible", "Hidden"), report.YesNo(w.Active, "Active", "Inactive"), geometry(w), displayApp(w))
	}))
}

func truth(v bool) string { return report.YesNo(v, "True", "False") }

// RenderDetails renders one window's details. Probes that failed read
// "Not available".
func RenderDetails(det Details) string {
	w := det.Window
	cx, cy := w.Box.Center()
	alive, pid, handle := notAvailable, notAvailable, notAvailable
	if det.AliveErr == nil {
		alive = truth(det.Alive)
	}
	if det.PIDErr == nil {
		pid = fmt.Sprint(det.PID)
	}
	if det.HandleErr == nil {
		handle = fmt.Sprint(det.Handle)
	}
	return report.Listing("Window Details:", 30, []string{
		fmt.Sprintf("Title: %s\n", DisplayTitle(w)),
		fmt.Sprintf("App Name: %s\n", displayApp(w)),
		fmt.Sprintf("Visible: %s\n", truth(w.Visible)),
		fmt.Sprintf("Active: %s\n", truth(w.Active)),
		fmt.Sprintf("Minimized: %s\n", stateFlag(w, w.Minimized)),
		fmt.Sprintf("Maximized: %s\n", stateFlag(w, w.Maximized)),
		fmt.Sprintf("Alive: %s\n", alive),
		fmt.Sprintf("Position: (%d, %d)\n", w.Box.Left, w.Box.Top),
		fmt.Sprintf("Size: %d x %d\n", w.Box.Width, w.Box.Height),
		fmt.Sprintf("Center: (%d, %d)\n", cx, cy),
		fmt.Sprintf("PID: %s\n", pid),
		fmt.Sprintf("Handle: %s\n", handle),
	})
}

// Narration is the before and after sentence pair of a window change report.
type Narration struct {
	Intro, Outro string
}

func simple(gerund, title string) Narration {
	return Narration{
		Intro: fmt.Sprintf("I'm %s the window: '%s'. Here's what I see before:", gerund, title),
		Outro: fmt.Sprintf("After %s '%s', here's what I see now:", gerund, title),
	}
}

func ActivateNarration(title string) Narration { return simple("activating", title) }
func MinimizeNarration(title string) Narration { return simple("minimizing", title) }
func MaximizeNarration(title string) Narration { return simple("maximizing", title) }
func CloseNarration(title string) Narration    { return simple("closing", title) }
func HideNarration(title string) Narration     { return simple("hiding", title) }
func ShowNarration(title string) Narration     { return simple("showing", title) }

func RestoreNarration(title string) Narration {
	return Narration{
		Intro: fmt.Sprintf("I'm restoring the window: '%s' to normal size. Here's what I see before:", title),
		Outro: fmt.Sprintf("After restoring '%s', here's what I see now:", title),
	}
}

func ResizeNarration(title string, width, height int) Narration {
	return Narration{
		Intro: fmt.Sprintf("I'm resizing window '%s' to %dx%d. Here's what I see before:", title, width, height),
		Outro: fmt.Sprintf("After resizing '%s', here's what I see now:", title),
	}
}

func MoveNarration(title string, x, y int) Narration {
	return Narration{
		Intro: fmt.Sprintf("I'm moving window '%s' to position (%d, %d). Here's what I see before:", title, x, y),
		Outro: fmt.Sprintf("After moving '%s', here's what I see now:", title),
	}
}

func AlwaysOnTopNarration(title string, onTop bool) Narration {
	state := report.YesNo(onTop, "on top", "normal")
	return Narration{
		Intro: fmt.Sprintf("I'm setting window '%s' to %s. Here's what I see before:", title, state),
		Outro: fmt.Sprintf("After setting '%s' to %s, here's what I see now:", title, state),
	}
}

// Render encodes the change's snapshots into a paired report.
func (c Change) Render(n Narration) (string, error) {
	return report.Observed(n.Intro, c.Observation.Before, n.Outro, c.Observation.After)
}
