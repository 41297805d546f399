// Package desktop defines the operating-system collaborators every other
// package drives: pointer and keyboard injection, screen capture and the
// window system. The process-wide fail-safe interlock lives here too; the
// OS-backed implementations are in the robot and x11 subpackages.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

var (
	// ErrFailSafeTriggered is returned by every guarded injection once the
	// pointer has been seen in a screen corner. It stays latched for the
	// life of the process.
	ErrFailSafeTriggered = errors.New("fail-safe triggered from mouse moving to a corner of the screen")
	// ErrUnsupported marks an operation the current window system backend cannot perform.
	ErrUnsupported = errors.New("operation not supported on this platform")
	// ErrWindowNotFound is returned when no live window matches a lookup,
	// including a window that vanished between resolution and use.
	ErrWindowNotFound = errors.New("window not found")
)

// MouseButton names a pointer button.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "center"
)

// Rect is an axis-aligned rectangle in screen pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether the rectangle has a positive area.
func (r Rect) Valid() bool { return r.Width > 0 && r.Height > 0 }

// Contains reports whether (x, y) lies inside the rectangle. The right and
// bottom edges are exclusive.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Left+r.Width && y >= r.Top && y < r.Top+r.Height
}

// Center returns the midpoint, rounded toward the top-left.
func (r Rect) Center() (int, int) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.Left, r.Top, r.Width, r.Height)
}

// Window is a point-in-time view of one top-level window. It is a reference
// into OS state, not an owner of it: callers must re-resolve before every use.
type Window struct {
	// ID is the backend's identifier for the window (an X11 window id, or
	// the owning pid for backends that address windows by process).
	ID    int    `json:"id"`
	PID   int    `json:"pid,omitempty"`
	Title string `json:"title"`
	// App is the owning process name, empty when unknown.
	App       string `json:"app"`
	Box       Rect   `json:"box"`
	Visible   bool   `json:"visible"`
	Active    bool   `json:"active"`
	Minimized bool   `json:"minimized"`
	Maximized bool   `json:"maximized"`
	// StateUnknown is set by backends that cannot read minimized and
	// maximized state. Both flags are then meaningless.
	StateUnknown bool `json:"state_unknown,omitempty"`
}

// Input injects synthetic pointer and keyboard events.
type Input interface {
	// Click moves the pointer to (x, y) and presses button once.
	Click(ctx context.Context, x, y int, button MouseButton) error
	// TypeText sends text as literal keystrokes.
	TypeText(ctx context.Context, text string) error
	// KeyTap presses key while holding modifiers, then releases everything.
	KeyTap(ctx context.Context, key string, modifiers ...string) error
	// PointerPosition reports the current pointer location.
	PointerPosition(ctx context.Context) (int, int, error)
}

// Screen captures pixels.
type Screen interface {
	Size(ctx context.Context) (width, height int, err error)
	// Capture grabs the full screen when region is nil.
	Capture(ctx context.Context, region *Rect) (image.Image, error)
}

// WindowSystem enumerates and mutates top-level windows. Every method
// operates on live state; nothing is cached between calls.
type WindowSystem interface {
	// Windows lists windows in the backend's enumeration order.
	Windows(ctx context.Context) ([]Window, error)
	Activate(ctx context.Context, w Window) error
	Minimize(ctx context.Context, w Window) error
	Maximize(ctx context.Context, w Window) error
	Restore(ctx context.Context, w Window) error
	Close(ctx context.Context, w Window) error
	Resize(ctx context.Context, w Window, width, height int) error
	Move(ctx context.Context, w Window, x, y int) error
	Hide(ctx context.Context, w Window) error
	Show(ctx context.Context, w Window) error
	SetAlwaysOnTop(ctx context.Context, w Window, onTop bool) error
	ProcessID(ctx context.Context, w Window) (int, error)
	NativeHandle(ctx context.Context, w Window) (int, error)
	IsAlive(ctx context.Context, w Window) (bool, error)
}

// Sleeper blocks for a fixed real-time delay. Tests substitute a recorder.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on the wall clock and returns early with the context's
// error if ctx ends first.
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
