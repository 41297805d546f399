// Package x11 drives an EWMH-compliant X11 window manager over the X
// protocol. It is pure Go and needs no external binaries.
package x11

import (
	"errors"
	"fmt"

	"github.com/robotn/xgb/xproto"
	"github.com/robotn/xgbutil"
	"github.com/robotn/xgbutil/ewmh"
	"github.com/robotn/xgbutil/icccm"
	"github.com/robotn/xgbutil/xwindow"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
)

// Display is the set of X requests the window backend issues.
type Display interface {
	Clients() ([]xproto.Window, error)
	ActiveWindow() (xproto.Window, error)
	Title(win xproto.Window) (string, error)
	PID(win xproto.Window) (int, error)
	// Geometry is the frame rectangle in root coordinates.
	Geometry(win xproto.Window) (desktop.Rect, error)
	States(win xproto.Window) ([]string, error)
	// Viewable fails once the window no longer exists.
	Viewable(win xproto.Window) (bool, error)

	RequestActive(win xproto.Window) error
	Iconify(win xproto.Window) error
	// ChangeState adds or removes up to two _NET_WM_STATE atoms; second may be empty.
	ChangeState(win xproto.Window, action int, first, second string) error
	Move(win xproto.Window, x, y int) error
	Resize(win xproto.Window, width, height int) error
	RequestClose(win xproto.Window) error
	Map(win xproto.Window) error
	Unmap(win xproto.Window) error
	Close()
}

// conn is the Display backed by a live X connection.
type conn struct {
	xu *xgbutil.XUtil
}

// Connect opens the display named by $DISPLAY.
func Connect() (Display, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	return &conn{xu: xu}, nil
}

func (c *conn) Clients() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.xu)
}

func (c *conn) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.xu)
}

func (c *conn) Title(win xproto.Window) (string, error) {
	if name, err := ewmh.WmNameGet(c.xu, win); err == nil && name != "" {
		return name, nil
	}
	return icccm.WmNameGet(c.xu, win)
}

func (c *conn) PID(win xproto.Window) (int, error) {
	pid, err := ewmh.WmPidGet(c.xu, win)
	return int(pid), err
}

func (c *conn) Geometry(win xproto.Window) (desktop.Rect, error) {
	r, err := xwindow.New(c.xu, win).DecorGeometry()
	if err != nil {
		return desktop.Rect{}, err
	}
	return desktop.Rect{Left: r.X(), Top: r.Y(), Width: r.Width(), Height: r.Height()}, nil
}

func (c *conn) States(win xproto.Window) ([]string, error) {
	return ewmh.WmStateGet(c.xu, win)
}

func (c *conn) Viewable(win xproto.Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.xu.Conn(), win).Reply()
	if err != nil {
		return false, err
	}
	if attrs == nil {
		return false, errors.New("no attributes returned")
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

func (c *conn) RequestActive(win xproto.Window) error {
	return ewmh.ActiveWindowReq(c.xu, win)
}

// Iconify sends the ICCCM WM_CHANGE_STATE request, which EWMH window
// managers honour as minimize.
func (c *conn) Iconify(win xproto.Window) error {
	return ewmh.ClientEvent(c.xu, win, "WM_CHANGE_STATE", icccm.StateIconic)
}

func (c *conn) ChangeState(win xproto.Window, action int, first, second string) error {
	return ewmh.WmStateReqExtra(c.xu, win, action, first, second, 2)
}

func (c *conn) Move(win xproto.Window, x, y int) error {
	return ewmh.MoveWindow(c.xu, win, x, y)
}

func (c *conn) Resize(win xproto.Window, width, height int) error {
	return ewmh.ResizeWindow(c.xu, win, width, height)
}

func (c *conn) RequestClose(win xproto.Window) error {
	return ewmh.CloseWindow(c.xu, win)
}

func (c *conn) Map(win xproto.Window) error {
	return xproto.MapWindowChecked(c.xu.Conn(), win).Check()
}

func (c *conn) Unmap(win xproto.Window) error {
	return xproto.UnmapWindowChecked(c.xu.Conn(), win).Check()
}

func (c *conn) Close() {
	c.xu.Conn().Close()
}
