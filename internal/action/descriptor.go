// Package action performs single primitive UI actions against the desktop
// and reports what the screen looked like on either side of them.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownActionType is returned for action types outside click, type, open and key.
	ErrUnknownActionType = errors.New("unknown action type")
	// ErrInvalidParameters is returned when parameters cannot be parsed for their action type.
	ErrInvalidParameters = errors.New("invalid action parameters")
)

// Kind names a primitive action. The string values are the action_type
// names callers pass in.
type Kind string

const (
	KindClick  Kind = "click"
	KindType   Kind = "type"
	KindLaunch Kind = "open"
	KindKey    Kind = "key"
)

// ParseKind matches an action type case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindClick, KindType, KindLaunch, KindKey:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownActionType, s)
	}
}

// Descriptor is a request to perform one primitive action. The set of
// implementations is closed: Click, Type, KeyPress and LaunchApp.
type Descriptor interface {
	Kind() Kind
	String() string
	descriptor()
}

// Click presses the left button at a screen position.
type Click struct {
	X, Y int
}

// Type sends literal text as keystrokes.
type Type struct {
	Text string
}

// KeyPress presses a single key, or a chord when Combo contains "+".
type KeyPress struct {
	Combo string
}

// LaunchApp opens an application through the OS launcher.
type LaunchApp struct {
	Name string
}

func (Click) Kind() Kind     { return KindClick }
func (Type) Kind() Kind      { return KindType }
func (KeyPress) Kind() Kind  { return KindKey }
func (LaunchApp) Kind() Kind { return KindLaunch }

func (c Click) String() string     { return fmt.Sprintf("click at (%d, %d)", c.X, c.Y) }
func (t Type) String() string      { return fmt.Sprintf("type %q", t.Text) }
func (k KeyPress) String() string  { return fmt.Sprintf("press %q", k.Combo) }
func (l LaunchApp) String() string { return fmt.Sprintf("open %q", l.Name) }

func (Click) descriptor()     {}
func (Type) descriptor()      {}
func (KeyPress) descriptor()  {}
func (LaunchApp) descriptor() {}

// Parse builds a descriptor from an action type and its single string
// parameter. Click parameters must be "x,y".
func Parse(actionType, params string) (Descriptor, error) {
	kind, err := ParseKind(actionType)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindClick:
		x, y, err := ParseCoordinates(params)
		if err != nil {
			return nil, err
		}
		return Click{X: x, Y: y}, nil
	case KindType:
		return Type{Text: params}, nil
	case KindKey:
		return KeyPress{Combo: params}, nil
	case KindLaunch:
		return LaunchApp{Name: params}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownActionType, actionType)
}

// ParseCoordinates parses "x,y" into integers.
func ParseCoordinates(s string) (int, int, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("%w: expected \"x,y\", got %q", ErrInvalidParameters, s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: x coordinate %q", ErrInvalidParameters, strings.TrimSpace(xs))
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: y coordinate %q", ErrInvalidParameters, strings.TrimSpace(ys))
	}
	return x, y, nil
}
