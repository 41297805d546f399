// Package recovery holds the remedial operations an agent can invoke after
// it believes an action did not have the intended effect. Each strategy is a
// single observed attempt; choosing and escalating between strategies is
// left to the caller.
package recovery

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/otto-cli/internal/action"
	"github.com/xkilldash9x/otto-cli/internal/config"
)

// Strategy is one of Undo, Alternate, NavigateBack or RetryWithDelay.
type Strategy interface {
	// Name is the stable identifier used in logs and the journal.
	Name() string
	plan(cfg config.DesktopConfig) plan
	failureVerb() string
}

// plan is what a strategy contributes to the shared observe-act-report flow.
type plan struct {
	act   action.Descriptor
	delay time.Duration
	intro string
	outro string
}

// Undo presses the platform undo chord. It does not judge success itself:
// undo often changes document content rather than pixels.
type Undo struct{}

func (Undo) Name() string        { return "undo" }
func (Undo) failureVerb() string { return "undo last action" }

func (Undo) plan(cfg config.DesktopConfig) plan {
	return plan{
		act:   action.KeyPress{Combo: cfg.UndoCombo},
		intro: "I'm attempting to undo the last action. Here's what I see on the screen first:",
		outro: "After trying to undo, here's what I see now:",
	}
}

// Alternate performs a substitute action in place of one that did not work.
// Original only describes the failed attempt for the report.
type Alternate struct {
	Original   string
	Substitute action.Descriptor
}

func (Alternate) Name() string        { return "alternate" }
func (Alternate) failureVerb() string { return "perform alternate action" }

func (a Alternate) plan(config.DesktopConfig) plan {
	var msg string
	switch d := a.Substitute.(type) {
	case action.Click:
		msg = fmt.Sprintf("Tried alternate click at position (%d, %d)", d.X, d.Y)
	case action.Type:
		msg = fmt.Sprintf("Tried typing alternate text: '%s'", d.Text)
	case action.LaunchApp:
		msg = fmt.Sprintf("Tried opening alternate application: '%s'", d.Name)
	case action.KeyPress:
		msg = fmt.Sprintf("Tried pressing alternate key: '%s'", d.Combo)
	}
	return plan{
		act: a.Substitute,
		intro: fmt.Sprintf("The original action with %s didn't work as expected.\n"+
			"I'm trying an alternative approach: %s\n\n"+
			"Before the alternate action, here's what I saw:", a.Original, msg),
		outro: "After the alternate action, here's what I see now:",
	}
}

// NavigateMethod names a navigation gesture.
type NavigateMethod string

const (
	NavigateBackMethod NavigateMethod = "back"
	NavigateSwitch     NavigateMethod = "alt+tab"
	NavigateEscape     NavigateMethod = "esc"
	// NavigateCancel presses Escape. There is no cancel-button locator.
	NavigateCancel NavigateMethod = "cancel"
)

// NavigateBack presses a fixed navigation gesture. Unrecognised methods fall
// back to Escape and say so in the report.
type NavigateBack struct {
	Method NavigateMethod
}

func (NavigateBack) Name() string        { return "navigate_back" }
func (NavigateBack) failureVerb() string { return "navigate to previous state" }

// Gesture resolves the method into the key combo pressed and the sentence
// describing it.
func (n NavigateBack) Gesture() (combo, taken string) {
	switch NavigateMethod(strings.ToLower(string(n.Method))) {
	case NavigateBackMethod:
		return "alt+left", "Pressed Alt+Left to go back"
	case NavigateSwitch:
		return "alt+tab", "Pressed Alt+Tab to switch to previous window"
	case NavigateEscape:
		return "esc", "Pressed Escape to cancel/close dialog"
	case NavigateCancel:
		return "esc", "Tried to cancel the current operation"
	default:
		return "esc", fmt.Sprintf("Unknown method '%s', pressed Escape instead", n.Method)
	}
}

func (n NavigateBack) plan(config.DesktopConfig) plan {
	combo, taken := n.Gesture()
	return plan{
		act: action.KeyPress{Combo: combo},
		intro: fmt.Sprintf("I'm attempting to navigate to the previous state using: %s.\n"+
			"Here's what I see on the screen before navigation:", taken),
		outro: "After navigation, here's what I see now:",
	}
}

// RetryWithDelay waits Delay and then performs Action again. Negative delays
// are treated as zero.
type RetryWithDelay struct {
	Action action.Descriptor
	Delay  time.Duration
}

func (RetryWithDelay) Name() string        { return "retry_with_delay" }
func (RetryWithDelay) failureVerb() string { return "retry action" }

func (r RetryWithDelay) plan(config.DesktopConfig) plan {
	delay := max(r.Delay, 0)
	secs := FormatSeconds(delay)
	var msg string
	switch d := r.Action.(type) {
	case action.Click:
		msg = fmt.Sprintf("Retried click at position (%d, %d) after %s second delay", d.X, d.Y, secs)
	case action.Type:
		msg = fmt.Sprintf("Retried typing text: '%s' after %s second delay", d.Text, secs)
	case action.LaunchApp:
		msg = fmt.Sprintf("Retried opening application: '%s' after %s second delay", d.Name, secs)
	case action.KeyPress:
		msg = fmt.Sprintf("Retried pressing key: '%s' after %s second delay", d.Combo, secs)
	}
	return plan{
		act:   r.Action,
		delay: delay,
		intro: "The previous action may have failed due to timing issues.\n" + msg + "\n\n" +
			"Before retrying, here's what I saw:",
		outro: "After retrying, here's what I see now:",
	}
}

// FormatSeconds renders a duration as a plain number of seconds: 3s is "3",
// 1.5s is "1.5".
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// Seconds converts a caller-supplied number of seconds. Negatives and NaN
// become zero; values past the range of time.Duration saturate at its
// maximum.
func Seconds(s float64) time.Duration {
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	ns := s * float64(time.Second)
	if ns >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}
