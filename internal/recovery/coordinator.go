package recovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/otto-cli/internal/action"
	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/report"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"go.uber.org/zap"
)

// State is a step of a recovery attempt. Attempts move strictly forward
// through Idle, ObservingBefore, Acting, ObservingAfter and Reported; a
// failure jumps straight to Reported.
type State string

const (
	Idle            State = "idle"
	ObservingBefore State = "observing_before"
	Acting          State = "acting"
	ObservingAfter  State = "observing_after"
	Reported        State = "reported"
)

// Attempt is the record of one strategy run. Report is always set.
type Attempt struct {
	Strategy string
	Action   action.Descriptor
	Outcome  action.Outcome
	Trace    []State
	Report   string
}

// Succeeded reports whether the remedial action ran and was observed.
func (a Attempt) Succeeded() bool { return a.Outcome.Succeeded() }

// Coordinator runs recovery strategies through the action executor's
// primitives.
type Coordinator struct {
	exec     *action.Executor
	observer *screen.Observer
	sleeper  desktop.Sleeper
	cfg      config.DesktopConfig
	logger   *zap.Logger
}

// NewCoordinator shares exec's observer, sleeper and configuration.
func NewCoordinator(exec *action.Executor, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		exec:     exec,
		observer: exec.Observer(),
		sleeper:  exec.Sleeper(),
		cfg:      exec.Config(),
		logger:   logger.Named("recovery_coordinator"),
	}
}

// Attempt runs s once. It never returns an error; failures are described in
// the returned Attempt's Report.
func (c *Coordinator) Attempt(ctx context.Context, s Strategy) Attempt {
	p := s.plan(c.cfg)
	att := Attempt{Strategy: s.Name(), Action: p.act, Trace: []State{Idle}}
	log := c.logger.With(zap.String("strategy", s.Name()))
	if p.act != nil {
		log = log.With(zap.String("action", p.act.String()))
	}
	log.Info("Attempting recovery.")

	att.Trace = append(att.Trace, ObservingBefore)
	obs, err := c.observer.Bracket(ctx, func(ctx context.Context) error {
		att.Trace = append(att.Trace, Acting)
		if p.delay > 0 {
			log.Info("Waiting before retrying.", zap.Duration("delay", p.delay))
			if err := c.sleeper.Sleep(ctx, p.delay); err != nil {
				return err
			}
		}
		return c.exec.Dispatch(ctx, p.act)
	}, c.cfg.Timing.RecoverySettle)
	if err == nil {
		att.Trace = append(att.Trace, ObservingAfter)
	}
	att.Outcome = action.NewOutcome(obs, err)
	att.Trace = append(att.Trace, Reported)

	if err != nil {
		log.Error("Recovery attempt failed.",
			zap.String("error_code", string(action.ClassifyError(err))),
			zap.Error(err))
		att.Report = report.Failure(s.failureVerb(), err)
		return att
	}

	out, err := report.Observed(p.intro, obs.Before, p.outro, obs.After)
	if err != nil {
		log.Error("Could not encode recovery screenshots.", zap.Error(err))
		att.Outcome = action.NewOutcome(obs, err)
		att.Report = report.Failure(s.failureVerb(), err)
		return att
	}
	att.Report = out
	return att
}

// rejected builds the attempt for arguments that never reach the desktop.
func rejected(name string, err error, message string) Attempt {
	return Attempt{
		Strategy: name,
		Outcome:  action.Outcome{Kind: action.Failed, Reason: message, Err: err},
		Trace:    []State{Idle, Reported},
		Report:   message,
	}
}

// TryAlternate parses the substitute action and runs Alternate. A malformed
// click position or an unknown action type is reported without touching the
// screen or input devices.
func (c *Coordinator) TryAlternate(ctx context.Context, actionType, original, params string) Attempt {
	d, err := action.Parse(actionType, params)
	if err != nil {
		return rejected(Alternate{}.Name(), err, argumentMessage(err, actionType, "Could not parse alternate click coordinates: "+params))
	}
	return c.Attempt(ctx, Alternate{Original: original, Substitute: d})
}

// Retry parses the action and runs RetryWithDelay. delaySeconds may be
// fractional; negative values are clamped to zero.
func (c *Coordinator) Retry(ctx context.Context, actionType, params string, delaySeconds float64) Attempt {
	d, err := action.Parse(actionType, params)
	if err != nil {
		return rejected(RetryWithDelay{}.Name(), err, argumentMessage(err, actionType, "Could not parse click coordinates: "+params))
	}
	return c.Attempt(ctx, RetryWithDelay{Action: d, Delay: Seconds(delaySeconds)})
}

// Undo runs the Undo strategy.
func (c *Coordinator) Undo(ctx context.Context) Attempt {
	return c.Attempt(ctx, Undo{})
}

// Navigate runs NavigateBack with method.
func (c *Coordinator) Navigate(ctx context.Context, method string) Attempt {
	return c.Attempt(ctx, NavigateBack{Method: NavigateMethod(method)})
}

func argumentMessage(err error, actionType, badCoordinates string) string {
	if errors.Is(err, action.ErrUnknownActionType) {
		return fmt.Sprintf("Unknown action type: %s", actionType)
	}
	return badCoordinates
}
