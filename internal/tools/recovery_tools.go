package tools

import (
	"context"

	"github.com/xkilldash9x/otto-cli/internal/recovery"
)

func (ts *toolset) registerRecovery(r *Registry) {
	retryDelay := ts.Executor.Config().Timing.DefaultRetryDelay

	r.Register(Tool{
		Name:        "undo_last_action",
		Description: "Undo the last action with the platform undo shortcut.",
	}, ts.undo)

	r.Register(Tool{
		Name:        "try_alternate_action",
		Description: "Try an alternative approach when the original action did not work.",
		Params: []Param{
			str("action_type", "Type of action: 'click', 'type', 'open' or 'key'.", true),
			str("original_params", "Description of the original parameters that failed.", true),
			str("alternate_params", "New parameters to try. Clicks take 'x,y'.", true),
		},
	}, ts.tryAlternate)

	r.Register(Tool{
		Name:        "navigate_to_previous_state",
		Description: "Navigate back to a previous state: 'back', 'alt+tab', 'esc' or 'cancel'.",
		Params: []Param{
			{Name: "method", Type: TypeString, Description: "Navigation method.", Default: string(recovery.NavigateBackMethod)},
		},
	}, ts.navigate)

	r.Register(Tool{
		Name:        "retry_with_delay",
		Description: "Retry an action after waiting, for when the system is slow to respond.",
		Params: []Param{
			str("action_type", "Type of action: 'click', 'type', 'open' or 'key'.", true),
			str("params", "Parameters for the action. Clicks take 'x,y'.", true),
			{Name: "delay_seconds", Type: TypeNumber, Description: "Seconds to wait before retrying.", Default: retryDelay.Seconds()},
		},
	}, ts.retry)
}

func attempted(att recovery.Attempt) Result {
	if !att.Succeeded() {
		return failed(att.Report, att.Outcome.Err)
	}
	return ok(att.Report)
}

func (ts *toolset) undo(ctx context.Context, _ Args) Result {
	return attempted(ts.Recovery.Undo(ctx))
}

func (ts *toolset) tryAlternate(ctx context.Context, args Args) Result {
	return attempted(ts.Recovery.TryAlternate(ctx,
		args.String("action_type"), args.String("original_params"), args.String("alternate_params")))
}

func (ts *toolset) navigate(ctx context.Context, args Args) Result {
	return attempted(ts.Recovery.Navigate(ctx, args.String("method")))
}

func (ts *toolset) retry(ctx context.Context, args Args) Result {
	return attempted(ts.Recovery.Retry(ctx,
		args.String("action_type"), args.String("params"), args.Float("delay_seconds")))
}
