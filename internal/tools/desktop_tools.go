package tools

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/otto-cli/internal/action"
	"github.com/xkilldash9x/otto-cli/internal/report"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"go.uber.org/zap"
)

func (ts *toolset) registerDesktop(r *Registry) {
	r.Register(Tool{
		Name:        "open_application",
		Description: "Open a desktop application through the system launcher.",
		Params:      []Param{str("app_name", "Name of the application to open.", true)},
	}, ts.openApplication)

	r.Register(Tool{
		Name:        "click_at_position",
		Description: "Click at specific screen coordinates or on a described interface element.",
		Params: []Param{
			integer("x", "X coordinate.", false),
			integer("y", "Y coordinate.", false),
			str("element", "Description of the UI element to click, e.g. 'File menu'.", false),
		},
	}, ts.clickAtPosition)

	r.Register(Tool{
		Name:        "type_text",
		Description: "Type text using the keyboard.",
		Params:      []Param{str("text", "The text to type.", true)},
	}, ts.typeText)

	r.Register(Tool{
		Name:        "press_key",
		Description: "Press a keyboard key or key combination, e.g. 'enter' or 'ctrl+s'.",
		Params:      []Param{str("key", "Key or key combination to press.", true)},
	}, ts.pressKey)

	r.Register(Tool{
		Name:        "get_screen_info",
		Description: "Get the screen resolution and the current mouse position.",
	}, ts.screenInfo)

	r.Register(Tool{
		Name:        "capture_screen",
		Description: "Capture the screen or a region of it.",
		Params: []Param{
			str("region", "Optional region as 'left,top,width,height', e.g. '0,0,800,600'.", false),
			{Name: "description", Type: TypeBoolean, Description: "Ask for a description of the screen.", Default: true},
		},
	}, ts.captureScreen)

	r.Register(Tool{
		Name:        "compare_screenshots",
		Description: "Compare two screenshots (data URIs) by grayscale histogram correlation to judge whether the screen changed.",
		Params: []Param{
			str("before", "First screenshot as a data:image/png;base64 URI.", true),
			str("after", "Second screenshot as a data:image/png;base64 URI.", true),
			{Name: "threshold", Type: TypeNumber, Description: "Correlation at or above which the screenshots count as similar."},
		},
	}, ts.compareScreenshots)
}

// observed renders an executed action's outcome.
func observed(verb string, out action.Outcome, intro, outro string) Result {
	if !out.Succeeded() {
		return failed(report.Failure(verb, out.Err), out.Err)
	}
	s, err := report.Observed(intro, out.Before, outro, out.After)
	if err != nil {
		return failed(report.Failure(verb, err), err)
	}
	return ok(s)
}

func (ts *toolset) openApplication(ctx context.Context, args Args) Result {
	name := args.String("app_name")
	out := ts.Executor.Execute(ctx, action.LaunchApp{Name: name})
	return observed("open application", out,
		fmt.Sprintf("I'm about to open %s. Here's what I see on the screen first:", name),
		fmt.Sprintf("After attempting to open %s, here's what I see now:", name))
}

func (ts *toolset) clickAtPosition(ctx context.Context, args Args) Result {
	switch {
	case args.Has("x") && args.Has("y"):
		x, y := args.Int("x"), args.Int("y")
		out := ts.Executor.Execute(ctx, action.Click{X: x, Y: y})
		return observed("click", out,
			fmt.Sprintf("I'm about to click at position (%d, %d). Here's what I see on the screen first:", x, y),
			fmt.Sprintf("After clicking at position (%d, %d), here's what I see now:", x, y))
	case args.Has("element"):
		return ts.clickElement(ctx, args.String("element"))
	default:
		return failed("No position or element specified", fmt.Errorf("%w: no position or element", action.ErrInvalidParameters))
	}
}

// clickElement narrates a locate attempt. There is no element locator, so
// nothing is clicked; the caller sees the screen and can retry with
// coordinates.
func (ts *toolset) clickElement(ctx context.Context, element string) Result {
	ts.logger.Info("No element locator available, observing only.", zap.String("element", element))
	settle := ts.Executor.Config().Timing.ActionSettle
	obs, err := ts.observer.Bracket(ctx, func(context.Context) error { return nil }, settle)
	return observed("click", action.NewOutcome(obs, err),
		fmt.Sprintf("I'm trying to find and click on the element: %s. Here's what I see on the screen first:", element),
		fmt.Sprintf("After attempting to click on %s, here's what I see now:", element))
}

func (ts *toolset) typeText(ctx context.Context, args Args) Result {
	text := args.String("text")
	if text == "" {
		return failed("No text specified", fmt.Errorf("%w: empty text", action.ErrInvalidParameters))
	}
	out := ts.Executor.Execute(ctx, action.Type{Text: text})
	return observed("type text", out,
		fmt.Sprintf("I'm about to type: '%s'. Here's what I see on the screen first:", text),
		fmt.Sprintf("After typing '%s', here's what I see now:", text))
}

func (ts *toolset) pressKey(ctx context.Context, args Args) Result {
	key := args.String("key")
	if key == "" {
		return failed("No key specified", fmt.Errorf("%w: empty key", action.ErrInvalidParameters))
	}
	out := ts.Executor.Execute(ctx, action.KeyPress{Combo: key})
	return observed("press key", out,
		fmt.Sprintf("I'm about to press: '%s'. Here's what I see on the screen first:", key),
		fmt.Sprintf("After pressing '%s', here's what I see now:", key))
}

func (ts *toolset) screenInfo(ctx context.Context, _ Args) Result {
	w, h, err := ts.observer.Size(ctx)
	if err != nil {
		return failed(report.Failure("get screen info", err), err)
	}
	x, y, err := ts.Input.PointerPosition(ctx)
	if err != nil {
		return failed(report.Failure("get screen info", err), err)
	}
	ts.logger.Debug("Screen info.", zap.Int("width", w), zap.Int("height", h), zap.Int("mouse_x", x), zap.Int("mouse_y", y))
	return ok(fmt.Sprintf("Screen resolution: %dx%d, Mouse position: (%d, %d)", w, h, x, y))
}

func (ts *toolset) captureScreen(ctx context.Context, args Args) Result {
	region := args.String("region")
	capture, err := ts.observer.CaptureSpec(ctx, region)
	if err != nil {
		return failed(report.Failure("capture screen", err), err)
	}
	uri, err := capture.Snapshot.DataURI()
	if err != nil {
		return failed(report.Failure("capture screen", err), err)
	}
	out := uri
	if capture.FellBack() {
		out += fmt.Sprintf("\nCould not capture region '%s' (%v), captured the full screen instead.", region, capture.Fallback)
	}
	if args.Bool("description") {
		out += "\nPlease describe what you see on this screen."
	}
	return ok(out)
}

func (ts *toolset) compareScreenshots(_ context.Context, args Args) Result {
	threshold := ts.SimilarityThreshold
	if args.Has("threshold") {
		threshold = args.Float("threshold")
	}
	if threshold < 0 || threshold > 1 {
		return failed(fmt.Sprintf("Threshold must be between 0 and 1, got %v", threshold),
			fmt.Errorf("%w: threshold %v", action.ErrInvalidParameters, threshold))
	}

	score, err := screen.CorrelationDataURI(args.String("before"), args.String("after"))
	if err != nil {
		// Undecodable screenshots are never similar.
		return ok(fmt.Sprintf("Screenshots are not similar: could not decode them (%v).", err))
	}
	if score >= threshold {
		return ok(fmt.Sprintf("Screenshots are similar (correlation %.4f, threshold %.2f).", score, threshold))
	}
	return ok(fmt.Sprintf("Screenshots differ (correlation %.4f, threshold %.2f).", score, threshold))
}
