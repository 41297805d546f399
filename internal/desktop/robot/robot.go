// Package robot holds the cgo-backed desktop adapters: robotgo for input,
// capture and process-addressed windows, and gohook for the global pointer
// watcher. Only the command layer imports it, so every other package builds
// and tests without a display or X11 headers.
package robot

import (
	"context"
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
)

// Input injects events through robotgo.
type Input struct{}

var _ desktop.Input = Input{}

func (Input) Click(ctx context.Context, x, y int, button desktop.MouseButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.Move(x, y)
	robotgo.Click(string(button), false)
	return nil
}

func (Input) TypeText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.TypeStr(text)
	return nil
}

func (Input) KeyTap(ctx context.Context, key string, modifiers ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mods := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		mods[i] = m
	}
	if err := robotgo.KeyTap(key, mods...); err != nil {
		return fmt.Errorf("key tap %q: %w", key, err)
	}
	return nil
}

func (Input) PointerPosition(ctx context.Context) (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}

// Screen captures through robotgo.
type Screen struct{}

var _ desktop.Screen = Screen{}

func (Screen) Size(ctx context.Context) (int, int, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("screen size unavailable (%dx%d)", w, h)
	}
	return w, h, nil
}

func (Screen) Capture(ctx context.Context, region *desktop.Rect) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		img image.Image
		err error
	)
	if region == nil {
		img, err = robotgo.CaptureImg()
	} else {
		img, err = robotgo.CaptureImg(region.Left, region.Top, region.Width, region.Height)
	}
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("capture screen: backend returned no image")
	}
	return img, nil
}
