// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/desktop"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Desktop() config.DesktopConfig {
	args := m.Called()
	return args.Get(0).(config.DesktopConfig)
}

func (m *MockConfig) Server() config.ServerConfig {
	args := m.Called()
	return args.Get(0).(config.ServerConfig)
}

func (m *MockConfig) Journal() config.JournalConfig {
	args := m.Called()
	return args.Get(0).(config.JournalConfig)
}

func (m *MockConfig) Agent() config.AgentConfig {
	args := m.Called()
	return args.Get(0).(config.AgentConfig)
}

// -- Desktop Mocks --

// MockInput mocks desktop.Input.
type MockInput struct {
	mock.Mock
}

var _ desktop.Input = (*MockInput)(nil)

func (m *MockInput) Click(ctx context.Context, x, y int, button desktop.MouseButton) error {
	args := m.Called(ctx, x, y, button)
	return args.Error(0)
}

func (m *MockInput) TypeText(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

// KeyTap records modifiers as a single []string argument so expectations can
// match the whole chord.
func (m *MockInput) KeyTap(ctx context.Context, key string, modifiers ...string) error {
	args := m.Called(ctx, key, modifiers)
	return args.Error(0)
}

func (m *MockInput) PointerPosition(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

// MockScreen mocks desktop.Screen.
type MockScreen struct {
	mock.Mock
}

var _ desktop.Screen = (*MockScreen)(nil)

func (m *MockScreen) Size(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockScreen) Capture(ctx context.Context, region *desktop.Rect) (image.Image, error) {
	args := m.Called(ctx, region)
	img, _ := args.Get(0).(image.Image)
	return img, args.Error(1)
}

// MockWindowSystem mocks desktop.WindowSystem.
type MockWindowSystem struct {
	mock.Mock
}

var _ desktop.WindowSystem = (*MockWindowSystem)(nil)

func (m *MockWindowSystem) Windows(ctx context.Context) ([]desktop.Window, error) {
	args := m.Called(ctx)
	ws, _ := args.Get(0).([]desktop.Window)
	return ws, args.Error(1)
}

func (m *MockWindowSystem) Activate(ctx context.Context, w desktop.Window) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWindowSystem) Minimize(ctx context.Context, w desktop.Window) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWindowSystem) Maximize(ctx context.Context, w desktop.Window) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWindowSystem) Restore(ctx context.Context, w desktop.Window) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWindowSystem) Close(ctx context.Context, w desktop.Window) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWindowSystem) Resize(ctx context.Context, w desktop.Window, width, height int) error {
	return m.Called(ctx, w, width, height).Error(0)
}

func (m *MockWindowSystem) Move(ctx context.Context, w desktop.Window, x, y int) error {
	return m.Called(ctx, w, x, y).Error(0)
}

func (m *MockWindowSystem) Hide(ctx context.Context, w desktop.Window) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWindowSystem) Show(ctx context.Context, w desktop.Window) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWindowSystem) SetAlwaysOnTop(ctx context.Context, w desktop.Window, onTop bool) error {
	return m.Called(ctx, w, onTop).Error(0)
}

func (m *MockWindowSystem) ProcessID(ctx context.Context, w desktop.Window) (int, error) {
	args := m.Called(ctx, w)
	return args.Int(0), args.Error(1)
}

func (m *MockWindowSystem) NativeHandle(ctx context.Context, w desktop.Window) (int, error) {
	args := m.Called(ctx, w)
	return args.Int(0), args.Error(1)
}

func (m *MockWindowSystem) IsAlive(ctx context.Context, w desktop.Window) (bool, error) {
	args := m.Called(ctx, w)
	return args.Bool(0), args.Error(1)
}

// -- Sleeper --

// RecordingSleeper returns immediately and remembers every requested delay,
// so settle timing can be asserted without waiting on the wall clock.
type RecordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	// OnSleep, if set, runs inside every Sleep call before it returns.
	OnSleep func(d time.Duration)
	Err     error
}

var _ desktop.Sleeper = (*RecordingSleeper)(nil)

func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	hook := s.OnSleep
	s.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	if s.Err != nil {
		return s.Err
	}
	return ctx.Err()
}

// Delays returns a copy of the recorded delays, oldest first.
func (s *RecordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// Total is the sum of all recorded delays.
func (s *RecordingSleeper) Total() time.Duration {
	var total time.Duration
	for _, d := range s.Delays() {
		total += d
	}
	return total
}

// -- Images --

// SolidImage returns a w x h image filled with c.
func SolidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// GradientImage returns a horizontal black-to-white gradient, which has a
// spread-out histogram unlike SolidImage.
func GradientImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if w > 1 {
				v = uint8(x * 255 / (w - 1))
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}
