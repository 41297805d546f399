package windows

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/mocks"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"go.uber.org/zap/zaptest"
)

var (
	notepad = desktop.Window{
		ID: 0x3a00007, PID: 4242, Title: "Untitled - Notepad", App: "notepad",
		Box: desktop.Rect{Left: 100, Top: 80, Width: 640, Height: 480}, Visible: true, Minimized: true,
	}
	terminal = desktop.Window{
		ID: 0x1c00003, PID: 1001, Title: "Terminal", App: "xterm",
		Box: desktop.Rect{Left: 0, Top: 0, Width: 800, Height: 600}, Visible: true, Active: true,
	}
	notes = desktop.Window{
		ID: 0x3a0000b, PID: 4242, Title: "notes.txt - Notepad", App: "notepad",
		Box: desktop.Rect{Left: 700, Top: 500, Width: 300, Height: 200}, Visible: true,
	}
)

type directoryFixture struct {
	dir     *Directory
	sys     *mocks.MockWindowSystem
	screen  *mocks.MockScreen
	sleeper *mocks.RecordingSleeper
}

func newDirectoryFixture(t *testing.T, ws ...desktop.Window) *directoryFixture {
	t.Helper()
	sys := new(mocks.MockWindowSystem)
	sys.On("Windows", mock.Anything).Return(ws, nil)
	scr := new(mocks.MockScreen)
	scr.On("Capture", mock.Anything, (*desktop.Rect)(nil)).Return(mocks.SolidImage(4, 4, color.Black), nil).Once()
	scr.On("Capture", mock.Anything, (*desktop.Rect)(nil)).Return(mocks.SolidImage(4, 4, color.White), nil)
	sleeper := &mocks.RecordingSleeper{}
	logger := zaptest.NewLogger(t)
	timing := config.NewDefaultConfig().Desktop().Timing

	return &directoryFixture{
		dir:     NewDirectory(sys, screen.NewObserver(scr, sleeper, logger), sleeper, timing, logger),
		sys:     sys,
		screen:  scr,
		sleeper: sleeper,
	}
}

func TestResolveFirstMatchIgnoringCase(t *testing.T) {
	f := newDirectoryFixture(t, terminal, notepad, notes)
	ctx := context.Background()

	w, err := f.dir.Resolve(ctx, "NOTEPAD")
	require.NoError(t, err)
	assert.Equal(t, notepad, w)

	all, err := f.dir.Find(ctx, "notepad")
	require.NoError(t, err)
	if diff := cmp.Diff([]desktop.Window{notepad, notes}, all); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}

	_, err = f.dir.Resolve(ctx, "Calculator")
	assert.ErrorIs(t, err, ErrNoMatch)

	// Resolution is repeated on every call.
	f.sys.AssertNumberOfCalls(t, "Windows", 3)
}

func TestActivateRestoresMinimizedWindowFirst(t *testing.T) {
	f := newDirectoryFixture(t, terminal, notepad)
	ctx := context.Background()

	var steps []string
	f.sleeper.OnSleep = func(d time.Duration) { steps = append(steps, fmt.Sprintf("sleep %s", d)) }
	f.sys.On("Restore", ctx, notepad).Return(nil).Once().Run(func(mock.Arguments) { steps = append(steps, "restore") })
	f.sys.On("Activate", ctx, notepad).Return(nil).Once().Run(func(mock.Arguments) { steps = append(steps, "activate") })

	change, err := f.dir.Activate(ctx, "Notepad")
	require.NoError(t, err)

	assert.Equal(t, []string{"restore", "sleep 500ms", "activate", "sleep 1.5s"}, steps)
	assert.Equal(t, notepad, change.Window)

	out, err := change.Render(ActivateNarration(DisplayTitle(change.Window)))
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "I'm activating the window: 'Untitled - Notepad'. Here's what I see before:", lines[0])
	assert.Equal(t, "After activating 'Untitled - Notepad', here's what I see now:", lines[3])
	assert.NotEqual(t, lines[1], lines[4], "after snapshot should differ from before")
	f.sys.AssertExpectations(t)
}

func TestActivateVisibleWindowSkipsRestore(t *testing.T) {
	f := newDirectoryFixture(t, terminal)
	ctx := context.Background()
	f.sys.On("Activate", ctx, terminal).Return(nil).Once()

	_, err := f.dir.Activate(ctx, "term")
	require.NoError(t, err)

	f.sys.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, f.sleeper.Delays())
}

func TestActivateRestoresWindowOfUnknownState(t *testing.T) {
	calc := desktop.Window{
		ID: 311, PID: 311, Title: "Calculator", App: "calc",
		Box: desktop.Rect{Left: 10, Top: 10, Width: 200, Height: 300}, Visible: true, StateUnknown: true,
	}
	f := newDirectoryFixture(t, terminal, calc)
	ctx := context.Background()

	var steps []string
	f.sys.On("Restore", ctx, calc).Return(nil).Once().Run(func(mock.Arguments) { steps = append(steps, "restore") })
	f.sys.On("Activate", ctx, calc).Return(nil).Once().Run(func(mock.Arguments) { steps = append(steps, "activate") })

	_, err := f.dir.Activate(ctx, "calc")
	require.NoError(t, err)

	assert.Equal(t, []string{"restore", "activate"}, steps)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond}, f.sleeper.Delays())
	f.sys.AssertExpectations(t)
}

func TestMutationsOnNoMatchTouchNothing(t *testing.T) {
	ctx := context.Background()
	ops := map[string]func(*Directory) (Change, error){
		"activate": func(d *Directory) (Change, error) { return d.Activate(ctx, "ghost") },
		"minimize": func(d *Directory) (Change, error) { return d.Minimize(ctx, "ghost") },
		"maximize": func(d *Directory) (Change, error) { return d.Maximize(ctx, "ghost") },
		"close":    func(d *Directory) (Change, error) { return d.Close(ctx, "ghost") },
		"resize":   func(d *Directory) (Change, error) { return d.Resize(ctx, "ghost", 10, 10) },
		"move":     func(d *Directory) (Change, error) { return d.Move(ctx, "ghost", 1, 1) },
		"hide":     func(d *Directory) (Change, error) { return d.Hide(ctx, "ghost") },
		"show":     func(d *Directory) (Change, error) { return d.Show(ctx, "ghost") },
		"restore":  func(d *Directory) (Change, error) { return d.Restore(ctx, "ghost") },
		"on top":   func(d *Directory) (Change, error) { return d.SetAlwaysOnTop(ctx, "ghost", true) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			f := newDirectoryFixture(t, terminal, notepad)
			_, err := op(f.dir)
			assert.ErrorIs(t, err, ErrNoMatch)
			f.screen.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
			assert.Len(t, f.sys.Calls, 1, "only the window listing should reach the OS")
			assert.Empty(t, f.sleeper.Delays())
		})
	}
}

func TestMutationsDispatchToWindowSystem(t *testing.T) {
	ctx := context.Background()

	t.Run("resize", func(t *testing.T) {
		f := newDirectoryFixture(t, notes)
		f.sys.On("Resize", ctx, notes, 1024, 768).Return(nil).Once()
		c, err := f.dir.Resize(ctx, "notes", 1024, 768)
		require.NoError(t, err)
		assert.False(t, c.Observation.After.IsZero())
		f.sys.AssertExpectations(t)
	})

	t.Run("move", func(t *testing.T) {
		f := newDirectoryFixture(t, notes)
		f.sys.On("Move", ctx, notes, 5, 6).Return(nil).Once()
		_, err := f.dir.Move(ctx, "notes", 5, 6)
		require.NoError(t, err)
		f.sys.AssertExpectations(t)
	})

	t.Run("always on top", func(t *testing.T) {
		f := newDirectoryFixture(t, notes)
		f.sys.On("SetAlwaysOnTop", ctx, notes, false).Return(nil).Once()
		_, err := f.dir.SetAlwaysOnTop(ctx, "notes", false)
		require.NoError(t, err)
		f.sys.AssertExpectations(t)
	})

	t.Run("backend failure keeps the before snapshot", func(t *testing.T) {
		f := newDirectoryFixture(t, notes)
		f.sys.On("Hide", ctx, notes).Return(desktop.ErrUnsupported).Once()
		c, err := f.dir.Hide(ctx, "notes")
		assert.ErrorIs(t, err, desktop.ErrUnsupported)
		assert.False(t, c.Observation.Before.IsZero())
		assert.True(t, c.Observation.After.IsZero())
		assert.Empty(t, f.sleeper.Delays())
	})
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture(t, terminal, notepad, notes)

	active, ok, err := f.dir.Active(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, terminal, active)

	names, err := f.dir.AppNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notepad", "xterm"}, names)

	owned, err := f.dir.AppWindows(ctx, "NotePad")
	require.NoError(t, err)
	assert.Equal(t, []desktop.Window{notepad, notes}, owned)

	under, err := f.dir.At(ctx, 750, 550)
	require.NoError(t, err)
	assert.Equal(t, []desktop.Window{notes}, under)

	none, err := f.dir.At(ctx, 5000, 5000)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListFailureIsWrapped(t *testing.T) {
	sys := new(mocks.MockWindowSystem)
	sys.On("Windows", mock.Anything).Return(nil, errors.New("no display"))
	logger := zaptest.NewLogger(t)
	dir := NewDirectory(sys, screen.NewObserver(new(mocks.MockScreen), &mocks.RecordingSleeper{}, logger), &mocks.RecordingSleeper{}, config.TimingConfig{}, logger)

	_, err := dir.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
}

func TestDetailsDegradePerField(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture(t, notes)
	f.sys.On("IsAlive", ctx, notes).Return(true, nil)
	f.sys.On("ProcessID", ctx, notes).Return(4242, nil)
	f.sys.On("NativeHandle", ctx, notes).Return(0, desktop.ErrUnsupported)

	det, err := f.dir.Details(ctx, "notes")
	require.NoError(t, err)

	out := RenderDetails(det)
	assert.Contains(t, out, "Alive: True\n")
	assert.Contains(t, out, "PID: 4242\n")
	assert.Contains(t, out, "Handle: Not available\n")
	assert.Contains(t, out, "Size: 300 x 200\n")
	assert.Contains(t, out, "Center: (850, 600)\n")
}

func TestDetailsOfWindowWithUnknownState(t *testing.T) {
	ctx := context.Background()
	calc := notes
	calc.StateUnknown = true
	f := newDirectoryFixture(t, calc)
	f.sys.On("IsAlive", ctx, calc).Return(true, nil)
	f.sys.On("ProcessID", ctx, calc).Return(4242, nil)
	f.sys.On("NativeHandle", ctx, calc).Return(0, desktop.ErrUnsupported)

	det, err := f.dir.Details(ctx, "notes")
	require.NoError(t, err)

	out := RenderDetails(det)
	assert.Contains(t, out, "Minimized: Not available\n")
	assert.Contains(t, out, "Maximized: Not available\n")
	assert.Contains(t, out, "Visible: True\n")
}
