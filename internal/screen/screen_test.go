package screen

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/mocks"
	"go.uber.org/zap/zaptest"
)

func TestParseRegion(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r, err := ParseRegion("10, 20,300,400")
		require.NoError(t, err)
		assert.Equal(t, desktop.Rect{Left: 10, Top: 20, Width: 300, Height: 400}, r)
	})

	t.Run("negative origin is allowed", func(t *testing.T) {
		r, err := ParseRegion("-1920,0,1920,1080")
		require.NoError(t, err)
		assert.Equal(t, -1920, r.Left)
	})

	for _, spec := range []string{
		"", "1,2,3", "1,2,3,4,5", "a,b,c,d", "0,0,0,100", "0,0,100,0",
		"0,0,-5,10", "0,0,1.5,10", "0;0;10;10",
	} {
		t.Run("rejects "+spec, func(t *testing.T) {
			_, err := ParseRegion(spec)
			assert.ErrorIs(t, err, ErrInvalidRegion)
		})
	}
}

func FuzzParseRegion(f *testing.F) {
	f.Add([]byte("0,0,10,10"))
	f.Fuzz(func(t *testing.T, data []byte) {
		var input struct {
			Spec string
		}
		if err := fuzz.NewConsumer(data).GenerateStruct(&input); err != nil {
			return
		}
		r, err := ParseRegion(input.Spec)
		if err == nil && !r.Valid() {
			t.Fatalf("accepted non-positive region %+v from %q", r, input.Spec)
		}
	})
}

func TestCorrelation(t *testing.T) {
	black := mocks.SolidImage(32, 32, color.Black)
	white := mocks.SolidImage(32, 32, color.White)
	gradient := mocks.GradientImage(64, 4)

	assert.Equal(t, 1.0, Correlation(black, black))
	assert.Equal(t, 1.0, Correlation(gradient, gradient))
	assert.Less(t, Correlation(black, white), 0.0)
	assert.Less(t, Correlation(gradient, black), DefaultThreshold)

	// Mirroring moves pixels but keeps the histogram.
	mirrored := image.NewGray(image.Rect(0, 0, 64, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 64; x++ {
			mirrored.Set(x, y, gradient.At(63-x, y))
		}
	}
	assert.Equal(t, 1.0, Correlation(gradient, mirrored))

	score := Correlation(gradient, black)
	assert.GreaterOrEqual(t, score, -1.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestSimilar(t *testing.T) {
	now := time.Now()
	a := NewSnapshot(mocks.GradientImage(64, 8), nil, now)
	b := NewSnapshot(mocks.SolidImage(64, 8, color.White), nil, now)

	for _, threshold := range []float64{0, 0.5, 0.95, 1} {
		assert.True(t, Similar(a, a, threshold), "threshold %v", threshold)
	}
	assert.False(t, Similar(a, b, DefaultThreshold))
	assert.False(t, Similar(a, Snapshot{}, 0), "an empty snapshot is never similar")
}

func TestDataURI(t *testing.T) {
	img := mocks.GradientImage(40, 10)
	uri, err := EncodeDataURI(img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, DataURIPrefix))

	decoded, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	assert.Equal(t, 1.0, Correlation(img, decoded))

	raw, err := DataURIBytes(uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), raw[:4])

	_, err = EncodeDataURI(nil)
	assert.ErrorIs(t, err, ErrNoImage)

	for _, bad := range []string{"", "data:text/plain;base64,aGVsbG8=", "data:image/png;base64,!!!", "data:image/png;base64,aGVsbG8="} {
		_, err := DecodeDataURI(bad)
		assert.ErrorIs(t, err, ErrDecode, "input %q", bad)
	}
}

func TestReplaceDataURIs(t *testing.T) {
	uri, err := EncodeDataURI(mocks.GradientImage(4, 4))
	require.NoError(t, err)

	n := 0
	got := ReplaceDataURIs("Before:\n"+uri+"\n\nAfter:\n"+uri+".", func(u string) string {
		assert.Equal(t, uri, u)
		n++
		return "<" + string(rune('0'+n)) + ">"
	})
	assert.Equal(t, "Before:\n<1>\n\nAfter:\n<2>.", got)
	assert.Equal(t, "no images here", ReplaceDataURIs("no images here", func(string) string { return "x" }))
}

func TestSimilarDataURI(t *testing.T) {
	uri, err := EncodeDataURI(mocks.GradientImage(32, 4))
	require.NoError(t, err)
	other, err := EncodeDataURI(mocks.SolidImage(32, 4, color.White))
	require.NoError(t, err)

	assert.True(t, SimilarDataURI(uri, uri, 1))
	assert.False(t, SimilarDataURI(uri, other, DefaultThreshold))
	assert.False(t, SimilarDataURI(uri, "not an image", 0), "decode failures compare as different")
	assert.False(t, SimilarDataURI("", "", 0))
}

func TestObserverCaptureSpec(t *testing.T) {
	ctx := context.Background()
	img := mocks.SolidImage(4, 4, color.Black)

	t.Run("region is honoured", func(t *testing.T) {
		scr := new(mocks.MockScreen)
		want := &desktop.Rect{Left: 1, Top: 2, Width: 3, Height: 4}
		scr.On("Capture", ctx, want).Return(img, nil).Once()
		obs := NewObserver(scr, &mocks.RecordingSleeper{}, zaptest.NewLogger(t))

		c, err := obs.CaptureSpec(ctx, "1,2,3,4")
		require.NoError(t, err)
		assert.False(t, c.FellBack())
		assert.Equal(t, want, c.Snapshot.Region())
		scr.AssertExpectations(t)
	})

	t.Run("malformed region falls back to full screen", func(t *testing.T) {
		for _, spec := range []string{"0,0,0,10", "x,y,w,h", "1,2,3"} {
			scr := new(mocks.MockScreen)
			scr.On("Capture", ctx, (*desktop.Rect)(nil)).Return(img, nil).Once()
			obs := NewObserver(scr, &mocks.RecordingSleeper{}, zaptest.NewLogger(t))

			c, err := obs.CaptureSpec(ctx, spec)
			require.NoError(t, err, spec)
			assert.True(t, c.FellBack(), spec)
			assert.ErrorIs(t, c.Fallback, ErrInvalidRegion)
			assert.Nil(t, c.Snapshot.Region())
			scr.AssertExpectations(t)
		}
	})

	t.Run("empty spec is a plain full-screen capture", func(t *testing.T) {
		scr := new(mocks.MockScreen)
		scr.On("Capture", ctx, (*desktop.Rect)(nil)).Return(img, nil).Once()
		obs := NewObserver(scr, &mocks.RecordingSleeper{}, zaptest.NewLogger(t))

		c, err := obs.CaptureSpec(ctx, "")
		require.NoError(t, err)
		assert.False(t, c.FellBack())
	})

	t.Run("capture failure is returned", func(t *testing.T) {
		scr := new(mocks.MockScreen)
		scr.On("Capture", ctx, mock.Anything).Return(nil, errors.New("no display"))
		obs := NewObserver(scr, &mocks.RecordingSleeper{}, zaptest.NewLogger(t))

		_, err := obs.CaptureSpec(ctx, "")
		assert.EqualError(t, err, "no display")
	})
}

func TestObserverBracket(t *testing.T) {
	ctx := context.Background()
	before := mocks.SolidImage(4, 4, color.Black)
	after := mocks.SolidImage(4, 4, color.White)

	t.Run("orders capture, act, settle, capture", func(t *testing.T) {
		var events []string
		scr := new(mocks.MockScreen)
		scr.On("Capture", ctx, (*desktop.Rect)(nil)).Return(before, nil).Once().
			Run(func(mock.Arguments) { events = append(events, "before") })
		scr.On("Capture", ctx, (*desktop.Rect)(nil)).Return(after, nil).Once().
			Run(func(mock.Arguments) { events = append(events, "after") })
		sleeper := &mocks.RecordingSleeper{OnSleep: func(d time.Duration) { events = append(events, "settle") }}
		obs := NewObserver(scr, sleeper, zaptest.NewLogger(t))

		o, err := obs.Bracket(ctx, func(context.Context) error {
			events = append(events, "act")
			return nil
		}, 1500*time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, []string{"before", "act", "settle", "after"}, events)
		assert.Equal(t, []time.Duration{1500 * time.Millisecond}, sleeper.Delays())
		assert.Same(t, before, o.Before.Image())
		assert.Same(t, after, o.After.Image())
		assert.False(t, o.After.TakenAt().Before(o.Before.TakenAt()))
	})

	t.Run("act is skipped when the before capture fails", func(t *testing.T) {
		scr := new(mocks.MockScreen)
		scr.On("Capture", ctx, (*desktop.Rect)(nil)).Return(nil, errors.New("denied")).Once()
		obs := NewObserver(scr, &mocks.RecordingSleeper{}, zaptest.NewLogger(t))

		acted := false
		_, err := obs.Bracket(ctx, func(context.Context) error { acted = true; return nil }, time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "capture before")
		assert.False(t, acted)
	})

	t.Run("act failure keeps the before snapshot and skips the settle", func(t *testing.T) {
		scr := new(mocks.MockScreen)
		scr.On("Capture", ctx, (*desktop.Rect)(nil)).Return(before, nil).Once()
		sleeper := &mocks.RecordingSleeper{}
		obs := NewObserver(scr, sleeper, zaptest.NewLogger(t))

		o, err := obs.Bracket(ctx, func(context.Context) error { return errors.New("boom") }, time.Second)
		assert.EqualError(t, err, "boom")
		assert.False(t, o.Before.IsZero())
		assert.True(t, o.After.IsZero())
		assert.Empty(t, sleeper.Delays())
		scr.AssertExpectations(t)
	})
}
