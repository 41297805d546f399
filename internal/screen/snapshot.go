// Package screen captures and compares what is on the display.
package screen

import (
	"image"
	"time"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
)

// Snapshot is an immutable capture of the screen, or of one region of it,
// at a single instant. Snapshots are compared by value with Similar, never
// by identity.
type Snapshot struct {
	img     image.Image
	region  *desktop.Rect
	takenAt time.Time
}

// NewSnapshot wraps an already captured image. region is copied.
func NewSnapshot(img image.Image, region *desktop.Rect, takenAt time.Time) Snapshot {
	var r *desktop.Rect
	if region != nil {
		cp := *region
		r = &cp
	}
	return Snapshot{img: img, region: r, takenAt: takenAt}
}

// Image returns the pixel buffer. Callers must not mutate it.
func (s Snapshot) Image() image.Image { return s.img }

// Region returns a copy of the captured region, or nil for a full-screen capture.
func (s Snapshot) Region() *desktop.Rect {
	if s.region == nil {
		return nil
	}
	cp := *s.region
	return &cp
}

// TakenAt is the capture timestamp.
func (s Snapshot) TakenAt() time.Time { return s.takenAt }

// IsZero reports whether the snapshot holds no image.
func (s Snapshot) IsZero() bool { return s.img == nil }

// DataURI encodes the snapshot as a PNG data URI.
func (s Snapshot) DataURI() (string, error) {
	return EncodeDataURI(s.img)
}
