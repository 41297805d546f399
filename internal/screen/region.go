package screen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
)

// ErrInvalidRegion is returned for region specs that do not describe a
// positive-area rectangle.
var ErrInvalidRegion = errors.New("invalid region")

// ParseRegion parses "left,top,width,height" in screen pixels.
func ParseRegion(spec string) (desktop.Rect, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return desktop.Rect{}, fmt.Errorf("%w: want left,top,width,height, got %q", ErrInvalidRegion, spec)
	}
	var vals [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return desktop.Rect{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidRegion, strings.TrimSpace(p))
		}
		vals[i] = n
	}
	r := desktop.Rect{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}
	if !r.Valid() {
		return desktop.Rect{}, fmt.Errorf("%w: width and height must be positive, got %dx%d", ErrInvalidRegion, r.Width, r.Height)
	}
	return r, nil
}
