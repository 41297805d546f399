package screen

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"regexp"
	"strings"
)

// DataURIPrefix starts every encoded screenshot.
const DataURIPrefix = "data:image/png;base64,"

var (
	// ErrDecode is returned when a data URI cannot be turned back into an image.
	ErrDecode = errors.New("cannot decode screenshot")
	// ErrNoImage is returned when encoding a nil image.
	ErrNoImage = errors.New("no image to encode")
)

// EncodeDataURI renders img as a base64 PNG data URI.
func EncodeDataURI(img image.Image) (string, error) {
	if img == nil {
		return "", ErrNoImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI parses any "data:image/...;base64," URI. A bare base64
// payload without the header is accepted as well.
func DecodeDataURI(uri string) (image.Image, error) {
	payload := strings.TrimSpace(uri)
	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%w: malformed data URI header", ErrDecode)
		}
		payload = data
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// DataURIBytes returns the raw PNG bytes behind a data URI.
func DataURIBytes(uri string) ([]byte, error) {
	_, data, ok := strings.Cut(strings.TrimSpace(uri), ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrDecode)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return raw, nil
}

var dataURIPattern = regexp.MustCompile(regexp.QuoteMeta(DataURIPrefix) + `[A-Za-z0-9+/=]+`)

// ReplaceDataURIs rewrites every PNG data URI embedded in text with the
// result of fn, called in order of appearance.
func ReplaceDataURIs(text string, fn func(uri string) string) string {
	return dataURIPattern.ReplaceAllStringFunc(text, fn)
}
