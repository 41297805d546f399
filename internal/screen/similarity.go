package screen

import (
	"image"
	"math"
)

// DefaultThreshold is the correlation at or above which two snapshots count
// as the same screen.
const DefaultThreshold = 0.95

const histogramBins = 256

// Correlation converts both images to grayscale and returns the Pearson
// correlation of their 256-bin intensity histograms, in [-1, 1]. Identical
// histograms, and histograms with zero variance, score 1.
func Correlation(a, b image.Image) float64 {
	ha := grayHistogram(a)
	hb := grayHistogram(b)
	if ha == hb {
		return 1.0
	}

	var meanA, meanB float64
	for i := 0; i < histogramBins; i++ {
		meanA += ha[i]
		meanB += hb[i]
	}
	meanA /= histogramBins
	meanB /= histogramBins

	var num, varA, varB float64
	for i := 0; i < histogramBins; i++ {
		da := ha[i] - meanA
		db := hb[i] - meanB
		num += da * db
		varA += da * da
		varB += db * db
	}
	denom := math.Sqrt(varA * varB)
	if denom < 1e-12 {
		return 1.0
	}
	return math.Max(-1, math.Min(1, num/denom))
}

// grayHistogram counts luma values using the BT.601 weights.
func grayHistogram(img image.Image) [histogramBins]float64 {
	var h [histogramBins]float64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels.
			lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			bin := int(math.Round(lum))
			if bin > 255 {
				bin = 255
			}
			h[bin]++
		}
	}
	return h
}

// Similar reports whether a and b correlate at or above threshold. It is
// false when either snapshot is empty.
func Similar(a, b Snapshot, threshold float64) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return Correlation(a.img, b.img) >= threshold
}

// SimilarDataURI decodes two screenshot data URIs and compares them. Any
// decode failure yields false rather than an error.
func SimilarDataURI(a, b string, threshold float64) bool {
	score, err := CorrelationDataURI(a, b)
	if err != nil {
		return false
	}
	return score >= threshold
}

// CorrelationDataURI decodes both URIs and returns their correlation.
func CorrelationDataURI(a, b string) (float64, error) {
	imgA, err := DecodeDataURI(a)
	if err != nil {
		return 0, err
	}
	imgB, err := DecodeDataURI(b)
	if err != nil {
		return 0, err
	}
	return Correlation(imgA, imgB), nil
}
