package imageio

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ComputeScaledSize returns the dimensions of a width x height image shrunk
// to fit maxPixels, preserving the aspect ratio up to rounding.
//
// The scale factor is sqrt(maxPixels/(width*height)) and each side is rounded
// independently to at least one pixel; a side clamped to one pixel caps the
// other at maxPixels. ok is false when the image already fits
// or maxPixels is not positive.
func ComputeScaledSize(width, height int, maxPixels int64) (w, h int, ok bool) {
	pixels := int64(width) * int64(height)
	if maxPixels <= 0 || pixels <= maxPixels {
		return width, height, false
	}
	scale := math.Sqrt(float64(maxPixels) / float64(pixels))
	w = max(1, int(scale*float64(width)+0.5))
	h = max(1, int(scale*float64(height)+0.5))

	// A side clamped to one pixel no longer shrinks the other.
	if h == 1 {
		w = int(min(int64(w), maxPixels))
	}
	if w == 1 {
		h = int(min(int64(h), maxPixels))
	}
	return w, h, true
}

// Resize resamples src to width x height with a Catmull-Rom filter.
func Resize(src image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// FitPixels returns img converted to NRGBA and shrunk to at most maxPixels.
// The second result reports whether the image was resized.
func FitPixels(img image.Image, maxPixels int64) (*image.NRGBA, bool) {
	b := img.Bounds()
	w, h, ok := ComputeScaledSize(b.Dx(), b.Dy(), maxPixels)
	if !ok {
		return ToNRGBA(img), false
	}
	return Resize(img, w, h), true
}
