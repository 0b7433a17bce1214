package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Solid returns a width x height image filled with c.
func Solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// Gradient returns an opaque image whose red channel ramps along x and green
// channel ramps along y.
func Gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, width-1)),
				G: uint8(y * 255 / max(1, height-1)),
				B: 0x40,
				A: 0xff,
			})
		}
	}
	return img
}

// EncodePNG encodes img as PNG.
func EncodePNG(tb testing.TB, img image.Image) []byte {
	tb.Helper()
	return Encode(tb, img, "png")
}

// Encode encodes img in the named format: png, jpeg, gif, bmp, tiff or webp.
func Encode(tb testing.TB, img image.Image, format string) []byte {
	tb.Helper()

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	case "webp":
		err = nativewebp.Encode(&buf, img, nil)
	default:
		tb.Fatalf("testutil: unknown image format %q", format)
	}
	if err != nil {
		tb.Fatalf("testutil: encode %s: %v", format, err)
	}
	return buf.Bytes()
}

// SolidPNG returns a PNG-encoded width x height image filled with c.
func SolidPNG(tb testing.TB, width, height int, c color.NRGBA) []byte {
	tb.Helper()
	return EncodePNG(tb, Solid(width, height, c))
}
