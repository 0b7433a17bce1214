// Package imageio decodes encoded images and resizes them to a pixel budget.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

var (
	// ErrDecode is returned when no decoder accepts the bytes.
	ErrDecode = errors.New("imageio: cannot decode image")

	// ErrEmptyImage is returned for images with zero width or height.
	ErrEmptyImage = errors.New("imageio: image has no pixels")
)

// Format names an encoded image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
	FormatTGA  Format = "tga"
)

type decodeFunc func(io.Reader) (image.Image, error)

var decoders = map[Format]decodeFunc{
	FormatPNG:  png.Decode,
	FormatJPEG: jpeg.Decode,
	FormatGIF:  gif.Decode,
	FormatBMP:  bmp.Decode,
	FormatTIFF: tiff.Decode,
	FormatWebP: webp.Decode,
	FormatTGA:  tga.Decode,
}

var extensions = map[string]Format{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".webp": FormatWebP,
	".tga":  FormatTGA,
}

// FormatFromName returns the format implied by the trailing extension of a
// file name or URL. Query strings and fragments are ignored.
func FormatFromName(name string) (Format, bool) {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	f, ok := extensions[strings.ToLower(path.Ext(name))]
	return f, ok
}

// Sniff identifies the format from the leading magic bytes.
// TGA has no magic and is never reported.
func Sniff(data []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, true
	case bytes.HasPrefix(data, []byte{0xff, 0xd8}):
		return FormatJPEG, true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF, true
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP, true
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return FormatTIFF, true
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP, true
	}
	return "", false
}

// Decode decodes data into an image.
//
// The format implied by hint (a file name or URL) is tried first, then the
// sniffed format, then TGA. The decoded image must have a non-empty extent.
func Decode(data []byte, hint string) (image.Image, Format, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: no data", ErrDecode)
	}

	var candidates []Format
	if f, ok := FormatFromName(hint); ok {
		candidates = append(candidates, f)
	}
	if f, ok := Sniff(data); ok {
		candidates = append(candidates, f)
	}
	candidates = append(candidates, FormatTGA)

	var errs []error
	tried := make(map[Format]bool, len(candidates))
	for _, f := range candidates {
		if tried[f] {
			continue
		}
		tried[f] = true

		img, err := decodeAs(f, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
			return nil, f, fmt.Errorf("%w: %dx%d %s", ErrEmptyImage, b.Dx(), b.Dy(), f)
		}
		return img, f, nil
	}
	return nil, "", fmt.Errorf("%w: %w", ErrDecode, errors.Join(errs...))
}

// decodeAs runs the decoder for f, converting decoder panics on hostile
// input into errors.
func decodeAs(f Format, data []byte) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return decoders[f](bytes.NewReader(data))
}

// ToNRGBA converts img to non-premultiplied RGBA with its origin at (0, 0).
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
