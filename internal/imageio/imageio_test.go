package imageio

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/texcache/internal/testutil"
)

func TestDecodeFormats(t *testing.T) {
	t.Parallel()

	src := testutil.Gradient(8, 6)
	tests := []struct {
		encode string
		want   Format
	}{
		{encode: "png", want: FormatPNG},
		{encode: "jpeg", want: FormatJPEG},
		{encode: "gif", want: FormatGIF},
		{encode: "bmp", want: FormatBMP},
		{encode: "tiff", want: FormatTIFF},
		{encode: "webp", want: FormatWebP},
	}
	for _, tt := range tests {
		t.Run(tt.encode, func(t *testing.T) {
			t.Parallel()
			data := testutil.Encode(t, src, tt.encode)

			img, format, err := Decode(data, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, format)
			assert.Equal(t, 8, img.Bounds().Dx())
			assert.Equal(t, 6, img.Bounds().Dy())
		})
	}
}

func TestDecodeWrongHintFallsBackToSniffing(t *testing.T) {
	t.Parallel()

	data := testutil.SolidPNG(t, 3, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	img, format, err := Decode(data, "https://example.com/textures/wall.jpg?v=2")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, format)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "text", data: []byte("this is not an image")},
		{name: "truncated png", data: []byte("\x89PNG\r\n\x1a\n\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Decode(tt.data, "image.png")
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestFormatFromName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Format
		ok   bool
	}{
		{name: "albedo.PNG", want: FormatPNG, ok: true},
		{name: "https://cdn.example.com/a/b/rock.jpeg#frag", want: FormatJPEG, ok: true},
		{name: "sky.tga?token=abc.png", want: FormatTGA, ok: true},
		{name: "scan.tif", want: FormatTIFF, ok: true},
		{name: "noext", ok: false},
		{name: "archive.zip", ok: false},
	}
	for _, tt := range tests {
		got, ok := FormatFromName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestToNRGBA(t *testing.T) {
	t.Parallel()

	gray := image.NewGray(image.Rect(2, 3, 4, 5))
	gray.SetGray(2, 3, color.Gray{Y: 0x80})

	got := ToNRGBA(gray)
	assert.Equal(t, image.Rect(0, 0, 2, 2), got.Bounds())
	assert.Equal(t, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, got.NRGBAAt(0, 0))

	same := testutil.Gradient(2, 2)
	assert.Same(t, same, ToNRGBA(same))
}

func TestComputeScaledSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		w, h          int
		budget        int64
		wantW, wantH  int
		wantDownscale bool
	}{
		{name: "fits", w: 4, h: 4, budget: 1_000_000, wantW: 4, wantH: 4},
		{name: "exact", w: 1000, h: 1000, budget: 1_000_000, wantW: 1000, wantH: 1000},
		{name: "square quarter", w: 4000, h: 4000, budget: 1_000_000, wantW: 1000, wantH: 1000, wantDownscale: true},
		{name: "wide", w: 4000, h: 1000, budget: 1_000_000, wantW: 2000, wantH: 500, wantDownscale: true},
		{name: "thin clamps to one", w: 10000, h: 1, budget: 100, wantW: 100, wantH: 1, wantDownscale: true},
		{name: "no budget", w: 64, h: 64, budget: 0, wantW: 64, wantH: 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, h, ok := ComputeScaledSize(tt.w, tt.h, tt.budget)
			assert.Equal(t, tt.wantDownscale, ok)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestComputeScaledSizeHonorsBudget(t *testing.T) {
	t.Parallel()

	sizes := [][2]int{{4000, 4000}, {1920, 1080}, {333, 777}, {8191, 3}, {5000, 4999}}
	budgets := []int64{1, 100, 4096, 65_536, 1_000_000}

	for _, s := range sizes {
		for _, budget := range budgets {
			W, H := s[0], s[1]
			if int64(W)*int64(H) <= budget {
				continue
			}
			w, h, ok := ComputeScaledSize(W, H, budget)
			require.True(t, ok)

			// Each side is rounded by at most half a pixel.
			limit := float64(budget) + float64(w+h)/2 + 1
			assert.LessOrEqual(t, float64(w*h), limit, "%dx%d budget %d -> %dx%d", W, H, budget, w, h)

			if w > 1 && h > 1 {
				want := float64(W) / float64(H)
				got := float64(w) / float64(h)
				tolerance := want * (1/float64(w) + 1/float64(h))
				assert.InDelta(t, want, got, tolerance, "%dx%d budget %d -> %dx%d", W, H, budget, w, h)
			}
		}
	}
}

func TestFitPixels(t *testing.T) {
	t.Parallel()

	src := testutil.Solid(40, 20, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	same, resized := FitPixels(src, 1000)
	assert.False(t, resized)
	assert.Same(t, src, same)

	small, resized := FitPixels(src, 200)
	require.True(t, resized)
	assert.Equal(t, 20, small.Bounds().Dx())
	assert.Equal(t, 10, small.Bounds().Dy())

	// Resampling a solid image keeps its color.
	c := small.NRGBAAt(10, 5)
	assert.InDelta(t, 200, float64(c.R), 1)
	assert.InDelta(t, 100, float64(c.G), 1)
	assert.InDelta(t, 50, float64(c.B), 1)
	assert.Equal(t, uint8(255), c.A)
}
