package main

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/meigma/texcache/container"
	"github.com/meigma/texcache/internal/testutil"
	"github.com/meigma/texcache/transform"
)

func TestParseBytes(t *testing.T) {
	t.Parallel()

	tests := map[string]int64{
		"0":      0,
		"512":    512,
		"4k":     4 << 10,
		"256MiB": 256 << 20,
		"2GB":    2 << 30,
	}
	for in, want := range tests {
		got, err := parseBytes(in)
		if err != nil {
			t.Fatalf("parseBytes(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("parseBytes(%q) = %d, want %d", in, got, want)
		}
	}
	if _, err := parseBytes("lots"); err == nil {
		t.Fatal("parseBytes(lots) expected error")
	}
}

func TestMipImageSelectsLayer(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 12, 2))
	for f := range 6 {
		c := color.NRGBA{R: uint8(f * 40), A: 255}
		for y := range 2 {
			img.SetNRGBA(f*2, y, c)
			img.SetNRGBA(f*2+1, y, c)
		}
	}
	tex, err := transform.CubeNoIrradiance(img)
	if err != nil {
		t.Fatalf("CubeNoIrradiance() error: %v", err)
	}

	out, err := mipImage(tex, 0, 3)
	if err != nil {
		t.Fatalf("mipImage() error: %v", err)
	}
	got := color.NRGBAModel.Convert(out.At(1, 1)).(color.NRGBA)
	if got.R != 120 {
		t.Fatalf("layer 3 red = %d, want 120", got.R)
	}

	if _, err := mipImage(tex, tex.MipCount(), 0); err == nil {
		t.Fatal("mipImage() expected level range error")
	}
	if _, err := mipImage(tex, 0, 6); err == nil {
		t.Fatal("mipImage() expected layer range error")
	}
}

func TestMipImageGray(t *testing.T) {
	t.Parallel()

	tex, err := transform.Roughness(testutil.Solid(4, 4, color.NRGBA{R: 77, G: 77, B: 77, A: 255}))
	if err != nil {
		t.Fatalf("Roughness() error: %v", err)
	}
	out, err := mipImage(tex, 1, 0)
	if err != nil {
		t.Fatalf("mipImage() error: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 2x2", b)
	}
	if g := out.(*image.Gray).GrayAt(0, 0).Y; g != 77 {
		t.Fatalf("gray = %d, want 77", g)
	}
}

func TestInspectAndExport(t *testing.T) {
	t.Parallel()

	tex, err := transform.Albedo(testutil.Gradient(8, 8))
	if err != nil {
		t.Fatalf("Albedo() error: %v", err)
	}
	data, err := container.Serialize(tex)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tex.txc")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	if _, err := loadContainer(path); err != nil {
		t.Fatalf("loadContainer() error: %v", err)
	}
	out := filepath.Join(dir, "tex.webp")
	if err := runExport([]string{"-o", out, "-level", "1", path}); err != nil {
		t.Fatalf("runExport() error: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("exported file is empty")
	}
}
