package container

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/texcache/gpu"
)

func gradientTexture(t *testing.T, width, height uint32) *gpu.Texture {
	t.Helper()
	levels := gpu.MaxMipLevels(width, height)
	mips := make([]gpu.Mip, levels)
	for level := range mips {
		w, h := gpu.MipSize(width, height, level)
		data := make([]byte, int(w)*int(h)*4)
		for i := range data {
			data[i] = byte(i / 4 % 251)
		}
		mips[level] = gpu.Mip{Width: w, Height: h, Data: data}
	}
	tex, err := gpu.New2D(gputypes.TextureFormatRGBA8Unorm, width, height, mips)
	require.NoError(t, err)
	return tex
}

func noiseTexture(t *testing.T, width, height uint32) *gpu.Texture {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))
	data := make([]byte, int(width)*int(height))
	for i := range data {
		data[i] = byte(rng.UintN(256))
	}
	tex, err := gpu.NewStrict2D(gputypes.TextureFormatR8Unorm, width, height, data)
	require.NoError(t, err)
	return tex
}

func assertSameTexture(t *testing.T, want, got *gpu.Texture) {
	t.Helper()
	assert.Equal(t, want.Descriptor(), got.Descriptor())
	require.Equal(t, want.MipCount(), got.MipCount())
	for level := range want.MipCount() {
		wm, gm := want.Mip(level), got.Mip(level)
		assert.Equal(t, wm.Width, gm.Width, "level %d width", level)
		assert.Equal(t, wm.Height, gm.Height, "level %d height", level)
		assert.True(t, bytes.Equal(wm.Data, gm.Data), "level %d texels differ", level)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		tex         func(t *testing.T) *gpu.Texture
		compression Compression
	}{
		{name: "mip chain zstd", tex: func(t *testing.T) *gpu.Texture { return gradientTexture(t, 64, 32) }, compression: CompressionZstd},
		{name: "mip chain uncompressed", tex: func(t *testing.T) *gpu.Texture { return gradientTexture(t, 64, 32) }, compression: CompressionNone},
		{name: "single texel", tex: func(t *testing.T) *gpu.Texture { return gradientTexture(t, 1, 1) }, compression: CompressionZstd},
		{name: "incompressible single channel", tex: func(t *testing.T) *gpu.Texture { return noiseTexture(t, 48, 48) }, compression: CompressionZstd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tex := tt.tex(t)

			data, err := Serialize(tex, WithCompression(tt.compression))
			require.NoError(t, err)

			got, err := Deserialize(data)
			require.NoError(t, err)
			assertSameTexture(t, tex, got)
			assert.Equal(t, data, got.Backing())
		})
	}
}

func TestRoundTripCube(t *testing.T) {
	t.Parallel()

	const face = 8
	mips := make([]gpu.Mip, gpu.MaxMipLevels(face, face))
	for level := range mips {
		w, h := gpu.MipSize(face, face, level)
		data := make([]byte, int(w)*int(h)*4*gpu.CubeFaces)
		for i := range data {
			data[i] = byte(level*31 + i)
		}
		mips[level] = gpu.Mip{Width: w, Height: h, Data: data}
	}
	tex, err := gpu.NewCube(gputypes.TextureFormatRGBA8UnormSrgb, face, mips)
	require.NoError(t, err)

	var sh gpu.Irradiance
	for i := range sh {
		sh[i] = mgl32.Vec3{float32(i), float32(i) * 0.5, -float32(i)}
	}
	tex.SetIrradiance(sh)
	tex.SetSource("https://example.com/sky.png")
	tex.SetUsage("cube")
	tex.SetOriginalSize(32, 16)

	data, err := Serialize(tex)
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)
	assertSameTexture(t, tex, got)
	assert.True(t, got.IsCube())
	assert.Equal(t, "https://example.com/sky.png", got.Source())
	assert.Equal(t, "cube", got.Usage())
	w, h := got.OriginalSize()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)

	gotSH, ok := got.Irradiance()
	require.True(t, ok)
	assert.Equal(t, sh, gotSH)
}

func TestSerializeContentHash(t *testing.T) {
	t.Parallel()

	hash := digest.FromString("encoded image")
	data, err := Serialize(gradientTexture(t, 4, 4), WithContentHash(hash))
	require.NoError(t, err)

	c, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, hash, c.ContentHash())
	assert.Equal(t, uint32(Version), c.Version())
	assert.Equal(t, 3, c.MipCount())
	assert.Len(t, c.Mips(), 3)
}

func TestSerializeReusesBacking(t *testing.T) {
	t.Parallel()

	hash := digest.FromString("content")
	data, err := Serialize(gradientTexture(t, 16, 16), WithContentHash(hash))
	require.NoError(t, err)

	tex, err := Deserialize(data)
	require.NoError(t, err)

	again, err := Serialize(tex, WithContentHash(hash))
	require.NoError(t, err)
	assert.Same(t, &data[0], &again[0])

	other := digest.FromString("other")
	rewritten, err := Serialize(tex, WithContentHash(other))
	require.NoError(t, err)
	c, err := Load(rewritten)
	require.NoError(t, err)
	assert.Equal(t, other, c.ContentHash())
}

func TestCompressionShrinksRegularData(t *testing.T) {
	t.Parallel()

	tex := gradientTexture(t, 128, 128)
	packed, err := Serialize(tex, WithCompression(CompressionZstd))
	require.NoError(t, err)
	plain, err := Serialize(tex, WithCompression(CompressionNone))
	require.NoError(t, err)
	assert.Less(t, len(packed), len(plain))

	c, err := Load(packed)
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, c.Mips()[0].Compression)
}

func TestLoadRejectsInvalidData(t *testing.T) {
	t.Parallel()

	valid, err := Serialize(gradientTexture(t, 8, 8))
	require.NoError(t, err)

	wrongID := bytes.Clone(valid)
	copy(wrongID[8:12], "XXXX")

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short", data: []byte{1, 2, 3}},
		{name: "wrong identifier", data: wrongID},
		{name: "garbage", data: bytes.Repeat([]byte{0xff}, 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(tt.data)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDeserializeTruncated(t *testing.T) {
	t.Parallel()

	valid, err := Serialize(gradientTexture(t, 32, 32))
	require.NoError(t, err)

	for _, n := range []int{8, 16, len(valid) / 2, len(valid) - 1} {
		_, err := Deserialize(valid[:n])
		assert.ErrorIs(t, err, ErrInvalid, "truncated to %d bytes", n)
	}

	// Trailing bytes are as wrong as missing ones.
	_, err = Load(append(bytes.Clone(valid), 0))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCompressionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "zstd", CompressionZstd.String())
	assert.Equal(t, "unknown", Compression(9).String())
}
