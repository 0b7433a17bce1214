package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew2DValidatesMips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mips    []Mip
		wantErr error
	}{
		{
			name: "valid chain",
			mips: []Mip{
				{Width: 4, Height: 2, Data: make([]byte, 4*2*4)},
				{Width: 2, Height: 1, Data: make([]byte, 2*1*4)},
				{Width: 1, Height: 1, Data: make([]byte, 4)},
			},
		},
		{
			name:    "no levels",
			mips:    nil,
			wantErr: ErrInvalidMip,
		},
		{
			name: "wrong level size",
			mips: []Mip{
				{Width: 4, Height: 2, Data: make([]byte, 4*2*4)},
				{Width: 1, Height: 1, Data: make([]byte, 4)},
			},
			wantErr: ErrInvalidMip,
		},
		{
			name: "short data",
			mips: []Mip{
				{Width: 4, Height: 2, Data: make([]byte, 3)},
			},
			wantErr: ErrInvalidMip,
		},
		{
			name: "too many levels",
			mips: []Mip{
				{Width: 4, Height: 2, Data: make([]byte, 32)},
				{Width: 2, Height: 1, Data: make([]byte, 8)},
				{Width: 1, Height: 1, Data: make([]byte, 4)},
				{Width: 1, Height: 1, Data: make([]byte, 4)},
			},
			wantErr: ErrInvalidMip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tex, err := New2D(gputypes.TextureFormatRGBA8Unorm, 4, 2, tt.mips)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, tex.Width())
			assert.Equal(t, 2, tex.Height())
			assert.Equal(t, 1, tex.Layers())
			assert.Equal(t, len(tt.mips), tex.MipCount())
		})
	}
}

func TestNewRejectsUnknownFormatAndExtent(t *testing.T) {
	t.Parallel()

	_, err := New2D(gputypes.TextureFormatUndefined, 1, 1, []Mip{{Width: 1, Height: 1, Data: make([]byte, 4)}})
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New2D(gputypes.TextureFormatR8Unorm, 0, 1, []Mip{{Width: 0, Height: 1}})
	require.ErrorIs(t, err, ErrInvalidExtent)
}

func TestNewCube(t *testing.T) {
	t.Parallel()

	tex, err := NewCube(gputypes.TextureFormatR8Unorm, 2, []Mip{
		{Width: 2, Height: 2, Data: make([]byte, 2*2*CubeFaces)},
		{Width: 1, Height: 1, Data: make([]byte, CubeFaces)},
	})
	require.NoError(t, err)
	assert.True(t, tex.IsCube())
	assert.Equal(t, 2*2*CubeFaces+CubeFaces, tex.StoredSize())
}

func TestMaxMipLevels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, MaxMipLevels(1, 1))
	assert.Equal(t, 3, MaxMipLevels(4, 1))
	assert.Equal(t, 9, MaxMipLevels(500, 300))
}

func TestTextureTags(t *testing.T) {
	t.Parallel()

	tex, err := NewStrict2D(gputypes.TextureFormatR8Unorm, 1, 1, []byte{7})
	require.NoError(t, err)
	fallback, err := NewStrict2D(gputypes.TextureFormatR8Unorm, 1, 1, []byte{0})
	require.NoError(t, err)

	tex.SetSource("https://example.com/a.png")
	tex.SetFallback(fallback)
	tex.SetBacking([]byte("container"))

	assert.Equal(t, "https://example.com/a.png", tex.Source())
	assert.Same(t, fallback, tex.Fallback())
	assert.Equal(t, []byte("container"), tex.Backing())

	w, h := tex.OriginalSize()
	assert.Equal(t, 1, w, "unset original size reports the extent")
	assert.Equal(t, 1, h)
	tex.SetOriginalSize(640, 480)
	w, h = tex.OriginalSize()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	tex.SetUsage("albedo")
	assert.Equal(t, "albedo", tex.Usage())

	_, ok := tex.Irradiance()
	assert.False(t, ok)
	var sh Irradiance
	sh[0][0] = 1
	tex.SetIrradiance(sh)
	got, ok := tex.Irradiance()
	require.True(t, ok)
	assert.Equal(t, sh, got)
}

func TestSourceReset(t *testing.T) {
	t.Parallel()

	s := NewSource()
	assert.False(t, s.IsDefined())
	assert.Nil(t, s.Texture())

	a, err := NewStrict2D(gputypes.TextureFormatR8Unorm, 1, 1, []byte{1})
	require.NoError(t, err)
	b, err := NewStrict2D(gputypes.TextureFormatR8Unorm, 1, 1, []byte{1})
	require.NoError(t, err)

	s.Reset(a)
	assert.Same(t, a, s.Texture())
	s.Reset(b)
	assert.Same(t, b, s.Texture())
	assert.Equal(t, []byte{1}, a.Mip(0).Data, "replacing the source must not touch the old texture")
}
