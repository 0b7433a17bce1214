// Package gpu describes render-ready texture objects.
//
// A Texture is the unit the texture cache hands to renderers: a pixel format,
// a dimension, an extent and a full mip chain of texel bytes in the layout the
// GPU expects. Uploading and binding is the job of the rendering backend; this
// package only carries the data and the metadata the cache needs to share,
// persist and describe textures.
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// CubeFaces is the number of array layers of a cube texture.
const CubeFaces = 6

// Errors returned when constructing textures.
var (
	// ErrUnsupportedFormat is returned for formats without a known texel size.
	ErrUnsupportedFormat = errors.New("gpu: unsupported texture format")

	// ErrInvalidExtent is returned for zero or inconsistent dimensions.
	ErrInvalidExtent = errors.New("gpu: invalid texture extent")

	// ErrInvalidMip is returned when a mip level does not match its expected size.
	ErrInvalidMip = errors.New("gpu: invalid mip level")
)

// Mip is a single level of a mip chain.
// Data holds the texels of every array layer, layer after layer.
type Mip struct {
	Width  uint32
	Height uint32
	Data   []byte
}

// Irradiance holds second-order spherical harmonics coefficients of the
// diffuse irradiance of an environment, already convolved with the cosine lobe.
type Irradiance [9]mgl32.Vec3

// Descriptor describes the shape of a texture.
type Descriptor struct {
	Format    gputypes.TextureFormat
	Dimension gputypes.TextureDimension
	Size      gputypes.Extent3D
}

// Texture is an immutable render-ready image with its mip chain.
//
// Shape and texels never change after construction. The diagnostic source
// string, fallback texture, irradiance and container backing may be attached
// later; they are guarded so a texture can be tagged while it is shared.
type Texture struct {
	desc Descriptor
	mips []Mip

	mu         sync.RWMutex
	source     string
	usage      string
	original   [2]int
	fallback   *Texture
	irradiance *Irradiance
	backing    []byte
}

// BytesPerTexel returns the size of one texel of format, or 0 if the format
// is not one the cache produces.
func BytesPerTexel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 0
	}
}

// MipSize returns the dimensions of level for a base size of width x height.
func MipSize(width, height uint32, level int) (uint32, uint32) {
	return max(1, width>>level), max(1, height>>level)
}

// MaxMipLevels returns the length of a full mip chain for width x height.
func MaxMipLevels(width, height uint32) int {
	levels := 1
	for d := max(width, height); d > 1; d >>= 1 {
		levels++
	}
	return levels
}

// New validates desc against mips and returns the texture.
// The mip slices are retained; callers must not modify them afterwards.
func New(desc Descriptor, mips []Mip) (*Texture, error) {
	bpp := BytesPerTexel(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Size.Width == 0 || desc.Size.Height == 0 || desc.Size.DepthOrArrayLayers == 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidExtent,
			desc.Size.Width, desc.Size.Height, desc.Size.DepthOrArrayLayers)
	}
	if len(mips) == 0 || len(mips) > MaxMipLevels(desc.Size.Width, desc.Size.Height) {
		return nil, fmt.Errorf("%w: %d levels", ErrInvalidMip, len(mips))
	}
	layers := int(desc.Size.DepthOrArrayLayers)
	for level, m := range mips {
		w, h := MipSize(desc.Size.Width, desc.Size.Height, level)
		if m.Width != w || m.Height != h {
			return nil, fmt.Errorf("%w: level %d is %dx%d, want %dx%d", ErrInvalidMip, level, m.Width, m.Height, w, h)
		}
		if want := int(w) * int(h) * layers * bpp; len(m.Data) != want {
			return nil, fmt.Errorf("%w: level %d has %d bytes, want %d", ErrInvalidMip, level, len(m.Data), want)
		}
	}
	return &Texture{desc: desc, mips: mips}, nil
}

// New2D returns a 2D texture with the given mip chain.
func New2D(format gputypes.TextureFormat, width, height uint32, mips []Mip) (*Texture, error) {
	return New(Descriptor{
		Format:    format,
		Dimension: gputypes.TextureDimension2D,
		Size:      gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	}, mips)
}

// NewStrict2D returns a 2D texture with a single level of texels.
func NewStrict2D(format gputypes.TextureFormat, width, height uint32, data []byte) (*Texture, error) {
	return New2D(format, width, height, []Mip{{Width: width, Height: height, Data: data}})
}

// NewCube returns a cube texture with square faces of faceSize.
// Each mip holds the six faces in +X, -X, +Y, -Y, +Z, -Z order.
func NewCube(format gputypes.TextureFormat, faceSize uint32, mips []Mip) (*Texture, error) {
	return New(Descriptor{
		Format:    format,
		Dimension: gputypes.TextureDimension2D,
		Size:      gputypes.Extent3D{Width: faceSize, Height: faceSize, DepthOrArrayLayers: CubeFaces},
	}, mips)
}

// Descriptor returns the texture shape.
func (t *Texture) Descriptor() Descriptor { return t.desc }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Dimension returns the texture dimension.
func (t *Texture) Dimension() gputypes.TextureDimension { return t.desc.Dimension }

// Width returns the width of level 0.
func (t *Texture) Width() int { return int(t.desc.Size.Width) }

// Height returns the height of level 0.
func (t *Texture) Height() int { return int(t.desc.Size.Height) }

// Layers returns the number of array layers (6 for cubes).
func (t *Texture) Layers() int { return int(t.desc.Size.DepthOrArrayLayers) }

// IsCube reports whether the texture is a cube map.
func (t *Texture) IsCube() bool { return t.desc.Size.DepthOrArrayLayers == CubeFaces }

// MipCount returns the number of levels in the mip chain.
func (t *Texture) MipCount() int { return len(t.mips) }

// Mip returns level. The returned data aliases the texture and must not be modified.
func (t *Texture) Mip(level int) Mip { return t.mips[level] }

// StoredSize returns the number of texel bytes across all levels.
func (t *Texture) StoredSize() int {
	var n int
	for _, m := range t.mips {
		n += len(m.Data)
	}
	return n
}

// Source returns the diagnostic origin of the texture, usually its URL.
func (t *Texture) Source() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.source
}

// SetSource records the diagnostic origin of the texture.
func (t *Texture) SetSource(source string) {
	t.mu.Lock()
	t.source = source
	t.mu.Unlock()
}

// Usage returns the name of the role the texture was prepared for, or "".
func (t *Texture) Usage() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.usage
}

// SetUsage records the role the texture was prepared for.
func (t *Texture) SetUsage(usage string) {
	t.mu.Lock()
	t.usage = usage
	t.mu.Unlock()
}

// OriginalSize returns the dimensions of the encoded image before any
// downscaling. It reports the level 0 extent when none was recorded.
func (t *Texture) OriginalSize() (width, height int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.original[0] == 0 || t.original[1] == 0 {
		return t.Width(), t.Height()
	}
	return t.original[0], t.original[1]
}

// SetOriginalSize records the dimensions of the encoded image.
func (t *Texture) SetOriginalSize(width, height int) {
	t.mu.Lock()
	t.original = [2]int{width, height}
	t.mu.Unlock()
}

// Fallback returns the texture renderers should use while this one is unavailable.
func (t *Texture) Fallback() *Texture {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fallback
}

// SetFallback sets the fallback texture.
func (t *Texture) SetFallback(fallback *Texture) {
	t.mu.Lock()
	t.fallback = fallback
	t.mu.Unlock()
}

// Irradiance returns the precomputed diffuse irradiance, if any.
func (t *Texture) Irradiance() (Irradiance, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.irradiance == nil {
		return Irradiance{}, false
	}
	return *t.irradiance, true
}

// SetIrradiance attaches precomputed diffuse irradiance.
func (t *Texture) SetIrradiance(sh Irradiance) {
	t.mu.Lock()
	t.irradiance = &sh
	t.mu.Unlock()
}

// Backing returns the serialized container this texture was read from or
// written to, or nil.
func (t *Texture) Backing() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.backing
}

// SetBacking records the serialized container for the texture.
// The slice is retained and must not be modified.
func (t *Texture) SetBacking(data []byte) {
	t.mu.Lock()
	t.backing = data
	t.mu.Unlock()
}
