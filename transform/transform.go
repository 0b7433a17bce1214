// Package transform converts decoded images into GPU textures.
//
// Each usage of a texture has its own conversion: color textures keep four
// sRGB channels, material masks collapse to one linear channel, bump maps
// become tangent-space normals and environment images are assembled into
// cube maps. Every function returns a texture with a full mip chain except
// Strict2D.
package transform

import (
	"errors"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/meigma/texcache/gpu"
)

// Func converts a decoded image into a GPU texture.
type Func func(img *image.NRGBA) (*gpu.Texture, error)

// ErrCubeLayout is returned for images that are not a recognized cube map layout.
var ErrCubeLayout = errors.New("transform: unrecognized cube map layout")

// Texture2D returns a four-channel sRGB texture with mips.
func Texture2D(img *image.NRGBA) (*gpu.Texture, error) {
	return rgba(img, gputypes.TextureFormatRGBA8UnormSrgb, true)
}

// Albedo returns a base color texture.
func Albedo(img *image.NRGBA) (*gpu.Texture, error) {
	return rgba(img, gputypes.TextureFormatRGBA8UnormSrgb, true)
}

// Emissive returns an emitted light texture.
func Emissive(img *image.NRGBA) (*gpu.Texture, error) {
	return rgba(img, gputypes.TextureFormatRGBA8UnormSrgb, true)
}

// Lightmap returns a baked lighting texture.
func Lightmap(img *image.NRGBA) (*gpu.Texture, error) {
	return rgba(img, gputypes.TextureFormatRGBA8UnormSrgb, true)
}

// Strict2D returns the image texel for texel, without a mip chain.
func Strict2D(img *image.NRGBA) (*gpu.Texture, error) {
	return rgba(img, gputypes.TextureFormatRGBA8UnormSrgb, false)
}

// Normal returns a tangent-space normal map stored as linear RGBA.
// Alpha is forced to opaque.
func Normal(img *image.NRGBA) (*gpu.Texture, error) {
	w, h := size(img)
	data := packRGBA(img)
	for i := 3; i < len(data); i += 4 {
		data[i] = 0xff
	}
	return gpu.New2D(gputypes.TextureFormatRGBA8Unorm, w, h, GenerateMips(data, w, h, 1, 4))
}

// Roughness returns a single-channel roughness mask from the image luminance.
func Roughness(img *image.NRGBA) (*gpu.Texture, error) {
	return mask(img, false)
}

// RoughnessFromGloss returns a roughness mask from a glossiness image by
// inverting its luminance.
func RoughnessFromGloss(img *image.NRGBA) (*gpu.Texture, error) {
	return mask(img, true)
}

// Metallic returns a single-channel metalness mask from a specular image.
func Metallic(img *image.NRGBA) (*gpu.Texture, error) {
	return mask(img, false)
}

func size(img *image.NRGBA) (uint32, uint32) {
	b := img.Bounds()
	return uint32(b.Dx()), uint32(b.Dy())
}

// packRGBA copies the texels of img into a tightly packed buffer.
func packRGBA(img *image.NRGBA) []byte {
	b := img.Bounds()
	rowBytes := b.Dx() * 4
	data := make([]byte, rowBytes*b.Dy())
	for y := range b.Dy() {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(data[y*rowBytes:(y+1)*rowBytes], img.Pix[off:off+rowBytes])
	}
	return data
}

func rgba(img *image.NRGBA, format gputypes.TextureFormat, mips bool) (*gpu.Texture, error) {
	w, h := size(img)
	data := packRGBA(img)
	if !mips {
		return gpu.NewStrict2D(format, w, h, data)
	}
	return gpu.New2D(format, w, h, GenerateMips(data, w, h, 1, 4))
}

// luminance returns the Rec. 601 luma of an 8-bit color.
func luminance(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

func mask(img *image.NRGBA, invert bool) (*gpu.Texture, error) {
	w, h := size(img)
	texels := packRGBA(img)
	data := make([]byte, int(w)*int(h))
	for i := range data {
		l := luminance(texels[i*4], texels[i*4+1], texels[i*4+2])
		if invert {
			l = 0xff - l
		}
		data[i] = l
	}
	return gpu.New2D(gputypes.TextureFormatR8Unorm, w, h, GenerateMips(data, w, h, 1, 1))
}
