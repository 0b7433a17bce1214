package transform

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/meigma/texcache/gpu"
)

// bumpStrength scales height differences before normalization.
const bumpStrength = 2.0

// NormalFromBump derives a tangent-space normal map from a height image.
//
// Heights are taken from the image luminance. Gradients use a Sobel operator
// that wraps around the edges so tiling bump maps produce seamless normals.
func NormalFromBump(img *image.NRGBA) (*gpu.Texture, error) {
	w, h := size(img)
	width, height := int(w), int(h)
	texels := packRGBA(img)

	heights := make([]float32, width*height)
	for i := range heights {
		heights[i] = float32(luminance(texels[i*4], texels[i*4+1], texels[i*4+2])) / 255
	}
	at := func(x, y int) float32 {
		x = (x + width) % width
		y = (y + height) % height
		return heights[y*width+x]
	}

	data := make([]byte, width*height*4)
	for y := range height {
		for x := range width {
			topLeft, top, topRight := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			left, right := at(x-1, y), at(x+1, y)
			bottomLeft, bottom, bottomRight := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			dX := (topRight + 2*right + bottomRight) - (topLeft + 2*left + bottomLeft)
			dY := (bottomLeft + 2*bottom + bottomRight) - (topLeft + 2*top + topRight)
			n := mgl32.Vec3{-dX, -dY, 1 / bumpStrength}.Normalize()

			i := (y*width + x) * 4
			data[i+0] = encodeUnit(n.X())
			data[i+1] = encodeUnit(n.Y())
			data[i+2] = encodeUnit(n.Z())
			data[i+3] = 0xff
		}
	}
	return gpu.New2D(gputypes.TextureFormatRGBA8Unorm, w, h, GenerateMips(data, w, h, 1, 4))
}

// encodeUnit maps a component in [-1, 1] onto [0, 255].
func encodeUnit(v float32) byte {
	return byte(mgl32.Clamp((v+1)/2*255+0.5, 0, 255))
}
