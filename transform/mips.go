package transform

import "github.com/meigma/texcache/gpu"

// GenerateMips builds a full mip chain from level 0 texels.
//
// base holds layers images of width x height texels with bpp bytes each,
// layer after layer. Each level halves the previous one with a 2x2 box
// filter, clamping at odd edges, until both sides reach one texel. base is
// retained as level 0.
func GenerateMips(base []byte, width, height uint32, layers, bpp int) []gpu.Mip {
	levels := gpu.MaxMipLevels(width, height)
	mips := make([]gpu.Mip, levels)
	mips[0] = gpu.Mip{Width: width, Height: height, Data: base}

	for level := 1; level < levels; level++ {
		prev := mips[level-1]
		w, h := gpu.MipSize(width, height, level)
		data := make([]byte, int(w)*int(h)*layers*bpp)

		srcLayer := int(prev.Width) * int(prev.Height) * bpp
		dstLayer := int(w) * int(h) * bpp
		for layer := range layers {
			downsample(
				data[layer*dstLayer:(layer+1)*dstLayer], int(w), int(h),
				prev.Data[layer*srcLayer:(layer+1)*srcLayer], int(prev.Width), int(prev.Height),
				bpp,
			)
		}
		mips[level] = gpu.Mip{Width: w, Height: h, Data: data}
	}
	return mips
}

// downsample averages 2x2 blocks of src into dst.
func downsample(dst []byte, dstW, dstH int, src []byte, srcW, srcH, bpp int) {
	for dy := range dstH {
		sy0 := min(dy*2, srcH-1)
		sy1 := min(dy*2+1, srcH-1)
		for dx := range dstW {
			sx0 := min(dx*2, srcW-1)
			sx1 := min(dx*2+1, srcW-1)

			p0 := (sy0*srcW + sx0) * bpp
			p1 := (sy0*srcW + sx1) * bpp
			p2 := (sy1*srcW + sx0) * bpp
			p3 := (sy1*srcW + sx1) * bpp
			d := (dy*dstW + dx) * bpp
			for c := range bpp {
				sum := uint16(src[p0+c]) + uint16(src[p1+c]) + uint16(src[p2+c]) + uint16(src[p3+c])
				dst[d+c] = byte((sum + 2) / 4)
			}
		}
	}
}
