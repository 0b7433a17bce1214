package transform

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/meigma/texcache/gpu"
)

// Real spherical harmonics basis constants for bands 0 to 2.
const (
	shY00 = 0.282095
	shY1  = 0.488603
	shY2  = 1.092548
	shY20 = 0.315392
	shY22 = 0.546274
)

// Cosine lobe convolution factors per band.
var shBand = [9]float32{
	math.Pi,
	2 * math.Pi / 3, 2 * math.Pi / 3, 2 * math.Pi / 3,
	math.Pi / 4, math.Pi / 4, math.Pi / 4, math.Pi / 4, math.Pi / 4,
}

func shBasis(d mgl32.Vec3) [9]float32 {
	x, y, z := d.X(), d.Y(), d.Z()
	return [9]float32{
		shY00,
		shY1 * y,
		shY1 * z,
		shY1 * x,
		shY2 * x * y,
		shY2 * y * z,
		shY20 * (3*z*z - 1),
		shY2 * x * z,
		shY22 * (x*x - y*y),
	}
}

// srgbToLinear approximates the sRGB transfer function with gamma 2.2.
func srgbToLinear(c byte) float32 {
	return float32(math.Pow(float64(c)/255, 2.2))
}

// ComputeIrradiance projects the six sRGB faces of a cube map onto second
// order spherical harmonics and convolves them with the cosine lobe.
//
// faces holds six face x face RGBA8 images in layer order.
func ComputeIrradiance(faces []byte, face int) gpu.Irradiance {
	var (
		sum    [9]mgl32.Vec3
		weight float32
	)
	texel := 2 / float32(face)
	for f := range gpu.CubeFaces {
		for y := range face {
			for x := range face {
				u := (float32(x)+0.5)*texel - 1
				v := (float32(y)+0.5)*texel - 1
				r2 := 1 + u*u + v*v
				dw := texel * texel / (r2 * float32(math.Sqrt(float64(r2))))

				o := ((f*face+y)*face + x) * 4
				c := mgl32.Vec3{
					srgbToLinear(faces[o]),
					srgbToLinear(faces[o+1]),
					srgbToLinear(faces[o+2]),
				}
				basis := shBasis(FaceDirection(f, x, y, face))
				for i := range sum {
					sum[i] = sum[i].Add(c.Mul(basis[i] * dw))
				}
				weight += dw
			}
		}
	}

	var sh gpu.Irradiance
	norm := 4 * math.Pi / weight
	for i := range sh {
		sh[i] = sum[i].Mul(norm * shBand[i])
	}
	return sh
}

// EvalIrradiance returns the diffuse irradiance arriving at a surface with
// normal n.
func EvalIrradiance(sh gpu.Irradiance, n mgl32.Vec3) mgl32.Vec3 {
	basis := shBasis(n.Normalize())
	var e mgl32.Vec3
	for i := range sh {
		e = e.Add(sh[i].Mul(basis[i]))
	}
	return e
}
