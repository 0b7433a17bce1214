package transform

import (
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/meigma/texcache/gpu"
)

// Cube face order within a cube texture layer sequence.
const (
	FacePosX = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// CubeLayout is the arrangement of cube faces in a source image.
type CubeLayout int

const (
	LayoutHorizontalStrip CubeLayout = iota + 1 // 6:1, faces in layer order
	LayoutVerticalStrip                         // 1:6, faces in layer order
	LayoutHorizontalCross                       // 4:3
	LayoutVerticalCross                         // 3:4, -Z rotated half a turn
	LayoutEquirectangular                       // 2:1 latitude-longitude
)

func (l CubeLayout) String() string {
	switch l {
	case LayoutHorizontalStrip:
		return "horizontal-strip"
	case LayoutVerticalStrip:
		return "vertical-strip"
	case LayoutHorizontalCross:
		return "horizontal-cross"
	case LayoutVerticalCross:
		return "vertical-cross"
	case LayoutEquirectangular:
		return "equirectangular"
	default:
		return "unknown"
	}
}

// DetectCubeLayout identifies the layout of a width x height image and the
// edge length of its faces.
func DetectCubeLayout(width, height int) (CubeLayout, int, error) {
	switch {
	case width <= 0 || height <= 0:
	case width == 6*height:
		return LayoutHorizontalStrip, height, nil
	case height == 6*width:
		return LayoutVerticalStrip, width, nil
	case 3*width == 4*height && width%4 == 0:
		return LayoutHorizontalCross, width / 4, nil
	case 4*width == 3*height && width%3 == 0:
		return LayoutVerticalCross, width / 3, nil
	case width == 2*height:
		return LayoutEquirectangular, max(1, height/2), nil
	}
	return 0, 0, fmt.Errorf("%w: %dx%d", ErrCubeLayout, width, height)
}

// layoutTolerance is the relative aspect ratio error accepted when snapping
// an image onto a layout grid. Downscaling rounds each side on its own, so a
// scaled strip is rarely an exact multiple of its height.
const layoutTolerance = 0.05

// cubeGrids gives each layout's extent in grid cells. A cell is one face,
// except for equirectangular images whose cell is twice the face edge.
var cubeGrids = []struct {
	layout     CubeLayout
	cols, rows int
}{
	{LayoutHorizontalStrip, 6, 1},
	{LayoutVerticalStrip, 1, 6},
	{LayoutHorizontalCross, 4, 3},
	{LayoutVerticalCross, 3, 4},
	{LayoutEquirectangular, 2, 1},
}

// SnapCubeLayout resamples img onto the nearest layout grid when its aspect
// ratio is within tolerance of one without matching it exactly. The area is
// kept up to rounding. Images that already match a layout, or are not close
// to any, are returned unchanged.
func SnapCubeLayout(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return img
	}
	if _, _, err := DetectCubeLayout(w, h); err == nil {
		return img
	}

	ratio := float64(w) / float64(h)
	best, bestErr := -1, layoutTolerance
	for i, g := range cubeGrids {
		if e := math.Abs(ratio*float64(g.rows)/float64(g.cols) - 1); e <= bestErr {
			best, bestErr = i, e
		}
	}
	if best < 0 {
		return img
	}
	g := cubeGrids[best]
	cell := max(1, int(math.Round(math.Sqrt(float64(w)*float64(h)/float64(g.cols*g.rows)))))
	dst := image.NewNRGBA(image.Rect(0, 0, cell*g.cols, cell*g.rows))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// facePlacement locates a face inside a cross layout, in face units.
type facePlacement struct {
	col, row int
	rotate   bool // rotated half a turn
}

var crossPlacements = map[CubeLayout][gpu.CubeFaces]facePlacement{
	LayoutHorizontalCross: {
		FacePosX: {col: 2, row: 1},
		FaceNegX: {col: 0, row: 1},
		FacePosY: {col: 1, row: 0},
		FaceNegY: {col: 1, row: 2},
		FacePosZ: {col: 1, row: 1},
		FaceNegZ: {col: 3, row: 1},
	},
	LayoutVerticalCross: {
		FacePosX: {col: 2, row: 1},
		FaceNegX: {col: 0, row: 1},
		FacePosY: {col: 1, row: 0},
		FaceNegY: {col: 1, row: 2},
		FacePosZ: {col: 1, row: 1},
		FaceNegZ: {col: 1, row: 3, rotate: true},
	},
}

// Cube assembles a cube map and precomputes its diffuse irradiance.
func Cube(img *image.NRGBA) (*gpu.Texture, error) {
	return CubeWith(true)(img)
}

// CubeNoIrradiance assembles a cube map without irradiance.
func CubeNoIrradiance(img *image.NRGBA) (*gpu.Texture, error) {
	return CubeWith(false)(img)
}

// CubeWith returns a cube map transform, optionally computing irradiance.
// Images within tolerance of a layout are snapped onto it first.
func CubeWith(generateIrradiance bool) Func {
	return func(img *image.NRGBA) (*gpu.Texture, error) {
		img = SnapCubeLayout(img)
		b := img.Bounds()
		layout, face, err := DetectCubeLayout(b.Dx(), b.Dy())
		if err != nil {
			return nil, err
		}

		faceBytes := face * face * 4
		data := make([]byte, faceBytes*gpu.CubeFaces)
		for f := range gpu.CubeFaces {
			extractFace(data[f*faceBytes:(f+1)*faceBytes], img, layout, f, face)
		}

		size := uint32(face)
		tex, err := gpu.NewCube(gputypes.TextureFormatRGBA8UnormSrgb, size,
			GenerateMips(data, size, size, gpu.CubeFaces, 4))
		if err != nil {
			return nil, err
		}
		if generateIrradiance {
			tex.SetIrradiance(ComputeIrradiance(data, face))
		}
		return tex, nil
	}
}

func extractFace(dst []byte, img *image.NRGBA, layout CubeLayout, f, face int) {
	b := img.Bounds()
	switch layout {
	case LayoutHorizontalStrip:
		copyBlock(dst, img, b.Min.X+f*face, b.Min.Y, face, false)
	case LayoutVerticalStrip:
		copyBlock(dst, img, b.Min.X, b.Min.Y+f*face, face, false)
	case LayoutHorizontalCross, LayoutVerticalCross:
		p := crossPlacements[layout][f]
		copyBlock(dst, img, b.Min.X+p.col*face, b.Min.Y+p.row*face, face, p.rotate)
	case LayoutEquirectangular:
		sampleEquirect(dst, img, f, face)
	}
}

// copyBlock copies a face x face block whose top-left corner is (x0, y0).
func copyBlock(dst []byte, img *image.NRGBA, x0, y0, face int, rotate bool) {
	for y := range face {
		for x := range face {
			sx, sy := x0+x, y0+y
			if rotate {
				sx, sy = x0+face-1-x, y0+face-1-y
			}
			s := img.PixOffset(sx, sy)
			d := (y*face + x) * 4
			copy(dst[d:d+4], img.Pix[s:s+4])
		}
	}
}

// FaceDirection returns the unit direction through texel (x, y) of face f.
func FaceDirection(f, x, y, face int) mgl32.Vec3 {
	u := 2*(float32(x)+0.5)/float32(face) - 1
	v := 2*(float32(y)+0.5)/float32(face) - 1
	var d mgl32.Vec3
	switch f {
	case FacePosX:
		d = mgl32.Vec3{1, -v, -u}
	case FaceNegX:
		d = mgl32.Vec3{-1, -v, u}
	case FacePosY:
		d = mgl32.Vec3{u, 1, v}
	case FaceNegY:
		d = mgl32.Vec3{u, -1, -v}
	case FacePosZ:
		d = mgl32.Vec3{u, -v, 1}
	default:
		d = mgl32.Vec3{-u, -v, -1}
	}
	return d.Normalize()
}

// sampleEquirect fills a face by bilinear sampling of a latitude-longitude image.
func sampleEquirect(dst []byte, img *image.NRGBA, f, face int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := range face {
		for x := range face {
			d := FaceDirection(f, x, y, face)
			phi := math.Atan2(float64(d.Z()), float64(d.X()))
			theta := math.Acos(float64(mgl32.Clamp(d.Y(), -1, 1)))
			sx := (phi+math.Pi)/(2*math.Pi)*float64(w) - 0.5
			sy := theta/math.Pi*float64(h) - 0.5

			x0, y0 := int(math.Floor(sx)), int(math.Floor(sy))
			fx, fy := sx-float64(x0), sy-float64(y0)
			texel := func(px, py int) []byte {
				px = ((px % w) + w) % w
				py = min(max(py, 0), h-1)
				o := img.PixOffset(b.Min.X+px, b.Min.Y+py)
				return img.Pix[o : o+4]
			}
			c00, c10 := texel(x0, y0), texel(x0+1, y0)
			c01, c11 := texel(x0, y0+1), texel(x0+1, y0+1)

			o := (y*face + x) * 4
			for c := range 4 {
				top := float64(c00[c])*(1-fx) + float64(c10[c])*fx
				bottom := float64(c01[c])*(1-fx) + float64(c11[c])*fx
				dst[o+c] = byte(top*(1-fy) + bottom*fy + 0.5)
			}
		}
	}
}
