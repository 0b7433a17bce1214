package texcache

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/meigma/texcache/gpu"
)

// Solid colors of the built-in 1x1 textures.
var (
	opaqueWhite = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
	opaqueGray  = [4]byte{0x80, 0x80, 0x80, 0xFF}
	opaqueBlue  = [4]byte{0x80, 0x80, 0xFF, 0xFF}
	opaqueBlack = [4]byte{0x00, 0x00, 0x00, 0xFF}
)

// permutation is Ken Perlin's reference permutation of 0..255.
var permutation = [256]byte{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// Seed of the unit vectors in the second row of the permutation texture.
const (
	normalSeed1 = 0x7465786361636865
	normalSeed2 = 0x6e6f726d616c7321
)

// builtin lazily builds one texture and returns it on every later call.
type builtin struct {
	once  sync.Once
	tex   *gpu.Texture
	build func() *gpu.Texture
}

func (b *builtin) get() *gpu.Texture {
	b.once.Do(func() {
		b.tex = b.build()
	})
	return b.tex
}

var (
	whiteTexture       = &builtin{build: func() *gpu.Texture { return solidTexture("white", opaqueWhite) }}
	grayTexture        = &builtin{build: func() *gpu.Texture { return solidTexture("gray", opaqueGray) }}
	blueTexture        = &builtin{build: func() *gpu.Texture { return solidTexture("blue", opaqueBlue) }}
	blackTexture       = &builtin{build: func() *gpu.Texture { return solidTexture("black", opaqueBlack) }}
	permutationTexture = &builtin{build: permutationNormalTexture}
)

func solidTexture(name string, c [4]byte) *gpu.Texture {
	tex, err := gpu.NewStrict2D(gputypes.TextureFormatRGBA8Unorm, 1, 1, c[:])
	if err != nil {
		panic(err)
	}
	tex.SetSource("texcache:" + name)
	return tex
}

// permutationNormalTexture returns a 256x2 texture whose first row repeats
// the permutation table in RGB and whose second row holds unit vectors
// encoded as (v+1)/2.
func permutationNormalTexture() *gpu.Texture {
	const width = len(permutation)
	data := make([]byte, width*2*4)
	for i, p := range permutation {
		copy(data[i*4:], []byte{p, p, p, 0xFF})
	}

	rng := rand.New(rand.NewPCG(normalSeed1, normalSeed2))
	row := data[width*4:]
	for i := range width {
		v := randomUnit(rng)
		copy(row[i*4:], []byte{encodeSigned(v.X()), encodeSigned(v.Y()), encodeSigned(v.Z()), 0xFF})
	}

	tex, err := gpu.NewStrict2D(gputypes.TextureFormatRGBA8Unorm, uint32(width), 2, data)
	if err != nil {
		panic(err)
	}
	tex.SetSource("texcache:permutation-normal")
	return tex
}

// randomUnit returns a direction uniformly distributed on the unit sphere.
func randomUnit(rng *rand.Rand) mgl32.Vec3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return mgl32.Vec3{float32(r * math.Cos(phi)), float32(r * math.Sin(phi)), float32(z)}
}

func encodeSigned(v float32) byte {
	return byte(mgl32.Clamp((v+1)/2*255, 0, 255))
}

// WhiteTexture returns the shared opaque white 1x1 texture.
func (c *Cache) WhiteTexture() *gpu.Texture { return whiteTexture.get() }

// GrayTexture returns the shared opaque mid-gray 1x1 texture.
func (c *Cache) GrayTexture() *gpu.Texture { return grayTexture.get() }

// BlueTexture returns the shared 1x1 flat normal texture.
func (c *Cache) BlueTexture() *gpu.Texture { return blueTexture.get() }

// BlackTexture returns the shared opaque black 1x1 texture.
func (c *Cache) BlackTexture() *gpu.Texture { return blackTexture.get() }

// PermutationNormalTexture returns the shared 256x2 noise basis texture. It
// is identical across runs.
func (c *Cache) PermutationNormalTexture() *gpu.Texture { return permutationTexture.get() }

// FallbackTexture returns the placeholder shown for usage while a texture
// loads or after it failed, or nil if the usage has none.
func (c *Cache) FallbackTexture(usage Usage) *gpu.Texture {
	switch usage {
	case UsageDefault, UsageAlbedo, UsageRoughness, UsageOcclusion:
		return c.WhiteTexture()
	case UsageNormal:
		return c.BlueTexture()
	case UsageEmissive, UsageLightmap:
		return c.BlackTexture()
	default:
		return nil
	}
}
