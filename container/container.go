// Package container implements the binary texture container.
//
// A container is a self-describing FlatBuffers file holding one fully
// processed texture: pixel format, dimension, extent, an optional irradiance
// block and one entry per mip level with its own format, size and texel bytes.
// Containers are what the persistent cache stores and what the remote mirror
// ships, so a texture decoded once never has to be decoded again.
//
// Deserialize(Serialize(t)) yields a texture with the same format, extent,
// mip count and texels as t.
package container

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/texcache/gpu"
	"github.com/meigma/texcache/internal/fb"
)

// Version is the container format version written by Serialize.
const Version = 2

// headerSize covers the size prefix, root offset and file identifier.
const headerSize = 12

// MediaType identifies containers in OCI descriptors.
const MediaType = "application/vnd.meigma.texcache.texture.v1"

// Extension is the conventional file extension for containers.
const Extension = ".txc"

// Sentinel errors for container operations.
var (
	// ErrInvalid is returned when bytes are not a well-formed container.
	ErrInvalid = errors.New("container: invalid texture container")

	// ErrVersion is returned for containers written by an unknown format version.
	ErrVersion = errors.New("container: unsupported version")

	// ErrDecompression is returned when a mip level fails to inflate.
	ErrDecompression = errors.New("container: decompression failed")
)

// Container is a read-only view over serialized container bytes.
//
// Accessors alias the underlying buffer; the buffer must not be modified
// while the container or textures produced from it are alive.
type Container struct {
	data []byte
	root *fb.Texture
}

// Load parses serialized container bytes.
//
// The size prefix must match len(data), so truncated files are rejected even
// when the cut only removes padding. Beyond that only the header is validated
// here; mip levels are checked when the texture is materialized with
// [Container.Texture].
func Load(data []byte) (c *Container, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = fmt.Errorf("%w: %v", ErrInvalid, r)
		}
	}()
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalid, len(data))
	}
	if string(data[8:12]) != fb.TextureIdentifier {
		return nil, fmt.Errorf("%w: missing file identifier", ErrInvalid)
	}
	if size := flatbuffers.GetUint32(data); int64(size) != int64(len(data)-flatbuffers.SizeUint32) {
		return nil, fmt.Errorf("%w: size prefix %d, have %d bytes", ErrInvalid, size, len(data)-flatbuffers.SizeUint32)
	}

	root := fb.GetSizePrefixedRootAsTexture(data, 0)
	if v := root.Version(); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	if root.MipsLength() == 0 {
		return nil, fmt.Errorf("%w: no mip levels", ErrInvalid)
	}
	if root.Width() == 0 || root.Height() == 0 || root.Layers() == 0 {
		return nil, fmt.Errorf("%w: empty extent", ErrInvalid)
	}
	return &Container{data: data, root: root}, nil
}

// Deserialize parses data and materializes its texture.
func Deserialize(data []byte) (*gpu.Texture, error) {
	c, err := Load(data)
	if err != nil {
		return nil, err
	}
	return c.Texture()
}

// Bytes returns the serialized container.
func (c *Container) Bytes() []byte { return c.data }

// Size returns the serialized size in bytes.
func (c *Container) Size() int { return len(c.data) }

// Version returns the container format version.
func (c *Container) Version() uint32 { return c.root.Version() }

// ContentHash returns the digest of the encoded image the texture came from.
// It is empty when the writer did not record one.
func (c *Container) ContentHash() digest.Digest {
	return digest.Digest(c.root.ContentHash())
}

// Source returns the diagnostic origin recorded for the texture.
func (c *Container) Source() string { return string(c.root.Source()) }

// Usage returns the name of the role the texture was prepared for.
func (c *Container) Usage() string { return string(c.root.Usage()) }

// OriginalSize returns the recorded dimensions of the encoded image before
// downscaling, or 0, 0 if none were recorded.
func (c *Container) OriginalSize() (width, height int) {
	return int(c.root.OriginalWidth()), int(c.root.OriginalHeight())
}

// Descriptor returns the texture shape recorded in the header.
func (c *Container) Descriptor() gpu.Descriptor {
	return gpu.Descriptor{
		Format:    gputypes.TextureFormat(c.root.Format()),
		Dimension: gputypes.TextureDimension(c.root.Dimension()),
		Size: gputypes.Extent3D{
			Width:              c.root.Width(),
			Height:             c.root.Height(),
			DepthOrArrayLayers: c.root.Layers(),
		},
	}
}

// MipCount returns the number of stored mip levels.
func (c *Container) MipCount() int { return c.root.MipsLength() }

// MipInfo describes a stored mip level without inflating it.
type MipInfo struct {
	Width       uint32
	Height      uint32
	Size        uint64 // uncompressed bytes
	StoredSize  int    // bytes in the container
	Compression Compression
}

// Mips returns per-level storage information.
func (c *Container) Mips() []MipInfo {
	infos := make([]MipInfo, 0, c.root.MipsLength())
	var m fb.Mip
	for i := range c.root.MipsLength() {
		if !c.root.Mips(&m, i) {
			break
		}
		infos = append(infos, MipInfo{
			Width:       m.Width(),
			Height:      m.Height(),
			Size:        m.Size(),
			StoredSize:  m.DataLength(),
			Compression: Compression(m.Compression()),
		})
	}
	return infos
}

// Irradiance returns the stored irradiance coefficients, if any.
func (c *Container) Irradiance() (gpu.Irradiance, bool) {
	var sh gpu.Irradiance
	if c.root.IrradianceLength() != len(sh)*3 {
		return sh, false
	}
	for i := range sh {
		for j := range 3 {
			sh[i][j] = c.root.Irradiance(i*3 + j)
		}
	}
	return sh, true
}

// Texture materializes the stored texture.
//
// Uncompressed levels alias the container buffer. The returned texture is
// backed by the container bytes so serializing it again is free.
func (c *Container) Texture() (tex *gpu.Texture, err error) {
	defer func() {
		if r := recover(); r != nil {
			tex = nil
			err = fmt.Errorf("%w: %v", ErrInvalid, r)
		}
	}()

	desc := c.Descriptor()
	bpp := gpu.BytesPerTexel(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: unsupported format %v", ErrInvalid, desc.Format)
	}
	layers := uint64(desc.Size.DepthOrArrayLayers)

	mips := make([]gpu.Mip, c.root.MipsLength())
	var m fb.Mip
	for level := range mips {
		if !c.root.Mips(&m, level) {
			return nil, fmt.Errorf("%w: missing level %d", ErrInvalid, level)
		}
		if gputypes.TextureFormat(m.Format()) != desc.Format {
			return nil, fmt.Errorf("%w: level %d format differs from texture", ErrInvalid, level)
		}
		w, h := gpu.MipSize(desc.Size.Width, desc.Size.Height, level)
		if m.Width() != w || m.Height() != h {
			return nil, fmt.Errorf("%w: level %d is %dx%d, want %dx%d", ErrInvalid, level, m.Width(), m.Height(), w, h)
		}
		want := uint64(w) * uint64(h) * layers * uint64(bpp)
		if m.Size() != want {
			return nil, fmt.Errorf("%w: level %d records %d bytes, want %d", ErrInvalid, level, m.Size(), want)
		}

		var data []byte
		switch Compression(m.Compression()) {
		case CompressionNone:
			data = m.DataBytes()
			if uint64(len(data)) != want {
				return nil, fmt.Errorf("%w: level %d holds %d bytes, want %d", ErrInvalid, level, len(data), want)
			}
		case CompressionZstd:
			data, err = codecs.decompress(m.DataBytes(), want)
			if err != nil {
				return nil, fmt.Errorf("level %d: %w", level, err)
			}
		default:
			return nil, fmt.Errorf("%w: level %d uses unknown compression %d", ErrInvalid, level, m.Compression())
		}
		mips[level] = gpu.Mip{Width: w, Height: h, Data: data}
	}

	tex, err = gpu.New(desc, mips)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	tex.SetSource(c.Source())
	tex.SetUsage(c.Usage())
	if w, h := c.OriginalSize(); w > 0 && h > 0 {
		tex.SetOriginalSize(w, h)
	}
	if sh, ok := c.Irradiance(); ok {
		tex.SetIrradiance(sh)
	}
	tex.SetBacking(c.data)
	return tex, nil
}
