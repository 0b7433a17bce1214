package container

import (
	"errors"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/texcache/gpu"
	"github.com/meigma/texcache/internal/fb"
)

// minCompressBytes is the smallest mip level worth compressing.
const minCompressBytes = 512

type serializeConfig struct {
	compression Compression
	contentHash digest.Digest
}

// Option configures Serialize.
type Option func(*serializeConfig)

// WithCompression sets the compression used for mip levels.
// Levels that do not shrink are stored uncompressed. Defaults to zstd.
func WithCompression(c Compression) Option {
	return func(cfg *serializeConfig) {
		cfg.compression = c
	}
}

// WithContentHash records the digest of the encoded image in the header.
func WithContentHash(hash digest.Digest) Option {
	return func(cfg *serializeConfig) {
		cfg.contentHash = hash
	}
}

// Serialize encodes tex as a container.
//
// If tex is already backed by a container with a matching content hash, the
// backing bytes are returned unchanged.
func Serialize(tex *gpu.Texture, opts ...Option) ([]byte, error) {
	if tex == nil {
		return nil, errors.New("container: nil texture")
	}
	cfg := serializeConfig{compression: CompressionZstd}
	for _, opt := range opts {
		opt(&cfg)
	}

	if backing := tex.Backing(); backing != nil {
		if c, err := Load(backing); err == nil && (cfg.contentHash == "" || c.ContentHash() == cfg.contentHash) {
			return backing, nil
		}
	}

	desc := tex.Descriptor()
	builder := flatbuffers.NewBuilder(tex.StoredSize()/2 + 1024)

	// Build mips in reverse order (FlatBuffers requirement)
	mipOffsets := make([]flatbuffers.UOffsetT, tex.MipCount())
	for level := tex.MipCount() - 1; level >= 0; level-- {
		m := tex.Mip(level)

		payload, compression, err := encodeMip(m.Data, cfg.compression)
		if err != nil {
			return nil, err
		}
		dataOffset := builder.CreateByteVector(payload)

		fb.MipStart(builder)
		fb.MipAddFormat(builder, uint32(desc.Format))
		fb.MipAddWidth(builder, m.Width)
		fb.MipAddHeight(builder, m.Height)
		fb.MipAddSize(builder, uint64(len(m.Data)))
		fb.MipAddCompression(builder, fb.Compression(compression))
		fb.MipAddData(builder, dataOffset)
		mipOffsets[level] = fb.MipEnd(builder)
	}

	fb.TextureStartMipsVector(builder, len(mipOffsets))
	for i := len(mipOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(mipOffsets[i])
	}
	mipsOffset := builder.EndVector(len(mipOffsets))

	var irradianceOffset flatbuffers.UOffsetT
	if sh, ok := tex.Irradiance(); ok {
		n := len(sh) * 3
		fb.TextureStartIrradianceVector(builder, n)
		for i := len(sh) - 1; i >= 0; i-- {
			for j := 2; j >= 0; j-- {
				builder.PrependFloat32(sh[i][j])
			}
		}
		irradianceOffset = builder.EndVector(n)
	}

	var hashOffset flatbuffers.UOffsetT
	if cfg.contentHash != "" {
		hashOffset = builder.CreateString(cfg.contentHash.String())
	}
	sourceOffset := builder.CreateString(tex.Source())
	usageOffset := builder.CreateString(tex.Usage())
	originalWidth, originalHeight := tex.OriginalSize()

	fb.TextureStart(builder)
	fb.TextureAddVersion(builder, Version)
	if hashOffset != 0 {
		fb.TextureAddContentHash(builder, hashOffset)
	}
	fb.TextureAddSource(builder, sourceOffset)
	fb.TextureAddFormat(builder, uint32(desc.Format))
	fb.TextureAddDimension(builder, uint32(desc.Dimension))
	fb.TextureAddWidth(builder, desc.Size.Width)
	fb.TextureAddHeight(builder, desc.Size.Height)
	fb.TextureAddLayers(builder, desc.Size.DepthOrArrayLayers)
	if irradianceOffset != 0 {
		fb.TextureAddIrradiance(builder, irradianceOffset)
	}
	fb.TextureAddMips(builder, mipsOffset)
	fb.TextureAddOriginalWidth(builder, uint32(originalWidth))
	fb.TextureAddOriginalHeight(builder, uint32(originalHeight))
	fb.TextureAddUsage(builder, usageOffset)
	textureOffset := fb.TextureEnd(builder)

	fb.FinishSizePrefixedTextureBuffer(builder, textureOffset)
	return builder.FinishedBytes(), nil
}

func encodeMip(data []byte, compression Compression) ([]byte, Compression, error) {
	if compression != CompressionZstd || len(data) < minCompressBytes {
		return data, CompressionNone, nil
	}
	packed, err := codecs.compress(data)
	if err != nil {
		return nil, CompressionNone, err
	}
	if len(packed) >= len(data) {
		return data, CompressionNone, nil
	}
	return packed, CompressionZstd, nil
}
