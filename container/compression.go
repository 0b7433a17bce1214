package container

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Compression identifies how the texels of a mip level are stored.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
)

// String returns the human-readable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// defaultMaxDecoderMemory bounds the memory a single mip decode may use.
const defaultMaxDecoderMemory = 1 << 30

// codecPool manages reusable zstd encoders and decoders.
// Encoders and decoders are only used through EncodeAll/DecodeAll.
type codecPool struct {
	encoders         sync.Pool
	decoders         sync.Pool
	maxDecoderMemory uint64
}

var codecs = newCodecPool(defaultMaxDecoderMemory)

func newCodecPool(maxMemory uint64) *codecPool {
	p := &codecPool{maxDecoderMemory: maxMemory}
	p.encoders.New = func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedDefault),
		)
		if err != nil {
			return nil
		}
		return enc
	}
	p.decoders.New = func() any {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(p.maxDecoderMemory),
		)
		if err != nil {
			return nil
		}
		return dec
	}
	return p
}

// compress returns src compressed with zstd.
func (p *codecPool) compress(src []byte) ([]byte, error) {
	enc, ok := p.encoders.Get().(*zstd.Encoder)
	if !ok || enc == nil {
		return nil, errors.New("container: create zstd encoder")
	}
	defer p.encoders.Put(enc)
	return enc.EncodeAll(src, make([]byte, 0, len(src)/2)), nil
}

// decompress inflates src, which must expand to exactly size bytes.
func (p *codecPool) decompress(src []byte, size uint64) ([]byte, error) {
	if size > p.maxDecoderMemory {
		return nil, fmt.Errorf("%w: mip of %d bytes exceeds decoder limit", ErrInvalid, size)
	}
	dec, ok := p.decoders.Get().(*zstd.Decoder)
	if !ok || dec == nil {
		return nil, errors.New("container: create zstd decoder")
	}
	defer p.decoders.Put(dec)

	out, err := dec.DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	if uint64(len(out)) != size {
		return nil, fmt.Errorf("%w: inflated to %d bytes, want %d", ErrDecompression, len(out), size)
	}
	return out, nil
}
