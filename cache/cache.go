// Package cache defines the persistent content cache for processed textures.
//
// Entries are serialized texture containers keyed by the digest of the
// encoded image they were produced from. Because the key identifies the
// source bytes, two loads of identical content share one entry regardless of
// the URL they came from.
//
// The cache is advisory: a missing, unreadable or corrupt entry only costs a
// fresh decode.
package cache

import (
	"errors"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/texcache/container"
)

// ErrLengthMismatch is returned by WriteFile when the metadata length does not
// match the data.
var ErrLengthMismatch = errors.New("cache: length does not match data")

// Metadata describes an entry being written.
type Metadata struct {
	// Hash is the content hash of the encoded source image.
	Hash digest.Digest
	// Length is the size of the serialized container in bytes.
	Length int64
}

// File is a handle to a stored container.
//
// Handles stay valid after the entry is removed from the store; reads then
// fail. Each read goes back to the underlying storage.
type File interface {
	// Hash returns the content hash the entry is stored under.
	Hash() digest.Digest

	// Size returns the size of the stored container in bytes.
	Size() int64

	// Bytes reads the serialized container.
	Bytes() ([]byte, error)

	// Container reads and parses the stored container.
	Container() (*container.Container, error)

	// Descriptor returns an OCI descriptor for the stored container.
	Descriptor() (ocispec.Descriptor, error)
}

// Cache stores serialized texture containers by content hash.
//
// Implementations must be safe for concurrent use. Entries are write-once:
// the first successful writer for a hash wins, and readers never observe a
// partially written entry.
type Cache interface {
	// GetFile returns the entry for hash.
	// Returns nil, false if the content is not cached.
	GetFile(hash digest.Digest) (File, bool)

	// WriteFile stores data under meta.Hash and returns a handle to the
	// stored entry. Writing a hash that is already present is a no-op that
	// returns the existing entry.
	WriteFile(data []byte, meta Metadata) (File, error)
}

// Deleter is implemented by caches that can drop individual entries.
type Deleter interface {
	Delete(hash digest.Digest) error
}

// Validate checks meta against data.
func Validate(data []byte, meta Metadata) error {
	if err := meta.Hash.Validate(); err != nil {
		return err
	}
	if meta.Length != int64(len(data)) {
		return ErrLengthMismatch
	}
	return nil
}

// NewDescriptor returns an OCI descriptor for serialized container data.
// The content hash of the source image is recorded as an annotation.
func NewDescriptor(data []byte, hash digest.Digest) ocispec.Descriptor {
	return ocispec.Descriptor{
		MediaType: container.MediaType,
		Digest:    digest.FromBytes(data),
		Size:      int64(len(data)),
		Annotations: map[string]string{
			AnnotationContentHash: hash.String(),
		},
	}
}

// AnnotationContentHash records the key a container is stored under on its
// descriptors. For textures that is the content key of the source image and
// usage.
const AnnotationContentHash = "io.meigma.texcache.content-hash"
