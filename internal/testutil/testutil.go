// Package testutil provides fixtures shared by the texcache tests.
package testutil

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/texcache/cache"
	"github.com/meigma/texcache/container"
)

// MemoryCache implements cache.Cache in memory with write-once semantics.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[digest.Digest][]byte

	writes   atomic.Int64
	attempts atomic.Int64
	failWith error
}

// NewMemoryCache constructs an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[digest.Digest][]byte)}
}

// NewFailingCache returns a cache whose writes always fail with err.
func NewFailingCache(err error) *MemoryCache {
	c := NewMemoryCache()
	c.failWith = err
	return c
}

// GetFile returns the entry for hash.
func (c *MemoryCache) GetFile(hash digest.Digest) (cache.File, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	return &memoryFile{hash: hash, data: data}, true
}

// WriteFile stores data unless hash is already present.
func (c *MemoryCache) WriteFile(data []byte, meta cache.Metadata) (cache.File, error) {
	c.attempts.Add(1)
	if c.failWith != nil {
		return nil, c.failWith
	}
	if err := cache.Validate(data, meta); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[meta.Hash]; ok {
		return &memoryFile{hash: meta.Hash, data: existing}, nil
	}
	stored := slices.Clone(data)
	c.entries[meta.Hash] = stored
	c.writes.Add(1)
	return &memoryFile{hash: meta.Hash, data: stored}, nil
}

// Delete removes the entry for hash.
func (c *MemoryCache) Delete(hash digest.Digest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, hash)
	return nil
}

// Put stores raw bytes under hash without validation, for seeding corrupt entries.
func (c *MemoryCache) Put(hash digest.Digest, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = data
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Writes returns the number of entries created by WriteFile.
func (c *MemoryCache) Writes() int64 { return c.writes.Load() }

// Attempts returns the number of WriteFile calls.
func (c *MemoryCache) Attempts() int64 { return c.attempts.Load() }

type memoryFile struct {
	hash digest.Digest
	data []byte
}

func (f *memoryFile) Hash() digest.Digest { return f.hash }

func (f *memoryFile) Size() int64 { return int64(len(f.data)) }

func (f *memoryFile) Bytes() ([]byte, error) { return f.data, nil }

func (f *memoryFile) Container() (*container.Container, error) {
	return container.Load(f.data)
}

func (f *memoryFile) Descriptor() (ocispec.Descriptor, error) {
	return cache.NewDescriptor(f.data, f.hash), nil
}
