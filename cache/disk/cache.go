// Package disk provides a disk-backed persistent content cache.
package disk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/texcache/cache"
	"github.com/meigma/texcache/container"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
	defaultFilePerm       = 0o600
	tempPattern           = "tmp-*"
)

// ErrNoCapacity is returned when an entry does not fit in the size limit.
var ErrNoCapacity = errors.New("disk: entry exceeds cache capacity")

// Cache implements cache.Cache using the local filesystem.
// Files are stored in a directory hierarchy with optional sharding by hash prefix.
// The cache is safe for concurrent use.
type Cache struct {
	dir            string       // root directory for cached files
	shardPrefixLen int          // number of hex chars for subdirectory sharding
	dirPerm        os.FileMode  // permissions for created directories
	ext            string       // file extension of entries
	maxBytes       int64        // maximum cache size (0 = unlimited)
	bytes          atomic.Int64 // current total size of cached files
	pruneMu        sync.Mutex   // serializes prune operations
}

// Option configures a disk cache.
type Option func(*Cache)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(c *Cache) {
		c.shardPrefixLen = n
	}
}

// WithDirPerm sets the directory permissions used for cache directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(c *Cache) {
		c.dirPerm = mode
	}
}

// WithExtension sets the file extension of cache entries, including the dot.
// Defaults to the container extension.
func WithExtension(ext string) Option {
	return func(c *Cache) {
		c.ext = ext
	}
}

// WithMaxBytes sets the maximum cache size in bytes.
// Values < 0 are invalid. Use 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) {
		c.maxBytes = n
	}
}

// New creates a disk-backed cache rooted at dir.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	c := &Cache{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
		ext:            container.Extension,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if c.maxBytes < 0 {
		return nil, errors.New("max bytes must be >= 0")
	}
	if strings.ContainsAny(c.ext, `/\`) {
		return nil, fmt.Errorf("invalid extension %q", c.ext)
	}
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return nil, err
	}
	size, err := dirSize(dir, c.ext)
	if err != nil {
		return nil, err
	}
	c.bytes.Store(size)
	return c, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// GetFile returns the entry stored for hash.
func (c *Cache) GetFile(hash digest.Digest) (cache.File, bool) {
	path, err := c.path(hash)
	if err != nil {
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	return &file{hash: hash, path: path, size: info.Size()}, true
}

// WriteFile stores a serialized container under meta.Hash.
//
// The data is written to a temporary file in the shard directory and linked
// into place, so the entry appears complete or not at all. If another writer
// got there first, its entry is kept and returned.
func (c *Cache) WriteFile(data []byte, meta cache.Metadata) (cache.File, error) {
	if err := cache.Validate(data, meta); err != nil {
		return nil, err
	}
	path, err := c.path(meta.Hash)
	if err != nil {
		return nil, err
	}
	if f, ok := c.GetFile(meta.Hash); ok {
		return f, nil
	}

	dir := filepath.Dir(path)
	if mkdirErr := os.MkdirAll(dir, c.dirPerm); mkdirErr != nil {
		return nil, mkdirErr
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup, the entry is linked by then

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Chmod(defaultFilePerm); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	if ok, err := c.ensureCapacity(meta.Length); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: %d bytes", ErrNoCapacity, meta.Length)
	}

	if err := publish(tmpPath, path); err != nil {
		if f, ok := c.GetFile(meta.Hash); ok {
			return f, nil
		}
		return nil, err
	}
	c.bytes.Add(meta.Length)
	return &file{hash: meta.Hash, path: path, size: meta.Length}, nil
}

// publish makes tmpPath visible at path without replacing an existing entry.
// Filesystems without hard links fall back to rename.
func publish(tmpPath, path string) error {
	err := os.Link(tmpPath, path)
	if err == nil || errors.Is(err, os.ErrExist) {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Delete removes cached content for the given hash.
func (c *Cache) Delete(hash digest.Digest) error {
	path, err := c.path(hash)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return nil
		}
		return statErr
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	c.bytes.Add(-info.Size())
	return nil
}

// MaxBytes returns the configured cache size limit (0 = unlimited).
func (c *Cache) MaxBytes() int64 {
	return c.maxBytes
}

// SizeBytes returns the current cache size in bytes.
func (c *Cache) SizeBytes() int64 {
	return c.bytes.Load()
}

// Prune removes cached entries, oldest first, until the cache is at or below
// targetBytes. It returns the number of bytes freed.
func (c *Cache) Prune(targetBytes int64) (int64, error) {
	if targetBytes < 0 {
		targetBytes = 0
	}
	c.pruneMu.Lock()
	defer c.pruneMu.Unlock()

	freed, remaining, err := pruneDir(c.dir, c.ext, targetBytes)
	if err != nil {
		return 0, err
	}
	c.bytes.Store(remaining)
	return freed, nil
}

func (c *Cache) path(hash digest.Digest) (string, error) {
	if err := hash.Validate(); err != nil {
		return "", err
	}
	hexHash := hash.Encoded()
	name := hexHash + c.ext
	if c.shardPrefixLen <= 0 {
		return filepath.Join(c.dir, name), nil
	}
	prefixLen := min(c.shardPrefixLen, len(hexHash))
	return filepath.Join(c.dir, hexHash[:prefixLen], name), nil
}

func (c *Cache) ensureCapacity(need int64) (bool, error) {
	if c.maxBytes <= 0 {
		return true, nil
	}
	if need > c.maxBytes {
		return false, nil
	}
	if c.SizeBytes()+need <= c.maxBytes {
		return true, nil
	}
	if _, err := c.Prune(c.maxBytes - need); err != nil {
		return false, err
	}
	return c.SizeBytes()+need <= c.maxBytes, nil
}

// file is a handle to an entry on disk.
type file struct {
	hash digest.Digest
	path string
	size int64
}

func (f *file) Hash() digest.Digest { return f.hash }

func (f *file) Size() int64 { return f.size }

func (f *file) Bytes() ([]byte, error) {
	return os.ReadFile(f.path) //nolint:gosec // path is derived from hash, not user input
}

func (f *file) Container() (*container.Container, error) {
	data, err := f.Bytes()
	if err != nil {
		return nil, err
	}
	return container.Load(data)
}

func (f *file) Descriptor() (ocispec.Descriptor, error) {
	data, err := f.Bytes()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	return cache.NewDescriptor(data, f.hash), nil
}
