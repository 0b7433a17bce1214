package texcache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/meigma/texcache/cache"
	"github.com/meigma/texcache/cache/disk"
	"github.com/meigma/texcache/internal/pool"
)

// DefaultMaxPixels is the pixel budget applied when a request does not set one.
const DefaultMaxPixels int64 = 8192 * 8192

// DefaultContentCacheSize is the size limit used by WithContentCacheDir.
const DefaultContentCacheSize int64 = 512 << 20 // 512 MB

// Priority selects the share of the machine decode workers may use.
type Priority = pool.Priority

// Worker priorities.
const (
	// PriorityNormal runs one decode worker per GOMAXPROCS.
	PriorityNormal = pool.PriorityNormal
	// PriorityLow runs half as many workers, leaving room for interactive work.
	PriorityLow = pool.PriorityLow
)

// Fetcher retrieves encoded image bytes for a URL.
//
// The cache calls Fetch from its own goroutine and reports the outcome to
// the requesting resource. See the http subpackage for an implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Mirror is a remote store of serialized texture containers keyed by
// content hash. It sits behind the persistent cache: workers ask it before
// decoding and push what they decode. See the mirror subpackage.
type Mirror interface {
	// Fetch returns the container stored for hash.
	Fetch(ctx context.Context, hash Hash) ([]byte, error)

	// Push stores a container for hash.
	Push(ctx context.Context, hash Hash, data []byte) error
}

// Option configures a Cache.
type Option func(*Cache) error

// WithContentCache sets the persistent content cache.
// Import github.com/meigma/texcache/cache/disk for the disk implementation.
func WithContentCache(c cache.Cache) Option {
	return func(tc *Cache) error {
		tc.content = c
		return nil
	}
}

// WithContentCacheDir enables persistent caching in dir with the default
// size limit ([DefaultContentCacheSize]).
func WithContentCacheDir(dir string) Option {
	return func(tc *Cache) error {
		c, err := disk.New(dir, disk.WithMaxBytes(DefaultContentCacheSize))
		if err != nil {
			return err
		}
		tc.content = c
		return nil
	}
}

// WithMirror sets a remote mirror consulted before decoding.
func WithMirror(m Mirror) Option {
	return func(tc *Cache) error {
		tc.mirror = m
		return nil
	}
}

// WithFetcher sets the collaborator used to download URLs.
//
// Without a fetcher, resources requested without content wait in
// StateAwaitingBytes until [Resource.BytesReady] is called.
func WithFetcher(f Fetcher) Option {
	return func(tc *Cache) error {
		tc.fetcher = f
		return nil
	}
}

// WithLogger sets the logger for cache diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(tc *Cache) error {
		tc.logger = logger
		return nil
	}
}

// WithWorkers fixes the number of decode workers.
// Values < 1 select the count from the priority.
func WithWorkers(n int) Option {
	return func(tc *Cache) error {
		tc.workers = n
		return nil
	}
}

// WithPriority sets the decode worker priority. Defaults to PriorityNormal.
func WithPriority(p Priority) Option {
	return func(tc *Cache) error {
		tc.priority = p
		return nil
	}
}

// WithDefaultMaxPixels sets the pixel budget for requests that do not set
// one. Defaults to [DefaultMaxPixels].
func WithDefaultMaxPixels(n int64) Option {
	return func(tc *Cache) error {
		if n <= 0 {
			return errors.New("default max pixels must be positive")
		}
		tc.defaultMaxPixels = n
		return nil
	}
}

type textureConfig struct {
	content            []byte
	hasContent         bool
	maxPixels          int64
	loader             Loader
	generateIrradiance bool
}

// TextureOption configures a single texture request.
type TextureOption func(*textureConfig)

// WithContent supplies the encoded image bytes, so the load starts
// immediately without a download. The slice must not be modified afterwards.
func WithContent(data []byte) TextureOption {
	return func(cfg *textureConfig) {
		cfg.content = data
		cfg.hasContent = true
	}
}

// WithMaxPixels bounds the pixel count of the final texture. Larger images
// are downscaled. Values <= 0 select the cache default.
func WithMaxPixels(n int64) TextureOption {
	return func(cfg *textureConfig) {
		cfg.maxPixels = n
	}
}

// WithLoader sets the transform for UsageCustom requests.
func WithLoader(l Loader) TextureOption {
	return func(cfg *textureConfig) {
		cfg.loader = l
	}
}

// WithGenerateIrradiance controls irradiance generation for UsageCube.
// Defaults to true.
func WithGenerateIrradiance(enabled bool) TextureOption {
	return func(cfg *textureConfig) {
		cfg.generateIrradiance = enabled
	}
}
