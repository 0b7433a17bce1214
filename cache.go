package texcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"weak"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/texcache/cache"
	"github.com/meigma/texcache/container"
	"github.com/meigma/texcache/gpu"
	"github.com/meigma/texcache/internal/pool"
	"github.com/meigma/texcache/internal/weakmap"
)

// inlineScheme prefixes the synthetic URL of resources created from inline
// content without a URL.
const inlineScheme = "inline:"

// textureKey identifies a live texture. The same encoded bytes prepared for
// two usages are two textures.
type textureKey struct {
	hash  Hash
	usage Usage
}

// resourceKey identifies shareable resources.
type resourceKey struct {
	url       string
	usage     Usage
	maxPixels int64
}

// Cache turns texture requests into shared GPU textures.
//
// Textures are deduplicated by the content hash of their encoded bytes and
// their usage. A
// request is served from the live textures in memory, then from the
// persistent content cache, and only then decoded on a background worker.
// Concurrent loads of identical content converge on one texture object.
//
// A Cache is safe for concurrent use.
type Cache struct {
	logger           *slog.Logger
	content          cache.Cache
	mirror           Mirror
	fetcher          Fetcher
	workers          int
	priority         Priority
	defaultMaxPixels int64

	pool      *pool.Pool
	textures  *weakmap.Map[textureKey, gpu.Texture]
	regMu     sync.Mutex
	resources *weakmap.Map[resourceKey, Resource]
	loads     singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	stats counters
}

// New creates a texture cache.
//
// Without [WithContentCache] or [WithContentCacheDir] textures are only
// shared while they are alive in memory.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		defaultMaxPixels: DefaultMaxPixels,
		textures:         weakmap.New[textureKey, gpu.Texture](),
		resources:        weakmap.New[resourceKey, Resource](),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.pool = pool.New(
		pool.WithWorkers(c.workers),
		pool.WithPriority(c.priority),
		pool.WithLogger(c.logger),
	)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Workers returns the number of decode workers.
func (c *Cache) Workers() int { return c.pool.Workers() }

// ContentCache returns the persistent content cache, or nil.
func (c *Cache) ContentCache() cache.Cache { return c.content }

// GetTexture returns the resource for url and usage, starting a load if
// needed.
//
// A live resource for the same URL, usage and pixel budget is returned
// instead of a new one, unless it failed or was released. Custom usage
// resources are never shared.
//
// GetTexture never blocks on the network. The returned resource may still be
// loading; use [Resource.Wait], [Resource.Done] or [Resource.OnReady] to
// observe completion.
func (c *Cache) GetTexture(url string, usage Usage, opts ...TextureOption) (*Resource, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if !usage.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUsage, int(usage))
	}

	cfg := textureConfig{generateIrradiance: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if usage == UsageCube && !cfg.generateIrradiance {
		usage = UsageCubeNoIrradiance
	}
	loader, err := loaderFor(usage, cfg.loader)
	if err != nil {
		return nil, err
	}
	if cfg.maxPixels <= 0 {
		cfg.maxPixels = c.defaultMaxPixels
	}

	var hash Hash
	if cfg.hasContent && len(cfg.content) > 0 {
		hash = HashBytes(cfg.content)
		if url == "" {
			url = inlineScheme + hash.Encoded()
		}
	}

	key := resourceKey{url: url, usage: usage, maxPixels: cfg.maxPixels}
	share := !cfg.hasContent || len(cfg.content) > 0
	r, existing := c.register(key, loader, hash, share)
	if existing {
		return r, nil
	}

	switch {
	case cfg.hasContent:
		c.bytesReady(r, cfg.content)
	case url == "":
		c.log().Warn("texture requested without url or content", "usage", usage)
		r.fail(ErrInvalidURL)
	default:
		r.advance(StateAwaitingBytes)
		if c.fetcher != nil {
			go c.fetch(r)
		}
	}
	return r, nil
}

// register returns the live shareable resource for key, or registers a new
// one. hash, when set, must match the content of a shared resource.
func (c *Cache) register(key resourceKey, loader Loader, hash Hash, share bool) (*Resource, bool) {
	if !share || key.usage == UsageCustom || key.url == "" {
		return newResource(c, key, loader), false
	}

	c.regMu.Lock()
	defer c.regMu.Unlock()
	if r := c.resources.Load(key); r != nil && r.reusable() && (hash == "" || r.Hash() == hash) {
		return r, true
	}
	r := newResource(c, key, loader)
	c.resources.Store(key, r)
	return r, false
}

func (c *Cache) unregister(r *Resource) {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	c.resources.Delete(r.key, r)
}

// Prefetch starts loading url so a later GetTexture finds it in flight or
// ready.
func (c *Cache) Prefetch(url string, usage Usage, maxPixels int64) (*Resource, error) {
	return c.GetTexture(url, usage, WithMaxPixels(maxPixels))
}

func (c *Cache) fetch(r *Resource) {
	data, err := c.fetcher.Fetch(c.ctx, r.url)
	if err != nil {
		r.BytesFailed(err)
		return
	}
	r.BytesReady(data)
}

// bytesReady hashes data and serves r from memory, from the persistent
// cache, or by scheduling a decode.
func (c *Cache) bytesReady(r *Resource, data []byte) {
	if len(data) == 0 {
		c.log().Warn("texture content is empty", "url", r.url)
		r.fail(ErrEmptyContent)
		return
	}
	hash := HashBytes(data)
	if !r.schedule(hash) {
		return
	}

	if r.usage != UsageCustom {
		if tex, ok := c.TextureByHash(hash, r.usage); ok {
			c.stats.memoryHits.Add(1)
			c.log().Debug("returning live texture", "url", r.url, "hash", hash, "usage", r.usage)
			r.finish(tex)
			return
		}
		if tex := c.loadPersisted(hash, r.usage); tex != nil {
			r.finish(c.CacheTextureByHash(hash, r.usage, tex))
			return
		}
	}

	r.advance(StateDecoding)
	wr := weak.Make(r)
	err := c.pool.SubmitOrDrop(func(ctx context.Context) {
		c.decode(ctx, wr, hash, data)
	}, func() {
		if dropped := wr.Value(); dropped != nil {
			dropped.fail(ErrClosed)
		}
	})
	if err != nil {
		if errors.Is(err, pool.ErrClosed) {
			err = ErrClosed
		}
		r.fail(err)
	}
}

// loadPersisted returns the texture stored in the content cache for hash and
// usage, or nil. Concurrent lookups of one entry share a single read. Corrupt
// entries are removed.
func (c *Cache) loadPersisted(hash Hash, usage Usage) *gpu.Texture {
	if c.content == nil {
		return nil
	}
	key := ContentKey(hash, usage)
	v, _, _ := c.loads.Do(key.String(), func() (any, error) {
		f, ok := c.content.GetFile(key)
		if !ok {
			return nil, nil
		}
		tex, err := readContainer(f, hash, usage)
		if err != nil {
			c.log().Warn("discarding unreadable cache entry", "hash", hash, "usage", usage, "error", err)
			if d, ok := c.content.(cache.Deleter); ok {
				if err := d.Delete(key); err != nil {
					c.log().Warn("failed to delete cache entry", "hash", hash, "usage", usage, "error", err)
				}
			}
			return nil, nil
		}
		return tex, nil
	})
	tex, _ := v.(*gpu.Texture)
	if tex == nil {
		return nil
	}
	if tex.Fallback() == nil {
		tex.SetFallback(c.FallbackTexture(usage))
	}
	c.stats.diskHits.Add(1)
	c.log().Debug("loaded texture from content cache", "hash", hash)
	return tex
}

// readContainer materializes f, checking that it holds the texture prepared
// from hash for usage.
func readContainer(f cache.File, hash Hash, usage Usage) (*gpu.Texture, error) {
	ct, err := f.Container()
	if err != nil {
		return nil, err
	}
	if got := ct.ContentHash(); got != hash {
		return nil, fmt.Errorf("%w: expected content %s, records %s", container.ErrInvalid, hash, got)
	}
	if got := ct.Usage(); got != usage.String() {
		return nil, fmt.Errorf("%w: expected usage %s, records %q", container.ErrInvalid, usage, got)
	}
	return ct.Texture()
}

// TextureByHash returns the live texture prepared from content hash for
// usage. It only consults memory.
func (c *Cache) TextureByHash(hash Hash, usage Usage) (*gpu.Texture, bool) {
	tex := c.textures.Load(textureKey{hash: hash, usage: usage})
	return tex, tex != nil
}

// CacheTextureByHash stores candidate as the live texture for hash and usage
// unless one already exists, and returns whichever texture is stored
// afterwards. Callers must use the returned texture in place of candidate.
func (c *Cache) CacheTextureByHash(hash Hash, usage Usage, candidate *gpu.Texture) *gpu.Texture {
	actual, inserted := c.textures.CompareAndInsert(textureKey{hash: hash, usage: usage}, candidate)
	if !inserted && actual != nil && actual != candidate {
		c.log().Debug("swapping texture for live instance", "hash", hash, "usage", usage)
	}
	return actual
}

// ImageTexture synchronously loads the image file at path with the loader
// for usage. It bypasses every cache tier.
func (c *Cache) ImageTexture(path string, usage Usage, opts ...TextureOption) (*gpu.Texture, error) {
	cfg := textureConfig{generateIrradiance: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if usage == UsageCube && !cfg.generateIrradiance {
		usage = UsageCubeNoIrradiance
	}
	loader, err := loaderFor(usage, cfg.loader)
	if err != nil {
		return nil, err
	}
	if cfg.maxPixels <= 0 {
		cfg.maxPixels = c.defaultMaxPixels
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.decodeTexture(data, path, usage, loader, cfg.maxPixels)
}

// Close stops the decode workers and cancels downloads. Resources whose
// decode was still queued fail with ErrClosed before Close returns.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	c.pool.Close()
	return nil
}
