package texcache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"weak"

	"github.com/meigma/texcache/cache"
	"github.com/meigma/texcache/container"
	"github.com/meigma/texcache/gpu"
	"github.com/meigma/texcache/internal/imageio"
)

// decode is the worker body for one resource: it produces a texture for
// data, persists it, reconciles it with the live textures and delivers it.
//
// The worker holds the resource weakly. If the resource has been collected
// or released when the worker starts or before it publishes, the result is
// dropped without touching any cache.
func (c *Cache) decode(ctx context.Context, wr weak.Pointer[Resource], hash Hash, data []byte) {
	req, ok := requestOf(wr)
	if !ok {
		c.abandon(hash)
		return
	}
	url, usage := req.url, req.usage

	tex, mirrored := c.fetchMirror(ctx, hash, url, usage)
	if tex == nil {
		var err error
		tex, err = c.decodeTexture(data, url, usage, req.loader, req.maxPixels)
		if err != nil {
			c.stats.failures.Add(1)
			c.log().Warn("texture decode failed", "url", url, "hash", hash, "error", err)
			if r := wr.Value(); r != nil {
				r.fail(err)
			}
			return
		}
	}

	r := wr.Value()
	if r == nil || r.Released() {
		c.abandon(hash)
		return
	}

	if usage != UsageCustom {
		c.persist(ctx, hash, usage, tex, mirrored)
		tex = c.CacheTextureByHash(hash, usage, tex)
	}
	r.finish(tex)
}

// request is what a worker needs from its resource. Copying it lets the
// worker run without keeping the resource alive.
type request struct {
	url       string
	usage     Usage
	loader    Loader
	maxPixels int64
}

func requestOf(wr weak.Pointer[Resource]) (request, bool) {
	r := wr.Value()
	if r == nil || r.Released() {
		return request{}, false
	}
	return request{url: r.url, usage: r.usage, loader: r.loader, maxPixels: r.maxPixels}, true
}

func (c *Cache) abandon(hash Hash) {
	c.stats.abandoned.Add(1)
	c.log().Debug("dropping texture load with no consumers", "hash", hash)
}

// decodeTexture decodes data, fits it into maxPixels and applies loader.
func (c *Cache) decodeTexture(data []byte, url string, usage Usage, loader Loader, maxPixels int64) (*gpu.Texture, error) {
	img, format, err := imageio.Decode(data, url)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	pixels, scaled := imageio.FitPixels(img, maxPixels)
	if scaled {
		c.log().Debug("downscaled texture",
			"url", url,
			"from", fmt.Sprintf("%dx%d", width, height),
			"to", fmt.Sprintf("%dx%d", pixels.Bounds().Dx(), pixels.Bounds().Dy()))
	}

	tex, err := runLoader(loader, pixels)
	if err != nil {
		return nil, fmt.Errorf("%s %s image: %w", usage, format, err)
	}
	tex.SetSource(url)
	tex.SetUsage(usage.String())
	tex.SetOriginalSize(width, height)
	if fallback := c.FallbackTexture(usage); fallback != nil {
		tex.SetFallback(fallback)
	}
	c.stats.decodes.Add(1)
	return tex, nil
}

// runLoader applies loader, converting a panic into an error.
func runLoader(loader Loader, img *image.NRGBA) (tex *gpu.Texture, err error) {
	defer func() {
		if r := recover(); r != nil {
			tex = nil
			err = fmt.Errorf("loader panicked: %v", r)
		}
	}()
	tex, err = loader(img)
	if err == nil && tex == nil {
		err = errors.New("loader returned no texture")
	}
	return tex, err
}

// fetchMirror returns the texture the mirror holds for hash, or nil.
func (c *Cache) fetchMirror(ctx context.Context, hash Hash, url string, usage Usage) (*gpu.Texture, bool) {
	if c.mirror == nil || usage == UsageCustom {
		return nil, false
	}
	data, err := c.mirror.Fetch(ctx, ContentKey(hash, usage))
	if err != nil {
		c.log().Debug("texture not available from mirror", "hash", hash, "usage", usage, "error", err)
		return nil, false
	}
	ct, err := container.Load(data)
	switch {
	case err != nil:
	case ct.ContentHash() != hash:
		err = fmt.Errorf("%w: mirror returned content %s", container.ErrInvalid, ct.ContentHash())
	case ct.Usage() != usage.String():
		err = fmt.Errorf("%w: mirror returned usage %q", container.ErrInvalid, ct.Usage())
	}
	if err != nil {
		c.log().Warn("ignoring invalid mirror container", "hash", hash, "usage", usage, "error", err)
		return nil, false
	}
	tex, err := ct.Texture()
	if err != nil {
		c.log().Warn("ignoring invalid mirror container", "hash", hash, "error", err)
		return nil, false
	}
	tex.SetSource(url)
	if fallback := c.FallbackTexture(usage); fallback != nil {
		tex.SetFallback(fallback)
	}
	c.stats.mirrorHits.Add(1)
	return tex, true
}

// persist serializes tex into the content cache and, unless it came from
// there, the mirror. Both store it under ContentKey(hash, usage). Failures are
// logged and otherwise ignored.
func (c *Cache) persist(ctx context.Context, hash Hash, usage Usage, tex *gpu.Texture, mirrored bool) {
	if c.content == nil && (c.mirror == nil || mirrored) {
		return
	}
	data, err := container.Serialize(tex, container.WithContentHash(hash))
	if err != nil {
		c.log().Warn("failed to serialize texture", "hash", hash, "error", err)
		return
	}
	tex.SetBacking(data)

	key := ContentKey(hash, usage)
	if c.content != nil {
		meta := cache.Metadata{Hash: key, Length: int64(len(data))}
		if _, err := c.content.WriteFile(data, meta); err != nil {
			c.log().Warn("failed to write texture to content cache", "hash", hash, "error", err)
		}
	}
	if c.mirror != nil && !mirrored {
		if err := c.mirror.Push(ctx, key, data); err != nil {
			c.log().Warn("failed to push texture to mirror", "hash", hash, "error", err)
		}
	}
}
