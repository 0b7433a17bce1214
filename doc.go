// Package texcache loads images into render-ready textures and shares them by
// content.
//
// A [Cache] accepts requests for a URL and a [Usage] and hands out a
// [Resource] immediately. Loading continues in the background: the encoded
// bytes are hashed, and the texture is served from whichever tier has it
// first:
//
//   - live textures in memory, held weakly and keyed by content hash
//   - the persistent content cache of serialized texture containers
//   - an optional remote mirror of containers in an OCI registry
//   - a fresh decode on a bounded pool of workers
//
// Two requests whose bytes are identical end up sharing one texture object,
// even when their loads race.
//
// # Quick Start
//
//	c, err := texcache.New(
//	    texcache.WithContentCacheDir("/var/cache/textures"),
//	    texcache.WithFetcher(http.NewFetcher()),
//	)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	r, err := c.GetTexture("https://example.com/bricks.png", texcache.UsageAlbedo)
//	if err != nil {
//	    return err
//	}
//	// Texture returns the white fallback until the load finishes.
//	tex := r.Texture()
//
// Inline content skips the download:
//
//	r, err := c.GetTexture("", texcache.UsageNormal, texcache.WithContent(data))
//
// # Failures
//
// Load failures never surface as errors from GetTexture. A resource that
// cannot be loaded moves to [StateFailed], reports the cause from
// [Resource.Err] and keeps returning its fallback texture.
package texcache
