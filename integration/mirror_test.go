//go:build integration

package integration

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/texcache"
	"github.com/meigma/texcache/container"
	"github.com/meigma/texcache/internal/testutil"
	"github.com/meigma/texcache/mirror"
	"github.com/meigma/texcache/transform"
)

func TestMirrorPushFetch(t *testing.T) {
	t.Parallel()

	addr := getRegistry(t)
	m := newTestMirror(t, testRepo(addr, "push-fetch"))
	ctx := context.Background()

	tex, err := transform.Albedo(testutil.Gradient(16, 16))
	require.NoError(t, err)
	hash := digest.FromString("push-fetch source")
	data, err := container.Serialize(tex, container.WithContentHash(hash))
	require.NoError(t, err)

	require.NoError(t, m.Push(ctx, hash, data))
	require.NoError(t, m.Push(ctx, hash, data), "pushing twice is allowed")

	got, err := m.Fetch(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	c, err := container.Load(got)
	require.NoError(t, err)
	assert.Equal(t, hash, c.ContentHash())
}

func TestMirrorFetchMissing(t *testing.T) {
	t.Parallel()

	addr := getRegistry(t)
	m := newTestMirror(t, testRepo(addr, "missing"))

	_, err := m.Fetch(context.Background(), digest.FromString("never pushed"))
	assert.ErrorIs(t, err, mirror.ErrNotFound)
}

func TestCachesShareThroughMirror(t *testing.T) {
	t.Parallel()

	addr := getRegistry(t)
	repo := testRepo(addr, "shared")
	png := testutil.EncodePNG(t, testutil.Solid(32, 32, color.NRGBA{R: 10, G: 200, B: 30, A: 255}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	first := newTestCache(t, newTestMirror(t, repo))
	r1, err := first.GetTexture("https://assets.example/grass.png", texcache.UsageAlbedo, texcache.WithContent(png))
	require.NoError(t, err)
	require.NoError(t, r1.Wait(ctx))
	assert.Equal(t, int64(1), first.Stats().Decodes)

	second := newTestCache(t, newTestMirror(t, repo))
	r2, err := second.GetTexture("https://cdn.example/grass.png", texcache.UsageAlbedo, texcache.WithContent(png))
	require.NoError(t, err)
	require.NoError(t, r2.Wait(ctx))

	stats := second.Stats()
	assert.Equal(t, int64(1), stats.MirrorHits)
	assert.Equal(t, int64(0), stats.Decodes)
	assert.Equal(t, r1.Hash(), r2.Hash())
	assert.Equal(t, r1.Texture().Mip(0).Data, r2.Texture().Mip(0).Data)

	// The mirror hit was persisted locally.
	_, ok := second.ContentCache().GetFile(texcache.ContentKey(r2.Hash(), texcache.UsageAlbedo))
	assert.True(t, ok)
}
