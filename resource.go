package texcache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/meigma/texcache/gpu"
)

// State is the lifecycle state of a Resource.
type State int32

// Resource states. StateReady and StateFailed are terminal.
const (
	StateCreated State = iota
	StateAwaitingBytes
	StateLoadScheduled
	StateDecoding
	StateReady
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAwaitingBytes:
		return "awaiting-bytes"
	case StateLoadScheduled:
		return "load-scheduled"
	case StateDecoding:
		return "decoding"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is StateReady or StateFailed.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed
}

// Resource is the handle for one requested texture.
//
// A resource tracks a single URL and usage from request to a ready texture
// or a failure. Its texture is held in a [gpu.Source] so the cache can point
// it at a shared instance when another load of the same content wins.
//
// Resources are safe for concurrent use.
type Resource struct {
	cache     *Cache
	key       resourceKey
	url       string
	usage     Usage
	loader    Loader
	maxPixels int64
	source    *gpu.Source

	mu        sync.Mutex
	state     State
	err       error
	hash      Hash
	original  [2]int
	listeners []func(*Resource)

	done     chan struct{}
	released chan struct{}
	release  sync.Once
	dropped  atomic.Bool
}

func newResource(c *Cache, key resourceKey, loader Loader) *Resource {
	return &Resource{
		cache:     c,
		key:       key,
		url:       key.url,
		usage:     key.usage,
		loader:    loader,
		maxPixels: key.maxPixels,
		source:    gpu.NewSource(),
		done:      make(chan struct{}),
		released:  make(chan struct{}),
	}
}

// URL returns the requested URL, or the synthetic inline identifier.
func (r *Resource) URL() string { return r.url }

// Usage returns the requested usage.
func (r *Resource) Usage() Usage { return r.usage }

// MaxPixels returns the pixel budget applied when decoding.
func (r *Resource) MaxPixels() int64 { return r.maxPixels }

// Source returns the indirection cell holding the current texture.
func (r *Resource) Source() *gpu.Source { return r.source }

// State returns the current lifecycle state.
func (r *Resource) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the reason the resource failed, or nil.
func (r *Resource) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Hash returns the content hash, or "" before the bytes have arrived.
func (r *Resource) Hash() Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hash
}

// Texture returns the loaded texture, or the usage fallback while the
// resource is loading or after it failed. It may return nil for usages
// without a fallback.
func (r *Resource) Texture() *gpu.Texture {
	if tex := r.source.Texture(); tex != nil {
		return tex
	}
	return r.cache.FallbackTexture(r.usage)
}

// IsFallback reports whether Texture currently returns a fallback.
func (r *Resource) IsFallback() bool {
	return !r.source.IsDefined()
}

// OriginalSize returns the dimensions of the encoded image before
// downscaling. It is 0, 0 until the resource is ready.
func (r *Resource) OriginalSize() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.original[0], r.original[1]
}

// Size returns the dimensions of the loaded texture. It is 0, 0 until the
// resource is ready and after a failure.
func (r *Resource) Size() (width, height int) {
	tex := r.source.Texture()
	if tex == nil {
		return 0, 0
	}
	return tex.Width(), tex.Height()
}

// Done returns a channel closed when the resource reaches a terminal state.
func (r *Resource) Done() <-chan struct{} { return r.done }

// Wait blocks until the resource is ready or failed, the resource is
// released, or ctx is done. It returns the failure reason, if any.
func (r *Resource) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-r.released:
		select {
		case <-r.done:
			return r.Err()
		default:
			return ErrAbandoned
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnReady registers fn to run once the resource reaches a terminal state.
// fn runs immediately if it already has. Check State or Err to tell
// success from failure.
func (r *Resource) OnReady(fn func(*Resource)) {
	r.mu.Lock()
	if !r.state.Terminal() {
		r.listeners = append(r.listeners, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	fn(r)
}

// BytesReady hands the resource its encoded image bytes. Network
// collaborators call it when a download completes. Calls after the first,
// or after the resource finished, are ignored.
func (r *Resource) BytesReady(data []byte) {
	r.cache.bytesReady(r, data)
}

// BytesFailed reports that the encoded bytes could not be retrieved.
func (r *Resource) BytesFailed(err error) {
	if err == nil {
		err = ErrEmptyContent
	}
	r.cache.log().Warn("texture download failed", "url", r.url, "error", err)
	r.fail(err)
}

// Release tells the cache the resource is no longer needed. In-flight work
// for it is dropped and later requests for the same URL start a new load.
func (r *Resource) Release() {
	r.release.Do(func() {
		r.dropped.Store(true)
		close(r.released)
		r.cache.unregister(r)
	})
}

// Released reports whether Release has been called.
func (r *Resource) Released() bool { return r.dropped.Load() }

// reusable reports whether a new request may share this resource.
func (r *Resource) reusable() bool {
	return !r.Released() && r.State() != StateFailed
}

// schedule moves the resource to StateLoadScheduled for content hash.
// It reports false if bytes were already delivered or the resource finished.
func (r *Resource) schedule(hash Hash) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateCreated && r.state != StateAwaitingBytes {
		return false
	}
	r.state = StateLoadScheduled
	r.hash = hash
	return true
}

// advance moves a non-terminal resource to s.
func (r *Resource) advance(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Terminal() {
		r.state = s
	}
}

// finish publishes tex and marks the resource ready.
func (r *Resource) finish(tex *gpu.Texture) {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		return
	}
	r.source.Reset(tex)
	r.original[0], r.original[1] = tex.OriginalSize()
	r.state = StateReady
	listeners := r.complete()
	r.mu.Unlock()

	r.notify(listeners)
}

// fail marks the resource failed with err.
func (r *Resource) fail(err error) {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		return
	}
	r.state = StateFailed
	r.err = err
	r.original = [2]int{}
	listeners := r.complete()
	r.mu.Unlock()

	r.notify(listeners)
}

// complete closes done and detaches the listeners. r.mu must be held.
func (r *Resource) complete() []func(*Resource) {
	close(r.done)
	listeners := r.listeners
	r.listeners = nil
	return listeners
}

func (r *Resource) notify(listeners []func(*Resource)) {
	for _, fn := range listeners {
		fn(r)
	}
}
