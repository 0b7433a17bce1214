package gpu

import "sync/atomic"

// Source is an indirection cell holding the current texture of a resource.
//
// Holders keep the Source rather than the Texture so the owner can swap in a
// different object, for example a shared instance found by content hash,
// without the holders noticing. The texture itself is never modified.
type Source struct {
	tex atomic.Pointer[Texture]
}

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{}
}

// Texture returns the current texture, or nil if none has been set.
func (s *Source) Texture() *Texture {
	return s.tex.Load()
}

// Reset replaces the current texture.
func (s *Source) Reset(t *Texture) {
	s.tex.Store(t)
}

// IsDefined reports whether a texture has been set.
func (s *Source) IsDefined() bool {
	return s.tex.Load() != nil
}
