// Package mirror stores texture containers in an OCI registry.
//
// Each container is pushed as a single-layer OCI artifact whose artifact
// type is [container.MediaType] and whose tag is derived from the content
// hash of the source image, so any client that knows the hash can find the
// texture without decoding the image itself.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/errcode"
	"oras.land/oras-go/v2/registry/remote/retry"

	"github.com/meigma/texcache/cache"
	"github.com/meigma/texcache/container"
)

// Sentinel errors for mirror operations.
var (
	// ErrNotFound is returned when the mirror holds no texture for a hash.
	ErrNotFound = errors.New("mirror: texture not found")

	// ErrInvalidManifest is returned when a tag points at something other
	// than a texture artifact.
	ErrInvalidManifest = errors.New("mirror: not a texture manifest")
)

// Mirror reads and writes texture containers in an OCI target.
type Mirror struct {
	target oras.Target
	logger *slog.Logger
}

type config struct {
	logger    *slog.Logger
	plainHTTP bool
	userAgent string
	credStore credentials.Store
}

// Option configures a Mirror.
type Option func(*config)

// WithLogger sets the logger for mirror diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithPlainHTTP enables plain HTTP (no TLS) for remote registries.
// This is useful for local development registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *config) {
		c.plainHTTP = enabled
	}
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) Option {
	return func(c *config) {
		c.userAgent = ua
	}
}

// WithDockerConfig reads credentials from ~/.docker/config.json and its
// credential helpers. If the config cannot be loaded, requests are anonymous.
func WithDockerConfig() Option {
	return func(c *config) {
		store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
		if err != nil {
			return
		}
		c.credStore = store
	}
}

// WithStaticCredentials uses username and password for every registry.
func WithStaticCredentials(username, password string) Option {
	return func(c *config) {
		c.credStore = staticStore{cred: auth.Credential{Username: username, Password: password}}
	}
}

// New returns a mirror over target, for example an oras-go memory store or
// an OCI layout directory.
func New(target oras.Target, opts ...Option) *Mirror {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Mirror{target: target, logger: cfg.logger}
}

// NewRemote returns a mirror over the registry repository ref, such as
// "ghcr.io/acme/textures".
func NewRemote(ref string, opts ...Option) (*Mirror, error) {
	cfg := config{userAgent: "texcache/1.0"}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("parse reference %q: %w", ref, err)
	}
	repo.PlainHTTP = cfg.plainHTTP
	repo.Client = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if cfg.credStore == nil {
				return auth.EmptyCredential, nil
			}
			return cfg.credStore.Get(ctx, hostport)
		},
		Header: http.Header{
			"User-Agent": []string{cfg.userAgent},
		},
	}
	return &Mirror{target: repo, logger: cfg.logger}, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (m *Mirror) log() *slog.Logger {
	if m.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.logger
}

// Tag returns the tag a texture for hash is stored under.
func Tag(hash digest.Digest) string {
	return hash.Algorithm().String() + "-" + hash.Encoded()
}

// Push stores data, a serialized container, as the texture for hash.
// Pushing a hash that is already present replaces its tag.
func (m *Mirror) Push(ctx context.Context, hash digest.Digest, data []byte) error {
	if err := hash.Validate(); err != nil {
		return err
	}

	layer := cache.NewDescriptor(data, hash)
	if err := m.target.Push(ctx, layer, bytes.NewReader(data)); err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
		return fmt.Errorf("push container: %w", mapError(err))
	}

	manifest, err := oras.PackManifest(ctx, m.target, oras.PackManifestVersion1_1, container.MediaType,
		oras.PackManifestOptions{
			Layers: []ocispec.Descriptor{layer},
			ManifestAnnotations: map[string]string{
				cache.AnnotationContentHash: hash.String(),
			},
		})
	if err != nil {
		return fmt.Errorf("push manifest: %w", mapError(err))
	}
	if err := m.target.Tag(ctx, manifest, Tag(hash)); err != nil {
		return fmt.Errorf("tag manifest: %w", mapError(err))
	}
	m.log().Debug("pushed texture to mirror", "hash", hash, "manifest", manifest.Digest, "size", len(data))
	return nil
}

// Fetch returns the container stored for hash.
func (m *Mirror) Fetch(ctx context.Context, hash digest.Digest) ([]byte, error) {
	if err := hash.Validate(); err != nil {
		return nil, err
	}
	desc, err := m.target.Resolve(ctx, Tag(hash))
	if err != nil {
		return nil, mapError(err)
	}
	if desc.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%w: media type %s", ErrInvalidManifest, desc.MediaType)
	}

	raw, err := content.FetchAll(ctx, m.target, desc)
	if err != nil {
		return nil, mapError(err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	layer, err := textureLayer(manifest)
	if err != nil {
		return nil, err
	}

	data, err := content.FetchAll(ctx, m.target, layer)
	if err != nil {
		return nil, mapError(err)
	}
	m.log().Debug("fetched texture from mirror", "hash", hash, "size", len(data))
	return data, nil
}

// textureLayer returns the container layer of a texture manifest.
func textureLayer(manifest ocispec.Manifest) (ocispec.Descriptor, error) {
	if manifest.ArtifactType != container.MediaType {
		return ocispec.Descriptor{}, fmt.Errorf("%w: artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}
	for _, layer := range manifest.Layers {
		if layer.MediaType == container.MediaType {
			return layer, nil
		}
	}
	return ocispec.Descriptor{}, fmt.Errorf("%w: no container layer", ErrInvalidManifest)
}

// mapError maps ORAS not-found errors to ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var errResp *errcode.ErrorResponse
	if errors.As(err, &errResp) && errResp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// staticStore returns one credential for every registry.
type staticStore struct {
	cred auth.Credential
}

func (s staticStore) Get(context.Context, string) (auth.Credential, error) {
	return s.cred, nil
}

func (s staticStore) Put(context.Context, string, auth.Credential) error {
	return errors.New("static credential store is read-only")
}

func (s staticStore) Delete(context.Context, string) error {
	return errors.New("static credential store is read-only")
}

// String returns the mirror target for diagnostics.
func (m *Mirror) String() string {
	if repo, ok := m.target.(*remote.Repository); ok {
		return repo.Reference.String()
	}
	return fmt.Sprintf("%T", m.target)
}
