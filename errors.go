package texcache

import (
	"errors"

	"github.com/meigma/texcache/container"
	"github.com/meigma/texcache/internal/imageio"
	"github.com/meigma/texcache/transform"
)

// Sentinel errors for texture loads.
var (
	// ErrMissingLoader is returned by GetTexture when a custom usage is
	// requested without a loader.
	ErrMissingLoader = errors.New("texcache: custom usage requires a loader")

	// ErrInvalidURL is returned when a resource has neither a URL nor content.
	ErrInvalidURL = errors.New("texcache: invalid texture url")

	// ErrEmptyContent is reported by resources whose bytes are empty.
	ErrEmptyContent = errors.New("texcache: empty texture content")

	// ErrAbandoned is returned by Wait when the resource was released before
	// it finished loading.
	ErrAbandoned = errors.New("texcache: load abandoned")

	// ErrClosed is returned when using a closed cache.
	ErrClosed = errors.New("texcache: cache closed")

	// ErrUnknownUsage is returned by ParseUsage and GetTexture for unknown usages.
	ErrUnknownUsage = errors.New("texcache: unknown usage")
)

// Errors re-exported from subpackages.
var (
	// ErrDecode is reported when image bytes cannot be decoded.
	ErrDecode = imageio.ErrDecode

	// ErrEmptyImage is reported for images with zero width or height.
	ErrEmptyImage = imageio.ErrEmptyImage

	// ErrCubeLayout is reported when a cube usage gets an image whose aspect
	// ratio matches no known cube layout.
	ErrCubeLayout = transform.ErrCubeLayout

	// ErrInvalidContainer is returned for malformed texture containers.
	ErrInvalidContainer = container.ErrInvalid
)
