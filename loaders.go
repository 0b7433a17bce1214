package texcache

import (
	"fmt"

	"github.com/meigma/texcache/transform"
)

// Loader converts decoded pixels into a texture. Loaders must not retain
// img after returning.
type Loader = transform.Func

var loaders = map[Usage]Loader{
	UsageDefault:            transform.Texture2D,
	UsageAlbedo:             transform.Albedo,
	UsageNormalFromBump:     transform.NormalFromBump,
	UsageNormal:             transform.Normal,
	UsageRoughness:          transform.Roughness,
	UsageRoughnessFromGloss: transform.RoughnessFromGloss,
	UsageMetallic:           transform.Metallic,
	UsageEmissive:           transform.Emissive,
	UsageLightmap:           transform.Lightmap,
	UsageOcclusion:          transform.Texture2D,
	UsageCube:               transform.Cube,
	UsageCubeNoIrradiance:   transform.CubeNoIrradiance,
	UsageStrict:             transform.Strict2D,
}

// loaderFor returns the loader for usage. custom is used only for
// UsageCustom, where it is required.
func loaderFor(usage Usage, custom Loader) (Loader, error) {
	if usage == UsageCustom {
		if custom == nil {
			return nil, ErrMissingLoader
		}
		return custom, nil
	}
	l, ok := loaders[usage]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUsage, int(usage))
	}
	return l, nil
}
