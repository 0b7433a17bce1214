package texcache

import (
	"fmt"
	"strings"
)

// Usage is the role a texture plays in rendering. It selects the transform
// applied after decoding and the fallback shown while the texture loads.
type Usage int

// Usage kinds. The names returned by String are stable and accepted by
// ParseUsage.
const (
	UsageDefault Usage = iota
	UsageAlbedo
	UsageNormalFromBump
	UsageNormal
	UsageRoughness
	UsageRoughnessFromGloss
	UsageMetallic
	UsageEmissive
	UsageLightmap
	UsageOcclusion
	UsageCube
	UsageCubeNoIrradiance
	UsageStrict
	UsageCustom
)

var usageNames = [...]string{
	UsageDefault:            "default",
	UsageAlbedo:             "albedo",
	UsageNormalFromBump:     "normal-from-bump",
	UsageNormal:             "normal",
	UsageRoughness:          "roughness",
	UsageRoughnessFromGloss: "roughness-from-gloss",
	UsageMetallic:           "metallic",
	UsageEmissive:           "emissive",
	UsageLightmap:           "lightmap",
	UsageOcclusion:          "occlusion",
	UsageCube:               "cube",
	UsageCubeNoIrradiance:   "cube-no-irradiance",
	UsageStrict:             "strict",
	UsageCustom:             "custom",
}

// Aliases accepted by ParseUsage in addition to the canonical names.
var usageAliases = map[string]Usage{
	"bump":     UsageNormalFromBump,
	"gloss":    UsageRoughnessFromGloss,
	"specular": UsageMetallic,
	"skybox":   UsageCube,
	"2d":       UsageStrict,
}

// String returns the stable name of u.
func (u Usage) String() string {
	if !u.Valid() {
		return fmt.Sprintf("usage(%d)", int(u))
	}
	return usageNames[u]
}

// Valid reports whether u is a known usage.
func (u Usage) Valid() bool {
	return u >= 0 && int(u) < len(usageNames)
}

// ParseUsage returns the usage named s. Matching ignores case.
func ParseUsage(s string) (Usage, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for u, n := range usageNames {
		if n == name {
			return Usage(u), nil
		}
	}
	if u, ok := usageAliases[name]; ok {
		return u, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUsage, s)
}

// Usages returns every usage in declaration order.
func Usages() []Usage {
	all := make([]Usage, len(usageNames))
	for i := range all {
		all[i] = Usage(i)
	}
	return all
}
