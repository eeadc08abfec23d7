package detect

import (
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

// normalizeMetadata is the "central metadata normaliser" from spec §4.2
// step 5: it trims whitespace, lowercases enum-like keys, and rejects
// non-JSON-serialisable values. It never panics; a rejected value is simply
// dropped rather than aborting detection.
func normalizeMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		nv, ok := normalizeValue(v)
		if !ok {
			continue
		}
		if isEnumLikeKey(key) {
			if s, isStr := nv.(string); isStr {
				nv = strings.ToLower(s)
			}
		}
		out[key] = nv
	}
	return out
}

// enumLikeSuffixes lists key name endings that denote enum-like string
// values (format/variant/encoding identifiers), which are normalized to
// lowercase for stable comparisons downstream (profile matching, report
// rendering).
var enumLikeSuffixes = []string{"_format", "_variant", "_type", "encoding"}

func isEnumLikeKey(key string) bool {
	lower := strings.ToLower(key)
	for _, suffix := range enumLikeSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// normalizeValue trims string values and rejects types that cannot survive
// a JSON round-trip (channels, funcs, complex numbers).
func normalizeValue(v any) (any, bool) {
	switch val := v.(type) {
	case nil, bool, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		if s, isStr := val.(string); isStr {
			return strings.TrimSpace(s), true
		}
		return val, true
	case []string:
		cp := make([]string, len(val))
		for i, s := range val {
			cp[i] = strings.TrimSpace(s)
		}
		return cp, true
	case []any:
		cp := make([]any, 0, len(val))
		for _, item := range val {
			if nv, ok := normalizeValue(item); ok {
				cp = append(cp, nv)
			}
		}
		return cp, true
	case map[string]any:
		return normalizeMetadata(val), true
	default:
		return nil, false
	}
}

// withMandatoryMetadata populates the mandatory keys required by spec §3 on
// top of whatever plugin-specific metadata the match already carries.
func withMandatoryMetadata(pluginMeta map[string]any, formatID, variant string, bytesSampled int, truncated bool, encoding string, sampleClamped bool) map[string]any {
	meta := normalizeMetadata(pluginMeta)
	meta[MetaCatalogVersion] = catalog.Version
	meta[MetaCatalogFormat] = catalogFormatFor(formatID)
	if variant != "" {
		meta[MetaCatalogVariant] = strings.ToLower(variant)
	}
	meta[MetaBytesSampled] = bytesSampled
	if encoding != "" {
		meta[MetaEncoding] = encoding
	}
	if truncated {
		meta[MetaSampleTruncated] = true
	}
	if sampleClamped {
		meta[MetaSampleClamped] = true
	}
	return meta
}
