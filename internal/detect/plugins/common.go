// Package plugins implements the ten built-in format plugins named in
// spec §4.3: XML, JSON, INI-lineage, YAML, TOML, HCL, Conf, Dockerfile,
// Text, and RegistryLive. Each is pure over (path, sample, text), starts
// confidence near 0.5, and increments per independent structural signal.
package plugins

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const baseConfidence = 0.5

// clamp keeps confidence inside the catalog's [0, 0.95] contract; the
// orchestrator clamps again defensively, but plugins should never rely on
// that backstop.
func clamp(c float64) float64 {
	if c > 0.95 {
		return 0.95
	}
	if c < 0 {
		return 0
	}
	return c
}

func hasExtension(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func filenameMatches(path string, patterns ...string) bool {
	base := filepath.Base(path)
	for _, p := range patterns {
		if matched, _ := regexp.MatchString(p, base); matched {
			return true
		}
	}
	return false
}

// match builds a catalog.Match with confidence clamped and metadata merged
// with the format/variant pair, matching the "reuse key names across a
// format family" convention from spec §4.3.
func match(formatID, variant string, confidence float64, reasons []string, meta map[string]any) *catalog.Match {
	return &catalog.Match{
		FormatID:   formatID,
		Variant:    variant,
		Confidence: clamp(confidence),
		Reasons:    reasons,
		Metadata:   meta,
	}
}

// window truncates a decoded-text analysis to at most n runes worth of
// bytes, matching spec §4.3's "stop expensive heuristics at an analysis
// window" rule. It operates on bytes since all callers only need prefix
// scanning of ASCII structural markers.
func window(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
