package plugins

import (
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const tomlAnalysisWindow = 131072

// TOML implements the TOML format plugin, confirming structure via
// github.com/pelletier/go-toml/v2 decoded into a generic map.
type TOML struct{}

func (TOML) Name() string    { return "toml" }
func (TOML) Priority() int   { return 50 }
func (TOML) Version() string { return "1" }

func (TOML) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasExt := hasExtension(path, ".toml")
	if text == nil {
		if hasExt {
			return match("toml", "", baseConfidence, []string{"extension cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := window(*text, tomlAnalysisWindow)
	if strings.TrimSpace(t) == "" {
		return nil, nil
	}

	var doc map[string]any
	if err := toml.Unmarshal([]byte(t), &doc); err != nil {
		if hasExt {
			return match("toml", "", baseConfidence, []string{"extension cue, unparsable toml prefix"}, nil)
		}
		return nil, nil
	}

	confidence := baseConfidence
	reasons := []string{"toml document parsed"}
	confidence += 0.2
	if hasExt {
		confidence += 0.15
		reasons = append(reasons, "extension cue")
	}

	var keys []string
	var tables []string
	for k, v := range doc {
		keys = append(keys, k)
		if _, isTable := v.(map[string]any); isTable {
			tables = append(tables, k)
		}
	}
	sort.Strings(keys)
	sort.Strings(tables)
	if len(tables) > 0 {
		confidence += 0.05
		reasons = append(reasons, "toml tables present")
	}

	variant := "generic-toml"
	if containsAny(keys, "package", "dependencies") {
		variant = "cargo-manifest"
	} else if containsAny(keys, "tool", "project") {
		variant = "pyproject-manifest"
	}

	meta := map[string]any{
		"top_level_type": "object",
		"top_level_keys": keys,
	}
	if len(tables) > 0 {
		meta["tables"] = tables
	}

	return match("toml", variant, confidence, reasons, meta), nil
}
