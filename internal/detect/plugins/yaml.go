package plugins

import (
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const yamlAnalysisWindow = 131072

// YAML implements the YAML format plugin. Structural confirmation uses
// go.yaml.in/yaml/v3 to parse into a generic node tree, bounded to the
// analysis window rather than the full sample.
type YAML struct{}

func (YAML) Name() string    { return "yaml" }
func (YAML) Priority() int   { return 40 }
func (YAML) Version() string { return "1" }

func (YAML) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasExt := hasExtension(path, ".yaml", ".yml")
	hasComposeName := filenameMatches(path, `(?i)^docker-compose.*\.ya?ml$`)
	if text == nil {
		if hasExt {
			return match("yaml", "", baseConfidence, []string{"extension cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := window(*text, yamlAnalysisWindow)
	trimmed := strings.TrimSpace(t)
	if trimmed == "" {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(t), &node); err != nil {
		if hasExt || hasComposeName {
			return match("yaml", "", baseConfidence, []string{"filename/extension cue, unparsable yaml prefix"}, nil)
		}
		return nil, nil
	}
	if len(node.Content) == 0 {
		if hasExt {
			return match("yaml", "", baseConfidence, []string{"extension cue, empty document"}, nil)
		}
		return nil, nil
	}
	root := node.Content[0]

	confidence := baseConfidence
	reasons := []string{"yaml document parsed"}
	confidence += 0.15

	if hasExt || hasComposeName {
		confidence += 0.15
		reasons = append(reasons, "filename/extension cue")
	}

	var topLevelKeys []string
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			topLevelKeys = append(topLevelKeys, root.Content[i].Value)
		}
		confidence += 0.05
		reasons = append(reasons, "top-level mapping found")
	}

	variant := "generic-yaml"
	if hasComposeName || containsAny(topLevelKeys, "services", "version") {
		variant = "docker-compose"
		confidence += 0.05
		reasons = append(reasons, "compose-shaped keys")
	} else if containsAny(topLevelKeys, "apiVersion", "kind") {
		variant = "kubernetes-manifest"
		confidence += 0.05
		reasons = append(reasons, "kubernetes-shaped keys")
	}

	meta := map[string]any{
		"top_level_type": topLevelTypeOfYAML(root.Kind),
	}
	if len(topLevelKeys) > 0 {
		meta["top_level_keys"] = topLevelKeys
	}

	return match("yaml", variant, confidence, reasons, meta), nil
}

func topLevelTypeOfYAML(kind yaml.Kind) string {
	switch kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown"
	}
}

func containsAny(keys []string, candidates ...string) bool {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	for _, c := range candidates {
		if _, ok := set[c]; ok {
			return true
		}
	}
	return false
}
