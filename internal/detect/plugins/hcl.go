package plugins

import (
	"regexp"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const hclAnalysisWindow = 65536

// HCL implements the HCL format plugin with bounded block-header scanning.
// No third-party HCL parser is in the dependency pack (see DESIGN.md); the
// detection stays within spec §4.3's "bounded structural checks" rule by
// never attempting a full grammar parse, only a block-header regex scan.
type HCL struct{}

func (HCL) Name() string    { return "hcl" }
func (HCL) Priority() int   { return 60 }
func (HCL) Version() string { return "1" }

var (
	hclBlockHeader = regexp.MustCompile(`(?m)^\s*(resource|variable|output|module|provider|data|terraform|locals)\b[^{]*\{`)
	hclAssignment  = regexp.MustCompile(`(?m)^\s*[\w-]+\s*=\s*\S`)
)

func (HCL) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasExt := hasExtension(path, ".hcl", ".tf", ".tfvars")
	if text == nil {
		if hasExt {
			return match("hcl", "", baseConfidence, []string{"extension cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := window(*text, hclAnalysisWindow)
	blocks := hclBlockHeader.FindAllStringSubmatch(t, -1)
	hasAssignment := hclAssignment.MatchString(t)

	if len(blocks) == 0 && !hasAssignment {
		if hasExt {
			return match("hcl", "", baseConfidence, []string{"extension cue, no hcl structure found"}, nil)
		}
		return nil, nil
	}

	confidence := baseConfidence
	reasons := []string{}
	blockKinds := map[string]struct{}{}
	for _, b := range blocks {
		blockKinds[b[1]] = struct{}{}
	}
	if len(blocks) > 0 {
		confidence += 0.15
		reasons = append(reasons, "hcl block headers found")
	}
	if hasAssignment {
		confidence += 0.1
		reasons = append(reasons, "assignment lines found")
	}
	if hasExt {
		confidence += 0.15
		reasons = append(reasons, "extension cue")
	}

	variant := "generic-hcl"
	if hasExtension(path, ".tfvars") {
		variant = "terraform-tfvars"
	} else if _, ok := blockKinds["resource"]; ok {
		variant = "terraform-config"
	}

	meta := map[string]any{}
	if len(blockKinds) > 0 {
		kinds := make([]string, 0, len(blockKinds))
		for k := range blockKinds {
			kinds = append(kinds, k)
		}
		meta["block_kinds"] = kinds
	}

	return match("hcl", variant, confidence, reasons, meta), nil
}
