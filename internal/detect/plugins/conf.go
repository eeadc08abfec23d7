package plugins

import (
	"regexp"
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const confAnalysisWindow = 65536

// Conf implements the generic Unix "conf" plugin: loosely structured
// key/value or directive-per-line files (sshd_config, nginx.conf-lineage)
// that don't fit the INI section model. Priority runs after INI so a
// properly sectioned file is claimed there first.
type Conf struct{}

func (Conf) Name() string    { return "conf" }
func (Conf) Priority() int   { return 70 }
func (Conf) Version() string { return "1" }

var (
	confDirective = regexp.MustCompile(`^[A-Za-z][\w.\-]*\s+\S`)
	confComment   = regexp.MustCompile(`^\s*#`)
	confBlock     = regexp.MustCompile(`\{\s*$`)
)

func (Conf) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasExt := hasExtension(path, ".conf")
	if text == nil {
		if hasExt {
			return match("conf", "", baseConfidence, []string{"extension cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := window(*text, confAnalysisWindow)
	lines := strings.Split(t, "\n")

	directives := 0
	blocks := 0
	considered := 0
	for _, raw := range lines {
		trimmed := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if trimmed == "" || confComment.MatchString(trimmed) {
			continue
		}
		considered++
		if considered > 500 {
			break
		}
		if confBlock.MatchString(trimmed) {
			blocks++
		}
		if confDirective.MatchString(trimmed) {
			directives++
		}
	}

	if considered == 0 || directives == 0 {
		if hasExt {
			return match("conf", "", baseConfidence, []string{"extension cue, no directive lines found"}, nil)
		}
		return nil, nil
	}

	confidence := baseConfidence
	reasons := []string{"directive lines found"}
	confidence += 0.1
	if blocks > 0 {
		confidence += 0.1
		reasons = append(reasons, "nested block syntax found")
	}
	if hasExt {
		confidence += 0.15
		reasons = append(reasons, "extension cue")
	}

	variant := "directive-list"
	if blocks > 0 {
		variant = "block-directive"
	}

	meta := map[string]any{
		"directive_count": directives,
	}
	if blocks > 0 {
		meta["block_count"] = blocks
	}

	return match("conf", variant, confidence, reasons, meta), nil
}
