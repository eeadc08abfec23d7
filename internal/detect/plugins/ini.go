package plugins

import (
	"regexp"
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const iniAnalysisWindow = 65536

// INI implements the INI-lineage plugin: line-probe → section-detect →
// separator-detect → variant-select (spec §4.3).
type INI struct{}

func (INI) Name() string    { return "ini" }
func (INI) Priority() int   { return 30 }
func (INI) Version() string { return "1" }

var (
	iniSection     = regexp.MustCompile(`^\[[^\]]+\]\s*$`)
	iniKeyEquals   = regexp.MustCompile(`^[\w.\-]+\s*=`)
	iniKeyColon    = regexp.MustCompile(`^[\w.\-]+\s*:`)
	iniCommentHash = regexp.MustCompile(`^\s*[#;]`)
)

func (INI) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasExt := hasExtension(path, ".ini", ".cfg", ".properties")
	hasName := filenameMatches(path, `(?i)^.*\.ini$`)
	if text == nil {
		if hasExt {
			return match("ini", "", baseConfidence, []string{"extension cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := window(*text, iniAnalysisWindow)
	lines := strings.Split(t, "\n")

	sections := 0
	equalsSeps := 0
	colonSeps := 0
	blankOrComment := 0
	considered := 0
	var firstSection string

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || iniCommentHash.MatchString(trimmed) {
			blankOrComment++
			continue
		}
		considered++
		if considered > 500 {
			break
		}
		switch {
		case iniSection.MatchString(trimmed):
			sections++
			if firstSection == "" {
				firstSection = strings.Trim(trimmed, "[]")
			}
		case iniKeyEquals.MatchString(trimmed):
			equalsSeps++
		case iniKeyColon.MatchString(trimmed):
			colonSeps++
		default:
			// a line-probe miss; doesn't disqualify the whole file, INI
			// tolerates stray continuation lines in some dialects.
		}
	}

	if considered == 0 || (sections == 0 && equalsSeps == 0 && colonSeps == 0) {
		if hasExt || hasName {
			return match("ini", "", baseConfidence, []string{"filename/extension cue, no ini structure found"}, nil)
		}
		return nil, nil
	}

	confidence := baseConfidence
	reasons := []string{}
	if sections > 0 {
		confidence += 0.15
		reasons = append(reasons, "section headers found")
	}
	separator := "equals"
	if equalsSeps > 0 {
		confidence += 0.1
		reasons = append(reasons, "key=value separators found")
	} else if colonSeps > 0 {
		separator = "colon"
		confidence += 0.1
		reasons = append(reasons, "key:value separators found")
	}
	if hasExt || hasName {
		confidence += 0.1
		reasons = append(reasons, "filename/extension cue")
	}

	variant := selectINIVariant(path, sections, separator)

	meta := map[string]any{
		"separator": separator,
	}
	if sections > 0 {
		meta["section_count"] = sections
	}
	if firstSection != "" {
		meta["first_section"] = firstSection
	}

	return match("ini", variant, confidence, reasons, meta), nil
}

func selectINIVariant(path string, sections int, separator string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".properties"):
		return "java-properties"
	case sections == 0 && separator == "colon":
		return "flat-colon-config"
	case sections == 0:
		return "flat-ini"
	default:
		return "sectioned-ini"
	}
}
