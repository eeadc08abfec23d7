package plugins

import (
	"regexp"
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const textAnalysisWindow = 65536

// Text implements the lowest-priority plugin: a weak, extension-gated match
// for plain lists and dotenv files that don't carry any of the other
// formats' structural signals. It never matches arbitrary text without a
// filename cue, so it can't mask the orchestrator's own unknown-text
// fallback for files nothing recognizes.
type Text struct{}

func (Text) Name() string    { return "text" }
func (Text) Priority() int   { return 100 }
func (Text) Version() string { return "1" }

var envAssignment = regexp.MustCompile(`(?m)^\s*[A-Za-z_][A-Za-z0-9_]*\s*=`)

func (Text) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasEnvExt := hasExtension(path, ".env")
	hasTxtExt := hasExtension(path, ".txt")
	if !hasEnvExt && !hasTxtExt {
		return nil, nil
	}
	if text == nil {
		return match("text", "", baseConfidence, []string{"extension cue with undecodable sample"}, nil)
	}

	t := window(*text, textAnalysisWindow)
	confidence := baseConfidence
	reasons := []string{"extension cue"}
	variant := "plain-text"

	if hasEnvExt {
		assignments := envAssignment.FindAllString(t, -1)
		if len(assignments) > 0 {
			variant = "dotenv"
			confidence += 0.2
			reasons = append(reasons, "key=value assignment lines found")
		}
	}

	lineCount := strings.Count(t, "\n") + 1
	meta := map[string]any{
		"line_count": lineCount,
	}

	return match("text", variant, confidence, reasons, meta), nil
}
