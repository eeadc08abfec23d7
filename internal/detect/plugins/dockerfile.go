package plugins

import (
	"regexp"
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const dockerfileAnalysisWindow = 65536

// Dockerfile implements the Dockerfile format plugin: instruction-keyword
// detection bounded to the leading analysis window, with no dependency on
// filename extension (Dockerfiles conventionally have none).
type Dockerfile struct{}

func (Dockerfile) Name() string    { return "dockerfile" }
func (Dockerfile) Priority() int   { return 80 }
func (Dockerfile) Version() string { return "1" }

var (
	dockerfileName       = regexp.MustCompile(`(?i)^dockerfile(\.[a-z0-9_-]+)?$`)
	dockerfileFromLine   = regexp.MustCompile(`(?mi)^\s*FROM\s+\S+`)
	dockerfileInstr      = regexp.MustCompile(`(?m)^\s*(RUN|COPY|ADD|CMD|ENTRYPOINT|ENV|EXPOSE|WORKDIR|USER|LABEL|ARG|VOLUME|HEALTHCHECK|SHELL|ONBUILD|STOPSIGNAL)\b`)
)

func (Dockerfile) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasName := dockerfileName.MatchString(pathBase(path))
	if text == nil {
		if hasName {
			return match("dockerfile", "", baseConfidence, []string{"filename cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := window(*text, dockerfileAnalysisWindow)
	hasFrom := dockerfileFromLine.MatchString(t)
	instructions := dockerfileInstr.FindAllString(t, -1)

	if !hasFrom && len(instructions) == 0 {
		if hasName {
			return match("dockerfile", "", baseConfidence, []string{"filename cue, no dockerfile instructions found"}, nil)
		}
		return nil, nil
	}

	confidence := baseConfidence
	reasons := []string{}
	if hasFrom {
		confidence += 0.2
		reasons = append(reasons, "FROM instruction found")
	}
	if len(instructions) > 0 {
		confidence += 0.1
		reasons = append(reasons, "dockerfile instructions found")
	}
	if hasName {
		confidence += 0.1
		reasons = append(reasons, "filename cue")
	}

	variant := "single-stage"
	if strings.Count(strings.ToUpper(t), "FROM ") > 1 {
		variant = "multi-stage"
	}

	meta := map[string]any{
		"instruction_count": len(instructions),
	}

	return match("dockerfile", variant, confidence, reasons, meta), nil
}

func pathBase(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
