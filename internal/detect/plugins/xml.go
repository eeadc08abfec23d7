package plugins

import (
	"regexp"
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const xmlAnalysisWindow = 65536

// XML implements the XML format plugin. Its detect pass is the
// prolog → root-detect → namespace-scan → variant-classify → metadata-emit
// state machine named in spec §4.3.
type XML struct{}

func (XML) Name() string    { return "xml" }
func (XML) Priority() int   { return 10 }
func (XML) Version() string { return "1" }

var (
	xmlProlog  = regexp.MustCompile(`(?s)^\s*<\?xml[^>]*\?>`)
	xmlRootTag = regexp.MustCompile(`(?s)<([A-Za-z_][\w.:-]*)\b`)
	xmlXmlns   = regexp.MustCompile(`\bxmlns(:[\w.-]+)?\s*=\s*"([^"]*)"`)
)

func (XML) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasExt := hasExtension(path, ".xml", ".config", ".csproj", ".xaml")
	hasName := filenameMatches(path, `(?i)^app\.config$`, `(?i)^web\.config$`)
	if text == nil {
		if hasExt || hasName {
			return match("xml", "", baseConfidence, []string{"filename/extension cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := window(*text, xmlAnalysisWindow)
	trimmed := strings.TrimLeft(t, " \t\r\n﻿")

	// prolog
	hasProlog := xmlProlog.MatchString(trimmed)

	// root-detect
	rootMatch := xmlRootTag.FindStringSubmatch(trimmed)
	if !hasProlog && rootMatch == nil {
		if hasExt || hasName {
			return match("xml", "", baseConfidence, []string{"filename/extension cue, no root tag found"}, map[string]any{"encoding": "text"})
		}
		return nil, nil
	}
	if rootMatch == nil {
		return nil, nil
	}
	rootTag := rootMatch[1]

	confidence := baseConfidence
	reasons := []string{}
	if hasProlog {
		confidence += 0.1
		reasons = append(reasons, "xml prolog present")
	}
	reasons = append(reasons, "root tag "+rootTag+" found")
	confidence += 0.1

	// namespace-scan
	var namespaces []string
	for _, m := range xmlXmlns.FindAllStringSubmatch(trimmed, -1) {
		if m[2] != "" {
			namespaces = append(namespaces, m[2])
		}
	}
	if len(namespaces) > 0 {
		confidence += 0.1
		reasons = append(reasons, "xml namespaces present")
	}

	if hasExt || hasName {
		confidence += 0.15
		reasons = append(reasons, "filename/extension cue")
	}

	// variant-classify
	variant := classifyXMLVariant(path, rootTag)

	// metadata-emit
	meta := map[string]any{
		"root_tag": rootTag,
	}
	if len(namespaces) > 0 {
		meta["namespaces"] = namespaces
	}

	return match("xml", variant, confidence, reasons, meta), nil
}

func classifyXMLVariant(path, rootTag string) string {
	base := strings.ToLower(strings.TrimSuffix(path, ".xml"))
	switch {
	case strings.HasSuffix(strings.ToLower(path), "web.config"):
		return "web-config"
	case strings.HasSuffix(strings.ToLower(path), "app.config"):
		return "app-config"
	case strings.HasSuffix(base, ".csproj"), rootTag == "Project":
		return "msbuild-project"
	default:
		return "generic-xml"
	}
}
