package plugins

import (
	"regexp"
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const registryLiveAnalysisWindow = 65536

// RegistryLive implements the plugin for Windows Registry export files
// (".reg"), identified by their fixed header line.
type RegistryLive struct{}

func (RegistryLive) Name() string    { return "registry-live" }
func (RegistryLive) Priority() int   { return 90 }
func (RegistryLive) Version() string { return "1" }

var (
	registryHeaderV5  = regexp.MustCompile(`(?i)^Windows Registry Editor Version 5\.00`)
	registryHeaderV4  = regexp.MustCompile(`(?i)^REGEDIT4`)
	registryKeyHeader = regexp.MustCompile(`(?m)^\[(-?HKEY_[A-Z_]+(\\[^\]]*)?)\]`)
)

func (RegistryLive) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasExt := hasExtension(path, ".reg")
	if text == nil {
		if hasExt {
			return match("registry-live", "", baseConfidence, []string{"extension cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := strings.TrimLeft(window(*text, registryLiveAnalysisWindow), "﻿ \t\r\n")
	isV5 := registryHeaderV5.MatchString(t)
	isV4 := registryHeaderV4.MatchString(t)
	keys := registryKeyHeader.FindAllStringSubmatch(t, -1)

	if !isV5 && !isV4 {
		if hasExt {
			return match("registry-live", "", baseConfidence, []string{"extension cue, no registry header found"}, nil)
		}
		return nil, nil
	}

	confidence := baseConfidence + 0.25
	reasons := []string{"registry export header found"}
	if len(keys) > 0 {
		confidence += 0.1
		reasons = append(reasons, "registry key headers found")
	}
	if hasExt {
		confidence += 0.1
		reasons = append(reasons, "extension cue")
	}

	variant := "regedit5"
	if isV4 {
		variant = "regedit4"
	}

	meta := map[string]any{
		"key_count": len(keys),
	}
	if len(keys) > 0 {
		meta["first_key"] = keys[0][1]
	}

	return match("registry-live", variant, confidence, reasons, meta), nil
}
