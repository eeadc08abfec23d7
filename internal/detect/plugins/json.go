package plugins

import (
	"encoding/json"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/techjoec/driftbuster/internal/catalog"
)

const (
	jsonAnalysisWindow = 200 * 1024
	jsonTokenBudget    = 4096 // bounds the structural scan regardless of window size
)

// JSON implements the JSON format plugin via a bounded token scan rather
// than a full unmarshal, per spec §4.3's "never parse the entire sample
// with an unbounded grammar."
type JSON struct{}

func (JSON) Name() string    { return "json" }
func (JSON) Priority() int   { return 20 }
func (JSON) Version() string { return "1" }

var jsonAppsettingsName = regexp.MustCompile(`(?i)^appsettings(\..+)?\.json$`)

func (JSON) Detect(path string, sample []byte, text *string) (*catalog.Match, error) {
	hasExt := hasExtension(path, ".json")
	hasName := filenameMatches(path, jsonAppsettingsName.String())
	if text == nil {
		if hasExt || hasName {
			return match("json", "", baseConfidence, []string{"filename/extension cue with undecodable sample"}, nil)
		}
		return nil, nil
	}

	t := strings.TrimSpace(window(*text, jsonAnalysisWindow))
	if t == "" || (t[0] != '{' && t[0] != '[') {
		if hasExt || hasName {
			return match("json", "", baseConfidence, []string{"filename/extension cue, no JSON structure found"}, nil)
		}
		return nil, nil
	}

	topLevelObject := t[0] == '{'
	keys, depthExceeded, ok := scanTopLevelKeys(t, jsonTokenBudget)
	if !ok {
		if hasExt || hasName {
			return match("json", "", baseConfidence, []string{"filename/extension cue, malformed JSON prefix"}, nil)
		}
		return nil, nil
	}

	confidence := baseConfidence
	reasons := []string{"leading json structural token found"}
	confidence += 0.15
	if hasExt || hasName {
		confidence += 0.15
		reasons = append(reasons, "filename/extension cue")
	}
	if topLevelObject && len(keys) > 0 {
		confidence += 0.1
		reasons = append(reasons, "top-level keys enumerated")
	}

	variant := "generic-json"
	if hasName {
		variant = "structured-settings-json"
		confidence += 0.05
		reasons = append(reasons, "appsettings filename convention")
	}

	meta := map[string]any{
		"top_level_type": topLevelTypeOf(topLevelObject),
	}
	if topLevelObject {
		sort.Strings(keys)
		meta["top_level_keys"] = keys
	}
	if depthExceeded {
		meta["analysis_window_exceeded"] = true
	}

	return match("json", variant, confidence, reasons, meta), nil
}

func topLevelTypeOf(isObject bool) string {
	if isObject {
		return "object"
	}
	return "array"
}

type jsonFrame struct {
	isObject  bool
	expectKey bool
}

// scanTopLevelKeys walks JSON tokens up to budget tokens, collecting the
// top-level object's keys without ever unmarshalling nested values.
func scanTopLevelKeys(s string, budget int) (keys []string, budgetExceeded bool, ok bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	var stack []jsonFrame
	count := 0
	for {
		count++
		if count > budget {
			return keys, true, true
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A truncated sample legitimately ends mid-token; treat
			// whatever keys were already collected as good enough.
			if len(keys) > 0 || len(stack) > 0 {
				return keys, false, true
			}
			return nil, false, false
		}

		if delim, isDelim := tok.(json.Delim); isDelim {
			switch delim {
			case '{', '[':
				if len(stack) > 0 && stack[len(stack)-1].isObject {
					stack[len(stack)-1].expectKey = true
				}
				stack = append(stack, jsonFrame{isObject: delim == '{', expectKey: delim == '{'})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
			continue
		}

		if len(stack) == 0 {
			continue
		}
		top := &stack[len(stack)-1]
		if top.isObject && top.expectKey {
			if len(stack) == 1 {
				if keyStr, isStr := tok.(string); isStr {
					keys = append(keys, keyStr)
				}
			}
			top.expectKey = false
		} else if top.isObject {
			top.expectKey = true
		}
	}
	return keys, false, true
}
