package scanhost

import (
	"sort"
	"strings"

	"github.com/techjoec/driftbuster/internal/diff"
)

// contentTypeFor maps a DetectionMatch's format_id to the canonicaliser
// build_unified_diff should use. Unrecognised formats canonicalise as plain
// text, which is always safe (spec §4.6).
func contentTypeFor(formatID string) diff.ContentType {
	switch formatID {
	case "json":
		return diff.ContentJSON
	case "xml":
		return diff.ContentXML
	default:
		return diff.ContentText
	}
}

// configGroup accumulates every host's detection for one config_id.
type configGroup struct {
	configID string
	byHost   map[string]detection
	hostIDs  []string // insertion order, for a stable iteration base
}

func groupByConfigID(outcomes []hostScanOutcome) map[string]*configGroup {
	groups := make(map[string]*configGroup)
	for _, outcome := range outcomes {
		if outcome.State != StateSucceeded {
			continue
		}
		for _, d := range outcome.Detections {
			g, ok := groups[d.ConfigID]
			if !ok {
				g = &configGroup{configID: d.ConfigID, byHost: map[string]detection{}}
				groups[d.ConfigID] = g
			}
			g.byHost[outcome.HostID] = d
			g.hostIDs = append(g.hostIDs, outcome.HostID)
		}
	}
	return groups
}

// chooseBaseline picks the host whose canonical content is most common
// across the group, tie-breaking on minimal total edit distance to peers
// and finally on lowest host_id (spec §4.8 step 5, Open Question resolved
// in SPEC_FULL.md).
func chooseBaseline(g *configGroup, override string) string {
	if override != "" {
		if _, ok := g.byHost[override]; ok {
			return override
		}
	}

	hosts := make([]string, 0, len(g.byHost))
	for h := range g.byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	canonical := make(map[string]string, len(hosts))
	for _, h := range hosts {
		d := g.byHost[h]
		canon, _ := diff.Canonicalise(contentTypeFor(d.Match.FormatID), d.Content)
		canonical[h] = canon
	}

	freq := map[string]int{}
	for _, c := range canonical {
		freq[c]++
	}
	maxFreq := 0
	for _, n := range freq {
		if n > maxFreq {
			maxFreq = n
		}
	}

	var candidates []string
	for _, h := range hosts {
		if freq[canonical[h]] == maxFreq {
			candidates = append(candidates, h)
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	bestHost := ""
	bestDistance := -1
	for _, h := range candidates {
		total := 0
		for _, peer := range hosts {
			if peer == h {
				continue
			}
			result := diff.BuildUnifiedDiff(canonical[h], canonical[peer], diff.Options{ContentType: diff.ContentText})
			total += result.Stats.Added + result.Stats.Removed
		}
		if bestDistance == -1 || total < bestDistance || (total == bestDistance && h < bestHost) {
			bestDistance = total
			bestHost = h
		}
	}
	return bestHost
}

func severityForFormat(formatID string) string {
	// Structured, widely-deployed formats default to "medium"; anything
	// unrecognised (including the unknown-text-or-binary fallback) is
	// treated conservatively as "high" since its drift can't be classified.
	switch formatID {
	case "", "binary-dat":
		return "high"
	default:
		return "medium"
	}
}

func majorityFormat(group *configGroup) string {
	counts := map[string]int{}
	for _, d := range group.byHost {
		counts[d.Match.FormatID]++
	}
	best := ""
	bestCount := -1
	formats := make([]string, 0, len(counts))
	for f := range counts {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	for _, f := range formats {
		if counts[f] > bestCount {
			bestCount = counts[f]
			best = f
		}
	}
	return best
}

func formatLabel(formatID string) string {
	if formatID == "" {
		return "binary-dat"
	}
	return strings.ToLower(formatID)
}
