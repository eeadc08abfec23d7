package scanhost

import (
	"fmt"
	"sort"
	"time"

	"github.com/techjoec/driftbuster/internal/detect"
	"github.com/techjoec/driftbuster/internal/diff"
)

// buildCatalog turns the per-host outcomes into the CatalogRow/Drilldown
// aggregation described in spec §4.8 steps 7-8.
func buildCatalog(outcomes []hostScanOutcome, allHostIDs []string) ([]CatalogRow, map[string]Drilldown) {
	groups := groupByConfigID(outcomes)

	configIDs := make([]string, 0, len(groups))
	for id := range groups {
		configIDs = append(configIDs, id)
	}
	sort.Strings(configIDs)

	rows := make([]CatalogRow, 0, len(configIDs))
	drilldowns := make(map[string]Drilldown, len(configIDs))

	for _, id := range configIDs {
		g := groups[id]
		baselineHost := chooseBaseline(g, "")
		baselineDetection := g.byHost[baselineHost]
		baselineCanon, _ := diff.Canonicalise(contentTypeFor(baselineDetection.Match.FormatID), baselineDetection.Content)

		presence := make(map[string]Presence, len(allHostIDs))
		for _, h := range allHostIDs {
			if _, ok := g.byHost[h]; ok {
				presence[h] = PresenceFound
			} else {
				presence[h] = PresenceMissing
			}
		}

		driftCount := 0
		severity := ""
		var lastUpdated time.Time

		hostIDs := make([]string, 0, len(g.byHost))
		for h := range g.byHost {
			hostIDs = append(hostIDs, h)
		}
		sort.Strings(hostIDs)

		var entries []HostEntry
		for _, h := range hostIDs {
			d := g.byHost[h]
			severity = maxSeverity(severity, severityForFormat(d.Match.FormatID))
			if d.ModTime.After(lastUpdated) {
				lastUpdated = d.ModTime
			}

			canon, _ := diff.Canonicalise(contentTypeFor(d.Match.FormatID), d.Content)
			entry := HostEntry{HostID: h, Match: d.Match, IsBaseline: h == baselineHost}
			if canon != baselineCanon {
				driftCount++
				result := diff.BuildUnifiedDiff(baselineDetection.Content, d.Content, diff.Options{
					ContentType: contentTypeFor(d.Match.FormatID),
					Labels:      diff.Labels{Before: baselineHost, After: h},
				})
				entry.DiffResult = &result
			}
			entries = append(entries, entry)
		}

		row := CatalogRow{
			ConfigID:        id,
			PerHostPresence: presence,
			DriftCount:      driftCount,
			Severity:        severity,
			FormatID:        formatLabel(majorityFormat(g)),
			LastUpdated:     lastUpdated,
		}
		rows = append(rows, row)

		drilldowns[id] = Drilldown{
			ConfigID:   id,
			Hosts:      entries,
			Provenance: provenanceFor(baselineDetection.Match),
		}
	}

	return rows, drilldowns
}

// provenanceFor names which plugin classified the baseline content and at
// what catalog version, for the Drilldown's audit trail (spec §4.8 step 8).
func provenanceFor(m detect.DetectionMatch) Provenance {
	version := ""
	if v, ok := m.Metadata[detect.MetaCatalogVersion]; ok {
		version = fmt.Sprintf("%v", v)
	}
	name := m.FormatID
	if name == "" {
		name = detect.BinaryFormatID
	}
	return Provenance{Detector: name, Version: version}
}
