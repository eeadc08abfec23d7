// Package report implements the Report Adapters (spec §4.10): rendering
// detection, hunt, and diff payloads into JSON-shaped structures and a
// self-contained HTML summary, without ever reading filesystem state or
// leaking a raw secret into the output.
package report

import (
	"sort"

	"github.com/techjoec/driftbuster/internal/detect"
	"github.com/techjoec/driftbuster/internal/hunt"
)

// Payload is one detection's canonical-key record (spec §4.10,
// `iter_detection_payloads`). Field names match the spec's canonical keys
// so a JSON encoder needs no further remapping.
type Payload struct {
	Plugin         string         `json:"plugin"`
	Format         string         `json:"format"`
	Variant        string         `json:"variant,omitempty"`
	Confidence     float64        `json:"confidence"`
	Reasons        []string       `json:"reasons"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	ApprovedTokens []string       `json:"hunts.approved_tokens,omitempty"`
	PendingReviews []string       `json:"hunts.pending_reviews,omitempty"`
}

// HuntContext supplies the per-path hunt hits and the approval store
// iter_detection_payloads consults to split tokens into approved vs
// pending (spec §4.10).
type HuntContext struct {
	HitsByPath map[string][]hunt.Hit
	Approvals  hunt.ApprovalStore
}

// IterDetectionPayloadsFunc walks matches in order, invoking yield once per
// match with its canonical-key payload. Returning false from yield stops
// early, mirroring the yield-callback convention internal/detect and
// internal/scanhost already use for their own walks.
func IterDetectionPayloadsFunc(matches []detect.DetectionMatch, huntCtx *HuntContext, extraMetadata map[string]any, yield func(Payload) bool) error {
	for _, m := range matches {
		payload := Payload{
			Plugin:     pluginNameFor(m),
			Format:     m.FormatID,
			Variant:    m.Variant,
			Confidence: m.Confidence,
			Reasons:    append([]string(nil), m.Reasons...),
			Metadata:   mergeMetadata(m.Metadata, extraMetadata),
		}
		if huntCtx != nil {
			approved, pending, err := splitTokens(huntCtx, m.Path)
			if err != nil {
				return err
			}
			payload.ApprovedTokens = approved
			payload.PendingReviews = pending
		}
		if !yield(payload) {
			return nil
		}
	}
	return nil
}

// pluginNameFor resolves the display plugin name: format_id when a plugin
// matched, or the binary fallback identifier when none did (spec §4.2
// step 4's "format_id unset or binary-dat" case, echoed into the report).
func pluginNameFor(m detect.DetectionMatch) string {
	if m.FormatID == detect.FormatUnknown {
		return detect.BinaryFormatID
	}
	return m.FormatID
}

func mergeMetadata(base map[string]any, extra map[string]any) map[string]any {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// splitTokens partitions path's hunt hits' token names into approved
// (found in the approval store) and pending (TokenName set, no approval
// record), each sorted for deterministic report output.
func splitTokens(ctx *HuntContext, path string) (approved, pending []string, err error) {
	hits := ctx.HitsByPath[path]
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if h.TokenName == "" {
			continue
		}
		if _, dup := seen[h.TokenName]; dup {
			continue
		}
		seen[h.TokenName] = struct{}{}

		if ctx.Approvals == nil {
			pending = append(pending, h.TokenName)
			continue
		}
		_, ok, lookupErr := ctx.Approvals.Get(h.TokenName)
		if lookupErr != nil {
			return nil, nil, lookupErr
		}
		if ok {
			approved = append(approved, h.TokenName)
		} else {
			pending = append(pending, h.TokenName)
		}
	}
	sort.Strings(approved)
	sort.Strings(pending)
	return approved, pending, nil
}
