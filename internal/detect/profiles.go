package detect

import (
	"path/filepath"
	"strings"

	"github.com/techjoec/driftbuster/internal/profile"
)

// AnnotatedMatch pairs a DetectionMatch with whatever the profile store
// expected at that path, if anything (spec §4.2, "scan_with_profiles").
type AnnotatedMatch struct {
	DetectionMatch
	ConfigIdentifier string
	ProfileName      string
	ExpectedFormat   string
	ExpectedVariant  string
	// Drifted is true when a profile matched the path but the detected
	// format or variant differs from what it expected.
	Drifted bool
}

// ScanWithProfiles walks root exactly as ScanPath does, then annotates each
// match against the configs in store that apply for tags and whose path
// matches the entry's path relative to root (spec §4.2 step 3: "cross-
// references detector output against the profile store before emission").
// An entry with no matching config is still emitted, unannotated.
func (o *Orchestrator) ScanWithProfiles(root string, store *profile.Store, tags []string, opts ScanOptions) ([]AnnotatedMatch, error) {
	var out []AnnotatedMatch
	err := o.ScanWithProfilesFunc(root, store, tags, opts, func(m AnnotatedMatch) bool {
		out = append(out, m)
		return true
	})
	return out, err
}

// ScanWithProfilesFunc is the lazy, early-terminable form of ScanWithProfiles.
func (o *Orchestrator) ScanWithProfilesFunc(root string, store *profile.Store, tags []string, opts ScanOptions, yield func(AnnotatedMatch) bool) error {
	return o.ScanPathFunc(root, opts, func(m DetectionMatch) bool {
		annotated := annotate(root, m, store, tags)
		return yield(annotated)
	})
}

func annotate(root string, m DetectionMatch, store *profile.Store, tags []string) AnnotatedMatch {
	annotated := AnnotatedMatch{DetectionMatch: m}
	if store == nil {
		return annotated
	}

	rel, err := filepath.Rel(root, m.Path)
	if err != nil {
		rel = m.Path
	}
	rel = strings.ReplaceAll(rel, "\\", "/")

	pairs := store.MatchingConfigs(tags, rel)
	if len(pairs) == 0 {
		return annotated
	}
	// Multiple profiles may claim the same path; the first in
	// name-sorted-profile order wins (matches ApplicableProfiles' ordering).
	pair := pairs[0]
	annotated.ConfigIdentifier = pair.Config.Identifier
	annotated.ProfileName = pair.Profile.Name
	annotated.ExpectedFormat = pair.Config.ExpectedFormat
	annotated.ExpectedVariant = pair.Config.ExpectedVariant

	formatDrift := pair.Config.ExpectedFormat != "" && !strings.EqualFold(pair.Config.ExpectedFormat, m.FormatID)
	variantDrift := pair.Config.ExpectedVariant != "" && !strings.EqualFold(pair.Config.ExpectedVariant, m.Variant)
	annotated.Drifted = formatDrift || variantDrift
	return annotated
}
