package profile

import (
	"sort"

	"go.yaml.in/yaml/v3"
)

// ConfigSummary is the serializable projection of a ProfileConfig used by
// Summary and round-tripped via ToYAML/FromYAML.
type ConfigSummary struct {
	Identifier      string         `yaml:"identifier"`
	Path            string         `yaml:"path,omitempty"`
	PathGlob        string         `yaml:"path_glob,omitempty"`
	Application     string         `yaml:"application,omitempty"`
	Version         string         `yaml:"version,omitempty"`
	Branch          string         `yaml:"branch,omitempty"`
	Tags            []string       `yaml:"tags,omitempty"`
	ExpectedFormat  string         `yaml:"expected_format,omitempty"`
	ExpectedVariant string         `yaml:"expected_variant,omitempty"`
	Metadata        map[string]any `yaml:"metadata,omitempty"`
}

// ProfileSummary is the serializable projection of a Profile.
type ProfileSummary struct {
	Name     string          `yaml:"name"`
	Tags     []string        `yaml:"tags,omitempty"`
	Configs  []ConfigSummary `yaml:"configs,omitempty"`
	Metadata map[string]any  `yaml:"metadata,omitempty"`
}

// Summary returns every profile in the store, ordered by name, as the
// serializable ProfileSummary projection (spec §4.4: "summary() yields a
// deterministic, name-ordered snapshot for diffing and persistence").
func (s *Store) Summary() []ProfileSummary {
	cur := s.snapshot()
	names := make([]string, 0, len(cur.profiles))
	for name := range cur.profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ProfileSummary, 0, len(names))
	for _, name := range names {
		out = append(out, summarize(cur.profiles[name]))
	}
	return out
}

func summarize(p Profile) ProfileSummary {
	s := ProfileSummary{Name: p.Name, Tags: sortedKeys(p.Tags), Metadata: p.Metadata}
	for _, c := range p.Configs {
		s.Configs = append(s.Configs, ConfigSummary{
			Identifier:      c.Identifier,
			Path:            c.Path,
			PathGlob:        c.PathGlob,
			Application:     c.Application,
			Version:         c.Version,
			Branch:          c.Branch,
			Tags:            sortedKeys(c.Tags),
			ExpectedFormat:  c.ExpectedFormat,
			ExpectedVariant: c.ExpectedVariant,
			Metadata:        c.Metadata,
		})
	}
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SnapshotDiff describes how two ordered summaries differ, for
// DiffSummarySnapshots.
type SnapshotDiff struct {
	Added   []string // profile names present only in b
	Removed []string // profile names present only in a
	Changed []string // profile names present in both with differing content
}

// DiffSummarySnapshots compares two Summary() outputs by profile name,
// reporting additions, removals, and content changes (spec §4.4:
// "diff_summary_snapshots compares two prior summaries for audit trails").
func DiffSummarySnapshots(a, b []ProfileSummary) SnapshotDiff {
	am := make(map[string]ProfileSummary, len(a))
	for _, p := range a {
		am[p.Name] = p
	}
	bm := make(map[string]ProfileSummary, len(b))
	for _, p := range b {
		bm[p.Name] = p
	}

	var diff SnapshotDiff
	for name := range am {
		if _, ok := bm[name]; !ok {
			diff.Removed = append(diff.Removed, name)
		}
	}
	for name, bp := range bm {
		ap, ok := am[name]
		if !ok {
			diff.Added = append(diff.Added, name)
			continue
		}
		if !equalSummary(ap, bp) {
			diff.Changed = append(diff.Changed, name)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	return diff
}

func equalSummary(a, b ProfileSummary) bool {
	ay, errA := yaml.Marshal(a)
	by, errB := yaml.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ay) == string(by)
}

// ToYAML renders a Summary() slice for persistence.
func ToYAML(summaries []ProfileSummary) ([]byte, error) {
	return yaml.Marshal(summaries)
}

// FromYAML parses bytes previously produced by ToYAML.
func FromYAML(data []byte) ([]ProfileSummary, error) {
	var out []ProfileSummary
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
