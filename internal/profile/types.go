// Package profile implements the Profile Store (spec §4.4): an
// administratively-mutated, copy-on-write registry of tag-activated
// expected configurations.
package profile

// ProfileConfig is one expected configuration within a Profile (spec §3,
// "ProfileConfig"). Identifier is globally unique within a Store.
type ProfileConfig struct {
	Identifier      string
	Path            string // exact relative path; mutually exclusive with PathGlob in practice
	PathGlob        string
	Application     string
	Version         string
	Branch          string
	Tags            map[string]struct{}
	ExpectedFormat  string
	ExpectedVariant string
	Metadata        map[string]any
}

// Profile is a tag-activated set of expected configs (spec §3,
// "ConfigurationProfile"). A profile applies to a scan when its Tags are a
// subset of the caller-supplied tag set.
type Profile struct {
	Name     string
	Tags     map[string]struct{}
	Configs  []ProfileConfig // ordered; registration order is preserved
	Metadata map[string]any
}

// Pair bundles a matched Profile with the specific ProfileConfig within it,
// the unit both find_config and matching_configs return.
type Pair struct {
	Profile Profile
	Config  ProfileConfig
}

func tagSet(tags ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		m[t] = struct{}{}
	}
	return m
}

// subsetOf reports whether every tag in a also exists in b.
func subsetOf(a, b map[string]struct{}) bool {
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}

func cloneProfile(p Profile) Profile {
	cp := Profile{Name: p.Name, Tags: cloneTags(p.Tags), Metadata: cloneMeta(p.Metadata)}
	cp.Configs = make([]ProfileConfig, len(p.Configs))
	for i, c := range p.Configs {
		cp.Configs[i] = cloneConfig(c)
	}
	return cp
}

func cloneConfig(c ProfileConfig) ProfileConfig {
	cp := c
	cp.Tags = cloneTags(c.Tags)
	cp.Metadata = cloneMeta(c.Metadata)
	return cp
}

func cloneTags(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func cloneMeta(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
