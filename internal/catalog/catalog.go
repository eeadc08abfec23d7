// Package catalog declares the known configuration-artifact formats and the
// ordered registry of plugins that detect them. It is the process-wide,
// read-mostly authority described in spec §4.1 — built the way the teacher's
// scanner/registry packages are: plain data plus small validating
// constructors, no reflection-based discovery (spec §9).
package catalog

import (
	"fmt"
	"sort"
)

// Version is embedded in every DetectionMatch's metadata as catalog_version
// so that DiffCache keys change when the catalog's shape changes.
const Version = "2026.1"

// Entry is one known format identity (spec §3, "Catalog entry").
type Entry struct {
	Name            string
	FormatID        string
	Variant         string // optional
	Priority        int    // lower runs first
	Extensions      map[string]struct{}
	FilenameRegexes []string
	UsageShare      float64
}

// Catalog is the immutable, process-wide set of known formats. It is built
// once at startup via New and never mutated afterward; concurrent readers
// are always safe.
type Catalog struct {
	entries   []Entry
	byFormat  map[string]int
}

// New builds a Catalog from entries, rejecting duplicate format_id values
// (spec §3 invariant: "format_id is unique across entries").
func New(entries []Entry) (*Catalog, error) {
	byFormat := make(map[string]int, len(entries))
	for i, e := range entries {
		if e.FormatID == "" {
			return nil, fmt.Errorf("catalog: entry %q missing format_id", e.Name)
		}
		if _, dup := byFormat[e.FormatID]; dup {
			return nil, fmt.Errorf("catalog: duplicate format_id %q", e.FormatID)
		}
		byFormat[e.FormatID] = i
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Priority < cp[j].Priority })
	// byFormat indices must be recomputed after the stable sort.
	byFormat = make(map[string]int, len(cp))
	for i, e := range cp {
		byFormat[e.FormatID] = i
	}
	return &Catalog{entries: cp, byFormat: byFormat}, nil
}

// Entries returns the catalog in priority order. The returned slice is a
// defensive copy; callers may not mutate the catalog through it.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ByFormatID looks up a single entry by its format_id.
func (c *Catalog) ByFormatID(formatID string) (Entry, bool) {
	i, ok := c.byFormat[formatID]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Default returns the catalog of formats the Format Plugins component
// implements (spec §2 table): XML, JSON, INI-lineage, YAML, TOML, HCL,
// Conf, Dockerfile, Text, RegistryLive.
func Default() *Catalog {
	c, err := New([]Entry{
		{Name: "XML", FormatID: "xml", Priority: 10,
			Extensions:      set(".xml", ".config", ".csproj", ".xaml"),
			FilenameRegexes: []string{`(?i)^app\.config$`, `(?i)^web\.config$`},
			UsageShare:      0.12},
		{Name: "JSON", FormatID: "json", Priority: 20,
			Extensions:      set(".json"),
			FilenameRegexes: []string{`(?i)^appsettings(\..+)?\.json$`},
			UsageShare:      0.22},
		{Name: "INI", FormatID: "ini", Priority: 30,
			Extensions:      set(".ini", ".cfg", ".properties"),
			FilenameRegexes: []string{`(?i)^.*\.ini$`},
			UsageShare:      0.10},
		{Name: "YAML", FormatID: "yaml", Priority: 40,
			Extensions:      set(".yaml", ".yml"),
			FilenameRegexes: []string{`(?i)^docker-compose.*\.ya?ml$`},
			UsageShare:      0.18},
		{Name: "TOML", FormatID: "toml", Priority: 50,
			Extensions: set(".toml"),
			UsageShare: 0.06},
		{Name: "HCL", FormatID: "hcl", Priority: 60,
			Extensions: set(".hcl", ".tf", ".tfvars"),
			UsageShare: 0.05},
		{Name: "Conf", FormatID: "conf", Priority: 70,
			Extensions: set(".conf"),
			UsageShare: 0.08},
		{Name: "Dockerfile", FormatID: "dockerfile", Priority: 80,
			FilenameRegexes: []string{`(?i)^dockerfile(\.[a-z0-9_-]+)?$`},
			UsageShare:      0.04},
		{Name: "RegistryLive", FormatID: "registry-live", Priority: 90,
			Extensions: set(".reg"),
			UsageShare: 0.03},
		{Name: "Text", FormatID: "text", Priority: 100,
			Extensions: set(".txt", ".env"),
			UsageShare: 0.12},
	})
	if err != nil {
		// Entries above are a compile-time constant with no duplicate
		// format_id values; a failure here means that constant was broken.
		panic(err)
	}
	return c
}

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
