package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/techjoec/driftbuster/internal/apperr"
)

// Plugin is the capability-level contract every format plugin implements
// (spec §3, "Plugin"). Detect returns a match, or nil when the plugin
// declines — it must never panic on expected input shapes; the orchestrator
// recovers from unexpected panics and treats them as a decline (spec §7).
type Plugin interface {
	Name() string
	Priority() int
	Version() string
	Detect(path string, sample []byte, text *string) (*Match, error)
}

// Match is a plugin's positive answer, before the orchestrator attaches the
// mandatory metadata keys (spec §3, "DetectionMatch").
type Match struct {
	FormatID   string
	Variant    string
	Confidence float64
	Reasons    []string
	Metadata   map[string]any
}

// Summary is one row of Registry.Summary(): (index, name, module_id,
// priority, version), ordered by (priority ascending, registration index
// ascending) per spec §4.1.
type Summary struct {
	Index    int
	Name     string
	ModuleID string
	Priority int
	Version  string
}

// Registry holds the ordered set of active format plugins. It is built once
// at startup (spec §9, "process-wide registry with explicit lifecycle") and
// is safe for concurrent readers once construction finishes. Register,
// Plugins() and Summary() all hold the same mutex; registering is still
// expected to finish before the first scan ("freeze before first scan").
type Registry struct {
	mu      sync.Mutex
	plugins []Plugin
	byName  map[string]int
}

// NewRegistry returns an empty registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds a plugin, failing with apperr.ErrDuplicateName if another
// plugin with the same Name() already exists. Registration is atomic: on
// failure, no partial state is visible (spec §4.1, "Failure").
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return apperr.Validationf("plugin", "nil plugin")
	}
	name := p.Name()
	if name == "" {
		return apperr.Validationf("plugin.name", "empty plugin name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("%w: %q", apperr.ErrDuplicateName, name)
	}

	idx := len(r.plugins)
	r.plugins = append(r.plugins, p)
	r.byName[name] = idx
	r.resort()
	return nil
}

// resort re-establishes (priority ascending, registration index ascending)
// order. It must be called with mu held.
func (r *Registry) resort() {
	type indexed struct {
		plugin Plugin
		regIdx int
	}
	tagged := make([]indexed, len(r.plugins))
	for i, p := range r.plugins {
		tagged[i] = indexed{plugin: p, regIdx: i}
	}
	sort.SliceStable(tagged, func(i, j int) bool {
		if tagged[i].plugin.Priority() != tagged[j].plugin.Priority() {
			return tagged[i].plugin.Priority() < tagged[j].plugin.Priority()
		}
		return tagged[i].regIdx < tagged[j].regIdx
	})
	ordered := make([]Plugin, len(tagged))
	byName := make(map[string]int, len(tagged))
	for i, t := range tagged {
		ordered[i] = t.plugin
		byName[t.plugin.Name()] = i
	}
	r.plugins = ordered
	r.byName = byName
}

// Plugins returns the registry in deterministic iteration order. Order is
// stable across the process lifetime given no further registrations.
func (r *Registry) Plugins() []Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Summary returns a snapshot sequence ordered identically to Plugins().
func (r *Registry) Summary() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, len(r.plugins))
	for i, p := range r.plugins {
		out[i] = Summary{
			Index:    i,
			Name:     p.Name(),
			ModuleID: p.Name(),
			Priority: p.Priority(),
			Version:  p.Version(),
		}
	}
	return out
}

// Len reports the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plugins)
}
