package profile

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sahilm/fuzzy"

	"github.com/techjoec/driftbuster/internal/apperr"
)

// state is the immutable snapshot swapped atomically on every mutation,
// giving readers a consistent copy-on-write view (spec §4.4, §5).
type state struct {
	profiles    map[string]Profile // by profile name
	configOwner map[string]string  // config identifier -> profile name
}

func emptyState() *state {
	return &state{profiles: map[string]Profile{}, configOwner: map[string]string{}}
}

// Store manages Profile records under a single-writer, copy-on-write
// discipline (spec §4.4).
type Store struct {
	mu    sync.Mutex // serializes writers; readers never block on it
	cur   atomic.Pointer[state]
}

// NewStore returns an empty Store.
func NewStore() *Store {
	s := &Store{}
	s.cur.Store(emptyState())
	return s
}

func (s *Store) snapshot() *state { return s.cur.Load() }

// RegisterProfile adds a new Profile, failing with apperr.ErrDuplicateName if
// a profile with the same name exists, or a *apperr.ValidationError if any
// of its configs collide with an identifier already owned by another
// profile (spec §4.4 invariant: "config identifiers globally unique within
// the store").
func (s *Store) RegisterProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snapshot()
	if _, exists := cur.profiles[p.Name]; exists {
		return fmt.Errorf("%w: profile %q", apperr.ErrDuplicateName, p.Name)
	}
	for _, c := range p.Configs {
		if owner, exists := cur.configOwner[c.Identifier]; exists {
			return apperr.Validationf("config.identifier", "identifier %q already owned by profile %q", c.Identifier, owner)
		}
	}

	next := &state{
		profiles:    cloneProfileMap(cur.profiles),
		configOwner: cloneOwnerMap(cur.configOwner),
	}
	next.profiles[p.Name] = cloneProfile(p)
	for _, c := range p.Configs {
		next.configOwner[c.Identifier] = p.Name
	}
	s.cur.Store(next)
	return nil
}

// UpdateProfile passes a clone of the named profile to mutator and, only if
// mutator succeeds and the result validates (no identifier collisions with
// configs owned by other profiles), atomically replaces the original (spec
// §4.4: "Mutators receive a clone; the original is replaced atomically only
// if validation passes").
func (s *Store) UpdateProfile(name string, mutator func(Profile) (Profile, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snapshot()
	existing, ok := cur.profiles[name]
	if !ok {
		return fmt.Errorf("%w: %q", apperr.ErrUnknownProfile, name)
	}

	updated, err := mutator(cloneProfile(existing))
	if err != nil {
		return err
	}
	if updated.Name != name {
		return apperr.Validationf("profile.name", "mutator may not rename profile %q to %q", name, updated.Name)
	}

	seen := map[string]struct{}{}
	for _, c := range updated.Configs {
		if _, dup := seen[c.Identifier]; dup {
			return apperr.Validationf("config.identifier", "duplicate identifier %q within profile %q", c.Identifier, name)
		}
		seen[c.Identifier] = struct{}{}
		if owner, exists := cur.configOwner[c.Identifier]; exists && owner != name {
			return apperr.Validationf("config.identifier", "identifier %q already owned by profile %q", c.Identifier, owner)
		}
	}

	next := &state{
		profiles:    cloneProfileMap(cur.profiles),
		configOwner: cloneOwnerMap(cur.configOwner),
	}
	for id, owner := range next.configOwner {
		if owner == name {
			delete(next.configOwner, id)
		}
	}
	next.profiles[name] = cloneProfile(updated)
	for _, c := range updated.Configs {
		next.configOwner[c.Identifier] = name
	}
	s.cur.Store(next)
	return nil
}

// RemoveProfile deletes a profile and every config it owned.
func (s *Store) RemoveProfile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snapshot()
	if _, ok := cur.profiles[name]; !ok {
		return fmt.Errorf("%w: %q", apperr.ErrUnknownProfile, name)
	}
	next := &state{
		profiles:    cloneProfileMap(cur.profiles),
		configOwner: cloneOwnerMap(cur.configOwner),
	}
	delete(next.profiles, name)
	for id, owner := range next.configOwner {
		if owner == name {
			delete(next.configOwner, id)
		}
	}
	s.cur.Store(next)
	return nil
}

// RemoveConfig deletes a single config by identifier, wherever it lives.
func (s *Store) RemoveConfig(identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snapshot()
	owner, ok := cur.configOwner[identifier]
	if !ok {
		return fmt.Errorf("%w: %q", apperr.ErrUnknownConfig, identifier)
	}
	p := cloneProfile(cur.profiles[owner])
	filtered := p.Configs[:0]
	for _, c := range p.Configs {
		if c.Identifier != identifier {
			filtered = append(filtered, c)
		}
	}
	p.Configs = filtered

	next := &state{
		profiles:    cloneProfileMap(cur.profiles),
		configOwner: cloneOwnerMap(cur.configOwner),
	}
	next.profiles[owner] = p
	delete(next.configOwner, identifier)
	s.cur.Store(next)
	return nil
}

// FindConfig resolves a config by identifier.
func (s *Store) FindConfig(identifier string) (Pair, bool) {
	cur := s.snapshot()
	owner, ok := cur.configOwner[identifier]
	if !ok {
		return Pair{}, false
	}
	p := cur.profiles[owner]
	for _, c := range p.Configs {
		if c.Identifier == identifier {
			return Pair{Profile: cloneProfile(p), Config: cloneConfig(c)}, true
		}
	}
	return Pair{}, false
}

// SuggestConfig returns the closest-matching known identifiers for a typo'd
// lookup, using fuzzy subsequence matching. It is a developer ergonomics
// aid for apperr.ErrUnknownConfig, not part of the core contract.
func (s *Store) SuggestConfig(identifier string, limit int) []string {
	cur := s.snapshot()
	candidates := make([]string, 0, len(cur.configOwner))
	for id := range cur.configOwner {
		candidates = append(candidates, id)
	}
	sort.Strings(candidates) // deterministic input order for equal-scoring matches
	matches := fuzzy.Find(identifier, candidates)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = candidates[m.Index]
	}
	return out
}

// ApplicableProfiles returns profiles whose tags are a subset of tags.
func (s *Store) ApplicableProfiles(tags []string) []Profile {
	in := tagSet(tags...)
	cur := s.snapshot()
	names := make([]string, 0, len(cur.profiles))
	for name := range cur.profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Profile, 0, len(names))
	for _, name := range names {
		p := cur.profiles[name]
		if subsetOf(p.Tags, in) {
			out = append(out, cloneProfile(p))
		}
	}
	return out
}

// MatchingConfigs returns (Profile, ProfileConfig) pairs from applicable
// profiles whose Path equals relativePath or whose PathGlob matches it.
// Path comparison normalizes both sides to POSIX separators (spec §4.4).
func (s *Store) MatchingConfigs(tags []string, relativePath string) []Pair {
	normalized := toPOSIX(relativePath)
	var out []Pair
	for _, p := range s.ApplicableProfiles(tags) {
		for _, c := range p.Configs {
			if matchesPath(c, normalized) {
				out = append(out, Pair{Profile: cloneProfile(p), Config: cloneConfig(c)})
			}
		}
	}
	return out
}

func matchesPath(c ProfileConfig, normalizedPath string) bool {
	if c.Path != "" && toPOSIX(c.Path) == normalizedPath {
		return true
	}
	if c.PathGlob != "" {
		ok, err := path.Match(toPOSIX(c.PathGlob), normalizedPath)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func toPOSIX(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func cloneProfileMap(in map[string]Profile) map[string]Profile {
	out := make(map[string]Profile, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneOwnerMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
