package diffcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/techjoec/driftbuster/internal/diff"
	"github.com/techjoec/driftbuster/internal/logging"
)

// DefaultByteBudget is the default total size the cache's values may occupy
// before LRU eviction kicks in (spec §4.9, "default 512 MiB").
const DefaultByteBudget = 512 * humanize.MiByte

// DefaultMaxAge is the default time-based eviction horizon (spec §4.9,
// "default 30 days").
const DefaultMaxAge = 30 * 24 * time.Hour

// entry is one cache slot, persisted to disk as part of the index.
type entry struct {
	Key        string     `json:"key"`
	HostID     string     `json:"host_id"`
	Result     diff.Result `json:"result"`
	Bytes      int64      `json:"bytes"`
	StoredAt   time.Time  `json:"stored_at"`
	LastAccess time.Time  `json:"last_access"`
}

// Store is a file-backed, content-addressed DiffResult cache (spec §4.9).
// get/put are safe under concurrent orchestrator tasks; put is atomic via a
// temp-file-then-rename, the same durability shape internal/hunt's JSONStore
// uses for token approvals.
type Store struct {
	mu         sync.Mutex
	path       string
	byteBudget int64
	maxAge     time.Duration
	clock      func() time.Time
	logger     *logging.Logger
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithByteBudget overrides the default 512 MiB total value-size budget.
func WithByteBudget(budget int64) Option {
	return func(s *Store) { s.byteBudget = budget }
}

// WithMaxAge overrides the default 30-day time-based eviction horizon. Zero
// disables time-based eviction entirely.
func WithMaxAge(d time.Duration) Option {
	return func(s *Store) { s.maxAge = d }
}

// withClock overrides time.Now for deterministic tests.
func withClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger attaches a logger for eviction reporting.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore opens (without yet creating) a file-backed cache at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		byteBudget: DefaultByteBudget,
		maxAge:     DefaultMaxAge,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) load() (map[string]entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	out := make(map[string]entry, len(entries))
	for _, e := range entries {
		out[e.Key] = e
	}
	return out, nil
}

func (s *Store) save(entries map[string]entry) error {
	ordered := make([]entry, 0, len(entries))
	for _, e := range entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Key < ordered[j].Key })

	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".diffcache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Get returns the cached DiffResult for key, or ok=false on a miss. A miss
// covers both "never stored" and "stored under a colliding hash with
// different inputs" — the cache never falls back to content comparison
// (spec §4.9 invariant); it simply never stores two different inputs under
// one key string in the first place, since the key string is itself
// content-addressed.
func (s *Store) Get(key Key) (diff.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return diff.Result{}, false, err
	}
	e, ok := entries[key.String()]
	if !ok {
		return diff.Result{}, false, nil
	}
	if s.maxAge > 0 && s.clock().Sub(e.StoredAt) > s.maxAge {
		delete(entries, key.String())
		_ = s.save(entries)
		return diff.Result{}, false, nil
	}
	e.LastAccess = s.clock()
	entries[key.String()] = e
	if err := s.save(entries); err != nil {
		return diff.Result{}, false, err
	}
	return e.Result, true, nil
}

// Put stores result under key, then evicts by byte budget (LRU) and age.
func (s *Store) Put(key Key, result diff.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	now := s.clock()
	entries[key.String()] = entry{
		Key:        key.String(),
		HostID:     key.HostID,
		Result:     result,
		Bytes:      approximateSize(result),
		StoredAt:   now,
		LastAccess: now,
	}
	s.evictLocked(entries)
	return s.save(entries)
}

// InvalidateByPrefix drops every entry whose host_id matches, for use when a
// single host's run needs its cached diffs discarded without touching peers.
func (s *Store) InvalidateByPrefix(hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	for k, e := range entries {
		if e.HostID == hostID {
			delete(entries, k)
		}
	}
	return s.save(entries)
}

// Clear discards every cached entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(map[string]entry{})
}

// evictLocked removes entries, oldest-accessed first, until the remaining
// total is within the byte budget, and separately drops anything already
// past the age horizon. Callers must hold s.mu.
func (s *Store) evictLocked(entries map[string]entry) {
	if s.maxAge > 0 {
		now := s.clock()
		for k, e := range entries {
			if now.Sub(e.StoredAt) > s.maxAge {
				delete(entries, k)
			}
		}
	}

	if s.byteBudget <= 0 {
		return
	}
	var total int64
	for _, e := range entries {
		total += e.Bytes
	}
	if total <= s.byteBudget {
		return
	}

	ordered := make([]entry, 0, len(entries))
	for _, e := range entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].LastAccess.Equal(ordered[j].LastAccess) {
			return ordered[i].Key < ordered[j].Key
		}
		return ordered[i].LastAccess.Before(ordered[j].LastAccess)
	})
	for _, e := range ordered {
		if total <= s.byteBudget {
			break
		}
		delete(entries, e.Key)
		total -= e.Bytes
		if s.logger != nil {
			s.logger.Warn(e.HostID, "evicted diff cache entry (%s) to stay within %s budget",
				e.Key, humanize.IBytes(uint64(s.byteBudget)))
		}
	}
}

// approximateSize estimates a DiffResult's on-disk footprint from its text
// fields, which dominate its size; it needs only to be consistent enough for
// relative LRU-budget comparisons, not byte-exact.
func approximateSize(r diff.Result) int64 {
	size := len(r.CanonicalBefore) + len(r.CanonicalAfter) + len(r.DiffText)
	for _, red := range r.Redactions {
		size += len(red.TokenName) + len(red.Placeholder)
	}
	return int64(size)
}

