package diffcache

import (
	"path/filepath"
	"testing"
	"time"

	digest "github.com/opencontainers/go-digest"

	"github.com/techjoec/driftbuster/internal/diff"
)

func testKey(hostID, configID string) Key {
	return Key{
		HostID:              hostID,
		ConfigID:            configID,
		RootSig:             "root-sig",
		InputHashBefore:     HashInput("before"),
		InputHashAfter:      HashInput("after"),
		RedactorFingerprint: digest.FromString("no-rules"),
	}
}

func TestStore_PutThenGetRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "cache.json"))

	key := testKey("host-a", "config-1")
	want := diff.Result{CanonicalBefore: "a", CanonicalAfter: "b", DiffText: "-a\n+b\n"}

	if err := s.Put(key, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected a hit")
	}
	if got.DiffText != want.DiffText {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestStore_GetMissOnUnknownKey(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "cache.json"))

	_, ok, err := s.Get(testKey("host-a", "config-1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss on an empty store")
	}
}

func TestStore_DifferentInputHashIsADistinctKey(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "cache.json"))

	k1 := testKey("host-a", "config-1")
	k2 := k1
	k2.InputHashAfter = HashInput("different-after")

	if err := s.Put(k1, diff.Result{DiffText: "k1"}); err != nil {
		t.Fatalf("put k1: %v", err)
	}
	_, ok, err := s.Get(k2)
	if err != nil {
		t.Fatalf("get k2: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss for a colliding-but-different key, no content fallback allowed")
	}
}

func TestStore_InvalidateByPrefixDropsOnlyThatHost(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "cache.json"))

	ka := testKey("host-a", "config-1")
	kb := testKey("host-b", "config-1")
	if err := s.Put(ka, diff.Result{DiffText: "a"}); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := s.Put(kb, diff.Result{DiffText: "b"}); err != nil {
		t.Fatalf("put b: %v", err)
	}

	if err := s.InvalidateByPrefix("host-a"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, ok, _ := s.Get(ka); ok {
		t.Fatalf("expected host-a entry to be gone")
	}
	if _, ok, _ := s.Get(kb); !ok {
		t.Fatalf("expected host-b entry to survive")
	}
}

func TestStore_ClearDropsEverything(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "cache.json"))

	if err := s.Put(testKey("host-a", "config-1"), diff.Result{DiffText: "a"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := s.Get(testKey("host-a", "config-1")); ok {
		t.Fatalf("expected an empty store after clear")
	}
}

func TestStore_ByteBudgetEvictsLeastRecentlyAccessed(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(filepath.Join(dir, "cache.json"),
		WithByteBudget(50),
		WithMaxAge(0),
		withClock(func() time.Time { return now }),
	)

	longText := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'x'
		}
		return string(b)
	}

	k1 := testKey("host-a", "config-1")
	k2 := testKey("host-a", "config-2")

	if err := s.Put(k1, diff.Result{DiffText: longText(30)}); err != nil {
		t.Fatalf("put k1: %v", err)
	}
	now = now.Add(time.Minute)
	if _, ok, err := s.Get(k1); err != nil || !ok {
		t.Fatalf("get k1: ok=%v err=%v", ok, err)
	}
	now = now.Add(time.Minute)
	if err := s.Put(k2, diff.Result{DiffText: longText(30)}); err != nil {
		t.Fatalf("put k2: %v", err)
	}

	// k1 was last accessed (via Get) at t+1m and k2 was written at t+2m.
	// With a 50-byte budget and two 30-byte entries one must go: the
	// least-recently-accessed k1 is evicted and k2 survives.
	_, okK1, _ := s.Get(k1)
	_, okK2, _ := s.Get(k2)
	if okK1 || !okK2 {
		t.Fatalf("expected k1 evicted and k2 kept, got k1=%v k2=%v", okK1, okK2)
	}
}

func TestStore_MaxAgeEvictsStaleEntries(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(filepath.Join(dir, "cache.json"),
		WithMaxAge(time.Hour),
		withClock(func() time.Time { return now }),
	)

	key := testKey("host-a", "config-1")
	if err := s.Put(key, diff.Result{DiffText: "a"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = now.Add(2 * time.Hour)
	_, ok, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected the entry to have aged out")
	}
}

func TestHashInput_StableAndSensitiveToContent(t *testing.T) {
	if HashInput("same") != HashInput("same") {
		t.Fatalf("expected HashInput to be stable")
	}
	if HashInput("a") == HashInput("b") {
		t.Fatalf("expected different content to hash differently")
	}
}
